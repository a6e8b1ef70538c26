// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// pageData is the view model for error responses, HTML or JSON.
type pageData struct {
	Status    int    `json:"status"`
	Title     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
	BackURL   string `json:"-"`
}

// Handler writes error responses. API callers always get JSON. HTML
// pages are served only when the error-pages module is enabled and the
// client asks for text/html.
type Handler struct {
	pages *template.Template
	log   *zap.Logger
}

// NewHandler constructs an errors Handler. htmlPages mirrors whether the
// error-pages module is wired.
func NewHandler(htmlPages bool, logger *zap.Logger) (*Handler, error) {
	h := &Handler{log: logger}
	if htmlPages {
		pages, err := parsePages()
		if err != nil {
			return nil, err
		}
		h.pages = pages
	}
	return h, nil
}

// HTMLPages reports whether HTML error pages are enabled.
func (h *Handler) HTMLPages() bool {
	return h.pages != nil
}

// NotFound is the router's 404 handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, http.StatusNotFound, "The requested resource does not exist.")
}

// MethodNotAllowed is the router's 405 handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, http.StatusMethodNotAllowed, "The method is not supported for this resource.")
}

// Forbidden renders an "access denied" response.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, http.StatusForbidden, "You don't have permission to view this page.")
}

// Unauthorized renders a "sign in required" response.
// GET /unauthorized
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	h.Render(w, r, http.StatusUnauthorized, "Please sign in to continue.")
}

// Recoverer turns panics into logged 500 responses.
func (h *Handler) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.log.Error("panic serving request",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path))
				h.Render(w, r, http.StatusInternalServerError, "An unexpected error occurred.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Render writes an error response with the given status.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request, status int, msg string) {
	data := pageData{
		Status:  status,
		Title:   http.StatusText(status),
		Message: msg,
		Path:    r.URL.Path,
		BackURL: "/",
	}
	if status >= http.StatusInternalServerError {
		data.RequestID = uuid.NewString()
		h.log.Error("request failed",
			zap.Int("status", status),
			zap.String("request_id", data.RequestID),
			zap.String("path", r.URL.Path))
	}

	if h.pages != nil && wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := h.pages.ExecuteTemplate(w, "error.gohtml", data); err != nil {
			h.log.Error("render error page", zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
