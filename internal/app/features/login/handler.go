// internal/app/features/login/handler.go
package login

import (
	"net/http"
	"strings"

	"github.com/skilltree/skills-service/internal/app/system/auth"
	"go.uber.org/zap"
)

// Identity headers set by the authenticating proxy in front of the service.
// The proxy must strip any client-supplied copies.
const (
	HeaderUserID   = "X-User-ID"
	HeaderEmail    = "X-User-Email"
	HeaderUsername = "X-User-Username"
	HeaderRole     = "X-User-Role"
)

// AfterLoginPath is where a successful sign-in lands.
const AfterLoginPath = "/api/user"

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// ServeLogin handles GET /login. It turns the proxy's identity headers into
// a session so later requests carry the user in the cookie alone.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	u := auth.SessionUser{
		ID:    id,
		Name:  strings.TrimSpace(r.Header.Get(HeaderUsername)),
		Email: strings.TrimSpace(r.Header.Get(HeaderEmail)),
		Role:  strings.TrimSpace(r.Header.Get(HeaderRole)),
	}
	if err := h.SessionMgr.SignIn(w, r, u); err != nil {
		h.Log.Error("login: save session", zap.String("user_id", id), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.Log.Info("user signed in", zap.String("user_id", id))

	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", AfterLoginPath)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, AfterLoginPath, http.StatusSeeOther)
}
