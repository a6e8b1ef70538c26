// internal/exampleapp/features/token/handler.go
package token

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenPath is appended to the skills service URL to reach its token endpoint.
const TokenPath = "/oauth/token"

// Handler proxies client-credentials token requests to the skills service
// on behalf of a user.
type Handler struct {
	base    clientcredentials.Config
	Client  *http.Client
	Timeout time.Duration
	Log     *zap.Logger
}

// NewHandler builds a Handler for the skills service at serviceURL. client
// carries the TLS settings used to reach it.
func NewHandler(serviceURL, clientID, clientSecret string, client *http.Client, logger *zap.Logger) *Handler {
	return &Handler{
		base: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     strings.TrimRight(serviceURL, "/") + TokenPath,
		},
		Client:  client,
		Timeout: 10 * time.Second,
		Log:     logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// ServeToken handles GET /api/users/{user}/token.
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	user := strings.TrimSpace(chi.URLParam(r, "user"))
	if user == "" {
		writeError(w, http.StatusBadRequest, "user is required")
		return
	}

	tok, err := h.Token(r.Context(), user)
	if err != nil {
		h.Log.Warn("token request failed", zap.String("user", user), zap.Error(err))
		writeError(w, http.StatusBadGateway, "skills service token request failed")
		return
	}

	resp := tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.Type(),
	}
	if !tok.Expiry.IsZero() {
		resp.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(resp)
}

// Token fetches a token for user. Each call goes to the token endpoint;
// tokens are user-specific and not cached here.
func (h *Handler) Token(ctx context.Context, user string) (*oauth2.Token, error) {
	cfg := h.base
	cfg.EndpointParams = url.Values{"proxy_user": {user}}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	if h.Client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, h.Client)
	}
	return cfg.Token(ctx)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
