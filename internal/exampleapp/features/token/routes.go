// internal/exampleapp/features/token/routes.go
package token

import "github.com/go-chi/chi/v5"

// Routes mounts GET /{user}/token; the caller mounts it under /api/users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{user}/token", h.ServeToken)
	return r
}
