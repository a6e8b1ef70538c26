// internal/exampleapp/bootstrap/routes.go
package bootstrap

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/skilltree/skills-service/internal/app/system/ratelimit"
	"github.com/skilltree/skills-service/internal/exampleapp/features/token"
	"go.uber.org/zap"
)

// BuildHandler mounts the token proxy and a liveness endpoint. Token
// requests are throttled per client IP when a limiter is configured. The
// IP is the connection's peer unless trust_proxy_headers is set.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	tokenHandler := token.NewHandler(appCfg.ServiceURL, appCfg.ClientID, appCfg.ClientSecret, deps.SkillsClient, logger)
	r.Group(func(pr chi.Router) {
		if deps.Limiter != nil {
			if appCfg.TrustProxyHeaders {
				pr.Use(middleware.RealIP)
			}
			pr.Use(ratelimit.Middleware(deps.Limiter, nil))
		}
		pr.Mount("/api/users", token.Routes(tokenHandler))
	})

	return r, nil
}
