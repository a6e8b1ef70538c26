// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	errorsfeature "github.com/skilltree/skills-service/internal/app/features/errors"
	healthfeature "github.com/skilltree/skills-service/internal/app/features/health"
	loginfeature "github.com/skilltree/skills-service/internal/app/features/login"
	logoutfeature "github.com/skilltree/skills-service/internal/app/features/logout"
	userinfofeature "github.com/skilltree/skills-service/internal/app/features/userinfo"
	"github.com/skilltree/skills-service/internal/app/system/auth"
	"github.com/skilltree/skills-service/internal/app/system/autoconfig"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// What gets mounted follows the auto-configuration exclusions: the session
// middleware and /logout only exist with the session module (/login also
// needs auth_proxy_headers), and HTML error pages only with the
// error-pages module. JSON 404/405 responses are
// always on.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	ex := appCfg.Exclusions

	errorsHandler, err := errorsfeature.NewHandler(ex.Enabled(autoconfig.ErrorPages), logger)
	if err != nil {
		logger.Error("error pages init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(errorsHandler.Recoverer)

	var sessionMgr *auth.SessionManager
	if deps.SessionStore != nil {
		sessionMgr, err = auth.NewSessionManager(deps.SessionStore, appCfg.SessionName, logger)
		if err != nil {
			logger.Error("session manager init failed", zap.Error(err))
			return nil, err
		}
		// Global auth middleware: loads SessionUser into context if logged in.
		r.Use(sessionMgr.LoadSessionUser)
	}

	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	var redisPinger healthfeature.Pinger
	if deps.Redis != nil {
		redisPinger = healthfeature.RedisPinger(deps.Redis)
	}
	healthHandler := healthfeature.NewHandler(healthfeature.MongoPinger(deps.MongoClient), redisPinger, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	userinfofeature.MountRoutes(r, userinfofeature.NewHandler(sessionMgr != nil))

	if sessionMgr != nil {
		if appCfg.AuthProxyHeaders {
			loginHandler := loginfeature.NewHandler(sessionMgr, logger)
			r.Mount("/login", loginfeature.Routes(loginHandler))
		}
		logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
		r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))
	}

	// Error pages
	if errorsHandler.HTMLPages() {
		r.Get("/forbidden", errorsHandler.Forbidden)
		r.Get("/unauthorized", errorsHandler.Unauthorized)
	}

	return r, nil
}
