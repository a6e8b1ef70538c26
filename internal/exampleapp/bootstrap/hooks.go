// internal/exampleapp/bootstrap/hooks.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/app"
	"github.com/dalemusser/waffle/config"
	"github.com/skilltree/skills-service/internal/app/system/hostverify"
	"github.com/skilltree/skills-service/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Hooks wires the example service into WAFFLE's lifecycle.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "skills-example",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,
	EnsureSchema:   EnsureSchema,
	Startup:        Startup,
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}

// DBDeps holds the example service's back-end dependencies. It has no
// database; its only backend is the skills service.
type DBDeps struct {
	SkillsClient *http.Client
	// Limiter is nil when rate limiting is disabled.
	Limiter *ratelimit.Limiter
}

// ConnectDB builds the HTTP client used to reach the skills service. Its
// TLS config follows the hostname-verifier toggle.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps := DBDeps{SkillsClient: newSkillsClient()}
	if appCfg.RateLimitPerMinute > 0 {
		deps.Limiter = ratelimit.New(appCfg.RateLimitPerMinute, time.Minute)
	}
	return deps, nil
}

func newSkillsClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = hostverify.ClientTLSConfig()
	return &http.Client{Transport: transport, Timeout: 30 * time.Second}
}

// EnsureSchema has nothing to set up.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return nil
}

// Startup logs where tokens will be requested from.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("skills example configured",
		zap.String("service_url", appCfg.ServiceURL),
		zap.String("client_id", appCfg.ClientID),
		zap.Bool("hostname_verification", !hostverify.Disabled()))
	return nil
}

// Shutdown stops the limiter and drops idle connections to the skills service.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Limiter != nil {
		deps.Limiter.Stop()
	}
	if deps.SkillsClient != nil {
		deps.SkillsClient.CloseIdleConnections()
	}
	return nil
}
