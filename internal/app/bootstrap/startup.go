// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"github.com/skilltree/skills-service/internal/app/system/hostverify"
	"github.com/skilltree/skills-service/internal/app/system/sessionstore"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// It publishes the auto-configuration decisions so they can be checked
// from /metrics and the startup log.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Metrics != nil {
		deps.Metrics.RecordModules(appCfg.Exclusions)
	}

	logger.Info("skills service configured",
		zap.String("session_store", string(sessionstore.KindFor(appCfg.Exclusions))),
		zap.Strings("excluded_modules", appCfg.Exclusions.Strings()),
		zap.Bool("hostname_verification", !hostverify.Disabled()))
	return nil
}
