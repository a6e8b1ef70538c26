// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/skilltree/skills-service/internal/app/system/indexes"
	"github.com/skilltree/skills-service/internal/app/system/sessionstore"
	"github.com/skilltree/skills-service/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// EnsureSchema sets up indexes or schema as needed.
//
// Only the MongoDB session store owns a collection; its TTL index is what
// expires abandoned sessions.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.SessionStore == nil || deps.SessionStore.Kind() != sessionstore.KindMongo {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Schema())
	defer cancel()

	if err := indexes.EnsureSessions(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("session index setup failed", zap.Error(err))
		return fmt.Errorf("ensure session indexes: %w", err)
	}
	return nil
}
