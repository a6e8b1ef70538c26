package main

import (
	"context"
	"log"

	"github.com/dalemusser/waffle/app"
	"github.com/skilltree/skills-service/internal/app/bootstrap"
	"github.com/skilltree/skills-service/internal/app/system/launch"
	"go.uber.org/zap"
)

func main() {
	// WAFFLE builds the configured logger inside app.Run; the steps before
	// it log through a plain production logger.
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	opts := launch.Options{EnvPrefix: bootstrap.EnvPrefix, ForceUTC: true}
	err = launch.Run(context.Background(), opts, logger, func(ctx context.Context) error {
		return app.Run(ctx, bootstrap.Hooks)
	})
	if err != nil {
		logger.Error("skills service exited", zap.Error(err))
		log.Fatal(err)
	}
}
