package main

import (
	"context"
	"log"

	"github.com/dalemusser/waffle/app"
	"github.com/skilltree/skills-service/internal/app/system/launch"
	"github.com/skilltree/skills-service/internal/exampleapp/bootstrap"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	// The example service keeps the host timezone.
	opts := launch.Options{EnvPrefix: bootstrap.EnvPrefix}
	err = launch.Run(context.Background(), opts, logger, func(ctx context.Context) error {
		return app.Run(ctx, bootstrap.Hooks)
	})
	if err != nil {
		logger.Error("skills example service exited", zap.Error(err))
		log.Fatal(err)
	}
}
