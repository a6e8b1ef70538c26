// Package launch runs the process-level steps that must happen before the
// application container starts: fixing the timezone, loading secrets and
// relaxing TLS host name verification when asked to.
//
// Each step runs once, in order, on the main goroutine. Any error is
// returned to main, which treats it as fatal.
package launch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/skilltree/skills-service/internal/app/system/hostverify"
	"github.com/skilltree/skills-service/internal/app/system/secrets"
	"go.uber.org/zap"
)

// Options selects the steps of a launch.
type Options struct {
	// EnvPrefix is the app's environment prefix ("SKILLS").
	EnvPrefix string
	// ForceUTC pins the process timezone to UTC before anything else.
	ForceUTC bool
	// Secrets loads secrets into the environment. Defaults to a
	// secrets.Loader for EnvPrefix when nil.
	Secrets SecretsLoader
	// Getenv reads the hostname-verifier flag. Defaults to os.Getenv.
	Getenv func(string) string
}

// SecretsLoader is implemented by *secrets.Loader.
type SecretsLoader interface {
	Load(logger *zap.Logger) ([]string, error)
}

// Runner is the application container entry point, e.g. waffle's app.Run
// bound to the app's hooks.
type Runner func(ctx context.Context) error

// Prepare runs the pre-container steps.
func Prepare(opts Options, logger *zap.Logger) error {
	if opts.ForceUTC {
		if err := ForceUTC(); err != nil {
			return fmt.Errorf("set UTC timezone: %w", err)
		}
		logger.Info("process timezone set", zap.String("tz", time.Local.String()))
	}

	loader := opts.Secrets
	if loader == nil {
		loader = secrets.NewLoader(opts.EnvPrefix)
	}
	if _, err := loader.Load(logger); err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}

	// Read after secrets so the flag can come from a secrets file.
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if hostverify.Enabled(opts.EnvPrefix, getenv) {
		hostverify.Disable(logger)
	}

	return nil
}

// Run prepares the process and hands control to the container.
func Run(ctx context.Context, opts Options, logger *zap.Logger, run Runner) error {
	if err := Prepare(opts, logger); err != nil {
		return err
	}
	return run(ctx)
}

// ForceUTC makes UTC the local timezone of the process. TZ is exported as
// well so child processes and cgo-resolved time agree.
func ForceUTC() error {
	time.Local = time.UTC
	return os.Setenv("TZ", "UTC")
}
