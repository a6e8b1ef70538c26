// Package timeouts provides centralized timeout values for backend calls.
//
// These timeouts are used with context.WithTimeout around MongoDB and
// Redis operations made during startup, health checks and shutdown.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Connect: establishing a backend connection at startup
//   - Schema: index creation and other one-time setup
package timeouts

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if Configure is not called).
const (
	DefaultPing    = 2 * time.Second
	DefaultConnect = 10 * time.Second
	DefaultSchema  = 30 * time.Second
)

// mu protects all timeout values from concurrent access.
var mu sync.RWMutex

var (
	ping    = DefaultPing
	connect = DefaultConnect
	schema  = DefaultSchema
)

// Ping returns the timeout for health checks and connectivity verification.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Connect returns the timeout for connecting to a backend at startup.
func Connect() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return connect
}

// Schema returns the timeout for index creation.
func Schema() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return schema
}

// Config holds timeout configuration values.
// Zero values are ignored (defaults are kept).
type Config struct {
	Ping    time.Duration
	Connect time.Duration
	Schema  time.Duration
}

// Configure sets custom timeout values. Zero values in the config are
// ignored. Call it during startup before handlers are registered.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Connect > 0 {
		connect = cfg.Connect
	}
	if cfg.Schema > 0 {
		schema = cfg.Schema
	}
}

// Reset restores all timeouts to their default values.
// Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	connect = DefaultConnect
	schema = DefaultSchema
}

// ConfigureFromEnv reads <prefix>_TIMEOUT_PING, _CONNECT and _SCHEMA
// (e.g. "2s", "500ms"). Unset or invalid values are skipped with a
// warning. Returns the number of timeouts configured.
func ConfigureFromEnv(prefix string, logger *zap.Logger) int {
	var cfg Config
	configured := 0
	for name, dst := range map[string]*time.Duration{
		"PING":    &cfg.Ping,
		"CONNECT": &cfg.Connect,
		"SCHEMA":  &cfg.Schema,
	} {
		key := prefix + "_TIMEOUT_" + name
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			logger.Warn("ignoring invalid timeout", zap.String("key", key), zap.String("value", v))
			continue
		}
		*dst = d
		configured++
	}
	Configure(cfg)
	return configured
}

// Current returns the current timeout configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Connect: connect, Schema: schema}
}
