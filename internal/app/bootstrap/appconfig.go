// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/skilltree/skills-service/internal/app/system/autoconfig"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). Secrets loaded before the
// container starts land in the environment and are picked up here like
// any other SKILLS_* variable.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig carries the backends, the session settings and the
// auto-configuration decisions computed from them.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB
	MongoTLS      bool   // Use the process TLS client config for MongoDB

	// Session management configuration
	SessionStoreType string        // "redis", "none", or anything else for the MongoDB store
	SessionKey       string        // Secret the cookie keys are derived from (at least 32 chars)
	SessionName      string        // Cookie name for sessions (default: skills-session)
	SessionDomain    string        // Cookie domain (blank means current host)
	SessionMaxAge    time.Duration // Cookie and store lifetime
	AuthProxyHeaders bool          // Trust X-User-* headers on /login (only behind a proxy that sets them)

	// Redis configuration (only used when the redis module is enabled)
	RedisAddr     string // host:port
	RedisPassword string
	RedisDB       int
	RedisPrefix   string // Key prefix for stored sessions
	RedisTLS      bool   // Use the process TLS client config for Redis

	// AutoconfigExclude is the base list of modules that are always
	// excluded, before the session store decisions are added.
	AutoconfigExclude string

	// DisableHostnameVerifier mirrors skills.disableHostnameVerifier.
	DisableHostnameVerifier bool

	// Exclusions is computed by LoadConfig from AutoconfigExclude and
	// SessionStoreType. It is not read from configuration directly.
	Exclusions autoconfig.Exclusions
}
