// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/skilltree/skills-service/internal/app/system/autoconfig"
	"github.com/skilltree/skills-service/internal/app/system/hostverify"
	"github.com/skilltree/skills-service/internal/app/system/sessionstore"
	"github.com/skilltree/skills-service/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// EnvPrefix is the environment prefix for the skills service.
const EnvPrefix = "SKILLS"

// appConfigKeys defines the configuration keys for the skills service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_store_type, etc.
//   - Environment variables: SKILLS_MONGO_URI, SKILLS_SESSION_STORE_TYPE, etc.
//   - Command-line flags: --mongo_uri, --session_store_type, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "skills", Desc: "MongoDB database name"},
	{Name: "mongo_tls", Default: false, Desc: "Connect to MongoDB over TLS using the process TLS settings"},

	// Sessions
	{Name: "session_store_type", Default: "", Desc: "Session store: 'redis', 'none', or blank for MongoDB"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session secret (at least 32 chars, must be strong in production)"},
	{Name: "session_name", Default: "skills-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session lifetime (e.g., 30m, 24h)"},
	{Name: "auth_proxy_headers", Default: false, Desc: "Mount /login, signing in the user named by X-User-* headers from the auth proxy"},

	// Redis
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis address (host:port)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
	{Name: "redis_prefix", Default: sessionstore.DefaultRedisPrefix, Desc: "Key prefix for Redis sessions"},
	{Name: "redis_tls", Default: false, Desc: "Connect to Redis over TLS using the process TLS settings"},

	// Auto-configuration
	{Name: "autoconfig_exclude", Default: autoconfig.DefaultBaseExclusions, Desc: "Comma-separated modules always excluded (redis, session, error-pages)"},

	// TLS
	{Name: "disable_hostname_verifier", Default: false, Desc: "Skip TLS host name checks on outbound connections (chain is still verified)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, SKILLS_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
//
// After loading, the session store type is turned into the set of
// excluded modules. An unknown name in autoconfig_exclude leaves the
// exclusions unset; ValidateConfig reports it.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),
		MongoTLS:      appValues.Bool("mongo_tls"),

		SessionStoreType: appValues.String("session_store_type"),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),
		AuthProxyHeaders: appValues.Bool("auth_proxy_headers"),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
		RedisPrefix:   appValues.String("redis_prefix"),
		RedisTLS:      appValues.Bool("redis_tls"),

		AutoconfigExclude:       appValues.String("autoconfig_exclude"),
		DisableHostnameVerifier: appValues.Bool("disable_hostname_verifier"),
	}

	// The flag is normally applied before the container starts. A value
	// that only appears in a config file is applied here, still before
	// any backend connection is made.
	if appCfg.DisableHostnameVerifier && !hostverify.Disabled() {
		hostverify.Disable(logger)
	}

	timeouts.ConfigureFromEnv(EnvPrefix, logger)

	if base, err := autoconfig.ParseModules(appCfg.AutoconfigExclude); err == nil {
		appCfg.Exclusions = autoconfig.Select(base, appCfg.SessionStoreType, logger)
		logger.Info("auto-configuration exclusions",
			zap.Strings("excluded", appCfg.Exclusions.Strings()),
			zap.String("session_store", string(sessionstore.KindFor(appCfg.Exclusions))))
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The checks follow the exclusions: a session key is only required when
// sessions are on, a Redis address only when Redis is on.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database is required")
	}

	if _, err := autoconfig.ParseModules(appCfg.AutoconfigExclude); err != nil {
		return fmt.Errorf("autoconfig_exclude: %w", err)
	}

	ex := appCfg.Exclusions
	if ex.Enabled(autoconfig.Session) {
		if len(appCfg.SessionKey) < sessionstore.MinSecretLength {
			return fmt.Errorf("session_key: %w", sessionstore.ErrShortSecret)
		}
		if appCfg.SessionName == "" {
			return errors.New("session_name is required when sessions are enabled")
		}
		if coreCfg != nil && coreCfg.Env == "prod" && appCfg.SessionKey == devSessionKey {
			return errors.New("session_key must be changed in production")
		}
	} else if appCfg.AuthProxyHeaders {
		return errors.New("auth_proxy_headers needs the session module")
	}

	if ex.Enabled(autoconfig.Redis) && appCfg.RedisAddr == "" {
		return errors.New("redis_addr is required when session_store_type is redis")
	}

	return nil
}

// devSessionKey is the default session_key; it is refused in production.
const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"
