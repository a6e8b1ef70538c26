// internal/exampleapp/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/dalemusser/waffle/config"
	"github.com/skilltree/skills-service/internal/app/system/hostverify"
	"go.uber.org/zap"
)

// EnvPrefix is the environment prefix for the example service.
const EnvPrefix = "SKILLS_EXAMPLE"

// AppConfig holds the example service's settings.
type AppConfig struct {
	ServiceURL              string // Base URL of the skills service
	ClientID                string // OAuth2 client registered with the skills service
	ClientSecret            string
	DisableHostnameVerifier bool
	RateLimitPerMinute      int  // Token requests per client IP per minute; 0 disables
	TrustProxyHeaders       bool // Take the client IP from X-Forwarded-For / X-Real-IP
}

var appConfigKeys = []config.AppKey{
	{Name: "service_url", Default: "http://localhost:8080", Desc: "Skills service base URL"},
	{Name: "client_id", Default: "", Desc: "OAuth2 client ID registered with the skills service"},
	{Name: "client_secret", Default: "", Desc: "OAuth2 client secret"},
	{Name: "disable_hostname_verifier", Default: false, Desc: "Skip TLS host name checks on outbound connections (chain is still verified)"},
	{Name: "rate_limit_per_minute", Default: 60, Desc: "Token requests allowed per client IP per minute (0 disables)"},
	{Name: "trust_proxy_headers", Default: false, Desc: "Rate limit on X-Forwarded-For / X-Real-IP (only behind a proxy that sets them)"},
}

// LoadConfig loads WAFFLE core config and the example app keys
// (SKILLS_EXAMPLE_* in the environment).
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		ServiceURL:              appValues.String("service_url"),
		ClientID:                appValues.String("client_id"),
		ClientSecret:            appValues.String("client_secret"),
		DisableHostnameVerifier: appValues.Bool("disable_hostname_verifier"),
		RateLimitPerMinute:      appValues.Int("rate_limit_per_minute"),
		TrustProxyHeaders:       appValues.Bool("trust_proxy_headers"),
	}

	if appCfg.DisableHostnameVerifier && !hostverify.Disabled() {
		hostverify.Disable(logger)
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig requires an absolute http(s) service URL and client credentials.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	u, err := url.Parse(appCfg.ServiceURL)
	if err != nil {
		return fmt.Errorf("invalid service_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid service_url %q: must be an absolute http(s) URL", appCfg.ServiceURL)
	}
	if appCfg.ClientID == "" || appCfg.ClientSecret == "" {
		return errors.New("client_id and client_secret are required")
	}
	if appCfg.RateLimitPerMinute < 0 {
		return errors.New("rate_limit_per_minute must not be negative")
	}
	return nil
}
