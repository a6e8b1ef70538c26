// Package secrets lets operators pass configuration values through files
// instead of command-line flags or plain environment variables.
//
// Secrets are read before the application container starts and exported
// as environment variables under the app prefix, where the config layer
// picks them up like any other env setting. A variable that is already set
// in the environment is never overwritten.
//
// Sources, applied in this order (first writer wins):
//   - <PREFIX>_PROPS: inline "key=value,key=value" list
//   - <PREFIX>_SECRETS_FILE: YAML (.yaml/.yml) or dotenv/properties file
//   - <PREFIX>_SECRETS_DIR: one file per key (default /run/secrets)
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultDir is read when no secrets directory is configured and it exists.
const DefaultDir = "/run/secrets"

// aliases maps Spring-style property names onto config keys.
var aliases = map[string]string{
	"spring.session.store-type":        "session_store_type",
	"skills.disablehostnameverifier":   "disable_hostname_verifier",
	"skills.disable-hostname-verifier": "disable_hostname_verifier",
	"spring.data.redis.host":           "redis_addr",
	"spring.data.redis.password":       "redis_password",
	"spring.redis.password":            "redis_password",
}

// Loader reads secrets and exports them to the environment.
type Loader struct {
	// Prefix is the env prefix of the application, e.g. "SKILLS".
	Prefix string
	// DefaultDir overrides the package DefaultDir; tests point it elsewhere.
	DefaultDir string

	Getenv    func(string) string
	LookupEnv func(string) (string, bool)
	Setenv    func(string, string) error
}

// NewLoader returns a Loader bound to the process environment.
func NewLoader(prefix string) *Loader {
	return &Loader{
		Prefix:     prefix,
		DefaultDir: DefaultDir,
		Getenv:     os.Getenv,
		LookupEnv:  os.LookupEnv,
		Setenv:     os.Setenv,
	}
}

// Load reads every configured source and exports the values. It returns
// the names of the environment variables it set, sorted.
func (l *Loader) Load(logger *zap.Logger) ([]string, error) {
	values := make(map[string]string)

	if inline := l.Getenv(l.Prefix + "_PROPS"); inline != "" {
		props, err := ParseInline(inline)
		if err != nil {
			return nil, fmt.Errorf("parse %s_PROPS: %w", l.Prefix, err)
		}
		merge(values, props)
	}

	if path := l.Getenv(l.Prefix + "_SECRETS_FILE"); path != "" {
		fileValues, err := ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read secrets file: %w", err)
		}
		merge(values, fileValues)
	}

	dir := l.Getenv(l.Prefix + "_SECRETS_DIR")
	required := dir != ""
	if dir == "" {
		dir = l.DefaultDir
	}
	if dir != "" {
		dirValues, err := ReadDir(dir)
		switch {
		case err == nil:
			merge(values, dirValues)
		case errors.Is(err, fs.ErrNotExist) && !required:
			// default location absent; nothing to load
		default:
			return nil, fmt.Errorf("read secrets dir: %w", err)
		}
	}

	var applied []string
	for key, val := range values {
		name := EnvName(l.Prefix, key)
		if _, set := l.LookupEnv(name); set {
			continue
		}
		if err := l.Setenv(name, val); err != nil {
			return nil, fmt.Errorf("export %s: %w", name, err)
		}
		applied = append(applied, name)
	}
	sort.Strings(applied)

	logger.Info("secrets loaded",
		zap.Int("found", len(values)),
		zap.Int("applied", len(applied)))
	return applied, nil
}

// EnvName converts a property name into the environment variable the
// config layer reads. Known Spring-style names are translated first.
func EnvName(prefix, key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if alias, ok := aliases[k]; ok {
		k = alias
	}
	k = strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(k))
	if strings.HasPrefix(k, prefix+"_") {
		return k
	}
	return prefix + "_" + k
}

// ParseInline parses "key=value,key=value". Values may contain '='.
func ParseInline(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, val, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("malformed pair %q", pair)
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	return out, nil
}

// ReadFile reads a YAML or dotenv secrets file, chosen by extension.
func ReadFile(path string) (map[string]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		out := make(map[string]string)
		flatten("", doc, out)
		return out, nil
	default:
		return godotenv.Read(path)
	}
}

// ReadDir reads one secret per regular file. Hidden files are skipped
// (Kubernetes mounts keep ..data symlinks there).
func ReadDir(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		out[e.Name()] = strings.TrimSpace(string(data))
	}
	return out, nil
}

func flatten(prefix string, v any, out map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, child, out)
		}
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(t)
	}
}

// merge copies src into dst without replacing existing keys.
func merge(dst, src map[string]string) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}
