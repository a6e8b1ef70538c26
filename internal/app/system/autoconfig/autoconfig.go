// Package autoconfig decides which optional modules are wired at startup.
//
// The application container always builds its core (config, MongoDB, the
// router). Everything else is a Module that can be excluded. Exclusions are
// computed once, before any backend is connected, from the configured base
// set and the session store type. After startup the set is read-only.
package autoconfig

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Module names an optional component of the application.
type Module string

const (
	// Redis is the Redis client and the Redis-backed session store.
	Redis Module = "redis"
	// Session is the server-side session store and session middleware.
	Session Module = "session"
	// ErrorPages is the HTML error page renderer.
	ErrorPages Module = "error-pages"
)

// Session store types recognised by Select. Matching is case-insensitive.
const (
	StoreRedis = "redis"
	StoreNone  = "none"
)

// DefaultBaseExclusions is the base set used when none is configured.
// Error pages are off by default; API callers get JSON errors.
const DefaultBaseExclusions = "error-pages"

// ErrUnknownModule is returned by ParseModules for names that are not a Module.
var ErrUnknownModule = errors.New("unknown module")

var known = map[Module]struct{}{
	Redis:      {},
	Session:    {},
	ErrorPages: {},
}

// Exclusions is the set of modules that must not be wired.
type Exclusions struct {
	set map[Module]struct{}
}

// NewExclusions returns a set holding the given modules.
func NewExclusions(mods ...Module) Exclusions {
	e := Exclusions{set: make(map[Module]struct{}, len(mods))}
	for _, m := range mods {
		e.set[m] = struct{}{}
	}
	return e
}

// Has reports whether m is excluded.
func (e Exclusions) Has(m Module) bool {
	_, ok := e.set[m]
	return ok
}

// Enabled reports whether m is wired.
func (e Exclusions) Enabled(m Module) bool {
	return !e.Has(m)
}

// List returns the excluded modules in sorted order.
func (e Exclusions) List() []Module {
	out := make([]Module, 0, len(e.set))
	for m := range e.set {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings is List as plain strings, for logging.
func (e Exclusions) Strings() []string {
	mods := e.List()
	out := make([]string, len(mods))
	for i, m := range mods {
		out[i] = string(m)
	}
	return out
}

// Known returns every module name the selector understands, sorted.
func Known() []Module {
	return NewExclusions(Redis, Session, ErrorPages).List()
}

// ParseModules parses a comma-separated list of module names.
// Blank entries are skipped; names are matched case-insensitively.
func ParseModules(list string) ([]Module, error) {
	var mods []Module
	for _, part := range strings.Split(list, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		m := Module(name)
		if _, ok := known[m]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModule, part)
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// Select computes the exclusions for a session store type.
//
// Redis is excluded unless storeType is "redis". Session is additionally
// excluded when storeType is "none". base is copied, never modified.
func Select(base []Module, storeType string, logger *zap.Logger) Exclusions {
	e := NewExclusions(base...)

	if !strings.EqualFold(storeType, StoreRedis) {
		e.set[Redis] = struct{}{}
	} else {
		logger.Info("enabling Redis auto-configuration")
	}

	if strings.EqualFold(storeType, StoreNone) {
		e.set[Session] = struct{}{}
		logger.Info("disabling session auto-configuration")
	}

	return e
}
