// Package sessionstore provides the server-side gorilla/sessions stores the
// skills service can run with, and the factory that picks one from the
// auto-configuration decisions.
//
// Server-side stores keep only a signed session ID in the cookie. The
// session values are encoded with the same securecookie codecs and written
// to the backend under that ID with an expiry equal to the cookie MaxAge.
package sessionstore

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// DefaultIdleTTL is the backend expiry used for browser-session cookies
// (MaxAge 0), which carry no lifetime of their own.
const DefaultIdleTTL = 30 * time.Minute

// backend persists encoded session values by ID.
type backend interface {
	load(ctx context.Context, id string) (data string, found bool, err error)
	save(ctx context.Context, id, data string, ttl time.Duration) error
	delete(ctx context.Context, id string) error
}

// OpFunc observes a backend operation ("load", "save", "delete").
type OpFunc func(store, op string, err error)

// Store is a gorilla/sessions Store over a backend.
type Store struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	kind    Kind
	backend backend
	observe OpFunc
}

func newStore(kind Kind, b backend, opts *sessions.Options, observe OpFunc, keyPairs ...[]byte) *Store {
	if opts == nil {
		opts = &sessions.Options{Path: "/", MaxAge: 86400 * 30}
	}
	if observe == nil {
		observe = func(string, string, error) {}
	}
	s := &Store{
		Codecs:  securecookie.CodecsFromPairs(keyPairs...),
		Options: opts,
		kind:    kind,
		backend: b,
		observe: observe,
	}
	// Values live in the backend, not the cookie, so the 4096 byte
	// cookie limit does not apply.
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxLength(0)
		}
	}
	s.MaxAge(opts.MaxAge)
	return s
}

// Kind reports which backend the store writes to.
func (s *Store) Kind() Kind {
	return s.kind
}

// Get returns a cached session for the request, creating it if needed.
func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns the session stored under the request's cookie, or a new
// empty session when there is none or it cannot be decoded.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		session.ID = ""
		return session, err
	}

	found, err := s.load(r.Context(), session)
	if err != nil || !found {
		// Never adopt an ID the backend does not know; Save issues a new one.
		session.ID = ""
		session.Values = map[interface{}]interface{}{}
		return session, err
	}
	session.IsNew = false
	return session, nil
}

// Renew deletes the backend record behind session and clears its ID, so
// the next Save stores the values under a fresh ID. Call it whenever the
// session's privilege changes, such as on sign-in.
func (s *Store) Renew(r *http.Request, session *sessions.Session) error {
	if session.ID == "" {
		return nil
	}
	err := s.backend.delete(r.Context(), session.ID)
	s.observe(string(s.kind), "delete", err)
	if err != nil {
		return err
	}
	session.ID = ""
	return nil
}

// Save writes the session to the backend and sets the ID cookie. A
// negative MaxAge deletes the session and expires the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			err := s.backend.delete(r.Context(), session.ID)
			s.observe(string(s.kind), "delete", err)
			if err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = newID()
	}

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session values: %w", err)
	}
	err = s.backend.save(r.Context(), session.ID, data, ttl(session.Options.MaxAge))
	s.observe(string(s.kind), "save", err)
	if err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session id: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// MaxAge sets the cookie and codec lifetime for new sessions.
func (s *Store) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, c := range s.Codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

func (s *Store) load(ctx context.Context, session *sessions.Session) (bool, error) {
	data, found, err := s.backend.load(ctx, session.ID)
	s.observe(string(s.kind), "load", err)
	if err != nil || !found {
		return false, err
	}
	if err := securecookie.DecodeMulti(session.Name(), data, &session.Values, s.Codecs...); err != nil {
		// Stale or re-keyed data: treat as a fresh session.
		return false, nil
	}
	return true, nil
}

func ttl(maxAge int) time.Duration {
	if maxAge <= 0 {
		return DefaultIdleTTL
	}
	return time.Duration(maxAge) * time.Second
}

func newID() string {
	return strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}

var errNoBackend = errors.New("sessionstore: backend client is nil")
