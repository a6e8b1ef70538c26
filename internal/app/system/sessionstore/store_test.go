package sessionstore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/skilltree/skills-service/internal/app/system/autoconfig"
	"go.uber.org/zap"
)

const testSecret = "test-session-key-must-be-32-chars-long"

// mapBackend is an in-memory backend with controllable failures.
type mapBackend struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	saveErr error
}

func newMapBackend() *mapBackend {
	return &mapBackend{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (b *mapBackend) load(_ context.Context, id string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.data[id]
	return d, ok, nil
}

func (b *mapBackend) save(_ context.Context, id, data string, ttl time.Duration) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[id] = data
	b.ttls[id] = ttl
	return nil
}

func (b *mapBackend) delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, id)
	delete(b.ttls, id)
	return nil
}

func newTestStore(t *testing.T, b backend, maxAge int) *Store {
	t.Helper()
	hashKey, blockKey, err := DeriveKeys(testSecret)
	if err != nil {
		t.Fatalf("DeriveKeys failed: %v", err)
	}
	opts := &sessions.Options{Path: "/", MaxAge: maxAge, HttpOnly: true}
	return newStore(KindMongo, b, opts, nil, hashKey, blockKey)
}

func saveNew(t *testing.T, s *Store, values map[interface{}]interface{}) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	sess, err := s.Get(req, "test-session")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !sess.IsNew {
		t.Error("expected a new session")
	}
	for k, v := range values {
		sess.Values[k] = v
	}
	if err := sess.Save(req, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	return cookies[0]
}

func TestStore_RoundTrip(t *testing.T) {
	b := newMapBackend()
	s := newTestStore(t, b, 3600)

	cookie := saveNew(t, s, map[interface{}]interface{}{"user_id": "u-1"})

	if len(b.data) != 1 {
		t.Fatalf("expected 1 stored session, got %d", len(b.data))
	}
	for id, ttl := range b.ttls {
		if ttl != time.Hour {
			t.Errorf("ttl for %s: got %v, want %v", id, ttl, time.Hour)
		}
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	sess, err := s.New(req, "test-session")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if sess.IsNew {
		t.Error("expected existing session")
	}
	if got, _ := sess.Values["user_id"].(string); got != "u-1" {
		t.Errorf("user_id: got %q, want %q", got, "u-1")
	}
}

func TestStore_CookieHoldsOnlyID(t *testing.T) {
	b := newMapBackend()
	s := newTestStore(t, b, 3600)

	cookie := saveNew(t, s, map[interface{}]interface{}{"payload": string(make([]byte, 8192))})

	if len(cookie.Value) > 512 {
		t.Errorf("cookie too large for an ID cookie: %d bytes", len(cookie.Value))
	}
}

func TestStore_TamperedCookie(t *testing.T) {
	s := newTestStore(t, newMapBackend(), 3600)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "not-a-valid-cookie"})

	sess, err := s.New(req, "test-session")
	if err == nil {
		t.Error("expected decode error for tampered cookie")
	}
	if sess == nil || !sess.IsNew {
		t.Error("expected a fresh session alongside the error")
	}
}

func TestStore_ExpiredBackendEntryIsNew(t *testing.T) {
	b := newMapBackend()
	s := newTestStore(t, b, 3600)
	cookie := saveNew(t, s, map[interface{}]interface{}{"k": "v"})

	// Simulate backend expiry.
	for id := range b.data {
		delete(b.data, id)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	sess, err := s.New(req, "test-session")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !sess.IsNew {
		t.Error("expected new session once the backend entry is gone")
	}
	if len(sess.Values) != 0 {
		t.Errorf("expected no values, got %v", sess.Values)
	}
	if sess.ID != "" {
		t.Errorf("unknown ID %q must not be adopted", sess.ID)
	}
}

func TestStore_UnknownIDGetsFreshIDOnSave(t *testing.T) {
	b := newMapBackend()
	s := newTestStore(t, b, 3600)
	cookie := saveNew(t, s, map[interface{}]interface{}{"k": "v"})

	var planted string
	for id := range b.data {
		planted = id
		delete(b.data, id)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	sess, err := s.Get(req, "test-session")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	sess.Values["user_id"] = "u-1"
	if err := sess.Save(req, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, ok := b.data[planted]; ok {
		t.Error("values were stored under the cookie's stale ID")
	}
	if len(b.data) != 1 {
		t.Errorf("expected 1 stored session, got %d", len(b.data))
	}
}

func TestStore_Renew(t *testing.T) {
	b := newMapBackend()
	s := newTestStore(t, b, 3600)
	cookie := saveNew(t, s, map[interface{}]interface{}{"k": "v"})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	sess, err := s.Get(req, "test-session")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	oldID := sess.ID

	if err := s.Renew(req, sess); err != nil {
		t.Fatalf("Renew failed: %v", err)
	}
	if sess.ID != "" {
		t.Errorf("ID after Renew: got %q, want empty", sess.ID)
	}
	if _, ok := b.data[oldID]; ok {
		t.Error("old backend record must be deleted")
	}

	if err := sess.Save(req, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if sess.ID == "" || sess.ID == oldID {
		t.Errorf("expected a fresh ID, got %q (old %q)", sess.ID, oldID)
	}
	if got, _ := sess.Values["k"].(string); got != "v" {
		t.Errorf("values must survive Renew, got %v", sess.Values)
	}
}

func TestStore_NegativeMaxAgeDeletes(t *testing.T) {
	b := newMapBackend()
	s := newTestStore(t, b, 3600)
	cookie := saveNew(t, s, map[interface{}]interface{}{"k": "v"})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	sess, err := s.Get(req, "test-session")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	sess.Options.MaxAge = -1
	if err := sess.Save(req, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if len(b.data) != 0 {
		t.Errorf("expected backend entry deleted, %d left", len(b.data))
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected an expiring cookie, got %+v", cookies)
	}
}

func TestStore_BrowserSessionUsesIdleTTL(t *testing.T) {
	b := newMapBackend()
	s := newTestStore(t, b, 0)
	saveNew(t, s, map[interface{}]interface{}{"k": "v"})

	for _, ttl := range b.ttls {
		if ttl != DefaultIdleTTL {
			t.Errorf("ttl: got %v, want %v", ttl, DefaultIdleTTL)
		}
	}
}

func TestStore_SaveErrorIsObserved(t *testing.T) {
	b := newMapBackend()
	b.saveErr = errors.New("backend down")

	var ops []string
	hashKey, blockKey, _ := DeriveKeys(testSecret)
	s := newStore(KindRedis, b, nil, func(store, op string, err error) {
		if err != nil {
			ops = append(ops, store+":"+op)
		}
	}, hashKey, blockKey)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	sess, _ := s.Get(req, "test-session")
	if err := sess.Save(req, rec); !errors.Is(err, b.saveErr) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(ops) != 1 || ops[0] != "redis:save" {
		t.Errorf("observed failures: got %v", ops)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("no cookie should be set when the backend write fails")
	}
}

func TestDeriveKeys(t *testing.T) {
	h1, b1, err := DeriveKeys(testSecret)
	if err != nil {
		t.Fatalf("DeriveKeys failed: %v", err)
	}
	h2, b2, _ := DeriveKeys(testSecret)

	if len(h1) != 64 || len(b1) != 32 {
		t.Errorf("key sizes: got %d/%d, want 64/32", len(h1), len(b1))
	}
	if string(h1) != string(h2) || string(b1) != string(b2) {
		t.Error("derivation must be deterministic")
	}
	if string(h1[:32]) == string(b1) {
		t.Error("hash and block keys must differ")
	}

	if _, _, err := DeriveKeys("short"); !errors.Is(err, ErrShortSecret) {
		t.Errorf("expected ErrShortSecret, got %v", err)
	}
}

func TestKindFor(t *testing.T) {
	tests := []struct {
		storeType string
		want      Kind
	}{
		{"redis", KindRedis},
		{"Redis", KindRedis},
		{"none", KindNone},
		{"", KindMongo},
		{"jdbc", KindMongo},
	}
	for _, tt := range tests {
		ex := autoconfig.Select(nil, tt.storeType, zap.NewNop())
		if got := KindFor(ex); got != tt.want {
			t.Errorf("KindFor(%q): got %q, want %q", tt.storeType, got, tt.want)
		}
	}
}

func TestNew_Kinds(t *testing.T) {
	s, err := New(KindNone, Config{})
	if err != nil || s != nil {
		t.Errorf("KindNone: got (%v, %v), want (nil, nil)", s, err)
	}

	if _, err := New(KindRedis, Config{}); !errors.Is(err, errNoBackend) {
		t.Errorf("KindRedis without client: got %v", err)
	}
	if _, err := New(KindMongo, Config{}); !errors.Is(err, errNoBackend) {
		t.Errorf("KindMongo without db: got %v", err)
	}
	if _, err := New(Kind("hazelcast"), Config{}); !errors.Is(err, ErrUnknownStoreKind) {
		t.Errorf("unknown kind: got %v", err)
	}
}
