package ratelimit_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skilltree/skills-service/internal/app/system/ratelimit"
)

func TestLimiter_AllowAndRemaining(t *testing.T) {
	l := ratelimit.New(2, time.Minute)
	t.Cleanup(l.Stop)

	if got := l.Remaining("a"); got != 2 {
		t.Errorf("Remaining before use: got %d, want 2", got)
	}
	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests must be allowed")
	}
	if l.Allow("a") {
		t.Error("third request must be limited")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining after limit: got %d, want 0", got)
	}
	if !l.Allow("b") {
		t.Error("other keys have their own window")
	}

	l.Reset("a")
	if !l.Allow("a") {
		t.Error("Reset must clear the window")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := ratelimit.New(1, 20*time.Millisecond)
	t.Cleanup(l.Stop)

	if !l.Allow("k") {
		t.Fatal("first request must be allowed")
	}
	if l.Allow("k") {
		t.Fatal("second request must be limited")
	}
	time.Sleep(30 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("request after the window must be allowed")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{name: "remote addr", remote: "10.0.0.1:5555", want: "10.0.0.1"},
		{name: "remote without port", remote: "10.0.0.2", want: "10.0.0.2"},
		{name: "forwarded for ignored", header: map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, remote: "10.0.0.1:1", want: "10.0.0.1"},
		{name: "real ip ignored", header: map[string]string{"X-Real-IP": " 5.6.7.8 "}, remote: "10.0.0.1:1", want: "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := ratelimit.ClientIP(req); got != tt.want {
				t.Errorf("ClientIP: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	l := ratelimit.New(1, time.Minute)
	t.Cleanup(l.Stop)

	h := ratelimit.Middleware(l, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request: got %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", rec.Code)
	}
	if ra := rec.Header().Get("Retry-After"); ra != "60" {
		t.Errorf("Retry-After: got %q, want 60", ra)
	}
}

func TestMiddleware_ForwardedForDoesNotResetBucket(t *testing.T) {
	l := ratelimit.New(1, time.Minute)
	t.Cleanup(l.Stop)

	h := ratelimit.Middleware(l, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	allowed := 0
	for i := 1; i <= 5; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusNoContent {
			allowed++
		}
	}
	if allowed != 1 {
		t.Errorf("allowed %d requests from one address, want 1", allowed)
	}
}
