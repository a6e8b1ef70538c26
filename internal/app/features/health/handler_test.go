package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skilltree/skills-service/internal/app/features/health"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	up   = health.PingFunc(func(context.Context) error { return nil })
	down = health.PingFunc(func(context.Context) error { return errors.New("connection refused") })
)

type response struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	Message  string `json:"message"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, resp
}

func TestServe_DatabaseConnected(t *testing.T) {
	rec, resp := serve(t, health.NewHandler(up, nil, zap.NewNop()))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	if resp.Status != "ok" || resp.Database != "connected" {
		t.Errorf("got %+v", resp)
	}
	if resp.Redis != "" {
		t.Errorf("redis should be omitted when not wired, got %q", resp.Redis)
	}
}

func TestServe_DatabaseDown(t *testing.T) {
	rec, resp := serve(t, health.NewHandler(down, nil, zap.NewNop()))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if resp.Status != "error" || resp.Database != "disconnected" {
		t.Errorf("got %+v", resp)
	}
}

func TestServe_ErrorLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := health.NewHandler(down, down, zap.New(core))

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("backend error leaked into response: %s", rec.Body.String())
	}
	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if _, ok := raw["error"]; ok {
		t.Errorf("unexpected error field: %v", raw)
	}

	if n := logs.FilterMessageSnippet("ping failed").Len(); n != 2 {
		t.Errorf("expected both ping failures logged, got %d", n)
	}
}

func TestServe_RedisWired(t *testing.T) {
	rec, resp := serve(t, health.NewHandler(up, up, zap.NewNop()))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if resp.Redis != "connected" {
		t.Errorf("redis: got %q, want %q", resp.Redis, "connected")
	}
}

func TestServe_RedisDown(t *testing.T) {
	rec, resp := serve(t, health.NewHandler(up, down, zap.NewNop()))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if resp.Database != "connected" || resp.Redis != "disconnected" {
		t.Errorf("got %+v", resp)
	}
	if resp.Message != "Session store unavailable" {
		t.Errorf("message: got %q", resp.Message)
	}
}
