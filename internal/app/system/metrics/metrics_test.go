package metrics_test

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/skilltree/skills-service/internal/app/system/autoconfig"
	"github.com/skilltree/skills-service/internal/app/system/metrics"
	"go.uber.org/zap"
)

func TestRecordModules(t *testing.T) {
	reg := metrics.New()
	reg.RecordModules(autoconfig.Select([]autoconfig.Module{autoconfig.ErrorPages}, "none", zap.NewNop()))

	tests := []struct {
		module autoconfig.Module
		want   float64
	}{
		{autoconfig.Redis, 0},
		{autoconfig.Session, 0},
		{autoconfig.ErrorPages, 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(reg.ModuleEnabled.WithLabelValues(string(tt.module)))
		if got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.module, got, tt.want)
		}
	}

	reg.RecordModules(autoconfig.Select(nil, "redis", zap.NewNop()))
	if got := testutil.ToFloat64(reg.ModuleEnabled.WithLabelValues("redis")); got != 1 {
		t.Errorf("redis after re-record: got %v, want 1", got)
	}
}

func TestObserveSessionOp(t *testing.T) {
	reg := metrics.New()

	reg.ObserveSessionOp("redis", "save", nil)
	reg.ObserveSessionOp("redis", "save", nil)
	reg.ObserveSessionOp("redis", "save", errors.New("down"))

	if got := testutil.ToFloat64(reg.SessionStoreOps.WithLabelValues("redis", "save", "ok")); got != 2 {
		t.Errorf("ok count: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(reg.SessionStoreOps.WithLabelValues("redis", "save", "error")); got != 1 {
		t.Errorf("error count: got %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	reg := metrics.New()
	reg.RecordModules(autoconfig.NewExclusions())

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "skills_autoconfig_module_enabled") {
		t.Error("expected module gauge in exposition")
	}
}
