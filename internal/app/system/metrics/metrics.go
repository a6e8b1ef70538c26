// Package metrics exposes Prometheus metrics for the skills service.
//
// A Registry is created once at startup and passed to the components that
// record into it. Its handler is mounted at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skilltree/skills-service/internal/app/system/autoconfig"
)

// Registry bundles the service's collectors.
type Registry struct {
	reg *prometheus.Registry

	// ModuleEnabled is 1 for wired modules and 0 for excluded ones.
	// Labels: module.
	ModuleEnabled *prometheus.GaugeVec

	// SessionStoreOps counts session backend operations.
	// Labels: store ("redis", "mongo"), op ("load", "save", "delete"),
	// result ("ok", "error").
	SessionStoreOps *prometheus.CounterVec
}

// New creates a Registry with Go runtime and process collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		reg: reg,
		ModuleEnabled: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "skills_autoconfig_module_enabled",
				Help: "Whether an optional module was wired at startup (1) or excluded (0)",
			},
			[]string{"module"},
		),
		SessionStoreOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skills_session_store_operations_total",
				Help: "Session store backend operations",
			},
			[]string{"store", "op", "result"},
		),
	}
	reg.MustRegister(r.ModuleEnabled, r.SessionStoreOps)
	return r
}

// RecordModules publishes the auto-configuration decisions.
func (r *Registry) RecordModules(ex autoconfig.Exclusions) {
	for _, m := range autoconfig.Known() {
		v := 1.0
		if ex.Has(m) {
			v = 0
		}
		r.ModuleEnabled.WithLabelValues(string(m)).Set(v)
	}
}

// ObserveSessionOp records one session backend operation. Its signature
// matches sessionstore.OpFunc.
func (r *Registry) ObserveSessionOp(store, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.SessionStoreOps.WithLabelValues(store, op, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
