// Package prom exports cacheflow hook events as Prometheus counters.
//
//	reg := prometheus.NewRegistry()
//	hooks, err := prom.New(reg, prom.Options{Namespace: "myapp"})
//	mgr, _ := cacheflow.New[User](cacheflow.Options[User]{Provider: p, Hooks: hooks})
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/cacheflow"
)

type Options struct {
	Namespace string // metric name prefix; default "cacheflow"
	Subsystem string
}

// Hooks counts events by method (and op for failures). Storage keys are
// never used as label values.
type Hooks struct {
	requests     *prometheus.CounterVec // method, outcome=hit|miss
	factory      *prometheus.CounterVec // method, produced=true|false
	setRejected  *prometheus.CounterVec // method
	writeBack    prometheus.Counter
	opErrors     *prometheus.CounterVec // method, op
	invalidQuery *prometheus.CounterVec // entry, method
}

var _ cacheflow.Hooks = (*Hooks)(nil)

// New registers the collectors on reg. Registering twice on the same
// registry fails with prometheus.AlreadyRegisteredError.
func New(reg prometheus.Registerer, opts Options) (*Hooks, error) {
	if opts.Namespace == "" {
		opts.Namespace = "cacheflow"
	}
	co := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: opts.Namespace, Subsystem: opts.Subsystem, Name: name, Help: help}
	}

	h := &Hooks{
		requests:     prometheus.NewCounterVec(co("lookups_total", "Cache lookups by outcome."), []string{"method", "outcome"}),
		factory:      prometheus.NewCounterVec(co("factory_calls_total", "Factory invocations."), []string{"method", "produced"}),
		setRejected:  prometheus.NewCounterVec(co("set_rejected_total", "Writes declined by the provider."), []string{"method"}),
		writeBack:    prometheus.NewCounter(co("write_back_failures_total", "Factory values that could not be cached.")),
		opErrors:     prometheus.NewCounterVec(co("op_errors_total", "Backend and codec errors returned to callers."), []string{"method", "op"}),
		invalidQuery: prometheus.NewCounterVec(co("invalid_queries_total", "Requests sent to the wrong entry point."), []string{"entry", "method"}),
	}
	for _, c := range []prometheus.Collector{h.requests, h.factory, h.setRejected, h.writeBack, h.opErrors, h.invalidQuery} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) Hit(_ string, m cacheflow.Method) {
	h.requests.WithLabelValues(m.String(), "hit").Inc()
}

func (h *Hooks) Miss(_ string, m cacheflow.Method) {
	h.requests.WithLabelValues(m.String(), "miss").Inc()
}

func (h *Hooks) FactoryCalled(_ string, m cacheflow.Method, produced bool) {
	p := "false"
	if produced {
		p = "true"
	}
	h.factory.WithLabelValues(m.String(), p).Inc()
}

func (h *Hooks) ProviderSetRejected(_ string, m cacheflow.Method) {
	h.setRejected.WithLabelValues(m.String()).Inc()
}

func (h *Hooks) WriteBackFailed(string, error) { h.writeBack.Inc() }

func (h *Hooks) OpFailed(_ string, m cacheflow.Method, op string, _ error) {
	h.opErrors.WithLabelValues(m.String(), op).Inc()
}

func (h *Hooks) InvalidQuery(entry string, m cacheflow.Method) {
	h.invalidQuery.WithLabelValues(entry, m.String()).Inc()
}
