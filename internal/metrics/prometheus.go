package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all daemon metrics.
type Registry struct {
	// Dispatcher
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Kernel sockets opened by the network manager, by kind.
	KernelSockets *prometheus.CounterVec

	// Phases
	PhaseRuns  *prometheus.CounterVec
	PhaseSteps *prometheus.CounterVec

	// Control socket
	ControlCalls *prometheus.CounterVec

	// System
	Uptime     prometheus.Gauge
	Interfaces prometheus.Gauge
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spring_operations_total",
		Help: "Dispatched interface operations by result kind",
	}, []string{"operation", "result"})

	r.OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spring_operation_duration_seconds",
		Help:    "Latency of dispatched interface operations",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
	}, []string{"operation"})

	r.KernelSockets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spring_kernel_sockets_opened_total",
		Help: "Kernel sockets opened, by kind (route, control)",
	}, []string{"kind"})

	r.PhaseRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spring_phase_runs_total",
		Help: "Phase executions by result",
	}, []string{"phase", "result"})

	r.PhaseSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spring_phase_steps_total",
		Help: "Phase steps executed by result",
	}, []string{"phase", "result"})

	r.ControlCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spring_control_calls_total",
		Help: "Control socket RPCs by method",
	}, []string{"method"})

	r.Uptime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spring_uptime_seconds",
		Help: "System uptime as seen by the daemon",
	})

	r.Interfaces = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spring_interfaces",
		Help: "Interfaces reported by the last link dump",
	})

	return r
}

// RecordOperation records one dispatched operation. result is "ok" or an
// error kind.
func (r *Registry) RecordOperation(operation, result string, seconds float64) {
	r.OperationsTotal.WithLabelValues(operation, result).Inc()
	r.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordSocket counts one kernel socket.
func (r *Registry) RecordSocket(kind string) {
	r.KernelSockets.WithLabelValues(kind).Inc()
}

// RecordPhase records a finished phase.
func (r *Registry) RecordPhase(phase string, ok bool) {
	r.PhaseRuns.WithLabelValues(phase, resultLabel(ok)).Inc()
}

// RecordStep records one phase step.
func (r *Registry) RecordStep(phase string, ok bool) {
	r.PhaseSteps.WithLabelValues(phase, resultLabel(ok)).Inc()
}

// RecordControlCall counts one control socket RPC.
func (r *Registry) RecordControlCall(method string) {
	r.ControlCalls.WithLabelValues(method).Inc()
}

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
