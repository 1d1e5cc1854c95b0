// Package metrics exposes the RT Statistics Subsystem as Prometheus
// gauges and counters, adapted from the teacher control plane's
// observability package (itskum47-FluxForge/control_plane/observability).
// It is purely an observability convenience: the scheduler core itself
// never imports this package, so a caller that doesn't want a Prometheus
// dependency never pays for it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rtsched/rtsched/rtstats"
)

// Recorder mirrors one thread's (or the fleet's) statistics into
// Prometheus series. Construct one per policy/process; call Observe
// after each StatsGet snapshot.
type Recorder struct {
	activations     *prometheus.CounterVec
	completions     *prometheus.CounterVec
	preemptions     *prometheus.CounterVec
	contextSwitches *prometheus.CounterVec
	deadlineMisses  *prometheus.CounterVec
	missRatio       *prometheus.GaugeVec
	responseSeconds *prometheus.HistogramVec
	waitingSeconds  *prometheus.HistogramVec
	jitterSeconds   *prometheus.GaugeVec
}

// NewRecorder registers the RT statistics series on reg. Pass
// prometheus.NewRegistry() in tests to avoid polluting the default
// registry; with nil, promauto creates the series without registering
// them on any registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		activations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtsched_activations_total",
			Help: "Total job activations observed per thread.",
		}, []string{"thread"}),
		completions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtsched_completions_total",
			Help: "Total job completions observed per thread.",
		}, []string{"thread"}),
		preemptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtsched_preemptions_total",
			Help: "Total preemptions observed per thread.",
		}, []string{"thread"}),
		contextSwitches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtsched_context_switches_total",
			Help: "Total context switches into a thread.",
		}, []string{"thread"}),
		deadlineMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtsched_deadline_misses_total",
			Help: "Total deadline misses observed per thread.",
		}, []string{"thread"}),
		missRatio: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rtsched_deadline_miss_ratio",
			Help: "deadline_misses / activations, as of the last snapshot.",
		}, []string{"thread"}),
		responseSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rtsched_response_seconds",
			Help:    "Mean response time (activation to completion) so far, observed once per snapshot with new completions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"thread"}),
		waitingSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rtsched_waiting_seconds",
			Help:    "Mean waiting time (ready to dispatch) so far, observed once per snapshot with new dispatches.",
			Buckets: prometheus.DefBuckets,
		}, []string{"thread"}),
		jitterSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rtsched_response_jitter_seconds",
			Help: "max(response) - min(response), as of the last snapshot.",
		}, []string{"thread"}),
	}
}

// Observe records a counter delta and gauge refresh for one thread from
// a before/after pair of snapshots, and a cycle length used to convert
// the block's cycle-count aggregates into seconds for the histograms.
func (r *Recorder) Observe(thread string, prev, cur rtstats.Block, cycleSeconds float64) {
	r.activations.WithLabelValues(thread).Add(float64(cur.Activations - prev.Activations))
	r.completions.WithLabelValues(thread).Add(float64(cur.Completions - prev.Completions))
	r.preemptions.WithLabelValues(thread).Add(float64(cur.Preemptions - prev.Preemptions))
	r.contextSwitches.WithLabelValues(thread).Add(float64(cur.ContextSwitches - prev.ContextSwitches))
	r.deadlineMisses.WithLabelValues(thread).Add(float64(cur.DeadlineMisses - prev.DeadlineMisses))
	r.missRatio.WithLabelValues(thread).Set(cur.MissRatio())
	r.jitterSeconds.WithLabelValues(thread).Set(float64(cur.Response.Jitter()) * cycleSeconds)

	if n := cur.Response.N - prev.Response.N; n > 0 {
		r.responseSeconds.WithLabelValues(thread).Observe(cur.Response.Avg() * cycleSeconds)
	}
	if n := cur.Waiting.N - prev.Waiting.N; n > 0 {
		r.waitingSeconds.WithLabelValues(thread).Observe(cur.Waiting.Avg() * cycleSeconds)
	}
}
