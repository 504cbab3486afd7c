package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cupshup"

// PipelineMetrics tracks evidence submissions through their stages.
type PipelineMetrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	orderIDs    *prometheus.CounterVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evidence_transitions_total",
		Help:      "Evidence pipeline state transitions.",
	}, []string{"from", "to"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evidence_failures_total",
		Help:      "Failed evidence submissions by error kind.",
	}, []string{"kind"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "evidence_stage_duration_seconds",
		Help:      "Time spent in each evidence pipeline stage.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"stage"})
	orderIDs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evidence_order_id_total",
		Help:      "Persisted submissions by whether an order id was extracted.",
	}, []string{"found"})
	reg.MustRegister(transitions, failures, duration, orderIDs)
	return &PipelineMetrics{
		transitions: transitions,
		failures:    failures,
		duration:    duration,
		orderIDs:    orderIDs,
	}
}

func (p *PipelineMetrics) ObserveTransition(from, to string) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (p *PipelineMetrics) IncFailure(kind string) {
	if p == nil || p.failures == nil {
		return
	}
	p.failures.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (p *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	if p == nil || p.duration == nil {
		return
	}
	p.duration.WithLabelValues(normalizeLabel(stage)).Observe(d.Seconds())
}

func (p *PipelineMetrics) IncOrderID(found bool) {
	if p == nil || p.orderIDs == nil {
		return
	}
	label := "false"
	if found {
		label = "true"
	}
	p.orderIDs.WithLabelValues(label).Inc()
}
