package metrics

import (
	"CANSpectra/internal/engine/classifier"
	"CANSpectra/internal/model"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cans"

// Metrics holds the Prometheus collectors for the detection pipeline.
type Metrics struct {
	registry         *prometheus.Registry
	frames           *prometheus.CounterVec
	checkFailures    *prometheus.CounterVec
	malformed        *prometheus.CounterVec
	timingViolations prometheus.Counter
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames classified, by identifier and status.",
		}, []string{"identifier", "status"}),
		checkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "check_failures_total",
			Help:      "Failed heuristic checks, by identifier and check.",
		}, []string{"identifier", "check"}),
		malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_frames_total",
			Help:      "Frames rejected by the decoder, by error kind.",
		}, []string{"kind"}),
		timingViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timing_violations_total",
			Help:      "Frames that broke the inter-arrival contract of the stream.",
		}),
	}
	m.registry.MustRegister(m.frames, m.checkFailures, m.malformed, m.timingViolations)
	return m
}

// Observe updates the collectors for one processed record.
func (m *Metrics) Observe(rec *model.Record) {
	if rec.TimingErr != nil {
		m.timingViolations.Inc()
	}
	if rec.Malformed() {
		m.malformed.WithLabelValues(rec.FormatErr.Kind.String()).Inc()
		return
	}
	id := IdentifierLabel(rec.Frame.ID)
	m.frames.WithLabelValues(id, rec.Status()).Inc()
	for _, c := range classifier.Checks {
		if !rec.Verdict.Passed(c) {
			m.checkFailures.WithLabelValues(id, string(c)).Inc()
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IdentifierLabel formats an identifier the way labels and reports show it.
func IdentifierLabel(id uint16) string {
	return fmt.Sprintf("0x%x", id)
}
