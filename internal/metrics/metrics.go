// Package metrics exposes Prometheus counters for the document workflow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple instances never
// collide on the global default registerer.
type Metrics struct {
	registry *prometheus.Registry

	uploads       *prometheus.CounterVec
	cleans        prometheus.Counter
	parses        *prometheus.CounterVec
	roundsParsed  prometheus.Counter
	parseDuration prometheus.Histogram
}

// New creates a Metrics instance with Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roundup",
			Name:      "documents_uploaded_total",
			Help:      "Uploaded documents, split by whether a new document was created.",
		}, []string{"result"}),
		cleans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roundup",
			Name:      "documents_cleaned_total",
			Help:      "Documents normalized into canonical text.",
		}),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roundup",
			Name:      "round_parses_total",
			Help:      "Round parse runs by segmentation strategy.",
		}, []string{"strategy"}),
		roundsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roundup",
			Name:      "rounds_parsed_total",
			Help:      "Rounds produced across all parse runs.",
		}),
		parseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roundup",
			Name:      "round_parse_duration_seconds",
			Help:      "Time spent parsing and persisting rounds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.uploads, m.cleans, m.parses, m.roundsParsed, m.parseDuration,
	)
	return m
}

// DocumentUploaded counts an upload. created is false for hash duplicates.
func (m *Metrics) DocumentUploaded(created bool) {
	result := "duplicate"
	if created {
		result = "created"
	}
	m.uploads.WithLabelValues(result).Inc()
}

// DocumentCleaned counts a normalization run.
func (m *Metrics) DocumentCleaned() {
	m.cleans.Inc()
}

// RoundsParsed records one parse run.
func (m *Metrics) RoundsParsed(strategy string, rounds int, elapsed time.Duration) {
	m.parses.WithLabelValues(strategy).Inc()
	m.roundsParsed.Add(float64(rounds))
	m.parseDuration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
