// Package metrics exposes Prometheus collectors for the dialogue flow and the
// HTTP host.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BTreeMap/MoodPipe/internal/models"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "moodpipe"

// Collector wraps the Prometheus metrics of one process, on its own registry.
type Collector struct {
	registry *prometheus.Registry

	StepRuns            *prometheus.CounterVec
	GenerationFallbacks *prometheus.CounterVec
	RiddleOutcomes      *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActiveConversations prometheus.Gauge
}

// NewCollector creates a Collector under namespace, or DefaultNamespace if empty.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		StepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_runs_total",
			Help:      "Total number of dialogue step invocations, follow-ups included",
		}, []string{"step"}),
		GenerationFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_fallbacks_total",
			Help:      "Total number of generated texts replaced by a canned fallback",
		}, []string{"cause"}),
		RiddleOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "riddle_outcomes_total",
			Help:      "Total number of riddle session events",
		}, []string{"outcome"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ActiveConversations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_conversations",
			Help:      "Number of conversations held by the session store",
		}),
	}
	reg.MustRegister(
		c.StepRuns,
		c.GenerationFallbacks,
		c.RiddleOutcomes,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
		c.ActiveConversations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler returns an HTTP handler that serves the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveStep counts one step invocation.
func (c *Collector) ObserveStep(step models.StepName) {
	c.StepRuns.WithLabelValues(string(step)).Inc()
}

// ObserveGenerationFallback counts one fallback by cause.
func (c *Collector) ObserveGenerationFallback(cause string) {
	c.GenerationFallbacks.WithLabelValues(cause).Inc()
}

// ObserveRiddleOutcome counts one riddle event.
func (c *Collector) ObserveRiddleOutcome(outcome string) {
	c.RiddleOutcomes.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records an HTTP request metric.
func (c *Collector) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	c.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetActiveConversations sets the open conversation gauge.
func (c *Collector) SetActiveConversations(n int) {
	c.ActiveConversations.Set(float64(n))
}
