package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Admission outcomes recorded by the payout protocol.
const (
	OutcomeCreated          = "created"
	OutcomeReplayed         = "replayed"
	OutcomeRaceRecovered    = "race_recovered"
	OutcomeConflict         = "conflict"
	OutcomeValidationFailed = "validation_failed"
	OutcomeError            = "error"
)

// Metrics owns its registry so tests can build isolated instances. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	admissions      *prometheus.CounterVec
	admissionTime   *prometheus.HistogramVec
	apiRequests     *prometheus.CounterVec
	apiLatency      *prometheus.HistogramVec
	apiInflight     prometheus.Gauge
	outboxPublished *prometheus.CounterVec
	outboxBacklog   prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payout_admissions_total",
			Help: "Payout creation requests by outcome.",
		}, []string{"outcome"}),
		admissionTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payout_admission_duration_seconds",
			Help:    "Time spent in the payout creation protocol.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_published_total",
			Help: "Outbox messages handed to the sink by result.",
		}, []string{"result"}),
		outboxBacklog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_unpublished",
			Help: "Unpublished outbox messages seen on the last relay tick.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.admissions,
		m.admissionTime,
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.outboxPublished,
		m.outboxBacklog,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAdmission(outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(outcome).Inc()
	m.admissionTime.WithLabelValues(outcome).Observe(dur.Seconds())
}

func (m *Metrics) IncInflight() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) DecInflight() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAPIRequest(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ObserveOutboxPublish(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.outboxPublished.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) SetOutboxBacklog(n int64) {
	if m == nil {
		return
	}
	m.outboxBacklog.Set(float64(n))
}
