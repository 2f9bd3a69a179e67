// Package metrics holds the Prometheus collectors of the club service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "volei"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	requests              *prometheus.CounterVec
	requestDuration       *prometheus.HistogramVec
	draws                 *prometheus.CounterVec
	drawPoolSize          prometheus.Histogram
	scoreboardSubscribers prometheus.Gauge
	auditPublished        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		draws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draws_total",
			Help:      "Team draws by mode and outcome.",
		}, []string{"mode", "outcome"}),
		drawPoolSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "draw_pool_size",
			Help:      "Number of players in each draw pool.",
			Buckets:   []float64{0, 4, 8, 12, 16, 20, 24, 30, 40},
		}),
		scoreboardSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scoreboard_subscribers",
			Help:      "Open scoreboard websocket subscriptions on this instance.",
		}),
		auditPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_records_published_total",
			Help:      "Audit records pushed to the audit queue by result.",
		}, []string{"result"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.draws,
		m.drawPoolSize,
		m.scoreboardSubscribers,
		m.auditPublished,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// ObserveDraw records a draw that ran over a built pool; outcome is "ok" or
// "empty". mode must come from a bounded set such as draw.Mode.Label.
func (m *Metrics) ObserveDraw(mode, outcome string, poolSize int) {
	m.draws.WithLabelValues(mode, outcome).Inc()
	m.drawPoolSize.Observe(float64(poolSize))
}

// RejectDraw counts a draw refused before any pool was built.
func (m *Metrics) RejectDraw(mode string) {
	m.draws.WithLabelValues(mode, "invalid").Inc()
}

func (m *Metrics) SetScoreboardSubscribers(n int) {
	m.scoreboardSubscribers.Set(float64(n))
}

func (m *Metrics) AuditPublished(err error) {
	if err != nil {
		m.auditPublished.WithLabelValues("error").Inc()
		return
	}
	m.auditPublished.WithLabelValues("ok").Inc()
}
