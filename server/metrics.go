package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	homepage "github.com/yini-lang/yini-homepage"
	"github.com/yini-lang/yini-homepage/store"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	Requests       *prometheus.CounterVec
	Evaluations    *prometheus.CounterVec
	ParseDuration  *prometheus.HistogramVec
	ActiveSessions prometheus.Gauge
	Reloads        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with a fresh
// registry alongside the Go runtime collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yini_homepage_http_requests_total",
			Help: "HTTP requests by route template and status code",
		}, []string{"route", "code"}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yini_homepage_evaluations_total",
			Help: "Playground evaluations by origin and pane state",
		}, []string{"origin", "state"}),
		ParseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "yini_homepage_parse_duration_seconds",
			Help:    "Time spent in the parser per evaluation",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"origin"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yini_homepage_playground_sessions",
			Help: "Open playground WebSocket sessions",
		}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yini_homepage_content_reloads_total",
			Help: "Content reloads by result",
		}, []string{"result"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests, m.Evaluations, m.ParseDuration, m.ActiveSessions, m.Reloads,
	)
	return m
}

// watchVisitors exports the number of visitors with stored drafts.
func (m *Metrics) watchVisitors(db *store.DB) {
	m.Registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "yini_homepage_stored_visitors",
		Help: "Visitors with persisted playground state",
	}, func() float64 {
		n, err := db.Visitors()
		if err != nil {
			return 0
		}
		return float64(n)
	}))
}

func (m *Metrics) observe(origin string, res homepage.Result, took time.Duration) {
	m.Evaluations.WithLabelValues(origin, res.State.String()).Inc()
	m.ParseDuration.WithLabelValues(origin).Observe(took.Seconds())
}

// observer adapts observe to homepage.WithObserver.
func (m *Metrics) observer(origin string) func(homepage.Result, time.Duration) {
	return func(res homepage.Result, took time.Duration) { m.observe(origin, res, took) }
}
