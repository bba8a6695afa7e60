package topicblog

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Page outcomes recorded by the generator and the fallback server.
const (
	OutcomeGenerated = "generated"
	OutcomeDeferred  = "deferred"
	OutcomeFailed    = "failed"
	OutcomeNotFound  = "not_found"
	OutcomeLimited   = "rate_limited"
	OutcomeShared    = "shared"
)

// Metrics records pipeline activity in a private Prometheus registry. A nil
// *Metrics is a valid no-op sink.
type Metrics struct {
	registry         *prom.Registry
	pages            *prom.CounterVec
	assemblyDuration *prom.HistogramVec
	fallback         *prom.CounterVec
	buildDuration    prom.Histogram
	lastBuild        prom.Gauge
}

// NewMetrics registers the topicblog collectors plus the Go and process
// collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prom.NewRegistry()}
	m.pages = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "topicblog",
		Name:      "pages_total",
		Help:      "Pages handled by route and outcome",
	}, []string{"route", "outcome"})
	m.assemblyDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "topicblog",
		Name:      "assembly_duration_seconds",
		Help:      "Time to fetch, assemble and render one page",
		Buckets:   prom.DefBuckets,
	}, []string{"route"})
	m.fallback = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "topicblog",
		Name:      "fallback_requests_total",
		Help:      "On-demand generation requests by outcome",
	}, []string{"outcome"})
	m.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "topicblog",
		Name:      "build_duration_seconds",
		Help:      "Total static build duration",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
	m.lastBuild = prom.NewGauge(prom.GaugeOpts{
		Namespace: "topicblog",
		Name:      "last_successful_build_timestamp_seconds",
		Help:      "Unix time of the last build that published output",
	})
	m.registry.MustRegister(m.pages, m.assemblyDuration, m.fallback, m.buildDuration, m.lastBuild)
	m.registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prom.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) observePage(route, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(route, outcome).Inc()
	if outcome == OutcomeGenerated {
		m.assemblyDuration.WithLabelValues(route).Observe(d.Seconds())
	}
}

func (m *Metrics) observeFallback(outcome string) {
	if m == nil {
		return
	}
	m.fallback.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeBuild(d time.Duration, published bool) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(d.Seconds())
	if published {
		m.lastBuild.SetToCurrentTime()
	}
}
