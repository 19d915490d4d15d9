// Package metrics owns the Prometheus registry and the instruments shared by
// use-cases, repository adapters, the popular cache and scheduled jobs. All
// methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nimli"

type Metrics struct {
	registry         *prometheus.Registry
	useCaseRequests  *prometheus.CounterVec
	useCaseDuration  *prometheus.HistogramVec
	repositoryErrors *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	jobRuns          *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
}

// New registers every instrument plus the Go and process collectors on a
// fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		useCaseRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usecase_requests_total",
			Help:      "Use-case invocations by outcome kind.",
		}, []string{"usecase", "outcome"}),
		useCaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "usecase_duration_seconds",
			Help:      "Use-case latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"usecase"}),
		repositoryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repository_errors_total",
			Help:      "Repository failures by kind.",
		}, []string{"kind"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "popular_cache_lookups_total",
			Help:      "Popular list lookups served from the snapshot or the source.",
		}, []string{"list", "result"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Scheduled job latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.useCaseRequests, m.useCaseDuration, m.repositoryErrors,
		m.cacheLookups, m.jobRuns, m.jobDuration,
	)
	return m
}

// Registry exposes the registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the text exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// UseCase records one invocation. outcome is "ok" or an error kind name.
func (m *Metrics) UseCase(name, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.useCaseRequests.WithLabelValues(name, outcome).Inc()
	m.useCaseDuration.WithLabelValues(name).Observe(d.Seconds())
}

func (m *Metrics) RepositoryError(kind string) {
	if m == nil {
		return
	}
	m.repositoryErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) CacheLookup(list string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(list, result).Inc()
}

func (m *Metrics) Job(name string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.jobRuns.WithLabelValues(name, outcome).Inc()
	m.jobDuration.WithLabelValues(name).Observe(d.Seconds())
}
