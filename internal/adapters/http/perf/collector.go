package perf

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EntryKind distinguishes request vs query entries.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is a single timing record.
type Entry struct {
	Kind       EntryKind
	Path       string // route pattern, or a statement label such as "SELECT member"
	Method     string // HTTP method (empty for queries)
	StatusCode int    // HTTP status (0 for queries)
	DurationMs float64
	Slow       bool
	Timestamp  time.Time
}

// Collector exports request, query and schedule-save metrics to Prometheus.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry    *prometheus.Registry
	requests    *prometheus.HistogramVec
	queries     *prometheus.HistogramVec
	slow        *prometheus.CounterVec
	saves       *prometheus.CounterVec
	totalRecord prometheus.Counter
}

// NewCollector creates a collector with its own registry.
// PRE: none
// POST: all metrics registered; Handler serves them
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orchestra",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		queries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orchestra",
			Name:      "db_query_duration_seconds",
			Help:      "SQLite call latency by operation.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"op"}),
		slow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orchestra",
			Name:      "slow_operations_total",
			Help:      "Requests and queries above their slow threshold.",
		}, []string{"kind"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orchestra",
			Name:      "schedule_saves_total",
			Help:      "Schedule upserts by outcome.",
		}, []string{"result"}),
		totalRecord: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orchestra",
			Name:      "perf_entries_total",
			Help:      "Timing entries recorded.",
		}),
	}
	c.registry.MustRegister(c.requests, c.queries, c.slow, c.saves, c.totalRecord)
	return c
}

// Record stores a timing entry.
// PRE: e is a valid Entry
// POST: the matching histogram observed e; slow entries also counted
func (c *Collector) Record(e Entry) {
	if c == nil {
		return
	}
	seconds := e.DurationMs / 1000.0
	kind := "query"
	switch e.Kind {
	case KindRequest:
		kind = "request"
		c.requests.WithLabelValues(e.Method, e.Path, strconv.Itoa(e.StatusCode)).Observe(seconds)
	case KindQuery:
		c.queries.WithLabelValues(e.Path).Observe(seconds)
	}
	if e.Slow {
		c.slow.WithLabelValues(kind).Inc()
	}
	c.totalRecord.Inc()
}

// RecordSave counts one schedule upsert with result "ok" or "error".
func (c *Collector) RecordSave(result string) {
	if c == nil {
		return
	}
	c.saves.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
