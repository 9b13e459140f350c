package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP API metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Pipeline metrics
	Extractions        *prometheus.CounterVec
	ExtractionDuration *prometheus.HistogramVec
	CacheLookups       *prometheus.CounterVec
	CacheWrites        *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram
	Runs               *prometheus.CounterVec

	startTime time.Time
	snapshot  Snapshot
	mu        sync.RWMutex
}

// Snapshot holds running totals for the JSON health endpoint.
type Snapshot struct {
	Extractions int64  `json:"extractions"`
	CacheHits   int64  `json:"cache_hits"`
	CacheMisses int64  `json:"cache_misses"`
	Submitted   int64  `json:"submitted"`
	Failed      int64  `json:"failed"`
	Requests    int64  `json:"requests"`
	Uptime      string `json:"uptime"`
}

// NewMetrics creates a collector backed by a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formfill_http_requests_total",
				Help: "Total number of HTTP API requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formfill_http_request_duration_seconds",
				Help:    "HTTP API request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		ResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formfill_http_response_size_bytes",
				Help:    "HTTP API response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		Extractions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formfill_extractions_total",
				Help: "Form structure extractions by page source and outcome",
			},
			[]string{"source", "status"},
		),
		ExtractionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formfill_extraction_duration_seconds",
				Help:    "Time to load and extract a form page",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"source"},
		),
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formfill_cache_lookups_total",
				Help: "Structure cache lookups by result (hit, miss, stale, corrupt)",
			},
			[]string{"result"},
		),
		CacheWrites: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formfill_cache_writes_total",
				Help: "Structure cache writes by outcome",
			},
			[]string{"status"},
		),
		Submissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formfill_submissions_total",
				Help: "Form submissions by outcome",
			},
			[]string{"status"},
		),
		SubmissionDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "formfill_submission_duration_seconds",
				Help:    "Duration of a single submission including retries",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		Runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formfill_runs_total",
				Help: "Bulk runs started, by mode (live or dry_run)",
			},
			[]string{"mode"},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP API request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.Requests++
	m.mu.Unlock()
}

// RecordExtraction records one page load and extraction.
func (m *Metrics) RecordExtraction(source, status string, duration time.Duration) {
	m.Extractions.WithLabelValues(source, status).Inc()
	m.ExtractionDuration.WithLabelValues(source).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Extractions++
	m.mu.Unlock()
}

// RecordCacheLookup records a cache lookup result.
func (m *Metrics) RecordCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()

	m.mu.Lock()
	if result == "hit" {
		m.snapshot.CacheHits++
	} else {
		m.snapshot.CacheMisses++
	}
	m.mu.Unlock()
}

// RecordCacheWrite records a cache write outcome.
func (m *Metrics) RecordCacheWrite(status string) {
	m.CacheWrites.WithLabelValues(status).Inc()
}

// RecordSubmission records one submission outcome.
func (m *Metrics) RecordSubmission(status string, duration time.Duration) {
	m.Submissions.WithLabelValues(status).Inc()
	m.SubmissionDuration.Observe(duration.Seconds())

	m.mu.Lock()
	if status == "success" || status == "dry_run" {
		m.snapshot.Submitted++
	} else {
		m.snapshot.Failed++
	}
	m.mu.Unlock()
}

// RecordRun records the start of a bulk run.
func (m *Metrics) RecordRun(dryRun bool) {
	mode := "live"
	if dryRun {
		mode = "dry_run"
	}
	m.Runs.WithLabelValues(mode).Inc()
}

// Snapshot returns the current running totals.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.Uptime = time.Since(m.startTime).Round(time.Second).String()
	return s
}
