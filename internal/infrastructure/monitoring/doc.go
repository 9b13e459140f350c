/*
Package monitoring provides Prometheus metrics for formfill.

Each Metrics value owns its own registry, so several can coexist in one
process (tests, embedded use) without duplicate registration panics.

# Metrics

  - formfill_extractions_total{source,status}
  - formfill_extraction_duration_seconds{source}
  - formfill_cache_lookups_total{result}
  - formfill_cache_writes_total{status}
  - formfill_submissions_total{status}
  - formfill_submission_duration_seconds
  - formfill_runs_total{mode}
  - formfill_http_requests_total{method,path,status} and friends for `serve`

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "http")
	// ... perform extraction ...
	timer.Stop("success")
*/
package monitoring
