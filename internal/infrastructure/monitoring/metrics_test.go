package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsIndependentRegistries(t *testing.T) {
	// two collectors must not collide
	a := NewMetrics()
	b := NewMetrics()

	a.RecordSubmission("success", time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Submissions.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Submissions.WithLabelValues("success")))
}

func TestSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordCacheLookup("hit")
	m.RecordCacheLookup("stale")
	m.RecordCacheLookup("miss")
	m.RecordSubmission("success", time.Millisecond)
	m.RecordSubmission("dry_run", 0)
	m.RecordSubmission("failed", time.Millisecond)
	NewTimer(m, "http").Stop("success")

	s := m.Snapshot()
	assert.Equal(t, int64(1), s.CacheHits)
	assert.Equal(t, int64(2), s.CacheMisses)
	assert.Equal(t, int64(2), s.Submitted)
	assert.Equal(t, int64(1), s.Failed)
	assert.Equal(t, int64(1), s.Extractions)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Extractions.WithLabelValues("http", "success")))
}

func TestNilTimer(t *testing.T) {
	var timer *Timer
	assert.NotPanics(t, func() { timer.Stop("success") })
	assert.NotPanics(t, func() { NewTimer(nil, "http").Stop("success") })
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/forms/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/forms/abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/forms/:id", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "formfill_http_requests_total")
}
