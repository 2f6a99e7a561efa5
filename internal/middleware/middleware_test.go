package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/annel0/gridkit/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, out *strings.Builder) (*gin.Engine, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	r := gin.New()
	r.Use(NewRequestLogger(logging.NewWriterLogger("api", out, logging.DEBUG)).Handler())
	r.Use(NewPrometheusMiddleware("test", reg).Handler())
	r.GET("/ok", func(c *gin.Context) {
		_, ok := c.Get(TraceIDKey)
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/metrics", MetricsHandler(reg))
	return r, reg
}

func TestMiddleware_TraceAndMetrics(t *testing.T) {
	var out strings.Builder
	r, reg := newRouter(t, &out)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))
	assert.Contains(t, out.String(), "/ok")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	count, err := testutil.GatherAndCount(reg, "test_http_request_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "ошибочный запрос учтён один раз")
	count, err = testutil.GatherAndCount(reg, "test_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "по серии на маршрут и статус")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "test_http_request_duration_seconds")
}

func TestMetricNamespace(t *testing.T) {
	assert.Equal(t, "gridkit_sandbox", metricNamespace("gridkit-sandbox"))
	assert.Equal(t, "grid_kit_1", metricNamespace("grid.kit 1"))

	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() { NewPrometheusMiddleware("gridkit-sandbox", reg) })
}
