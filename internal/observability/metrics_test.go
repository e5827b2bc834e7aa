package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveSearch("hybrid", "ok", 3, time.Millisecond)
	m.IncAuthFailure("revoked")
	m.IncRateLimited("key")
	m.ApiInflightInc()
	m.ApiInflightDec()
	assert.Nil(t, m.Registry())
}

func TestMetricsCountAndExpose(t *testing.T) {
	m := NewMetrics()
	m.ObserveSearch("hybrid", "ok", 4, 20*time.Millisecond)
	m.ObserveSearch("hybrid", "rate_limited", 0, time.Millisecond)
	m.IncAuthFailure("expired")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues("hybrid", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authFailures.WithLabelValues("expired")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ragvault_search_requests_total")
}

func TestParseHeaders(t *testing.T) {
	assert.Nil(t, ParseHeaders(""))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, ParseHeaders("a=1, b=2,broken,=x"))
}
