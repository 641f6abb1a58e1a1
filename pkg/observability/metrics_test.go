package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	return NewMetrics(registry), registry
}

func TestMetrics_History(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordLookup("found", 2*time.Millisecond)
	m.RecordLookup("found", time.Millisecond)
	m.RecordLookup("absent", 0)
	m.RecordCancelled("superseded")
	m.SetTableInfo(6, 100*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HistoryLookupsTotal.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HistoryLookupsTotal.WithLabelValues("absent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HistoryCancelledTotal.WithLabelValues("superseded")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.HistorySectionsTotal))
	assert.InDelta(t, 0.1, testutil.ToFloat64(m.HistoryLatencySeconds), 1e-9)
}

func TestMetrics_Cache(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.CacheHit("l1")
	m.CacheMiss("l1")
	m.CacheMiss("redis")
	m.CacheError("redis")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("l1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("redis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheErrorsTotal.WithLabelValues("redis")))
}

func TestNewMetrics_DoubleRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)
	assert.Panics(t, func() { NewMetrics(registry) })
}

func TestHTTPMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	m, _ := newTestMetrics(t)

	router := mux.NewRouter()
	router.Use(HTTPMetricsMiddleware(m))
	router.HandleFunc("/api/v1/history/{section}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	for _, section := range []string{"installation", "basic-usage"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/history/"+section, nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/history/{section}", "200"))
	assert.Equal(t, 2.0, count)
}

func TestMetricsHandler(t *testing.T) {
	m, registry := newTestMetrics(t)
	m.RecordLookup("found", time.Millisecond)

	srv := httptest.NewServer(MetricsHandler(registry))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `hearth_history_lookups_total{outcome="found"} 1`))
}
