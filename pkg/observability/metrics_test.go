package observability

import (
	"database/sql"
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

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	require.NotNil(t, metrics)

	metrics.RecordAuthEvent("login", "success")

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["folio_auth_events_total"])
	assert.True(t, names["folio_db_connections_open"])
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAuthEvent("login", "failure")
		m.RecordRateLimited("/api/auth/login")
		m.RecordDBStats(sql.DBStats{})
	})
}

func TestMetrics_RecordAuthEvent(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.RecordAuthEvent("login", "invalid_credentials")
	metrics.RecordAuthEvent("login", "invalid_credentials")
	metrics.RecordAuthEvent("register", "success")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.AuthEventsTotal.WithLabelValues("login", "invalid_credentials")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuthEventsTotal.WithLabelValues("register", "success")))
}

func TestMetrics_RecordDBStats(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.RecordDBStats(sql.DBStats{
		OpenConnections: 7,
		InUse:           5,
		Idle:            2,
		WaitCount:       3,
		WaitDuration:    1500 * time.Millisecond,
	})

	assert.Equal(t, 7.0, testutil.ToFloat64(metrics.DBConnectionsOpen))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.DBConnectionsInUse))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.DBConnectionsIdle))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.DBConnectionsWaitCount))
	assert.Equal(t, 1.5, testutil.ToFloat64(metrics.DBConnectionsWaitDuration))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	router := mux.NewRouter()
	router.Use(HTTPMetricsMiddleware(metrics))
	router.HandleFunc("/api/works/{workId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods("GET")

	for _, id := range []string{"a", "b", "c"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/works/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	}

	// path parameters collapse into the route template
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/works/{workId}", "404")))
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.RecordRateLimited("/api/auth/login")

	mux := http.NewServeMux()
	RegisterMetricsEndpoint(mux, registry)

	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `folio_rate_limited_total{route="/api/auth/login"} 1`))
}
