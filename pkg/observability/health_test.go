package observability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func readiness(t *testing.T, checker *HealthChecker) (int, HealthStatus) {
	t.Helper()
	rr := httptest.NewRecorder()
	checker.Readiness(rr, httptest.NewRequest("GET", "/health/ready", nil))
	var status HealthStatus
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&status))
	return rr.Code, status
}

func TestHealthChecker_Liveness(t *testing.T) {
	checker := NewHealthChecker("test").AddCheck("broken", true, func(context.Context) error {
		return errors.New("down")
	})

	rr := httptest.NewRecorder()
	checker.Liveness(rr, httptest.NewRequest("GET", "/health/live", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, StatusHealthy, response["status"])
	assert.Contains(t, response, "timestamp")
}

func TestHealthChecker_Readiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("connection refused") }
	slow := func(context.Context) error { return fmt.Errorf("pool exhausted: %w", ErrDegraded) }

	tests := []struct {
		name       string
		checker    *HealthChecker
		wantCode   int
		wantStatus string
	}{
		{"no dependencies", NewHealthChecker("test"), http.StatusOK, StatusHealthy},
		{"all healthy", NewHealthChecker("test").AddCheck("database", true, ok).AddCheck("redis", false, ok),
			http.StatusOK, StatusHealthy},
		{"critical failure", NewHealthChecker("test").AddCheck("database", true, fail).AddCheck("redis", false, ok),
			http.StatusServiceUnavailable, StatusUnhealthy},
		{"optional failure degrades", NewHealthChecker("test").AddCheck("database", true, ok).AddCheck("redis", false, fail),
			http.StatusOK, StatusDegraded},
		{"degraded critical", NewHealthChecker("test").AddCheck("database", true, slow),
			http.StatusOK, StatusDegraded},
		{"critical wins over degraded", NewHealthChecker("test").AddCheck("redis", false, fail).AddCheck("schema", true, fail),
			http.StatusServiceUnavailable, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, status := readiness(t, tt.checker)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, "test", status.Version)
		})
	}
}

func TestDatabaseCheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	assert.NoError(t, DatabaseCheck(db)(context.Background()))

	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection failed"))
	_, status := readiness(t, NewHealthChecker("test").AddCheck("database", true, DatabaseCheck(db)))
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.Contains(t, status.Dependencies["database"].Message, "connection failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCheck(t *testing.T) {
	mr, client := newRedis(t)
	check := RedisCheck(client)

	assert.NoError(t, check(context.Background()))

	mr.Close()
	assert.Error(t, check(context.Background()))
}

func TestRegisterHealthRoutes(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHealthRoutes(mux, NewHealthChecker("test"))

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		t.Run(path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}
}
