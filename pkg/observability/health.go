package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const defaultReadinessTimeout = 5 * time.Second

// ErrDegraded marks a dependency that answers but is impaired. Checks wrap
// it to report degraded instead of unhealthy.
var ErrDegraded = errors.New("degraded")

// CheckFunc probes one dependency
type CheckFunc func(ctx context.Context) error

type dependency struct {
	name     string
	critical bool
	check    CheckFunc
}

// HealthChecker reports liveness and dependency readiness. A failing
// critical dependency makes the service unhealthy; any other failure only
// degrades it.
type HealthChecker struct {
	version string
	timeout time.Duration
	deps    []dependency
}

// NewHealthChecker creates a health checker with no dependencies
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{version: version, timeout: defaultReadinessTimeout}
}

// AddCheck registers a named dependency probe
func (h *HealthChecker) AddCheck(name string, critical bool, check CheckFunc) *HealthChecker {
	h.deps = append(h.deps, dependency{name: name, critical: critical, check: check})
	return h
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Liveness always answers 200 while the process is serving
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":    StatusHealthy,
		"timestamp": time.Now(),
	})
}

// Readiness runs every check; 503 when unhealthy
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := h.Check(ctx)
	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeHealth(w, code, status)
}

// Check probes all dependencies concurrently
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus, len(h.deps)),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, dep := range h.deps {
		dep := dep
		g.Go(func() error {
			ds := probe(ctx, dep.check)
			mu.Lock()
			defer mu.Unlock()
			status.Dependencies[dep.name] = ds
			switch {
			case ds.Status == StatusUnhealthy && dep.critical:
				status.Status = StatusUnhealthy
			case ds.Status != StatusHealthy && status.Status == StatusHealthy:
				status.Status = StatusDegraded
			}
			return nil
		})
	}
	g.Wait()

	return status
}

func probe(ctx context.Context, check CheckFunc) DependencyStatus {
	start := time.Now()
	err := check(ctx)
	ds := DependencyStatus{
		Status:    StatusHealthy,
		LatencyMS: time.Since(start).Milliseconds(),
		Timestamp: start,
	}
	switch {
	case errors.Is(err, ErrDegraded):
		ds.Status = StatusDegraded
		ds.Message = err.Error()
	case err != nil:
		ds.Status = StatusUnhealthy
		ds.Message = err.Error()
	}
	return ds
}

// DatabaseCheck runs a trivial query and reports an exhausted pool as
// degraded
func DatabaseCheck(db *sql.DB) CheckFunc {
	return func(ctx context.Context) error {
		var one int
		if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		stats := db.Stats()
		if stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
			return fmt.Errorf("connection pool exhausted: %w", ErrDegraded)
		}
		return nil
	}
}

// RedisCheck pings the Redis server
func RedisCheck(client *redis.Client) CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// RegisterHealthRoutes registers health check endpoints
func RegisterHealthRoutes(mux *http.ServeMux, checker *HealthChecker) {
	mux.HandleFunc("/health", checker.Readiness)
	mux.HandleFunc("/health/live", checker.Liveness)
	mux.HandleFunc("/health/ready", checker.Readiness)
}

func writeHealth(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
