package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/platinummonkey/folio/pkg/httputil"
)

const healthPingTimeout = 2 * time.Second

// index handles GET /
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]interface{}{
		"message": "Welcome to Publisher API",
		"version": Version,
		"endpoints": map[string]string{
			"health":       "/api/health",
			"auth":         "/api/auth",
			"users":        "/api/users",
			"works":        "/api/works",
			"translations": "/api/translations",
		},
	})
}

// health handles GET /api/health. It always answers 200; the database
// field reports reachability for humans, the readiness probe lives on the
// health port.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	database := "disconnected"
	if s.opts.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()
		if err := s.opts.DB.PingContext(ctx); err == nil {
			database = "connected"
		}
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"status":    "ok",
		"message":   "Publisher API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"database":  database,
	})
}

// notFound answers unmatched routes with a JSON 404
func notFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteNotFound(w, "Not Found", fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path))
}
