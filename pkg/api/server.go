package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/folio/pkg/auth"
	"github.com/platinummonkey/folio/pkg/httputil"
	"github.com/platinummonkey/folio/pkg/middleware"
	"github.com/platinummonkey/folio/pkg/observability"
)

// Version is reported by the API index
const Version = "1.0.0"

// Pinger reports database reachability; *sql.DB implements it
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// Options wires the server's collaborators. Throttle, DB and Metrics may
// be nil.
type Options struct {
	Auth     *auth.Service
	Guard    *middleware.AuthMiddleware
	Throttle *middleware.RateLimitMiddleware
	DB       Pinger
	Metrics  *observability.Metrics
	Logger   *observability.Logger

	CORSOrigins  []string
	MaxBodyBytes int64

	// Routes registers the resource handlers (works, users, translations)
	Routes []RouteRegistrar
}

// Server represents our API server
type Server struct {
	router  *mux.Router
	handler http.Handler
	opts    Options
}

// NewServer creates a new API server with every route registered
func NewServer(opts Options) *Server {
	s := &Server{
		router: mux.NewRouter(),
		opts:   opts,
	}
	s.setupRoutes()

	s.handler = httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(opts.Logger),
		httputil.RecoveryMiddleware,
		httputil.CORSMiddleware(opts.CORSOrigins),
		httputil.MaxBytesMiddleware(opts.MaxBodyBytes),
	)(s.router)
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	if s.opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.opts.Metrics))
	}

	s.router.HandleFunc("/", s.index).Methods(http.MethodGet)
	s.router.HandleFunc("/api/health", s.health).Methods(http.MethodGet)

	NewAuthHandlers(s.opts.Auth, s.opts.Guard, s.opts.Throttle).RegisterRoutes(s.router)
	for _, registrar := range s.opts.Routes {
		registrar.RegisterRoutes(s.router)
	}

	s.router.NotFoundHandler = http.HandlerFunc(notFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(notFound)
}

// Router exposes the underlying router
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
