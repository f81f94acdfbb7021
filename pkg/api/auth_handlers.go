package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/folio/pkg/auth"
	"github.com/platinummonkey/folio/pkg/httputil"
	"github.com/platinummonkey/folio/pkg/middleware"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	svc      *auth.Service
	guard    *middleware.AuthMiddleware
	throttle *middleware.RateLimitMiddleware
}

// NewAuthHandlers creates a new auth handlers instance. throttle may be nil.
func NewAuthHandlers(svc *auth.Service, guard *middleware.AuthMiddleware, throttle *middleware.RateLimitMiddleware) *AuthHandlers {
	return &AuthHandlers{svc: svc, guard: guard, throttle: throttle}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.Handle("/api/auth/register", h.throttled(h.register)).Methods(http.MethodPost)
	router.Handle("/api/auth/login", h.throttled(h.login)).Methods(http.MethodPost)
	router.Handle("/api/auth/me", h.guard.Handler(http.HandlerFunc(h.me))).Methods(http.MethodGet)
}

func (h *AuthHandlers) throttled(fn http.HandlerFunc) http.Handler {
	if h.throttle == nil {
		return fn
	}
	return h.throttle.Handler(fn)
}

// register handles POST /api/auth/register
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	session, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httputil.WriteAppError(w, r, err, "Registration failed")
		return
	}

	httputil.WriteCreated(w, map[string]interface{}{
		"message": "User registered successfully",
		"user":    session.User,
		"token":   session.Token,
	})
}

// login handles POST /api/auth/login
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	session, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httputil.WriteAppError(w, r, err, "Login failed")
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"message": "Login successful",
		"user":    session.User,
		"token":   session.Token,
	})
}

// me handles GET /api/auth/me
func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Me(r.Context(), middleware.GetIdentity(r))
	if err != nil {
		httputil.WriteAppError(w, r, err, "Failed to get profile")
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{"user": user})
}
