package users

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/folio/pkg/httputil"
	"github.com/platinummonkey/folio/pkg/middleware"
)

// Handlers provides HTTP handlers for user profiles
type Handlers struct {
	svc   *Service
	guard *middleware.AuthMiddleware
}

// NewHandlers creates profile handlers
func NewHandlers(svc *Service, guard *middleware.AuthMiddleware) *Handlers {
	return &Handlers{svc: svc, guard: guard}
}

// RegisterRoutes registers the profile routes under /api/users
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.Handle("/api/users/profile", h.guard.Handler(http.HandlerFunc(h.GetProfile))).Methods(http.MethodGet)
	router.Handle("/api/users/profile", h.guard.Handler(http.HandlerFunc(h.UpdateProfile))).Methods(http.MethodPut)
	router.HandleFunc("/api/users/{userId}", h.GetPublic).Methods(http.MethodGet)
}

// GetProfile handles GET /api/users/profile
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Profile(r.Context(), middleware.GetIdentity(r))
	if err != nil {
		httputil.WriteAppError(w, r, err, "Failed to load profile")
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"user": user})
}

// UpdateProfile handles PUT /api/users/profile
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), middleware.GetIdentity(r), req)
	if err != nil {
		httputil.WriteAppError(w, r, err, "Failed to update profile")
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// GetPublic handles GET /api/users/{userId}
func (h *Handlers) GetPublic(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathUUIDOrError(w, r, "userId")
	if !ok {
		return
	}

	profile, err := h.svc.Public(r.Context(), userID)
	if err != nil {
		httputil.WriteAppError(w, r, err, "Failed to load user")
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{"user": profile})
}
