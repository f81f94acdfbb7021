package works

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/folio/pkg/auth"
	"github.com/platinummonkey/folio/pkg/httputil"
	"github.com/platinummonkey/folio/pkg/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Handlers provides HTTP handlers for works
type Handlers struct {
	svc   *Service
	guard *middleware.AuthMiddleware
}

// NewHandlers creates works handlers. guard protects the author routes.
func NewHandlers(svc *Service, guard *middleware.AuthMiddleware) *Handlers {
	return &Handlers{svc: svc, guard: guard}
}

// RegisterRoutes registers the works routes under /api/works
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	authorOnly := httputil.Chain(h.guard.Handler, h.guard.RequireRole(auth.RoleAuthor))

	router.HandleFunc("/api/works", h.List).Methods(http.MethodGet)
	router.Handle("/api/works", authorOnly(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	router.Handle("/api/works/my/all", h.guard.Handler(http.HandlerFunc(h.Mine))).Methods(http.MethodGet)
	router.HandleFunc("/api/works/{workId}", h.Get).Methods(http.MethodGet)
	router.Handle("/api/works/{workId}", h.guard.Handler(http.HandlerFunc(h.Update))).Methods(http.MethodPut)
}

// List handles GET /api/works
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePage(r, defaultPageSize, maxPageSize)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid query", err.Error())
		return
	}

	works, err := h.svc.List(r.Context(), Filter{
		Genre:    httputil.ParseQueryString(r, "genre", ""),
		Language: httputil.ParseQueryString(r, "language", ""),
		Page:     page,
	})
	if err != nil {
		httputil.WriteAppError(w, r, err, "Failed to list works")
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"works": works,
		"page":  page.Page,
		"limit": page.Limit,
		"total": len(works),
	})
}

// Get handles GET /api/works/{workId}
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	workID, ok := httputil.ParsePathUUIDOrError(w, r, "workId")
	if !ok {
		return
	}

	work, err := h.svc.Get(r.Context(), workID)
	if err != nil {
		httputil.WriteAppError(w, r, err, "Failed to get work")
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{"work": work})
}

// Create handles POST /api/works
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	work, err := h.svc.Create(r.Context(), middleware.GetIdentity(r), req)
	if err != nil {
		httputil.WriteAppError(w, r, err, "Failed to create work")
		return
	}

	httputil.WriteCreated(w, map[string]interface{}{
		"message": "Work created successfully",
		"work":    work,
	})
}

// Update handles PUT /api/works/{workId}
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	workID, ok := httputil.ParsePathUUIDOrError(w, r, "workId")
	if !ok {
		return
	}

	var req UpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	work, err := h.svc.Update(r.Context(), middleware.GetIdentity(r), workID, req)
	if err != nil {
		httputil.WriteAppError(w, r, err, "Failed to update work")
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"message": "Work updated successfully",
		"work":    work,
	})
}

// Mine handles GET /api/works/my/all
func (h *Handlers) Mine(w http.ResponseWriter, r *http.Request) {
	works, err := h.svc.Mine(r.Context(), middleware.GetIdentity(r))
	if err != nil {
		httputil.WriteAppError(w, r, err, "Failed to list works")
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{"works": works})
}
