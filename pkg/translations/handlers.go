package translations

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/folio/pkg/auth"
	"github.com/platinummonkey/folio/pkg/httputil"
	"github.com/platinummonkey/folio/pkg/middleware"
)

// Handlers provides HTTP handlers for translations
type Handlers struct {
	svc   *Service
	guard *middleware.AuthMiddleware
}

// NewHandlers creates translation handlers
func NewHandlers(svc *Service, guard *middleware.AuthMiddleware) *Handlers {
	return &Handlers{svc: svc, guard: guard}
}

// RegisterRoutes registers the translation routes under /api/translations
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	requesters := httputil.Chain(h.guard.Handler, h.guard.RequireRole(auth.RoleTranslator, auth.RoleEditor))

	router.HandleFunc("/api/translations/work/{workId}", h.ListForWork).Methods(http.MethodGet)
	router.Handle("/api/translations", requesters(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	router.Handle("/api/translations/{translationId}/status",
		h.guard.Handler(http.HandlerFunc(h.UpdateStatus))).Methods(http.MethodPut)
}

// ListForWork handles GET /api/translations/work/{workId}
func (h *Handlers) ListForWork(w http.ResponseWriter, r *http.Request) {
	workID, ok := httputil.ParsePathUUIDOrError(w, r, "workId")
	if !ok {
		return
	}

	list, err := h.svc.ListCompleted(r.Context(), workID)
	if err != nil {
		httputil.WriteAppError(w, r, err, "Failed to list translations")
		return
	}
	if list == nil {
		list = []Translation{}
	}

	httputil.WriteSuccess(w, map[string]interface{}{"translations": list})
}

// Create handles POST /api/translations
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	t, err := h.svc.Create(r.Context(), middleware.GetIdentity(r), req)
	if err != nil {
		httputil.WriteAppError(w, r, err, "Failed to create translation")
		return
	}

	httputil.WriteCreated(w, map[string]interface{}{
		"message":     "Translation request created",
		"translation": t,
	})
}

// UpdateStatus handles PUT /api/translations/{translationId}/status
func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	translationID, ok := httputil.ParsePathUUIDOrError(w, r, "translationId")
	if !ok {
		return
	}

	var req StatusRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	t, err := h.svc.UpdateStatus(r.Context(), middleware.GetIdentity(r), translationID, req)
	if err != nil {
		httputil.WriteAppError(w, r, err, "Failed to update translation")
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"message":     "Translation status updated",
		"translation": t,
	})
}
