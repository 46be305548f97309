package member

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes member HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the public member routes. Admin-only routes are
// registered separately so the auth guard can wrap them.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/api/v1/members", h.listMembers)
	r.Get("/api/v1/members/{id}", h.getMember)
}

// RegisterAdminRoutes mounts the admin member routes on a guarded router.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/members", h.createMember)
	r.Post("/members/{id}/deactivate", h.deactivate)
	r.Post("/members/{id}/reactivate", h.reactivate)
	r.Post("/members/{id}/card", h.bindCard)
	r.Delete("/members/{id}/card", h.unbindCard)
	r.Post("/members/{id}/card/scan", h.registerFromScan)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, members)
}

func (h *Handler) getMember(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, m)
}

func (h *Handler) createMember(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	m, err := h.service.CreateMember(r.Context(), req)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, m)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ReactivateMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) bindCard(w http.ResponseWriter, r *http.Request) {
	var req BindCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.service.BindCard(r.Context(), chi.URLParam(r, "id"), req.UID); err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) unbindCard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.UnbindCard(r.Context(), chi.URLParam(r, "id")); err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]bool{"success": true})
}

// registerFromScan blocks until a card is presented or the client disconnects.
// Closing the request is the admin's manual cancel.
func (h *Handler) registerFromScan(w http.ResponseWriter, r *http.Request) {
	uid, err := h.service.RegisterCardFromScan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]string{"uid": uid})
}

func statusFor(err error) int {
	var dup *DuplicateCardBindingError
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &dup):
		return http.StatusConflict
	case errors.Is(err, ErrNoCardScanned):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
