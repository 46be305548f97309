package presence

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the session-state row and the kiosk's live session.
type Handler struct {
	repo    Repository
	watcher *Watcher
}

func NewHandler(repo Repository, watcher *Watcher) *Handler {
	return &Handler{repo: repo, watcher: watcher}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	// written by the card reader bridge integration
	r.Put("/api/v1/kiosks/{kioskID}/card", h.setCard)
	r.Get("/api/v1/kiosks/{kioskID}/status", h.getStatus)
	r.Get("/api/v1/kiosks/{kioskID}/session", h.getSession)
}

func (h *Handler) setCard(w http.ResponseWriter, r *http.Request) {
	var req SetCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.repo.SetCard(r.Context(), chi.URLParam(r, "kioskID"), req.UID); err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.repo.Get(r.Context(), chi.URLParam(r, "kioskID"))
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, st)
}

// getSession serves the live state machine of this server's own kiosk.
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	if h.watcher == nil || chi.URLParam(r, "kioskID") != h.watcher.kioskID {
		respond(w, http.StatusNotFound, map[string]string{"error": "no watcher for this kiosk"})
		return
	}
	respond(w, http.StatusOK, h.watcher.Session())
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
