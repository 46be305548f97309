package history

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler exposes transaction history endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the public history routes; the kiosk shows both the
// shared feed and a member's own purchases.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/api/v1/transactions", h.list)
	r.Get("/api/v1/members/{id}/transactions", h.memberHistory)
}

// RegisterAdminRoutes mounts the period-close and export routes on a guarded
// router.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/transactions/archive", h.archive)
	r.Get("/transactions/export", h.export)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txs, err := h.service.List(r.Context(), limit)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, txs)
}

func (h *Handler) memberHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txs, err := h.service.MemberHistory(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, txs)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.CloseOutPeriod(r.Context())
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, res)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	opts := ExportOptions{
		IncludeArchived: r.URL.Query().Get("include_archived") == "true",
		ShiftJIS:        r.URL.Query().Get("encoding") == "sjis",
	}

	filename := "transactions-" + time.Now().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := h.service.ExportCSV(r.Context(), w, opts); err != nil {
		// headers are gone already; the truncated body is the best signal left
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
