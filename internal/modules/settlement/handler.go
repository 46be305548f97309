package settlement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the settlement RPC.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Post("/api/v1/settlements", h.settle)
}

type settleResponse struct {
	Success    bool   `json:"success"`
	NewBalance *int64 `json:"new_balance,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, settleResponse{Success: false, Error: err.Error()})
		return
	}

	result, err := h.service.Settle(r.Context(), req)
	if err != nil {
		respond(w, statusFor(err), settleResponse{Success: false, Error: err.Error()})
		return
	}
	respond(w, http.StatusOK, settleResponse{Success: true, NewBalance: &result.NewBalance})
}

func statusFor(err error) int {
	var stock *InsufficientStockError
	msg := err.Error()
	switch {
	case errors.Is(err, ErrInsufficientFunds), errors.As(err, &stock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSettlementInFlight):
		return http.StatusConflict
	case errors.Is(err, ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMemberInactive):
		return http.StatusForbidden
	case errors.Is(err, ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case strings.Contains(msg, "invalid") || strings.Contains(msg, "must"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
