// Package transport provides HTTP handlers for the resolution domain.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pendergraft/abiscout/internal/abi"
	"github.com/pendergraft/abiscout/internal/resolution/domain"
)

// Handler handles HTTP requests for ABI resolution.
type Handler struct {
	svc domain.Service
}

// NewHandler creates a new resolution HTTP handler.
func NewHandler(svc domain.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the resolution routes on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/contract", h.handleResolve)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	record, err := h.svc.Resolve(r.Context(), domain.ResolveRequest{
		Address: q.Get("address"),
		Network: q.Get("network"),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAddress), errors.Is(err, domain.ErrInvalidNetwork):
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Success: false,
				Error:   "Invalid request",
				Details: []string{err.Error()},
			})
		case errors.Is(err, domain.ErrExhausted):
			writeJSON(w, http.StatusNotFound, errorResponse{
				Success: false,
				Error:   "Contract not verified and recovery failed",
				Code:    "REQUIRE_MANUAL_ABI",
			})
		default:
			// Out-of-taxonomy faults surface their message in the envelope.
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Success: false,
				Error:   err.Error(),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Data: ContractData{
			Address:        record.Address,
			Name:           record.Name,
			ABI:            record.Entries,
			IsVerified:     record.Tier == abi.TierVerified,
			IsRecovered:    record.Tier == abi.TierRecovered,
			Implementation: record.Implementation,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
