package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rollingbite/checkout/internal/application/checkout"
	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
)

// EscrowController handles escrow release and refund requests.
type EscrowController struct {
	releaseUC *checkout.EscrowReleaseUseCase
}

// NewEscrowController creates a new EscrowController.
func NewEscrowController(releaseUC *checkout.EscrowReleaseUseCase) *EscrowController {
	return &EscrowController{releaseUC: releaseUC}
}

// Release handles POST /api/v1/escrows/{id}/release. Only the buyer may
// release held funds to the seller.
func (h *EscrowController) Release(w http.ResponseWriter, r *http.Request) {
	actorID, escrowID, ok := h.actorAndEscrow(w, r)
	if !ok {
		return
	}

	esc, err := h.releaseUC.Release(r.Context(), escrowID, actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromEscrow(esc))
}

// Refund handles POST /api/v1/escrows/{id}/refund. Only the seller may
// abandon a held sale and return funds to the buyer.
func (h *EscrowController) Refund(w http.ResponseWriter, r *http.Request) {
	actorID, escrowID, ok := h.actorAndEscrow(w, r)
	if !ok {
		return
	}

	esc, err := h.releaseUC.Refund(r.Context(), escrowID, actorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromEscrow(esc))
}

func (h *EscrowController) actorAndEscrow(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	actorID, ok := authenticatedUserID(r)
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}

	escrowID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid escrow id", Code: "invalid_id"})
		return uuid.Nil, uuid.Nil, false
	}

	return actorID, escrowID, true
}
