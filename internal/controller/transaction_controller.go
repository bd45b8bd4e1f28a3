package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/transaction"
)

// TransactionController serves read access to the transaction ledger.
type TransactionController struct {
	txRepo transaction.Repository
}

// NewTransactionController creates a new TransactionController.
func NewTransactionController(txRepo transaction.Repository) *TransactionController {
	return &TransactionController{txRepo: txRepo}
}

// Get handles GET /api/v1/transactions/{id}
func (h *TransactionController) Get(w http.ResponseWriter, r *http.Request) {
	actorID, ok := authenticatedUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required", Code: "unauthorized"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid transaction id", Code: "invalid_id"})
		return
	}

	t, err := h.txRepo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	// Another payer's transaction reads as absent, not as forbidden.
	if t.PayerID != actorID {
		writeError(w, domainErrors.ErrTransactionNotFound)
		return
	}

	writeJSON(w, http.StatusOK, FromTransaction(t))
}

// List handles GET /api/v1/transactions. Results are scoped to the
// authenticated payer.
func (h *TransactionController) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := authenticatedUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required", Code: "unauthorized"})
		return
	}

	filter := transaction.ListFilter{PayerID: &actorID}

	if s := r.URL.Query().Get("status"); s != "" {
		status := transaction.Status(s)
		filter.Status = &status
	}
	if s := r.URL.Query().Get("type"); s != "" {
		txType := transaction.Type(s)
		filter.Type = &txType
	}
	if s := r.URL.Query().Get("listing_id"); s != "" {
		id, err := uuid.Parse(s)
		if err == nil {
			filter.ListingID = &id
		}
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	filter.SortBy = r.URL.Query().Get("sort_by")
	filter.SortOrder = r.URL.Query().Get("sort_order")

	transactions, err := h.txRepo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		resp = append(resp, FromTransaction(t))
	}
	writeJSON(w, http.StatusOK, resp)
}
