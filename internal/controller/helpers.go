package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
)

var validate = validator.New()

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrListingNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrTransactionNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrBookingNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrEscrowNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrListingModeMismatch, http.StatusBadRequest, "listing_mode_mismatch"},
	{domainErrors.ErrListingInactive, http.StatusBadRequest, "listing_inactive"},
	{domainErrors.ErrRecipientNotConnected, http.StatusBadRequest, "recipient_not_connected"},
	{domainErrors.ErrInvalidDateRange, http.StatusBadRequest, "invalid_date_range"},
	{domainErrors.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{domainErrors.ErrCardDeclined, http.StatusPaymentRequired, "card_declined"},
	{domainErrors.ErrGatewayRejected, http.StatusBadGateway, "gateway_rejected"},
	{domainErrors.ErrGatewayUnavailable, http.StatusServiceUnavailable, "gateway_unavailable"},
	{domainErrors.ErrDuplicatePendingTransaction, http.StatusConflict, "duplicate_pending_transaction"},
	{domainErrors.ErrDuplicatePaymentIntent, http.StatusConflict, "duplicate_payment_intent"},
	{domainErrors.ErrInvalidStateTransition, http.StatusConflict, "invalid_state_transition"},
	{domainErrors.ErrTransactionNotPending, http.StatusConflict, "transaction_not_pending"},
	{domainErrors.ErrEscrowNotReleasable, http.StatusConflict, "escrow_not_releasable"},
	{domainErrors.ErrEscrowNotRefundable, http.StatusConflict, "escrow_not_refundable"},
	{domainErrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domainErrors.ErrForbidden, http.StatusForbidden, "forbidden"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			writeJSON(w, m.status, resp)
			return
		}
	}

	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		resp.Code = domainErr.Code
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}
