package controller

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusCreated, map[string]string{"message": "ok"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"ok"}`, w.Body.String())
}

func TestWriteError_ValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, domainErrors.NewValidationError("sale_price", "must be greater than 0"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestWriteError_DomainErrorMappings(t *testing.T) {
	tests := []struct {
		err          error
		status       int
		expectedCode string
	}{
		{domainErrors.ErrListingNotFound, http.StatusNotFound, "not_found"},
		{domainErrors.ErrTransactionNotFound, http.StatusNotFound, "not_found"},
		{domainErrors.ErrListingModeMismatch, http.StatusBadRequest, "listing_mode_mismatch"},
		{domainErrors.ErrListingInactive, http.StatusBadRequest, "listing_inactive"},
		{domainErrors.ErrRecipientNotConnected, http.StatusBadRequest, "recipient_not_connected"},
		{domainErrors.ErrInvalidDateRange, http.StatusBadRequest, "invalid_date_range"},
		{domainErrors.ErrCardDeclined, http.StatusPaymentRequired, "card_declined"},
		{domainErrors.ErrGatewayRejected, http.StatusBadGateway, "gateway_rejected"},
		{domainErrors.ErrGatewayUnavailable, http.StatusServiceUnavailable, "gateway_unavailable"},
		{domainErrors.ErrDuplicatePendingTransaction, http.StatusConflict, "duplicate_pending_transaction"},
		{domainErrors.ErrDuplicatePaymentIntent, http.StatusConflict, "duplicate_payment_intent"},
		{domainErrors.ErrTransactionNotPending, http.StatusConflict, "transaction_not_pending"},
		{domainErrors.ErrEscrowNotReleasable, http.StatusConflict, "escrow_not_releasable"},
		{domainErrors.ErrEscrowNotRefundable, http.StatusConflict, "escrow_not_refundable"},
		{domainErrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{domainErrors.ErrForbidden, http.StatusForbidden, "forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.expectedCode+"_"+fmt.Sprint(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedCode)
		})
	}
}

func TestWriteError_UnmappedDomainErrorIsBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, domainErrors.NewDomainError("listing_unavailable", "listing unavailable", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "listing_unavailable")
}

func TestWriteError_WrappedErrorStillMaps(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, fmt.Errorf("create checkout session: %w", domainErrors.ErrGatewayUnavailable))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWriteError_UnknownErrorIs500(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Internal details must not leak to the client.
	assert.NotContains(t, w.Body.String(), "connection reset")
	assert.Contains(t, w.Body.String(), "internal_error")
}

func TestDecodeAndValidate(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required"`
	}

	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok"}`))
		var p payload
		require.NoError(t, decodeAndValidate(r, &p))
		assert.Equal(t, "ok", p.Name)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{`)))
		var p payload
		err := decodeAndValidate(r, &p)
		var verr *domainErrors.ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("missing required field", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		var p payload
		err := decodeAndValidate(r, &p)
		var verr *domainErrors.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "Name", verr.Field)
	})
}
