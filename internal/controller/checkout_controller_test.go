package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollingbite/checkout/internal/application/checkout"
	"github.com/rollingbite/checkout/internal/domain/fees"
	"github.com/rollingbite/checkout/internal/domain/listing"
	"github.com/rollingbite/checkout/internal/gateway"
	"github.com/rollingbite/checkout/internal/middleware"
	"github.com/rollingbite/checkout/internal/testutil"
)

type checkoutControllerFixture struct {
	listingRepo *testutil.MockListingRepository
	payoutRepo  *testutil.MockPayoutRepository
	gw          *gateway.MockGateway
	ctl         *CheckoutController
}

func newCheckoutControllerFixture(gwOpts ...gateway.MockGatewayOption) *checkoutControllerFixture {
	f := &checkoutControllerFixture{
		listingRepo: testutil.NewMockListingRepository(),
		payoutRepo:  testutil.NewMockPayoutRepository(),
		gw:          gateway.NewMockGateway(gwOpts...),
	}
	cfg := checkout.Config{Rates: fees.DefaultRates(), AppBaseURL: "https://app.test"}
	rentalUC := checkout.NewCreateRentalCheckoutUseCase(
		f.listingRepo, f.payoutRepo, testutil.NewMockBookingRepository(),
		testutil.NewMockTransactionRepository(), testutil.NewMockTxManager(), f.gw, cfg,
	)
	saleUC := checkout.NewCreateSaleCheckoutUseCase(
		f.listingRepo, f.payoutRepo, testutil.NewMockEscrowRepository(),
		testutil.NewMockTransactionRepository(), testutil.NewMockTxManager(), f.gw, cfg,
	)
	f.ctl = NewCheckoutController(rentalUC, saleUC, nil)
	return f
}

func authenticatedRequest(method, target, body, userID string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

func TestCheckoutController_Rental_Created(t *testing.T) {
	f := newCheckoutControllerFixture()
	lst := testutil.NewTestListing(listing.ModeRent)
	f.listingRepo.Add(lst)
	f.payoutRepo.Add(testutil.NewVerifiedPayoutAccount(lst.OwnerID))

	start := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	end := time.Now().AddDate(0, 0, 10).Format("2006-01-02")
	body := fmt.Sprintf(`{
		"listing_id": %q,
		"start_date": %q,
		"end_date": %q,
		"total_days": 3,
		"base_price_cents": 30000
	}`, lst.ID, start, end)

	w := httptest.NewRecorder()
	f.ctl.Rental(w, authenticatedRequest(http.MethodPost, "/api/v1/checkout/rental", body, uuid.NewString()))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp RentalCheckoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.SessionID, "cs_test_"))
	assert.NotEmpty(t, resp.CheckoutURL)
	assert.NotEmpty(t, resp.BookingID)
	assert.Equal(t, int64(33_870), resp.Breakdown.TotalWithFeesCents)
	assert.Equal(t, int64(3_870), resp.Breakdown.HostCommissionCents)
	assert.Equal(t, int64(3_870), resp.Breakdown.RenterServiceFeeCents)
}

func TestCheckoutController_Rental_Unauthenticated(t *testing.T) {
	f := newCheckoutControllerFixture()

	r := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/rental", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	f.ctl.Rental(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckoutController_Rental_ValidationFailure(t *testing.T) {
	f := newCheckoutControllerFixture()

	// Missing base_price_cents.
	body := fmt.Sprintf(`{"listing_id": %q, "start_date": "2026-09-01", "end_date": "2026-09-03", "total_days": 2}`, uuid.NewString())
	w := httptest.NewRecorder()
	f.ctl.Rental(w, authenticatedRequest(http.MethodPost, "/api/v1/checkout/rental", body, uuid.NewString()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestCheckoutController_Rental_ListingNotFound(t *testing.T) {
	f := newCheckoutControllerFixture()

	body := fmt.Sprintf(`{
		"listing_id": %q,
		"start_date": "2026-09-01",
		"end_date": "2026-09-03",
		"total_days": 2,
		"base_price_cents": 20000
	}`, uuid.NewString())
	w := httptest.NewRecorder()
	f.ctl.Rental(w, authenticatedRequest(http.MethodPost, "/api/v1/checkout/rental", body, uuid.NewString()))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutController_Rental_RecipientNotConnected(t *testing.T) {
	f := newCheckoutControllerFixture()
	lst := testutil.NewTestListing(listing.ModeRent)
	f.listingRepo.Add(lst)

	body := fmt.Sprintf(`{
		"listing_id": %q,
		"start_date": "2026-09-01",
		"end_date": "2026-09-03",
		"total_days": 2,
		"base_price_cents": 20000
	}`, lst.ID)
	w := httptest.NewRecorder()
	f.ctl.Rental(w, authenticatedRequest(http.MethodPost, "/api/v1/checkout/rental", body, uuid.NewString()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "recipient_not_connected")
}

func TestCheckoutController_Sale_Created(t *testing.T) {
	f := newCheckoutControllerFixture()
	lst := testutil.NewTestListing(listing.ModeSale)
	f.listingRepo.Add(lst)
	f.payoutRepo.Add(testutil.NewVerifiedPayoutAccount(lst.OwnerID))

	body := fmt.Sprintf(`{
		"listing_id": %q,
		"sale_price_cents": 250000,
		"delivery_method": "pickup",
		"use_escrow": true
	}`, lst.ID)
	w := httptest.NewRecorder()
	f.ctl.Sale(w, authenticatedRequest(http.MethodPost, "/api/v1/checkout/sale", body, uuid.NewString()))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SaleCheckoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.EscrowID)
	assert.Equal(t, lst.ID.String(), resp.ListingID)
	assert.Equal(t, int64(37_500), resp.Breakdown.SellerCommissionCents)
	assert.Equal(t, int64(212_500), resp.Breakdown.SellerTransferCents)
}

func TestCheckoutController_Sale_InvalidDeliveryMethod(t *testing.T) {
	f := newCheckoutControllerFixture()

	body := fmt.Sprintf(`{
		"listing_id": %q,
		"sale_price_cents": 250000,
		"delivery_method": "teleport"
	}`, uuid.NewString())
	w := httptest.NewRecorder()
	f.ctl.Sale(w, authenticatedRequest(http.MethodPost, "/api/v1/checkout/sale", body, uuid.NewString()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutController_Rental_CardDeclined(t *testing.T) {
	f := newCheckoutControllerFixture(gateway.WithCardDecline("insufficient funds"))
	lst := testutil.NewTestListing(listing.ModeRent)
	f.listingRepo.Add(lst)
	f.payoutRepo.Add(testutil.NewVerifiedPayoutAccount(lst.OwnerID))

	body := fmt.Sprintf(`{
		"listing_id": %q,
		"start_date": "2026-09-01",
		"end_date": "2026-09-03",
		"total_days": 2,
		"base_price_cents": 20000
	}`, lst.ID)
	w := httptest.NewRecorder()
	f.ctl.Rental(w, authenticatedRequest(http.MethodPost, "/api/v1/checkout/rental", body, uuid.NewString()))

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "card_declined")
}
