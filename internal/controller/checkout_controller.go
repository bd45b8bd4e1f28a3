package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rollingbite/checkout/internal/application/checkout"
	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/listing"
	"github.com/rollingbite/checkout/internal/infrastructure/observability"
	"github.com/rollingbite/checkout/internal/middleware"
)

// CheckoutController handles checkout session creation for both flows.
type CheckoutController struct {
	rentalUC *checkout.CreateRentalCheckoutUseCase
	saleUC   *checkout.CreateSaleCheckoutUseCase
	metrics  *observability.Metrics
}

// NewCheckoutController creates a new CheckoutController.
func NewCheckoutController(
	rentalUC *checkout.CreateRentalCheckoutUseCase,
	saleUC *checkout.CreateSaleCheckoutUseCase,
	metrics *observability.Metrics,
) *CheckoutController {
	return &CheckoutController{
		rentalUC: rentalUC,
		saleUC:   saleUC,
		metrics:  metrics,
	}
}

// Rental handles POST /api/v1/checkout/rental
func (h *CheckoutController) Rental(w http.ResponseWriter, r *http.Request) {
	actorID, ok := authenticatedUserID(r)
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	var req RentalCheckoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid listing_id", Code: "invalid_id"})
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid start_date", Code: "invalid_date"})
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid end_date", Code: "invalid_date"})
		return
	}

	nonce := r.Header.Get("Idempotency-Key")
	if nonce == "" {
		nonce = checkout.RequestFingerprint(
			req.ListingID,
			actorID.String(),
			req.StartDate,
			req.EndDate,
			strconv.FormatInt(req.BasePriceCents, 10),
			strconv.FormatInt(req.DeliveryFeeCents, 10),
			strconv.FormatInt(req.CleaningFeeCents, 10),
			strconv.FormatInt(req.SecurityDepositCents, 10),
		)
	}

	start := time.Now()
	resp, err := h.rentalUC.Execute(r.Context(), checkout.RentalCheckoutRequest{
		ListingID:            listingID,
		GuestID:              actorID,
		StartDate:            startDate,
		EndDate:              endDate,
		TotalDays:            req.TotalDays,
		BasePriceCents:       req.BasePriceCents,
		DeliveryFeeCents:     req.DeliveryFeeCents,
		CleaningFeeCents:     req.CleaningFeeCents,
		SecurityDepositCents: req.SecurityDepositCents,
		DeliveryRequested:    req.DeliveryRequested,
		DeliveryAddress:      req.DeliveryAddress,
		SpecialRequests:      req.SpecialRequests,
		Nonce:                nonce,
	})
	h.recordCheckout("rental", start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RentalCheckoutResponse{
		SessionID:     resp.SessionID,
		CheckoutURL:   resp.URL,
		BookingID:     resp.BookingID.String(),
		TransactionID: resp.TransactionID.String(),
		Breakdown:     FromRentalBreakdown(resp.Breakdown),
	})
}

// Sale handles POST /api/v1/checkout/sale
func (h *CheckoutController) Sale(w http.ResponseWriter, r *http.Request) {
	actorID, ok := authenticatedUserID(r)
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	var req SaleCheckoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid listing_id", Code: "invalid_id"})
		return
	}

	nonce := r.Header.Get("Idempotency-Key")
	if nonce == "" {
		nonce = checkout.RequestFingerprint(
			req.ListingID,
			actorID.String(),
			strconv.FormatInt(req.SalePriceCents, 10),
			req.DeliveryMethod,
			strconv.FormatInt(req.FreightDistance, 10),
			strconv.FormatBool(req.UseEscrow),
		)
	}

	start := time.Now()
	resp, err := h.saleUC.Execute(r.Context(), checkout.SaleCheckoutRequest{
		ListingID:       listingID,
		BuyerID:         actorID,
		SalePriceCents:  req.SalePriceCents,
		DeliveryMethod:  listing.DeliveryMethod(req.DeliveryMethod),
		DeliveryAddress: req.DeliveryAddress,
		FreightDistance: req.FreightDistance,
		BuyerNotes:      req.BuyerNotes,
		UseEscrow:       req.UseEscrow,
		Nonce:           nonce,
	})
	h.recordCheckout("sale", start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	out := SaleCheckoutResponse{
		SessionID:     resp.SessionID,
		CheckoutURL:   resp.URL,
		ListingID:     resp.ListingID.String(),
		TransactionID: resp.TransactionID.String(),
		Breakdown:     FromSaleBreakdown(resp.Breakdown),
	}
	out.EscrowID = uuidPtrString(resp.EscrowID)
	writeJSON(w, http.StatusOK, out)
}

func (h *CheckoutController) recordCheckout(flow string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.CheckoutDuration.WithLabelValues(flow).Observe(time.Since(start).Seconds())
	if err == nil {
		h.metrics.CheckoutsTotal.WithLabelValues(flow, "created").Inc()
		return
	}
	h.metrics.CheckoutsTotal.WithLabelValues(flow, "rejected").Inc()
	h.metrics.CheckoutErrors.WithLabelValues(flow, errorCategory(err)).Inc()
}

func errorCategory(err error) string {
	switch {
	case errors.Is(err, domainErrors.ErrGatewayUnavailable),
		errors.Is(err, domainErrors.ErrGatewayRejected),
		errors.Is(err, domainErrors.ErrCardDeclined):
		return "gateway"
	case errors.Is(err, domainErrors.ErrDuplicatePendingTransaction):
		return "duplicate"
	case errors.Is(err, domainErrors.ErrRecipientNotConnected):
		return "recipient"
	default:
		return "validation"
	}
}

// authenticatedUserID extracts the JWT subject set by the auth middleware.
func authenticatedUserID(r *http.Request) (uuid.UUID, bool) {
	raw, ok := middleware.GetUserID(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// parseDate accepts RFC 3339 timestamps and bare dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
