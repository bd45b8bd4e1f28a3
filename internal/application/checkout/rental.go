package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/rollingbite/checkout/internal/domain/booking"
	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/fees"
	"github.com/rollingbite/checkout/internal/domain/listing"
	"github.com/rollingbite/checkout/internal/domain/payout"
	"github.com/rollingbite/checkout/internal/domain/transaction"
	"github.com/rollingbite/checkout/internal/gateway"
	"github.com/google/uuid"
)

// Config carries the orchestrator's static settings.
type Config struct {
	Rates      fees.Rates
	AppBaseURL string
}

// RentalCheckoutRequest holds the input for a rental checkout. Monetary
// fields are minor units and have been validated non-negative upstream.
type RentalCheckoutRequest struct {
	ListingID            uuid.UUID
	GuestID              uuid.UUID
	StartDate            time.Time
	EndDate              time.Time
	TotalDays            int
	BasePriceCents       int64
	DeliveryFeeCents     int64
	CleaningFeeCents     int64
	SecurityDepositCents int64
	DeliveryRequested    bool
	DeliveryAddress      string
	SpecialRequests      string
	// Nonce is the client-supplied idempotency nonce, or a request
	// fingerprint when the client sent none.
	Nonce string
}

// RentalCheckoutResponse holds the result of a rental checkout.
type RentalCheckoutResponse struct {
	SessionID     string
	URL           string
	BookingID     uuid.UUID
	TransactionID uuid.UUID
	Breakdown     fees.RentalBreakdown
}

// CreateRentalCheckoutUseCase orchestrates the rental checkout flow: resolve
// the listing and its payable recipient, compute fees, write the booking and
// pending transaction, open the gateway session, attach the reference.
type CreateRentalCheckoutUseCase struct {
	listingRepo listing.Repository
	payoutRepo  payout.Repository
	bookingRepo booking.Repository
	txRepo      transaction.Repository
	txManager   TransactionManager
	gw          gateway.Gateway
	cfg         Config
}

// NewCreateRentalCheckoutUseCase creates a new CreateRentalCheckoutUseCase.
func NewCreateRentalCheckoutUseCase(
	listingRepo listing.Repository,
	payoutRepo payout.Repository,
	bookingRepo booking.Repository,
	txRepo transaction.Repository,
	txManager TransactionManager,
	gw gateway.Gateway,
	cfg Config,
) *CreateRentalCheckoutUseCase {
	return &CreateRentalCheckoutUseCase{
		listingRepo: listingRepo,
		payoutRepo:  payoutRepo,
		bookingRepo: bookingRepo,
		txRepo:      txRepo,
		txManager:   txManager,
		gw:          gw,
		cfg:         cfg,
	}
}

// Execute runs the rental checkout flow.
func (uc *CreateRentalCheckoutUseCase) Execute(ctx context.Context, req RentalCheckoutRequest) (*RentalCheckoutResponse, error) {
	if !req.StartDate.Before(req.EndDate) {
		return nil, domainErrors.ErrInvalidDateRange
	}

	// 1. Resolve the subject listing.
	lst, err := uc.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if lst.Mode != listing.ModeRent {
		return nil, domainErrors.ErrListingModeMismatch
	}
	if !lst.Active {
		return nil, domainErrors.ErrListingInactive
	}

	// 2. Resolve the payout recipient before any write. No booking or
	// transaction may exist for a listing whose owner cannot receive funds.
	recipient, err := uc.payoutRepo.GetVerifiedByOwner(ctx, lst.OwnerID)
	if err != nil {
		return nil, err
	}

	// 3. Compute fees.
	breakdown := fees.Rental(fees.RentalInput{
		BasePriceCents:       req.BasePriceCents,
		DeliveryFeeCents:     req.DeliveryFeeCents,
		CleaningFeeCents:     req.CleaningFeeCents,
		SecurityDepositCents: req.SecurityDepositCents,
	}, uc.cfg.Rates)
	if breakdown.TotalWithFeesCents <= 0 {
		return nil, domainErrors.NewValidationError("base_price", "charge total must be greater than 0")
	}

	// 4. Create the booking and the pending transaction together. Both
	// represent intent and survive gateway failure; the expiry sweep owns
	// their cleanup.
	bkg, err := booking.New(lst.ID, req.GuestID, lst.OwnerID, req.StartDate, req.EndDate, req.TotalDays)
	if err != nil {
		return nil, err
	}
	bkg.BasePriceCents = req.BasePriceCents
	bkg.DeliveryFeeCents = req.DeliveryFeeCents
	bkg.CleaningFeeCents = req.CleaningFeeCents
	bkg.SecurityDepositCents = req.SecurityDepositCents
	bkg.HostCommissionCents = breakdown.HostCommissionCents
	bkg.ServiceFeeCents = breakdown.RenterServiceFeeCents
	bkg.TotalCents = breakdown.TotalWithFeesCents
	bkg.DeliveryRequested = req.DeliveryRequested
	bkg.DeliveryAddress = req.DeliveryAddress
	bkg.SpecialRequests = req.SpecialRequests

	txn, err := transaction.New(
		req.GuestID,
		transaction.TypeBookingPayment,
		transaction.Amount{ValueCents: breakdown.TotalWithFeesCents, Currency: lst.Currency},
		lst.ID,
	)
	if err != nil {
		return nil, err
	}
	txn.BookingID = &bkg.ID
	txn.Metadata = rentalAuditMetadata(breakdown)

	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.bookingRepo.Create(txCtx, bkg); err != nil {
			return err
		}
		return uc.txRepo.Create(txCtx, txn)
	})
	if err != nil {
		return nil, err
	}

	// 5. Open the gateway session. A failure here leaves the pending rows
	// in place; there is no compensating rollback.
	key := IdempotencyKey(OpRentalCheckout, lst.ID, req.GuestID, req.Nonce)
	sess, err := uc.gw.CreateCheckoutSession(ctx, gateway.SessionRequest{
		IdempotencyKey: key,
		Currency:       lst.Currency,
		LineItems: []gateway.LineItem{
			{Name: "Rental: " + lst.Title, AmountCents: breakdown.HostPortionCents, Quantity: 1},
			{Name: "Service fee", AmountCents: breakdown.RenterServiceFeeCents, Quantity: 1},
		},
		ApplicationFeeCents: breakdown.PlatformTotalFeeCents,
		DestinationAccount:  recipient.AccountRef,
		SuccessURL:          uc.cfg.AppBaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:           uc.cfg.AppBaseURL + "/checkout/cancel",
		ExpiresAt:           time.Now().Add(gateway.SessionExpiry),
		Metadata: map[string]string{
			"transaction_id": txn.ID.String(),
			"booking_id":     bkg.ID.String(),
			"listing_id":     lst.ID.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	// 6. Attach the gateway reference to the still-pending transaction.
	if err := uc.txRepo.AttachGatewayReference(ctx, txn.ID, sess.ID, sess.PaymentIntentID); err != nil {
		return nil, err
	}

	return &RentalCheckoutResponse{
		SessionID:     sess.ID,
		URL:           sess.URL,
		BookingID:     bkg.ID,
		TransactionID: txn.ID,
		Breakdown:     breakdown,
	}, nil
}

func rentalAuditMetadata(b fees.RentalBreakdown) map[string]any {
	return map[string]any{
		"host_portion_cents":       b.HostPortionCents,
		"host_commission_cents":    b.HostCommissionCents,
		"renter_service_fee_cents": b.RenterServiceFeeCents,
		"total_with_fees_cents":    b.TotalWithFeesCents,
		"platform_total_fee_cents": b.PlatformTotalFeeCents,
		"host_transfer_cents":      b.HostTransferCents,
	}
}
