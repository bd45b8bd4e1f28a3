package checkout

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/escrow"
	"github.com/rollingbite/checkout/internal/domain/fees"
	"github.com/rollingbite/checkout/internal/domain/listing"
	"github.com/rollingbite/checkout/internal/domain/payout"
	"github.com/rollingbite/checkout/internal/domain/transaction"
	"github.com/rollingbite/checkout/internal/gateway"
	"github.com/google/uuid"
)

// SaleCheckoutRequest holds the input for a sale checkout.
type SaleCheckoutRequest struct {
	ListingID       uuid.UUID
	BuyerID         uuid.UUID
	SalePriceCents  int64
	DeliveryMethod  listing.DeliveryMethod
	DeliveryAddress string
	FreightDistance int64
	BuyerNotes      string
	UseEscrow       bool
	Nonce           string
}

// SaleCheckoutResponse holds the result of a sale checkout.
type SaleCheckoutResponse struct {
	SessionID     string
	URL           string
	ListingID     uuid.UUID
	TransactionID uuid.UUID
	EscrowID      *uuid.UUID
	Breakdown     fees.SaleBreakdown
}

// CreateSaleCheckoutUseCase orchestrates the sale checkout flow. It mirrors
// the rental flow, with an opt-in escrow record in place of the booking and a
// manual-capture gateway session when escrow is requested.
type CreateSaleCheckoutUseCase struct {
	listingRepo listing.Repository
	payoutRepo  payout.Repository
	escrowRepo  escrow.Repository
	txRepo      transaction.Repository
	txManager   TransactionManager
	gw          gateway.Gateway
	cfg         Config
}

// NewCreateSaleCheckoutUseCase creates a new CreateSaleCheckoutUseCase.
func NewCreateSaleCheckoutUseCase(
	listingRepo listing.Repository,
	payoutRepo payout.Repository,
	escrowRepo escrow.Repository,
	txRepo transaction.Repository,
	txManager TransactionManager,
	gw gateway.Gateway,
	cfg Config,
) *CreateSaleCheckoutUseCase {
	return &CreateSaleCheckoutUseCase{
		listingRepo: listingRepo,
		payoutRepo:  payoutRepo,
		escrowRepo:  escrowRepo,
		txRepo:      txRepo,
		txManager:   txManager,
		gw:          gw,
		cfg:         cfg,
	}
}

// Execute runs the sale checkout flow.
func (uc *CreateSaleCheckoutUseCase) Execute(ctx context.Context, req SaleCheckoutRequest) (*SaleCheckoutResponse, error) {
	if req.SalePriceCents <= 0 {
		return nil, domainErrors.NewValidationError("sale_price", "must be greater than 0")
	}
	if !listing.ValidDeliveryMethod(string(req.DeliveryMethod)) {
		return nil, domainErrors.NewValidationError("delivery_method", "must be one of pickup, seller, free, freight")
	}

	// 1. Resolve the subject listing; the mode must match the flow.
	lst, err := uc.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	if lst.Mode != listing.ModeSale {
		return nil, domainErrors.ErrListingModeMismatch
	}
	if !lst.Active {
		return nil, domainErrors.ErrListingInactive
	}

	// 2. Resolve the payout recipient before any write.
	recipient, err := uc.payoutRepo.GetVerifiedByOwner(ctx, lst.OwnerID)
	if err != nil {
		return nil, err
	}

	// 3. Compute fees. Freight cost lands on the seller only when the
	// listing's terms say so; pickup/seller/free delivery is assumed priced
	// into the sale price already.
	breakdown := fees.Sale(fees.SaleInput{
		SalePriceCents:     req.SalePriceCents,
		SellerPaysFreight:  lst.SellerPaysFreight(req.DeliveryMethod),
		FreightDistance:    req.FreightDistance,
		FreightRatePerMile: lst.EffectiveFreightRate(),
	}, uc.cfg.Rates)

	// 4. Create the escrow (when requested) and the pending transaction.
	txType := transaction.TypeSalePurchase
	var esc *escrow.Escrow
	if req.UseEscrow {
		txType = transaction.TypeEscrowPayment
		esc, err = escrow.New(lst.ID, req.BuyerID, lst.OwnerID, breakdown.BuyerTotalCents, lst.Currency)
		if err != nil {
			return nil, err
		}
	}

	txn, err := transaction.New(
		req.BuyerID,
		txType,
		transaction.Amount{ValueCents: breakdown.BuyerTotalCents, Currency: lst.Currency},
		lst.ID,
	)
	if err != nil {
		return nil, err
	}
	if esc != nil {
		txn.EscrowID = &esc.ID
	}
	txn.Metadata = saleAuditMetadata(breakdown, req)

	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if esc != nil {
			if err := uc.escrowRepo.Create(txCtx, esc); err != nil {
				return err
			}
		}
		return uc.txRepo.Create(txCtx, txn)
	})
	if err != nil {
		return nil, err
	}

	// 5. Open the gateway session; manual capture holds escrowed funds
	// authorized-but-uncaptured until release.
	key := IdempotencyKey(OpSaleCheckout, lst.ID, req.BuyerID, req.Nonce)
	sess, err := uc.gw.CreateCheckoutSession(ctx, gateway.SessionRequest{
		IdempotencyKey: key,
		Currency:       lst.Currency,
		LineItems: []gateway.LineItem{
			{Name: lst.Title, AmountCents: breakdown.BuyerTotalCents, Quantity: 1},
		},
		ApplicationFeeCents: breakdown.PlatformTotalFeeCents,
		DestinationAccount:  recipient.AccountRef,
		ManualCapture:       esc != nil,
		SuccessURL:          uc.cfg.AppBaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:           uc.cfg.AppBaseURL + "/checkout/cancel",
		ExpiresAt:           time.Now().Add(gateway.SessionExpiry),
		Metadata:            saleGatewayMetadata(txn.ID, lst.ID, esc),
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	// 6. Attach the gateway reference.
	if err := uc.txRepo.AttachGatewayReference(ctx, txn.ID, sess.ID, sess.PaymentIntentID); err != nil {
		return nil, err
	}

	resp := &SaleCheckoutResponse{
		SessionID:     sess.ID,
		URL:           sess.URL,
		ListingID:     lst.ID,
		TransactionID: txn.ID,
		Breakdown:     breakdown,
	}
	if esc != nil {
		resp.EscrowID = &esc.ID
	}
	return resp, nil
}

func saleGatewayMetadata(txnID, listingID uuid.UUID, esc *escrow.Escrow) map[string]string {
	m := map[string]string{
		"transaction_id": txnID.String(),
		"listing_id":     listingID.String(),
	}
	if esc != nil {
		m["escrow_id"] = esc.ID.String()
	}
	return m
}

func saleAuditMetadata(b fees.SaleBreakdown, req SaleCheckoutRequest) map[string]any {
	return map[string]any{
		"buyer_total_cents":          b.BuyerTotalCents,
		"seller_commission_cents":    b.SellerCommissionCents,
		"seller_shipping_cost_cents": b.SellerShippingCostCents,
		"platform_total_fee_cents":   b.PlatformTotalFeeCents,
		"seller_transfer_cents":      b.SellerTransferCents,
		"delivery_method":            string(req.DeliveryMethod),
		"use_escrow":                 req.UseEscrow,
	}
}
