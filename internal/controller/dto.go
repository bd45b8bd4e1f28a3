package controller

import (
	"time"

	"github.com/google/uuid"

	"github.com/rollingbite/checkout/internal/domain/escrow"
	"github.com/rollingbite/checkout/internal/domain/fees"
	"github.com/rollingbite/checkout/internal/domain/transaction"
)

// --- Request DTOs ---
// Monetary fields cross the wire as integer cents; the DTOs carry validation
// tags and string IDs, and controllers convert them to use-case inputs.

// RentalCheckoutRequest holds the input for a rental checkout.
type RentalCheckoutRequest struct {
	ListingID            string `json:"listing_id" validate:"required,uuid"`
	StartDate            string `json:"start_date" validate:"required"`
	EndDate              string `json:"end_date" validate:"required"`
	TotalDays            int    `json:"total_days" validate:"required,gt=0"`
	BasePriceCents       int64  `json:"base_price_cents" validate:"required,gt=0"`
	DeliveryFeeCents     int64  `json:"delivery_fee_cents" validate:"gte=0"`
	CleaningFeeCents     int64  `json:"cleaning_fee_cents" validate:"gte=0"`
	SecurityDepositCents int64  `json:"security_deposit_cents" validate:"gte=0"`
	DeliveryRequested    bool   `json:"delivery_requested"`
	DeliveryAddress      string `json:"delivery_address,omitempty"`
	SpecialRequests      string `json:"special_requests,omitempty"`
}

// SaleCheckoutRequest holds the input for a sale checkout.
type SaleCheckoutRequest struct {
	ListingID       string `json:"listing_id" validate:"required,uuid"`
	SalePriceCents  int64  `json:"sale_price_cents" validate:"required,gt=0"`
	DeliveryMethod  string `json:"delivery_method" validate:"required,oneof=pickup seller free freight"`
	DeliveryAddress string `json:"delivery_address,omitempty"`
	FreightDistance int64  `json:"freight_distance_miles" validate:"gte=0"`
	BuyerNotes      string `json:"buyer_notes,omitempty"`
	UseEscrow       bool   `json:"use_escrow"`
}

// --- Response DTOs ---

// RentalBreakdownResponse mirrors fees.RentalBreakdown on the wire.
type RentalBreakdownResponse struct {
	HostPortionCents      int64 `json:"host_portion_cents"`
	HostCommissionCents   int64 `json:"host_commission_cents"`
	RenterServiceFeeCents int64 `json:"renter_service_fee_cents"`
	TotalWithFeesCents    int64 `json:"total_with_fees_cents"`
	PlatformTotalFeeCents int64 `json:"platform_total_fee_cents"`
	HostTransferCents     int64 `json:"host_transfer_cents"`
}

// SaleBreakdownResponse mirrors fees.SaleBreakdown on the wire.
type SaleBreakdownResponse struct {
	BuyerTotalCents         int64 `json:"buyer_total_cents"`
	SellerCommissionCents   int64 `json:"seller_commission_cents"`
	SellerShippingCostCents int64 `json:"seller_shipping_cost_cents"`
	PlatformTotalFeeCents   int64 `json:"platform_total_fee_cents"`
	SellerTransferCents     int64 `json:"seller_transfer_cents"`
}

// RentalCheckoutResponse is the API response for a rental checkout.
type RentalCheckoutResponse struct {
	SessionID     string                  `json:"session_id"`
	CheckoutURL   string                  `json:"checkout_url"`
	BookingID     string                  `json:"booking_id"`
	TransactionID string                  `json:"transaction_id"`
	Breakdown     RentalBreakdownResponse `json:"breakdown"`
}

// SaleCheckoutResponse is the API response for a sale checkout.
type SaleCheckoutResponse struct {
	SessionID     string                `json:"session_id"`
	CheckoutURL   string                `json:"checkout_url"`
	ListingID     string                `json:"listing_id"`
	TransactionID string                `json:"transaction_id"`
	EscrowID      *string               `json:"escrow_id,omitempty"`
	Breakdown     SaleBreakdownResponse `json:"breakdown"`
}

// TransactionResponse represents a ledger transaction in API responses.
type TransactionResponse struct {
	ID              string         `json:"id"`
	PayerID         string         `json:"payer_id"`
	Type            string         `json:"type"`
	AmountCents     int64          `json:"amount_cents"`
	Currency        string         `json:"currency"`
	Status          string         `json:"status"`
	ListingID       string         `json:"listing_id"`
	BookingID       *string        `json:"booking_id,omitempty"`
	EscrowID        *string        `json:"escrow_id,omitempty"`
	SessionID       *string        `json:"session_id,omitempty"`
	PaymentIntentID *string        `json:"payment_intent_id,omitempty"`
	FailureReason   *string        `json:"failure_reason,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// EscrowResponse represents an escrow in API responses.
type EscrowResponse struct {
	ID          string     `json:"id"`
	ListingID   string     `json:"listing_id"`
	BuyerID     string     `json:"buyer_id"`
	SellerID    string     `json:"seller_id"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	HeldAt      *time.Time `json:"held_at,omitempty"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromTransaction converts a domain transaction to API response.
func FromTransaction(t *transaction.Transaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:              t.ID.String(),
		PayerID:         t.PayerID.String(),
		Type:            string(t.Type),
		AmountCents:     t.AmountCents,
		Currency:        t.Currency,
		Status:          string(t.Status),
		ListingID:       t.ListingID.String(),
		SessionID:       t.SessionID,
		PaymentIntentID: t.PaymentIntentID,
		FailureReason:   t.FailureReason,
		Metadata:        t.Metadata,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		CompletedAt:     t.CompletedAt,
	}
	resp.BookingID = uuidPtrString(t.BookingID)
	resp.EscrowID = uuidPtrString(t.EscrowID)
	return resp
}

// FromEscrow converts a domain escrow to API response.
func FromEscrow(e *escrow.Escrow) *EscrowResponse {
	return &EscrowResponse{
		ID:          e.ID.String(),
		ListingID:   e.ListingID.String(),
		BuyerID:     e.BuyerID.String(),
		SellerID:    e.SellerID.String(),
		AmountCents: e.AmountCents,
		Currency:    e.Currency,
		Status:      string(e.Status),
		HeldAt:      e.HeldAt,
		ReleasedAt:  e.ReleasedAt,
		RefundedAt:  e.RefundedAt,
		CreatedAt:   e.CreatedAt,
	}
}

// FromRentalBreakdown converts a fee breakdown to API response.
func FromRentalBreakdown(b fees.RentalBreakdown) RentalBreakdownResponse {
	return RentalBreakdownResponse{
		HostPortionCents:      b.HostPortionCents,
		HostCommissionCents:   b.HostCommissionCents,
		RenterServiceFeeCents: b.RenterServiceFeeCents,
		TotalWithFeesCents:    b.TotalWithFeesCents,
		PlatformTotalFeeCents: b.PlatformTotalFeeCents,
		HostTransferCents:     b.HostTransferCents,
	}
}

// FromSaleBreakdown converts a fee breakdown to API response.
func FromSaleBreakdown(b fees.SaleBreakdown) SaleBreakdownResponse {
	return SaleBreakdownResponse{
		BuyerTotalCents:         b.BuyerTotalCents,
		SellerCommissionCents:   b.SellerCommissionCents,
		SellerShippingCostCents: b.SellerShippingCostCents,
		PlatformTotalFeeCents:   b.PlatformTotalFeeCents,
		SellerTransferCents:     b.SellerTransferCents,
	}
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
