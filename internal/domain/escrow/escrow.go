package escrow

import (
	"time"

	"github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/google/uuid"
)

// Status represents the escrow status in the state machine.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusHeld           Status = "held"
	StatusReleased       Status = "released"
	StatusRefunded       Status = "refunded"
)

// Escrow holds buyer funds for a sale until explicit release. The hold is
// implemented at the gateway as an uncaptured payment intent; this record
// mirrors its lifecycle in durable state.
type Escrow struct {
	ID          uuid.UUID
	ListingID   uuid.UUID
	BuyerID     uuid.UUID
	SellerID    uuid.UUID
	AmountCents int64
	Currency    string
	Status      Status
	HeldAt      *time.Time
	ReleasedAt  *time.Time
	RefundedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New creates an escrow awaiting payment.
func New(listingID, buyerID, sellerID uuid.UUID, amountCents int64, currency string) (*Escrow, error) {
	if amountCents <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}

	now := time.Now()
	return &Escrow{
		ID:          uuid.New(),
		ListingID:   listingID,
		BuyerID:     buyerID,
		SellerID:    sellerID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      StatusPendingPayment,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// MarkHeld records that buyer funds are authorized and held at the gateway.
func (e *Escrow) MarkHeld() error {
	if e.Status != StatusPendingPayment {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot hold escrow in status "+string(e.Status),
			errors.ErrInvalidStateTransition,
		)
	}
	now := time.Now()
	e.Status = StatusHeld
	e.HeldAt = &now
	e.UpdatedAt = now
	return nil
}

// MarkReleased records that held funds were captured for the seller.
func (e *Escrow) MarkReleased() error {
	if e.Status != StatusHeld {
		return errors.ErrEscrowNotReleasable
	}
	now := time.Now()
	e.Status = StatusReleased
	e.ReleasedAt = &now
	e.UpdatedAt = now
	return nil
}

// MarkRefunded returns the hold to the buyer. An unfunded escrow
// (pending_payment) may also be refunded when its checkout fails or expires.
func (e *Escrow) MarkRefunded() error {
	if e.Status != StatusHeld && e.Status != StatusPendingPayment {
		return errors.ErrEscrowNotRefundable
	}
	now := time.Now()
	e.Status = StatusRefunded
	e.RefundedAt = &now
	e.UpdatedAt = now
	return nil
}

// IsTerminal checks if the escrow is in a terminal state.
func (e *Escrow) IsTerminal() bool {
	return e.Status == StatusReleased || e.Status == StatusRefunded
}
