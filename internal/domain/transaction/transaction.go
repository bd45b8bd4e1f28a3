package transaction

import (
	"fmt"
	"time"

	"github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/google/uuid"
)

// Type represents the kind of checkout a transaction pays for.
type Type string

const (
	TypeBookingPayment Type = "booking_payment"
	TypeSalePurchase   Type = "sale_purchase"
	TypeEscrowPayment  Type = "escrow_payment"
)

// Status represents the transaction status in the state machine.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Transaction is the ledger record for one payment attempt. It is created
// pending by the checkout orchestrator before any money moves; the webhook
// reconciler (or the expiry sweep) owns the terminal transition.
type Transaction struct {
	ID              uuid.UUID
	PayerID         uuid.UUID
	Type            Type
	AmountCents     int64
	Currency        string
	Status          Status
	ListingID       uuid.UUID
	BookingID       *uuid.UUID
	EscrowID        *uuid.UUID
	SessionID       *string // gateway checkout session id
	PaymentIntentID *string // unique when present
	FailureReason   *string
	Metadata        map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// Amount represents a monetary amount in the smallest currency unit.
type Amount struct {
	ValueCents int64
	Currency   string
}

// String returns a human-readable representation of the amount.
func (a Amount) String() string {
	whole := a.ValueCents / 100
	frac := a.ValueCents % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%02d %s", whole, frac, a.Currency)
}

// New creates a pending transaction with no gateway reference attached.
func New(payerID uuid.UUID, txType Type, amount Amount, listingID uuid.UUID) (*Transaction, error) {
	switch txType {
	case TypeBookingPayment, TypeSalePurchase, TypeEscrowPayment:
	default:
		return nil, errors.ErrInvalidTransactionType
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Transaction{
		ID:          uuid.New(),
		PayerID:     payerID,
		Type:        txType,
		AmountCents: amount.ValueCents,
		Currency:    amount.Currency,
		Status:      StatusPending,
		ListingID:   listingID,
		Metadata:    make(map[string]any),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanTransitionTo checks if the transaction can transition to the given status.
func (t *Transaction) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusPending: {
			StatusCompleted,
			StatusFailed,
		},
		StatusCompleted: {
			StatusRefunded,
		},
		StatusFailed:   {}, // Terminal state
		StatusRefunded: {}, // Terminal state
	}

	allowed, exists := transitions[t.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the transaction to a new status.
func (t *Transaction) TransitionTo(newStatus Status) error {
	if !t.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(t.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	t.Status = newStatus
	t.UpdatedAt = time.Now()

	if newStatus == StatusCompleted || newStatus == StatusFailed {
		now := time.Now()
		t.CompletedAt = &now
	}
	return nil
}

// AttachGatewayReference records the checkout session and payment intent ids
// from a successful gateway session creation. Only valid while pending.
func (t *Transaction) AttachGatewayReference(sessionID, paymentIntentID string) error {
	if t.Status != StatusPending {
		return errors.ErrTransactionNotPending
	}
	t.SessionID = &sessionID
	if paymentIntentID != "" {
		t.PaymentIntentID = &paymentIntentID
	}
	t.UpdatedAt = time.Now()
	return nil
}

// MarkCompleted transitions the transaction to completed status.
func (t *Transaction) MarkCompleted(paymentIntentID string) error {
	if err := t.TransitionTo(StatusCompleted); err != nil {
		return err
	}
	if paymentIntentID != "" {
		t.PaymentIntentID = &paymentIntentID
	}
	return nil
}

// MarkFailed transitions the transaction to failed status.
func (t *Transaction) MarkFailed(reason string) error {
	if err := t.TransitionTo(StatusFailed); err != nil {
		return err
	}
	t.FailureReason = &reason
	return nil
}

// MarkRefunded transitions the transaction to refunded status.
func (t *Transaction) MarkRefunded() error {
	return t.TransitionTo(StatusRefunded)
}

// IsTerminal checks if the transaction is in a terminal state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusCompleted ||
		t.Status == StatusFailed ||
		t.Status == StatusRefunded
}

func validateAmount(amount Amount) error {
	if amount.ValueCents <= 0 {
		return errors.NewValidationError("amount", "must be greater than 0")
	}
	if amount.Currency == "" {
		return errors.NewValidationError("currency", "cannot be empty")
	}
	if len(amount.Currency) != 3 {
		return errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	return nil
}
