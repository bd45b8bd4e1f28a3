package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for transaction persistence.
//
// Create and AttachGatewayReference together form the ledger-writer contract:
// exactly one insert followed by exactly one reference update per checkout
// attempt, both keyed by the transaction's own id. Terminal status changes go
// through Update and are reserved for the reconciler and the expiry sweep.
type Repository interface {
	// Create inserts a new pending transaction. A concurrent duplicate for
	// the same payer and subject surfaces ErrDuplicatePendingTransaction.
	Create(ctx context.Context, tx *Transaction) error

	// GetByID retrieves a transaction by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// GetByPaymentIntentID retrieves the transaction holding the given
	// gateway payment intent reference.
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Transaction, error)

	// GetBySessionID retrieves the transaction holding the given gateway
	// checkout session reference.
	GetBySessionID(ctx context.Context, sessionID string) (*Transaction, error)

	// GetByEscrowID retrieves the transaction paired with the given escrow.
	GetByEscrowID(ctx context.Context, escrowID uuid.UUID) (*Transaction, error)

	// AttachGatewayReference records the session and payment intent ids on a
	// transaction that is still pending. It fails with
	// ErrTransactionNotPending if the row is missing or already terminal.
	AttachGatewayReference(ctx context.Context, id uuid.UUID, sessionID, paymentIntentID string) error

	// Update persists status, gateway references and failure reason.
	Update(ctx context.Context, tx *Transaction) error

	// List lists transactions with filters.
	List(ctx context.Context, filter ListFilter) ([]*Transaction, error)

	// ListExpiredPending returns pending transactions created before the
	// cutoff, oldest first, up to limit rows.
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*Transaction, error)
}

// ListFilter defines filters for listing transactions.
type ListFilter struct {
	PayerID   *uuid.UUID
	ListingID *uuid.UUID
	Status    *Status
	Type      *Type
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}
