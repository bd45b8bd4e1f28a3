package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GatewayEvent is one asynchronous notification received from the payment
// gateway, stored as an inbox row before processing. The gateway-assigned
// event id is the dedupe key: the same event delivered twice is processed
// once.
type GatewayEvent struct {
	ID              uuid.UUID
	GatewayEventID  string // unique, assigned by the gateway (evt_...)
	Type            string
	SessionID       string
	PaymentIntentID string
	TransactionID   string // from session metadata, may be empty
	FailureMessage  string
	Payload         []byte
	ReceivedAt      time.Time
	ProcessedAt     *time.Time
	FailureCount    int
}

// Gateway event types this service reconciles.
const (
	TypeSessionCompleted = "checkout.session.completed"
	TypeIntentSucceeded  = "payment_intent.succeeded"
	TypeIntentFailed     = "payment_intent.payment_failed"
)

// Reconcilable reports whether the event type carries a terminal-state
// transition for a transaction.
func Reconcilable(eventType string) bool {
	switch eventType {
	case TypeSessionCompleted, TypeIntentSucceeded, TypeIntentFailed:
		return true
	}
	return false
}

// Repository defines the interface for the gateway-event inbox.
type Repository interface {
	// Insert stores a received event. A duplicate gateway event id
	// surfaces ErrEventAlreadyProcessed.
	Insert(ctx context.Context, e *GatewayEvent) error

	// GetByGatewayEventID retrieves an inbox row by the gateway's event id.
	// Returns (nil, nil) when no row exists.
	GetByGatewayEventID(ctx context.Context, gatewayEventID string) (*GatewayEvent, error)

	// MarkProcessed stamps the event as successfully reconciled.
	MarkProcessed(ctx context.Context, id uuid.UUID) error

	// IncrementFailure bumps the failure counter for a poison event and
	// returns the new count.
	IncrementFailure(ctx context.Context, id uuid.UUID) (int, error)
}
