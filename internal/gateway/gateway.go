package gateway

import (
	"context"
	"time"
)

// SessionExpiry is how long a checkout session stays payable before the
// gateway expires it.
const SessionExpiry = 30 * time.Minute

// LineItem is one human-readable component of the gross charge, e.g. the
// asset price vs the service fee.
type LineItem struct {
	Name        string
	AmountCents int64
	Quantity    int64
}

// SessionRequest describes a split-payment checkout session to be created at
// the gateway.
type SessionRequest struct {
	// IdempotencyKey makes the create call safe to retry; the gateway
	// returns the original session for a repeated key.
	IdempotencyKey string
	Currency       string
	LineItems      []LineItem
	// ApplicationFeeCents is the platform's total take, withheld from the
	// transfer to the destination account.
	ApplicationFeeCents int64
	// DestinationAccount is the recipient's connected account reference.
	DestinationAccount string
	// ManualCapture authorizes without capturing, for escrow holds.
	ManualCapture bool
	SuccessURL    string
	CancelURL     string
	ExpiresAt     time.Time
	Metadata      map[string]string
}

// Session is the gateway's view of a created checkout session.
type Session struct {
	ID              string
	URL             string
	PaymentIntentID string
	ExpiresAt       time.Time
}

// Gateway is the payment-gateway port. Implementations are constructed
// explicitly and injected; there is no package-level client.
type Gateway interface {
	// Name returns the gateway name.
	Name() string
	// CreateCheckoutSession opens a split-payment checkout session.
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	// CapturePaymentIntent captures a manually-held payment intent,
	// releasing escrowed funds to the destination.
	CapturePaymentIntent(ctx context.Context, paymentIntentID string) error
	// CancelPaymentIntent cancels an uncaptured payment intent, returning
	// the hold to the buyer.
	CancelPaymentIntent(ctx context.Context, paymentIntentID string) error
	// RefundPaymentIntent refunds a captured payment intent.
	RefundPaymentIntent(ctx context.Context, paymentIntentID string) error
}
