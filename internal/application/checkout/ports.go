package checkout

import (
	"context"
)

// TransactionManager defines the interface for database transaction
// management. This is an application-layer port, not a domain concern.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes checkout lifecycle events for downstream
// consumers (notifications, analytics). Best-effort; failures are logged,
// never propagated into the request path.
type EventPublisher interface {
	PublishCheckoutEvent(ctx context.Context, transactionID string, eventType string, data map[string]any) error
}
