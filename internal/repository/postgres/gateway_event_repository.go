package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/event"
)

// GatewayEventRepository implements event.Repository using PostgreSQL. The
// unique index on gateway_event_id is the dedupe barrier for redelivered
// webhooks.
type GatewayEventRepository struct {
	pool *pgxpool.Pool
}

// NewGatewayEventRepository creates a new GatewayEventRepository.
func NewGatewayEventRepository(pool *pgxpool.Pool) *GatewayEventRepository {
	return &GatewayEventRepository{pool: pool}
}

func (r *GatewayEventRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Insert stores a received event.
func (r *GatewayEventRepository) Insert(ctx context.Context, e *event.GatewayEvent) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO gateway_events
		 (id, gateway_event_id, event_type, session_id, payment_intent_id,
		  transaction_id, failure_message, payload, received_at, processed_at, failure_count)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		e.ID, e.GatewayEventID, e.Type, e.SessionID, e.PaymentIntentID,
		e.TransactionID, e.FailureMessage, e.Payload, e.ReceivedAt, e.ProcessedAt, e.FailureCount,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrEventAlreadyProcessed
		}
		return fmt.Errorf("insert gateway event: %w", err)
	}
	return nil
}

// GetByGatewayEventID retrieves an inbox row by the gateway's event id.
func (r *GatewayEventRepository) GetByGatewayEventID(ctx context.Context, gatewayEventID string) (*event.GatewayEvent, error) {
	e := &event.GatewayEvent{}
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, gateway_event_id, event_type, session_id, payment_intent_id,
		        transaction_id, failure_message, payload, received_at, processed_at, failure_count
		 FROM gateway_events WHERE gateway_event_id = $1`, gatewayEventID,
	).Scan(
		&e.ID, &e.GatewayEventID, &e.Type, &e.SessionID, &e.PaymentIntentID,
		&e.TransactionID, &e.FailureMessage, &e.Payload, &e.ReceivedAt, &e.ProcessedAt, &e.FailureCount,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // not found
		}
		return nil, fmt.Errorf("get gateway event: %w", err)
	}
	return e, nil
}

// MarkProcessed stamps the event as successfully reconciled.
func (r *GatewayEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db(ctx).Exec(ctx,
		`UPDATE gateway_events SET processed_at = NOW() WHERE id = $1 AND processed_at IS NULL`, id,
	)
	if err != nil {
		return fmt.Errorf("mark gateway event processed: %w", err)
	}
	return nil
}

// IncrementFailure bumps the failure counter for a poison event and
// returns the new count.
func (r *GatewayEventRepository) IncrementFailure(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.db(ctx).QueryRow(ctx,
		`UPDATE gateway_events SET failure_count = failure_count + 1 WHERE id = $1
		 RETURNING failure_count`, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment gateway event failure: %w", err)
	}
	return count, nil
}
