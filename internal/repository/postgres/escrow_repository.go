package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/escrow"
)

// EscrowRepository implements escrow.Repository using PostgreSQL.
type EscrowRepository struct {
	pool *pgxpool.Pool
}

// NewEscrowRepository creates a new EscrowRepository.
func NewEscrowRepository(pool *pgxpool.Pool) *EscrowRepository {
	return &EscrowRepository{pool: pool}
}

func (r *EscrowRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create inserts a new escrow.
func (r *EscrowRepository) Create(ctx context.Context, e *escrow.Escrow) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO escrows
		 (id, listing_id, buyer_id, seller_id, amount_cents, currency, status,
		  held_at, released_at, refunded_at, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.ID, e.ListingID, e.BuyerID, e.SellerID, e.AmountCents, e.Currency, string(e.Status),
		e.HeldAt, e.ReleasedAt, e.RefundedAt, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert escrow: %w", err)
	}
	return nil
}

// GetByID retrieves an escrow by its ID.
func (r *EscrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*escrow.Escrow, error) {
	e := &escrow.Escrow{}
	var status string
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, listing_id, buyer_id, seller_id, amount_cents, currency, status,
		        held_at, released_at, refunded_at, created_at, updated_at
		 FROM escrows WHERE id = $1`, id,
	).Scan(
		&e.ID, &e.ListingID, &e.BuyerID, &e.SellerID, &e.AmountCents, &e.Currency, &status,
		&e.HeldAt, &e.ReleasedAt, &e.RefundedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrEscrowNotFound
		}
		return nil, fmt.Errorf("get escrow: %w", err)
	}

	e.Status = escrow.Status(status)
	return e, nil
}

// Update persists escrow status and timestamps.
func (r *EscrowRepository) Update(ctx context.Context, e *escrow.Escrow) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE escrows SET
		  status=$1, held_at=$2, released_at=$3, refunded_at=$4, updated_at=$5
		 WHERE id=$6`,
		string(e.Status), e.HeldAt, e.ReleasedAt, e.RefundedAt, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update escrow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrEscrowNotFound
	}
	return nil
}
