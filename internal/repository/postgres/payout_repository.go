package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/payout"
)

// PayoutAccountRepository implements payout.Repository using PostgreSQL.
type PayoutAccountRepository struct {
	pool *pgxpool.Pool
}

// NewPayoutAccountRepository creates a new PayoutAccountRepository.
func NewPayoutAccountRepository(pool *pgxpool.Pool) *PayoutAccountRepository {
	return &PayoutAccountRepository{pool: pool}
}

func (r *PayoutAccountRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// GetVerifiedByOwner returns the owner's most recently verified payout
// account. No verified account means the owner cannot receive transfers and
// the checkout must be rejected before any writes.
func (r *PayoutAccountRepository) GetVerifiedByOwner(ctx context.Context, ownerID uuid.UUID) (*payout.Account, error) {
	a := &payout.Account{}
	var (
		provider string
		status   string
	)
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, owner_id, provider, account_ref, status, verified_at, created_at, updated_at
		 FROM payout_accounts
		 WHERE owner_id = $1 AND status = 'verified' AND account_ref <> ''
		 ORDER BY verified_at DESC
		 LIMIT 1`, ownerID,
	).Scan(
		&a.ID, &a.OwnerID, &provider, &a.AccountRef, &status, &a.VerifiedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrRecipientNotConnected
		}
		return nil, fmt.Errorf("get payout account: %w", err)
	}

	a.Provider = payout.Provider(provider)
	a.Status = payout.Status(status)
	return a, nil
}
