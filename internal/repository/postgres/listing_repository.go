package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/listing"
)

// ListingRepository implements listing.Repository using PostgreSQL.
// The checkout service only ever reads listings.
type ListingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

func (r *ListingRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// GetByID retrieves a listing by its ID.
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	l := &listing.Listing{}
	var (
		mode          string
		freightPaidBy string
	)
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, owner_id, title, mode, sale_price_cents, daily_rate_cents, currency,
		        freight_paid_by, freight_rate_per_mile, active, created_at, updated_at
		 FROM listings WHERE id = $1`, id,
	).Scan(
		&l.ID, &l.OwnerID, &l.Title, &mode, &l.SalePriceCents, &l.DailyRateCents, &l.Currency,
		&freightPaidBy, &l.FreightRatePerMile, &l.Active, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrListingNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}

	l.Mode = listing.Mode(mode)
	l.FreightPaidBy = listing.FreightPayer(freightPaidBy)
	return l, nil
}
