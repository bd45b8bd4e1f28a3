package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rollingbite/checkout/internal/domain/booking"
	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
)

// BookingRepository implements booking.Repository using PostgreSQL.
type BookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository creates a new BookingRepository.
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create inserts a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO bookings
		 (id, listing_id, guest_id, host_id, start_date, end_date, total_days,
		  base_price_cents, delivery_fee_cents, cleaning_fee_cents, security_deposit_cents,
		  host_commission_cents, service_fee_cents, total_cents, payment_status,
		  delivery_requested, delivery_address, special_requests, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		b.ID, b.ListingID, b.GuestID, b.HostID, b.StartDate, b.EndDate, b.TotalDays,
		b.BasePriceCents, b.DeliveryFeeCents, b.CleaningFeeCents, b.SecurityDepositCents,
		b.HostCommissionCents, b.ServiceFeeCents, b.TotalCents, string(b.PaymentStatus),
		b.DeliveryRequested, b.DeliveryAddress, b.SpecialRequests, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID.
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b := &booking.Booking{}
	var status string
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, listing_id, guest_id, host_id, start_date, end_date, total_days,
		        base_price_cents, delivery_fee_cents, cleaning_fee_cents, security_deposit_cents,
		        host_commission_cents, service_fee_cents, total_cents, payment_status,
		        delivery_requested, delivery_address, special_requests, created_at, updated_at
		 FROM bookings WHERE id = $1`, id,
	).Scan(
		&b.ID, &b.ListingID, &b.GuestID, &b.HostID, &b.StartDate, &b.EndDate, &b.TotalDays,
		&b.BasePriceCents, &b.DeliveryFeeCents, &b.CleaningFeeCents, &b.SecurityDepositCents,
		&b.HostCommissionCents, &b.ServiceFeeCents, &b.TotalCents, &status,
		&b.DeliveryRequested, &b.DeliveryAddress, &b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}

	b.PaymentStatus = booking.PaymentStatus(status)
	return b, nil
}

// UpdatePaymentStatus persists a payment status change.
func (r *BookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status booking.PaymentStatus) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE bookings SET payment_status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("update booking payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrBookingNotFound
	}
	return nil
}
