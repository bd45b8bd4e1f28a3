package booking

import (
	"time"

	"github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/google/uuid"
)

// PaymentStatus tracks whether the reservation has been paid for.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Booking is the reservation record created alongside a rental checkout. It
// exists independently of payment success and represents intent; the paired
// transaction's lifecycle decides its payment status.
type Booking struct {
	ID                   uuid.UUID
	ListingID            uuid.UUID
	GuestID              uuid.UUID
	HostID               uuid.UUID
	StartDate            time.Time
	EndDate              time.Time
	TotalDays            int
	BasePriceCents       int64
	DeliveryFeeCents     int64
	CleaningFeeCents     int64
	SecurityDepositCents int64
	HostCommissionCents  int64
	ServiceFeeCents      int64
	TotalCents           int64
	PaymentStatus        PaymentStatus
	DeliveryRequested    bool
	DeliveryAddress      string
	SpecialRequests      string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// New creates a booking in pending payment status.
func New(listingID, guestID, hostID uuid.UUID, start, end time.Time, totalDays int) (*Booking, error) {
	if !start.Before(end) {
		return nil, errors.ErrInvalidDateRange
	}
	if totalDays <= 0 {
		return nil, errors.NewValidationError("total_days", "must be greater than 0")
	}

	now := time.Now()
	return &Booking{
		ID:            uuid.New(),
		ListingID:     listingID,
		GuestID:       guestID,
		HostID:        hostID,
		StartDate:     start,
		EndDate:       end,
		TotalDays:     totalDays,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// MarkPaid flips the booking to paid. Idempotent.
func (b *Booking) MarkPaid() {
	b.PaymentStatus = PaymentPaid
	b.UpdatedAt = time.Now()
}

// MarkFailed flips the booking to failed unless already paid.
func (b *Booking) MarkFailed() error {
	if b.PaymentStatus == PaymentPaid {
		return errors.NewDomainError(
			"booking_already_paid",
			"cannot fail a paid booking",
			errors.ErrInvalidStateTransition,
		)
	}
	b.PaymentStatus = PaymentFailed
	b.UpdatedAt = time.Now()
	return nil
}
