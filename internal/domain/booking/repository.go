package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for booking persistence.
type Repository interface {
	// Create inserts a new booking.
	Create(ctx context.Context, b *Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// UpdatePaymentStatus persists the booking's payment status.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus) error
}
