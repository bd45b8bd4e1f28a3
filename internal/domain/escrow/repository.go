package escrow

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for escrow persistence.
type Repository interface {
	// Create inserts a new escrow.
	Create(ctx context.Context, e *Escrow) error

	// GetByID retrieves an escrow by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Escrow, error)

	// Update persists status and lifecycle timestamps.
	Update(ctx context.Context, e *Escrow) error
}
