package listing

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines read access to listings. Listing writes belong to the
// catalog service, not to checkout.
type Repository interface {
	// GetByID retrieves a listing by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Listing, error)
}
