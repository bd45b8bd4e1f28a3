package payout

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines read access to payout accounts. Account onboarding and
// verification are handled by the connect-onboarding flow, outside checkout.
type Repository interface {
	// GetVerifiedByOwner returns the owner's most recently verified account,
	// or errors.ErrRecipientNotConnected when none exists.
	GetVerifiedByOwner(ctx context.Context, ownerID uuid.UUID) (*Account, error)
}
