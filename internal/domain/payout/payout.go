package payout

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies the external payout rails an account lives on.
type Provider string

const (
	ProviderStripe Provider = "stripe"
)

// Status represents the verification state of a payout account.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusDisabled Status = "disabled"
)

// Account is a verified external account capable of receiving a split
// transfer. One owner may hold several; the most recently verified wins.
type Account struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Provider   Provider
	AccountRef string // gateway-side connected account id, e.g. acct_...
	Status     Status
	VerifiedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsVerified reports whether the account can receive transfers.
func (a *Account) IsVerified() bool {
	return a.Status == StatusVerified && a.AccountRef != ""
}
