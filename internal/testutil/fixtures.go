package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/rollingbite/checkout/internal/domain/listing"
	"github.com/rollingbite/checkout/internal/domain/payout"
)

func NewTestListing(mode listing.Mode) *listing.Listing {
	now := time.Now()
	l := &listing.Listing{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Title:     "Test Listing",
		Mode:      mode,
		Currency:  "USD",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch mode {
	case listing.ModeRent:
		l.DailyRateCents = 10000
	case listing.ModeSale:
		l.SalePriceCents = 250000
		l.FreightPaidBy = listing.FreightPaidByBuyer
	}
	return l
}

func NewVerifiedPayoutAccount(ownerID uuid.UUID) *payout.Account {
	now := time.Now()
	return &payout.Account{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Provider:   payout.ProviderStripe,
		AccountRef: "acct_" + uuid.NewString()[:8],
		Status:     payout.StatusVerified,
		VerifiedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func UUIDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func StrPtr(s string) *string {
	return &s
}
