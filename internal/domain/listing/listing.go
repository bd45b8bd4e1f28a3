package listing

import (
	"time"

	"github.com/google/uuid"
)

// Mode says whether a listing is offered for rent or for sale.
type Mode string

const (
	ModeRent Mode = "rent"
	ModeSale Mode = "sale"
)

// DeliveryMethod enumerates how a sold asset reaches the buyer.
type DeliveryMethod string

const (
	DeliveryPickup  DeliveryMethod = "pickup"
	DeliverySeller  DeliveryMethod = "seller"
	DeliveryFree    DeliveryMethod = "free"
	DeliveryFreight DeliveryMethod = "freight"
)

// FreightPayer says which side absorbs freight cost on a freight delivery.
type FreightPayer string

const (
	FreightPaidBySeller FreightPayer = "seller"
	FreightPaidByBuyer  FreightPayer = "buyer"
)

// DefaultFreightRatePerMile is the per-mile freight rate used when a listing
// has no configured rate.
const DefaultFreightRatePerMile int64 = 4

// Listing is an asset available for rent or sale. This service treats
// listings as read-only; they are created and managed elsewhere.
type Listing struct {
	ID                 uuid.UUID
	OwnerID            uuid.UUID
	Title              string
	Mode               Mode
	SalePriceCents     int64
	DailyRateCents     int64
	Currency           string
	FreightPaidBy      FreightPayer
	FreightRatePerMile int64
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// EffectiveFreightRate returns the listing's configured per-mile freight
// rate, falling back to the marketplace default.
func (l *Listing) EffectiveFreightRate() int64 {
	if l.FreightRatePerMile > 0 {
		return l.FreightRatePerMile
	}
	return DefaultFreightRatePerMile
}

// SellerPaysFreight reports whether the seller absorbs freight cost for the
// given delivery method.
func (l *Listing) SellerPaysFreight(method DeliveryMethod) bool {
	return method == DeliveryFreight && l.FreightPaidBy == FreightPaidBySeller
}

// ValidDeliveryMethod reports whether s is a recognized delivery method.
func ValidDeliveryMethod(s string) bool {
	switch DeliveryMethod(s) {
	case DeliveryPickup, DeliverySeller, DeliveryFree, DeliveryFreight:
		return true
	}
	return false
}
