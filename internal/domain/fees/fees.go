// Package fees computes commission splits for checkout. All arithmetic is on
// integer minor units; each fee is rounded half-up at the cent boundary
// independently, so no value depends on accumulation order.
package fees

// Rates carries the marketplace commission rates in basis points.
type Rates struct {
	// RentalCommissionBps is charged to the host on the host portion and,
	// at the same rate, to the renter as a service fee.
	RentalCommissionBps int64
	// SaleCommissionBps is charged to the seller on the sale price. The
	// buyer pays no fee on sales.
	SaleCommissionBps int64
}

// DefaultRates returns the marketplace's standard rates: 12.9% on rentals
// (both sides), 15% on sales.
func DefaultRates() Rates {
	return Rates{
		RentalCommissionBps: 1290,
		SaleCommissionBps:   1500,
	}
}

// RentalInput holds the monetary inputs of a rental checkout, in cents.
type RentalInput struct {
	BasePriceCents       int64
	DeliveryFeeCents     int64
	CleaningFeeCents     int64
	SecurityDepositCents int64
}

// RentalBreakdown is the fee split for a rental checkout.
//
// The renter is charged TotalWithFees. The platform keeps PlatformTotalFee
// (host commission + renter service fee) as its application fee; the
// remainder, HostTransfer, goes to the host's connected account.
type RentalBreakdown struct {
	HostPortionCents      int64
	HostCommissionCents   int64
	RenterServiceFeeCents int64
	TotalWithFeesCents    int64
	PlatformTotalFeeCents int64
	HostTransferCents     int64
}

// Rental computes the fee split for a rental.
func Rental(in RentalInput, rates Rates) RentalBreakdown {
	hostPortion := in.BasePriceCents + in.DeliveryFeeCents + in.CleaningFeeCents + in.SecurityDepositCents
	hostCommission := roundBps(hostPortion, rates.RentalCommissionBps)
	renterServiceFee := roundBps(hostPortion, rates.RentalCommissionBps)

	total := hostPortion + renterServiceFee
	platformFee := hostCommission + renterServiceFee

	return RentalBreakdown{
		HostPortionCents:      hostPortion,
		HostCommissionCents:   hostCommission,
		RenterServiceFeeCents: renterServiceFee,
		TotalWithFeesCents:    total,
		PlatformTotalFeeCents: platformFee,
		HostTransferCents:     total - platformFee,
	}
}

// SaleInput holds the monetary inputs of a sale checkout, in cents.
type SaleInput struct {
	SalePriceCents int64
	// SellerPaysFreight is true when the listing's delivery terms make the
	// seller responsible for freight cost.
	SellerPaysFreight bool
	FreightDistance   int64
	// FreightRatePerMile is the listing's configured rate (the caller
	// applies the marketplace default when the listing has none).
	FreightRatePerMile int64
}

// SaleBreakdown is the fee split for a sale checkout.
//
// The buyer is charged exactly the sale price. The platform's application fee
// is the seller commission plus any seller-absorbed freight cost; the seller
// effectively receives the remainder.
type SaleBreakdown struct {
	BuyerTotalCents         int64
	SellerCommissionCents   int64
	SellerShippingCostCents int64
	PlatformTotalFeeCents   int64
	SellerTransferCents     int64
}

// Sale computes the fee split for a sale.
func Sale(in SaleInput, rates Rates) SaleBreakdown {
	commission := roundBps(in.SalePriceCents, rates.SaleCommissionBps)

	var shipping int64
	if in.SellerPaysFreight && in.FreightDistance > 0 {
		shipping = in.FreightDistance * in.FreightRatePerMile
	}

	platformFee := commission + shipping

	return SaleBreakdown{
		BuyerTotalCents:         in.SalePriceCents,
		SellerCommissionCents:   commission,
		SellerShippingCostCents: shipping,
		PlatformTotalFeeCents:   platformFee,
		SellerTransferCents:     in.SalePriceCents - platformFee,
	}
}

// roundBps applies a basis-point rate with round-half-up at the cent.
// Inputs are validated non-negative upstream.
func roundBps(amountCents, bps int64) int64 {
	return (amountCents*bps + 5000) / 10000
}
