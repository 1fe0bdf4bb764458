package pricing

import "github.com/shopspring/decimal"

var (
	// FreeDeliveryThreshold is the subtotal from which delivery is free.
	FreeDeliveryThreshold = decimal.NewFromInt(500)
	// StandardDeliveryFee applies below the threshold.
	StandardDeliveryFee = decimal.NewFromInt(5)
)

// DeliveryFee returns the delivery fee for an order subtotal.
func DeliveryFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return StandardDeliveryFee
}

// Round2 rounds a money amount half away from zero to two decimals.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
