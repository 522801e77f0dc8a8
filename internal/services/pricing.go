package services

import "math"

// Totals is the checkout money breakdown. Total = Subtotal + Shipping.
type Totals struct {
	Subtotal float64
	Shipping float64
	Total    float64
}

// ComputeTotals applies the flat-fee/free-threshold shipping rule.
// Shipping is waived when the subtotal exceeds the threshold; a zero
// threshold means shipping is always free.
func ComputeTotals(subtotal, freeThreshold, flatFee float64) Totals {
	shipping := flatFee
	if freeThreshold == 0 || subtotal > freeThreshold {
		shipping = 0
	}
	return Totals{Subtotal: subtotal, Shipping: shipping, Total: subtotal + shipping}
}

// Paise converts a rupee amount to minor currency units for the gateway.
func Paise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
