// Package money is the single place order totals are computed. Callers
// never set subtotal/tax/total directly; they recompute from line items
// after every mutation so stored totals cannot diverge from item state.
package money

import (
	"github.com/shopspring/decimal"

	"hoaban-restaurant/internal/models"
)

// TaxRate is applied to the discounted subtotal system-wide
var TaxRate = decimal.NewFromFloat(0.08)

// scale is the fixed-point precision of all monetary fields
const scale = 2

// Totals are the derived monetary fields of an order
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Recompute derives order totals from line items and a discount amount.
//
//	subtotal = sum(unit_price * quantity)
//	tax      = round(max(0, subtotal - discount) * TaxRate)
//	total    = max(0, subtotal - discount) + tax
//
// Rounding is half-up at 2 decimal places, applied once per derived field.
func Recompute(items []models.OrderItem, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(LineTotal(it.UnitPrice, it.Quantity))
	}

	discount = clampDiscount(discount, subtotal)

	base := subtotal.Sub(discount)
	if base.IsNegative() {
		base = decimal.Zero
	}

	tax := base.Mul(TaxRate).Round(scale)
	total := base.Add(tax).Round(scale)

	return Totals{
		Subtotal: subtotal.Round(scale),
		Discount: discount.Round(scale),
		Tax:      tax,
		Total:    total,
	}
}

// LineTotal computes unit price times quantity at the fixed scale
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(scale)
}

// EarnedPoints converts a settled total into loyalty points: one point
// per 1,000 in the major currency unit, floored.
func EarnedPoints(total decimal.Decimal) int64 {
	return total.Div(decimal.NewFromInt(1000)).Floor().IntPart()
}

func clampDiscount(discount, subtotal decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}
