// Package voucher validates vouchers against order state and computes
// the discount amount they grant.
package voucher

import (
	"time"

	"github.com/shopspring/decimal"

	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/models"
)

// ValidateWindow checks the subtotal-independent conditions: the
// voucher is active and inside its validity window. Point redemption
// uses this alone; applying to an order also checks the minimum.
func ValidateWindow(v *models.Voucher, now time.Time) error {
	if v.Status != models.VoucherActive {
		return errs.New(errs.CodeVoucherInactive, "voucher is not active")
	}
	if v.StartAt != nil && now.Before(*v.StartAt) {
		return errs.New(errs.CodeVoucherNotStarted, "voucher is not valid yet")
	}
	if v.EndAt != nil && now.After(*v.EndAt) {
		return errs.New(errs.CodeVoucherExpired, "voucher has expired")
	}
	return nil
}

// Validate checks whether a voucher can be applied to an order with the
// given subtotal at time now.
func Validate(v *models.Voucher, subtotal decimal.Decimal, now time.Time) error {
	if err := ValidateWindow(v, now); err != nil {
		return err
	}
	if subtotal.LessThan(v.MinOrder) {
		return errs.Newf(errs.CodeVoucherNotApplicable,
			"order subtotal is below the voucher minimum of %s", v.MinOrder)
	}
	return nil
}

// ComputeDiscount returns the discount a voucher grants on the given
// subtotal. FIXED vouchers grant min(value, subtotal); PERCENT vouchers
// grant subtotal*value/100, capped by MaxDiscount when present. The
// result never exceeds the subtotal.
func ComputeDiscount(v *models.Voucher, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal

	switch v.Type {
	case models.VoucherFixed:
		discount = v.Value
	case models.VoucherPercent:
		discount = subtotal.Mul(v.Value).Div(decimal.NewFromInt(100))
		if v.MaxDiscount != nil && discount.GreaterThan(*v.MaxDiscount) {
			discount = *v.MaxDiscount
		}
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount.Round(2)
}
