package voucher

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func activeVoucher() *models.Voucher {
	return &models.Voucher{
		Code:     "WELCOME",
		Type:     models.VoucherFixed,
		Value:    dec("20000"),
		MinOrder: dec("50000"),
		Status:   models.VoucherActive,
	}
}

func TestValidate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		mutate   func(*models.Voucher)
		subtotal string
		wantCode errs.Code
	}{
		{
			name:     "usable voucher",
			mutate:   func(v *models.Voucher) {},
			subtotal: "200000",
		},
		{
			name:     "inactive",
			mutate:   func(v *models.Voucher) { v.Status = models.VoucherInactive },
			subtotal: "200000",
			wantCode: errs.CodeVoucherInactive,
		},
		{
			name:     "not started",
			mutate:   func(v *models.Voucher) { v.StartAt = &future },
			subtotal: "200000",
			wantCode: errs.CodeVoucherNotStarted,
		},
		{
			name:     "expired",
			mutate:   func(v *models.Voucher) { v.EndAt = &past },
			subtotal: "200000",
			wantCode: errs.CodeVoucherExpired,
		},
		{
			name:     "below minimum order",
			mutate:   func(v *models.Voucher) {},
			subtotal: "49999",
			wantCode: errs.CodeVoucherNotApplicable,
		},
		{
			name: "open-ended bounds are accepted",
			mutate: func(v *models.Voucher) {
				v.StartAt = &past
				v.EndAt = &future
			},
			subtotal: "50000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := activeVoucher()
			tt.mutate(v)

			err := Validate(v, dec(tt.subtotal), now)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errs.IsCode(err, tt.wantCode) {
				t.Fatalf("Validate() error = %v, want code %s", err, tt.wantCode)
			}
			var be *errs.Error
			if !errors.As(err, &be) {
				t.Fatalf("Validate() error is not a business error: %v", err)
			}
		})
	}
}

func TestComputeDiscount(t *testing.T) {
	maxDiscount := dec("30000")

	tests := []struct {
		name     string
		voucher  *models.Voucher
		subtotal string
		want     string
	}{
		{
			name:     "fixed below subtotal",
			voucher:  &models.Voucher{Type: models.VoucherFixed, Value: dec("20000")},
			subtotal: "200000",
			want:     "20000",
		},
		{
			name:     "fixed clamped to subtotal",
			voucher:  &models.Voucher{Type: models.VoucherFixed, Value: dec("20000")},
			subtotal: "15000",
			want:     "15000",
		},
		{
			name:     "percent unbounded",
			voucher:  &models.Voucher{Type: models.VoucherPercent, Value: dec("10")},
			subtotal: "200000",
			want:     "20000",
		},
		{
			name:     "percent capped by max discount",
			voucher:  &models.Voucher{Type: models.VoucherPercent, Value: dec("50"), MaxDiscount: &maxDiscount},
			subtotal: "200000",
			want:     "30000",
		},
		{
			name:     "full percent never exceeds subtotal",
			voucher:  &models.Voucher{Type: models.VoucherPercent, Value: dec("100")},
			subtotal: "80000",
			want:     "80000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(tt.voucher, dec(tt.subtotal))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("ComputeDiscount() = %s, want %s", got, tt.want)
			}
		})
	}
}
