package money

import (
	"testing"

	"github.com/shopspring/decimal"

	"hoaban-restaurant/internal/models"
)

func item(price string, qty int) models.OrderItem {
	return models.OrderItem{
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestRecompute(t *testing.T) {
	tests := []struct {
		name         string
		items        []models.OrderItem
		discount     string
		wantSubtotal string
		wantDiscount string
		wantTax      string
		wantTotal    string
	}{
		{
			name:         "no items",
			items:        nil,
			discount:     "0",
			wantSubtotal: "0",
			wantDiscount: "0",
			wantTax:      "0",
			wantTotal:    "0",
		},
		{
			name: "two items with fixed voucher",
			// 100000*1 + 50000*2 = 200000; discount 20000; tax 8% of 180000
			items:        []models.OrderItem{item("100000", 1), item("50000", 2)},
			discount:     "20000",
			wantSubtotal: "200000",
			wantDiscount: "20000",
			wantTax:      "14400",
			wantTotal:    "194400",
		},
		{
			name:         "discount exceeding subtotal is clamped",
			items:        []models.OrderItem{item("30000", 1)},
			discount:     "50000",
			wantSubtotal: "30000",
			wantDiscount: "30000",
			wantTax:      "0",
			wantTotal:    "0",
		},
		{
			name:         "negative discount treated as zero",
			items:        []models.OrderItem{item("10000", 1)},
			discount:     "-500",
			wantSubtotal: "10000",
			wantDiscount: "0",
			wantTax:      "800",
			wantTotal:    "10800",
		},
		{
			name:         "fractional tax rounds half-up",
			items:        []models.OrderItem{item("10.55", 3)}, // 31.65, tax 2.532 -> 2.53
			discount:     "0",
			wantSubtotal: "31.65",
			wantDiscount: "0",
			wantTax:      "2.53",
			wantTotal:    "34.18",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recompute(tt.items, decimal.RequireFromString(tt.discount))

			check := func(field string, got decimal.Decimal, want string) {
				if !got.Equal(decimal.RequireFromString(want)) {
					t.Errorf("%s = %s, want %s", field, got, want)
				}
			}
			check("subtotal", got.Subtotal, tt.wantSubtotal)
			check("discount", got.Discount, tt.wantDiscount)
			check("tax", got.Tax, tt.wantTax)
			check("total", got.Total, tt.wantTotal)
		})
	}
}

// The money identity must hold for every computed Totals value.
func TestRecompute_Identity(t *testing.T) {
	items := []models.OrderItem{item("123.45", 2), item("67.89", 3), item("999.99", 1)}
	for _, d := range []string{"0", "10", "150.50", "99999"} {
		got := Recompute(items, decimal.RequireFromString(d))

		base := got.Subtotal.Sub(got.Discount)
		if base.IsNegative() {
			base = decimal.Zero
		}
		if !got.Total.Equal(base.Add(got.Tax)) {
			t.Errorf("discount %s: total %s != max(0, subtotal-discount)+tax = %s",
				d, got.Total, base.Add(got.Tax))
		}
		if !got.Tax.Equal(base.Mul(TaxRate).Round(2)) {
			t.Errorf("discount %s: tax %s != round(base*rate) = %s",
				d, got.Tax, base.Mul(TaxRate).Round(2))
		}
	}
}

func TestEarnedPoints(t *testing.T) {
	tests := []struct {
		total string
		want  int64
	}{
		{"0", 0},
		{"999", 0},
		{"1000", 1},
		{"194400", 194},
		{"194999.99", 194},
	}
	for _, tt := range tests {
		if got := EarnedPoints(decimal.RequireFromString(tt.total)); got != tt.want {
			t.Errorf("EarnedPoints(%s) = %d, want %d", tt.total, got, tt.want)
		}
	}
}
