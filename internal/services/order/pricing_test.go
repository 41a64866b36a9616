package order

import (
	"testing"

	"github.com/shopspring/decimal"

	"hoaban-restaurant/internal/catalog"
	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMergedLine(t *testing.T) {
	tests := []struct {
		name          string
		existing      models.OrderItem
		entry         catalog.Entry
		addQty        int
		wantQty       int
		wantUnitPrice string
		wantLineTotal string
		wantName      string
	}{
		{
			name:          "same price just adds quantity",
			existing:      models.OrderItem{Name: "Pho Bo", UnitPrice: d("50000"), Quantity: 2, LineTotal: d("100000")},
			entry:         catalog.Entry{Name: "Pho Bo", Price: d("50000"), Active: true},
			addQty:        1,
			wantQty:       3,
			wantUnitPrice: "50000",
			wantLineTotal: "150000",
			wantName:      "Pho Bo",
		},
		{
			// units added before a price change are repriced too
			name:          "price raised since first add",
			existing:      models.OrderItem{Name: "Pho Bo", UnitPrice: d("50000"), Quantity: 2, LineTotal: d("100000")},
			entry:         catalog.Entry{Name: "Pho Bo", Price: d("60000"), Active: true},
			addQty:        1,
			wantQty:       3,
			wantUnitPrice: "60000",
			wantLineTotal: "180000",
			wantName:      "Pho Bo",
		},
		{
			name:          "price lowered since first add",
			existing:      models.OrderItem{Name: "Ca Phe", UnitPrice: d("30000"), Quantity: 1, LineTotal: d("30000")},
			entry:         catalog.Entry{Name: "Ca Phe", Price: d("25000"), Active: true},
			addQty:        2,
			wantQty:       3,
			wantUnitPrice: "25000",
			wantLineTotal: "75000",
			wantName:      "Ca Phe",
		},
		{
			name:          "renamed item refreshes the snapshot name",
			existing:      models.OrderItem{Name: "Com Ga", UnitPrice: d("45000"), Quantity: 1, LineTotal: d("45000")},
			entry:         catalog.Entry{Name: "Com Ga Hoi An", Price: d("45000"), Active: true},
			addQty:        1,
			wantQty:       2,
			wantUnitPrice: "45000",
			wantLineTotal: "90000",
			wantName:      "Com Ga Hoi An",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergedLine(tt.existing, tt.entry, tt.addQty)

			if got.Quantity != tt.wantQty {
				t.Errorf("quantity = %d, want %d", got.Quantity, tt.wantQty)
			}
			if !got.UnitPrice.Equal(d(tt.wantUnitPrice)) {
				t.Errorf("unit price = %s, want %s", got.UnitPrice, tt.wantUnitPrice)
			}
			if !got.LineTotal.Equal(d(tt.wantLineTotal)) {
				t.Errorf("line total = %s, want %s", got.LineTotal, tt.wantLineTotal)
			}
			if got.Name != tt.wantName {
				t.Errorf("name = %q, want %q", got.Name, tt.wantName)
			}
		})
	}
}

func TestCashChange(t *testing.T) {
	tests := []struct {
		name       string
		total      string
		tendered   string
		wantChange string
		wantCode   errs.Code
	}{
		{
			name:     "tendered below total",
			total:    "150000",
			tendered: "100000",
			wantCode: errs.CodeInsufficientPayment,
		},
		{
			name:       "exact amount",
			total:      "150000",
			tendered:   "150000",
			wantChange: "0",
		},
		{
			name:       "overpayment returns change",
			total:      "150000",
			tendered:   "200000",
			wantChange: "50000",
		},
		{
			name:     "one unit short",
			total:    "100000.01",
			tendered: "100000",
			wantCode: errs.CodeInsufficientPayment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, err := cashChange(d(tt.total), d(tt.tendered))

			if tt.wantCode != "" {
				if !errs.IsCode(err, tt.wantCode) {
					t.Fatalf("cashChange(%s, %s) error = %v, want %s", tt.total, tt.tendered, err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("cashChange(%s, %s) error = %v", tt.total, tt.tendered, err)
			}
			if !change.Equal(d(tt.wantChange)) {
				t.Errorf("change = %s, want %s", change, tt.wantChange)
			}
		})
	}
}
