package order

import (
	"github.com/shopspring/decimal"

	"hoaban-restaurant/internal/catalog"
	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/models"
	"hoaban-restaurant/internal/money"
)

// mergedLine folds an add of addQty units into an existing line for the
// same catalog item. The whole line is repriced at the current catalog
// snapshot, so units added before a price change are not kept at the
// stale price.
func mergedLine(existing models.OrderItem, entry catalog.Entry, addQty int) models.OrderItem {
	existing.Name = entry.Name
	existing.UnitPrice = entry.Price
	existing.Quantity += addQty
	existing.LineTotal = money.LineTotal(entry.Price, existing.Quantity)
	return existing
}

// cashChange validates a tendered cash amount against the order total
// and returns the change due.
func cashChange(total, tendered decimal.Decimal) (decimal.Decimal, error) {
	if tendered.LessThan(total) {
		return decimal.Zero, errs.Newf(errs.CodeInsufficientPayment,
			"tendered %s is less than the order total %s", tendered.StringFixed(2), total.StringFixed(2))
	}
	return tendered.Sub(total), nil
}
