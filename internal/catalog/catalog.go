// Package catalog resolves DISH/COMBO references to their current name,
// price and active flag. The core only reads the catalog; managing it is
// another service's job.
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"hoaban-restaurant/internal/database"
	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/models"
)

// Entry is a catalog lookup result used to snapshot order item prices
type Entry struct {
	Name   string
	Price  decimal.Decimal
	Active bool
}

// Describer resolves a tagged catalog reference. One implementation per
// storage backend; call sites never branch on the kind themselves.
type Describer interface {
	Describe(ctx context.Context, kind models.ItemKind, id uuid.UUID) (Entry, error)
}

const (
	describeDishSQL  = `SELECT name, price, active FROM dishes WHERE id = $1`
	describeComboSQL = `SELECT name, price, active FROM combos WHERE id = $1`
)

// PG is the PostgreSQL-backed catalog lookup
type PG struct {
	db *database.DB
}

// NewPG creates a catalog lookup over the given database
func NewPG(db *database.DB) *PG {
	return &PG{db: db}
}

// Describe implements Describer for dishes and combos
func (c *PG) Describe(ctx context.Context, kind models.ItemKind, id uuid.UUID) (Entry, error) {
	var query string
	switch kind {
	case models.KindDish:
		query = describeDishSQL
	case models.KindCombo:
		query = describeComboSQL
	default:
		return Entry{}, errs.Newf(errs.CodeInvalidInput, "item type %q is not supported", kind)
	}

	var e Entry
	err := c.db.QueryRow(ctx, query, id).Scan(&e.Name, &e.Price, &e.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, errs.Newf(errs.CodeCatalogNotFound, "%s %s does not exist", kind, id)
	}
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}
