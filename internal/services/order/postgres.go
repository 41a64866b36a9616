package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"hoaban-restaurant/internal/database"
	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// scan helpers serve plain reads and locked transactional reads.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.TableID, &o.Type, &o.Status,
		&o.Subtotal, &o.Discount, &o.Tax, &o.Total,
		&o.AppliedUserVoucherID, &o.Note, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.New(errs.CodeOrderNotFound, "order not found")
		}
		return nil, err
	}
	return &o, nil
}

func getOrder(ctx context.Context, q querier, id uuid.UUID) (*models.Order, error) {
	return scanOrder(q.QueryRow(ctx, database.GetOrderSQL, id))
}

func getOrderForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Order, error) {
	return scanOrder(tx.QueryRow(ctx, database.GetOrderForUpdateSQL, id))
}

// GetForUpdateTx locks and loads an order inside the caller's
// transaction. The payment service uses it before creating a gateway
// payment against the order.
func GetForUpdateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Order, error) {
	return getOrderForUpdate(ctx, tx, id)
}

func scanOrderItems(rows pgx.Rows) ([]models.OrderItem, error) {
	defer rows.Close()
	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.Kind, &it.ItemID,
			&it.Name, &it.UnitPrice, &it.Quantity, &it.LineTotal,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func listItems(ctx context.Context, q querier, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := q.Query(ctx, database.ListOrderItemsSQL, orderID)
	if err != nil {
		return nil, err
	}
	return scanOrderItems(rows)
}

func getItem(ctx context.Context, q querier, orderID, itemID uuid.UUID) (*models.OrderItem, error) {
	var it models.OrderItem
	err := q.QueryRow(ctx, database.GetOrderItemSQL, itemID, orderID).Scan(
		&it.ID, &it.OrderID, &it.Kind, &it.ItemID,
		&it.Name, &it.UnitPrice, &it.Quantity, &it.LineTotal,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.New(errs.CodeItemNotFound, "order item not found")
		}
		return nil, err
	}
	return &it, nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, userID, tableID *uuid.UUID, typ models.OrderType, note string) (*models.Order, error) {
	o := &models.Order{
		ID:      uuid.New(),
		UserID:  userID,
		TableID: tableID,
		Type:    typ,
		Status:  models.OrderOpen,
		Note:    note,
	}
	err := tx.QueryRow(ctx, database.InsertOrderSQL,
		o.ID, o.UserID, o.TableID, o.Type, o.Status, o.Note,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// mutableOrderForUpdate locks the order row and rejects mutation of
// anything that is no longer OPEN.
func mutableOrderForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Order, error) {
	o, err := getOrderForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	switch o.Status {
	case models.OrderOpen:
		return o, nil
	case models.OrderPaid:
		return nil, errs.New(errs.CodeOrderAlreadySettled, "a paid order cannot be modified")
	default:
		return nil, errs.Newf(errs.CodeOrderNotOpen, "order is %s, not OPEN", o.Status)
	}
}

func getTableForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Table, error) {
	var t models.Table
	err := tx.QueryRow(ctx, database.GetTableForUpdateSQL, id).Scan(
		&t.ID, &t.AreaID, &t.Code, &t.Seats, &t.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.New(errs.CodeTableNotFound, "table not found")
		}
		return nil, err
	}
	return &t, nil
}

// lockFreeTable locks the table row and verifies it is available with no
// open order attached.
func lockFreeTable(ctx context.Context, tx pgx.Tx, tableID uuid.UUID) error {
	tbl, err := getTableForUpdate(ctx, tx, tableID)
	if err != nil {
		return err
	}
	if tbl.Status != models.TableAvailable {
		return errs.New(errs.CodeTableBusy, "this table is not open for ordering")
	}
	_, err = scanOrder(tx.QueryRow(ctx, database.GetOpenOrderByTableSQL, tableID))
	if err == nil {
		return errs.New(errs.CodeTableBusy, "this table already has an open order")
	}
	if !errs.IsCode(err, errs.CodeOrderNotFound) {
		return err
	}
	return nil
}

func getUserVoucher(ctx context.Context, q querier, id uuid.UUID) (*models.UserVoucher, *models.Voucher, error) {
	var uv models.UserVoucher
	err := q.QueryRow(ctx, database.GetUserVoucherSQL, id).Scan(
		&uv.ID, &uv.UserID, &uv.VoucherID, &uv.Redeemed, &uv.RedeemedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, errs.New(errs.CodeVoucherNotFound, "voucher not found in wallet")
		}
		return nil, nil, err
	}

	var v models.Voucher
	err = q.QueryRow(ctx, database.GetVoucherByIDSQL, uv.VoucherID).Scan(
		&v.ID, &v.Code, &v.Name, &v.Type, &v.Value, &v.MinOrder,
		&v.MaxDiscount, &v.PointCost, &v.Status, &v.StartAt, &v.EndAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, errs.New(errs.CodeVoucherNotFound, "voucher definition no longer exists")
		}
		return nil, nil, err
	}
	uv.Voucher = &v
	return &uv, &v, nil
}

func insertPayment(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, method models.PaymentMethod, amount decimal.Decimal, status models.PaymentStatus, txnRef *string, expiredAt *time.Time) (*models.Payment, error) {
	p := &models.Payment{
		ID:             uuid.New(),
		OrderID:        orderID,
		Method:         method,
		Amount:         amount,
		Status:         status,
		TransactionRef: txnRef,
		ExpiredAt:      expiredAt,
	}
	err := tx.QueryRow(ctx, database.InsertPaymentSQL,
		p.ID, p.OrderID, p.Method, p.Amount, p.Status, p.TransactionRef, p.ExpiredAt,
	).Scan(&p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanOrders(rows pgx.Rows) ([]models.Order, error) {
	defer rows.Close()
	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.TableID, &o.Type, &o.Status,
			&o.Subtotal, &o.Discount, &o.Tax, &o.Total,
			&o.AppliedUserVoucherID, &o.Note, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
