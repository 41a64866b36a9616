// Package order owns the order aggregate: carts, dine-in sessions opened
// from table tokens, line items, voucher application and settlement. All
// mutations re-read the order under a row lock so concurrent requests
// against the same order serialize on the database.
package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"hoaban-restaurant/internal/catalog"
	"hoaban-restaurant/internal/database"
	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/logger"
	"hoaban-restaurant/internal/messaging"
	"hoaban-restaurant/internal/models"
	"hoaban-restaurant/internal/money"
	"hoaban-restaurant/internal/qrtoken"
	"hoaban-restaurant/internal/voucher"
)

type Service struct {
	db        *database.DB
	catalog   catalog.Describer
	signer    *qrtoken.Signer
	publisher *messaging.Publisher
	logger    *logger.Logger
	tokenTTL  time.Duration
}

func NewService(db *database.DB, cat catalog.Describer, signer *qrtoken.Signer, publisher *messaging.Publisher, log *logger.Logger, tokenTTL time.Duration) *Service {
	return &Service{
		db:        db,
		catalog:   cat,
		signer:    signer,
		publisher: publisher,
		logger:    log,
		tokenTTL:  tokenTTL,
	}
}

// TableToken is a freshly issued capability token for one table
type TableToken struct {
	TableID   uuid.UUID `json:"table_id"`
	TableCode string    `json:"table_code"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueTableToken signs a fresh capability token for the table. Staff
// print or display it as a QR code; scanning it later opens the table's
// dine-in session.
func (s *Service) IssueTableToken(ctx context.Context, tableID uuid.UUID) (*TableToken, error) {
	var t models.Table
	err := s.db.QueryRow(ctx, database.GetTableSQL, tableID).Scan(
		&t.ID, &t.AreaID, &t.Code, &t.Seats, &t.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.New(errs.CodeTableNotFound, "table not found")
		}
		return nil, err
	}

	return &TableToken{
		TableID:   t.ID,
		TableCode: t.Code,
		Token:     s.signer.Issue(t.ID, s.tokenTTL),
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}, nil
}

// CreateRequest describes a staff-created order
type CreateRequest struct {
	UserID  *uuid.UUID       `json:"user_id,omitempty"`
	TableID *uuid.UUID       `json:"table_id,omitempty"`
	Type    models.OrderType `json:"order_type"`
	Note    string           `json:"note,omitempty"`
}

// AddItemRequest adds a catalog item to an order
type AddItemRequest struct {
	Kind     models.ItemKind `json:"item_type"`
	ItemID   uuid.UUID       `json:"item_id"`
	Quantity int             `json:"quantity"`
}

// PayRequest settles or checks out an order
type PayRequest struct {
	Method models.PaymentMethod `json:"method"`
	Amount *decimal.Decimal     `json:"amount,omitempty"`
}

// PayResult is what the cashier or customer gets back after Pay
type PayResult struct {
	Order   *models.Order   `json:"order"`
	Payment *models.Payment `json:"payment"`
	Change  decimal.Decimal `json:"change"`
	Points  int64           `json:"points_earned"`
}

// Create opens a new order. Dine-in orders need a free table; delivery
// orders need an owning user.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Order, error) {
	switch req.Type {
	case models.DineIn:
		if req.TableID == nil {
			return nil, errs.New(errs.CodeInvalidInput, "dine-in orders require a table")
		}
	case models.Delivery:
		if req.UserID == nil {
			return nil, errs.New(errs.CodeInvalidInput, "delivery orders require a user")
		}
	default:
		return nil, errs.Newf(errs.CodeInvalidInput, "unknown order type %q", req.Type)
	}

	var created *models.Order
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if req.Type == models.DineIn {
			if err := lockFreeTable(ctx, tx, *req.TableID); err != nil {
				return err
			}
		}
		o, err := insertOrder(ctx, tx, req.UserID, req.TableID, req.Type, req.Note)
		if err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// OpenByToken opens (or resumes) the dine-in session for a scanned table
// token. Verification order is fixed: structure, signature, freshness,
// then table state. The table row is locked so two concurrent scans of
// the same code end up in the same order.
func (s *Service) OpenByToken(ctx context.Context, userID *uuid.UUID, token, note string) (*models.Order, error) {
	decoded, err := s.signer.Verify(token)
	if err != nil {
		return nil, err
	}
	if decoded.Expired(time.Now()) {
		return nil, errs.New(errs.CodeTokenExpired, "table code has expired, ask the staff for a new one")
	}

	var result *models.Order
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		tbl, err := getTableForUpdate(ctx, tx, decoded.TableID)
		if err != nil {
			return err
		}
		if tbl.Status != models.TableAvailable {
			return errs.New(errs.CodeTableBusy, "this table is not open for ordering")
		}

		existing, err := scanOrder(tx.QueryRow(ctx, database.GetOpenOrderByTableSQL, tbl.ID))
		if err == nil {
			existing.Items, err = listItems(ctx, tx, existing.ID)
			if err != nil {
				return err
			}
			result = existing
			return nil
		}
		if !errs.IsCode(err, errs.CodeOrderNotFound) {
			return err
		}

		o, err := insertOrder(ctx, tx, userID, &tbl.ID, models.DineIn, note)
		if err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetOrCreateCart returns the user's open delivery cart, creating an
// empty one if none exists. The one-cart-per-user invariant is enforced
// by a partial unique index; when two concurrent calls both try to
// create, the loser re-reads the winner's cart.
func (s *Service) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	o, err := scanOrder(s.db.QueryRow(ctx, database.GetOpenCartByUserSQL, userID))
	if err == nil {
		o.Items, err = listItems(ctx, s.db.Pool, o.ID)
		if err != nil {
			return nil, err
		}
		return o, nil
	}
	if !errs.IsCode(err, errs.CodeOrderNotFound) {
		return nil, err
	}

	var created *models.Order
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		created, txErr = insertOrder(ctx, tx, &userID, nil, models.Delivery, "")
		return txErr
	})
	if err != nil {
		if isUniqueViolation(err) {
			existing, rerr := scanOrder(s.db.QueryRow(ctx, database.GetOpenCartByUserSQL, userID))
			if rerr != nil {
				return nil, rerr
			}
			existing.Items, rerr = listItems(ctx, s.db.Pool, existing.ID)
			if rerr != nil {
				return nil, rerr
			}
			return existing, nil
		}
		return nil, err
	}
	return created, nil
}

// AddItem snapshots the catalog entry and adds it as a line item,
// merging into an existing line for the same item.
func (s *Service) AddItem(ctx context.Context, orderID uuid.UUID, req AddItemRequest) (*models.Order, error) {
	if req.Quantity < 1 {
		return nil, errs.New(errs.CodeInvalidInput, "quantity must be at least 1")
	}
	if req.Kind != models.KindDish && req.Kind != models.KindCombo {
		return nil, errs.Newf(errs.CodeInvalidInput, "unknown item type %q", req.Kind)
	}

	entry, err := s.catalog.Describe(ctx, req.Kind, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !entry.Active {
		return nil, errs.Newf(errs.CodeInvalidInput, "%s is currently unavailable", entry.Name)
	}

	var result *models.Order
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		o, err := mutableOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		items, err := listItems(ctx, tx, o.ID)
		if err != nil {
			return err
		}

		merged := false
		for _, it := range items {
			if it.Kind == req.Kind && it.ItemID == req.ItemID {
				line := mergedLine(it, entry, req.Quantity)
				if _, err := tx.Exec(ctx, database.UpdateOrderItemSnapshotSQL,
					line.ID, o.ID, line.Name, line.UnitPrice, line.Quantity, line.LineTotal); err != nil {
					return err
				}
				merged = true
				break
			}
		}
		if !merged {
			line := money.LineTotal(entry.Price, req.Quantity)
			_, err := tx.Exec(ctx, database.InsertOrderItemSQL,
				uuid.New(), o.ID, req.Kind, req.ItemID, entry.Name, entry.Price, req.Quantity, line)
			if err != nil {
				return err
			}
		}

		if err := s.recompute(ctx, tx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddItemToCart adds an item to the user's cart, creating the cart first
// if needed.
func (s *Service) AddItemToCart(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*models.Order, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.AddItem(ctx, cart.ID, req)
}

// UpdateItem changes a line item's quantity; zero or less removes it.
func (s *Service) UpdateItem(ctx context.Context, orderID, itemID uuid.UUID, quantity int) (*models.Order, error) {
	var result *models.Order
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		o, err := mutableOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		it, err := getItem(ctx, tx, o.ID, itemID)
		if err != nil {
			return err
		}

		if quantity <= 0 {
			if _, err := tx.Exec(ctx, database.DeleteOrderItemSQL, it.ID, o.ID); err != nil {
				return err
			}
		} else {
			line := money.LineTotal(it.UnitPrice, quantity)
			if _, err := tx.Exec(ctx, database.UpdateOrderItemQuantitySQL, it.ID, o.ID, quantity, line); err != nil {
				return err
			}
		}

		if err := s.recompute(ctx, tx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveItem deletes a line item from the order
func (s *Service) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.Order, error) {
	return s.UpdateItem(ctx, orderID, itemID, 0)
}

// cartOrderID resolves the caller's open cart; unlike GetOrCreateCart it
// never creates one.
func (s *Service) cartOrderID(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	o, err := scanOrder(s.db.QueryRow(ctx, database.GetOpenCartByUserSQL, userID))
	if err != nil {
		return uuid.Nil, err
	}
	return o.ID, nil
}

// UpdateCartItem changes a quantity in the user's own cart
func (s *Service) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Order, error) {
	orderID, err := s.cartOrderID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.UpdateItem(ctx, orderID, itemID, quantity)
}

// RemoveCartItem removes a line from the user's own cart
func (s *Service) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Order, error) {
	orderID, err := s.cartOrderID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.RemoveItem(ctx, orderID, itemID)
}

// ApplyUserVoucher attaches a wallet voucher to an open order. The
// voucher stays unredeemed until the order settles.
func (s *Service) ApplyUserVoucher(ctx context.Context, orderID, userID, userVoucherID uuid.UUID) (*models.Order, error) {
	var result *models.Order
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		o, err := mutableOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.UserID == nil || *o.UserID != userID {
			return errs.New(errs.CodeOwnershipViolation, "you cannot use a voucher on an order that is not yours")
		}

		uv, v, err := getUserVoucher(ctx, tx, userVoucherID)
		if err != nil {
			return err
		}
		if uv.UserID != userID {
			return errs.New(errs.CodeOwnershipViolation, "this voucher belongs to another user")
		}
		if uv.Redeemed {
			return errs.New(errs.CodeVoucherInactive, "this voucher has already been used")
		}

		items, err := listItems(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		subtotal := money.Recompute(items, decimal.Zero).Subtotal
		if err := voucher.Validate(v, subtotal, time.Now()); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, database.UpdateOrderVoucherSQL, o.ID, uv.ID); err != nil {
			return err
		}
		o.AppliedUserVoucherID = &uv.ID

		if err := s.recompute(ctx, tx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyVoucherCode resolves a voucher code against the user's wallet
// and applies the matching unredeemed entry.
func (s *Service) ApplyVoucherCode(ctx context.Context, orderID, userID uuid.UUID, code string) (*models.Order, error) {
	if code == "" {
		return nil, errs.New(errs.CodeInvalidInput, "a voucher code is required")
	}
	var userVoucherID uuid.UUID
	err := s.db.QueryRow(ctx, database.GetUnredeemedUserVoucherByCodeSQL, userID, code).Scan(&userVoucherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.Newf(errs.CodeVoucherNotFound, "no usable voucher with code %q in your wallet", code)
		}
		return nil, err
	}
	return s.ApplyUserVoucher(ctx, orderID, userID, userVoucherID)
}

// ClearVoucher detaches the applied voucher and restores full-price totals
func (s *Service) ClearVoucher(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var result *models.Order
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		o, err := mutableOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != nil && *o.UserID != userID {
			return errs.New(errs.CodeOwnershipViolation, "you cannot update an order that is not yours")
		}
		if _, err := tx.Exec(ctx, database.UpdateOrderVoucherSQL, o.ID, nil); err != nil {
			return err
		}
		o.AppliedUserVoucherID = nil
		if err := s.recompute(ctx, tx, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Pay settles an order at the counter (CASH) or checks out a delivery
// order for collection on arrival (COD). Gateway payments go through the
// payment service instead.
func (s *Service) Pay(ctx context.Context, orderID uuid.UUID, req PayRequest) (*PayResult, error) {
	switch req.Method {
	case models.MethodCash, models.MethodCOD:
	case models.MethodVNPay:
		return nil, errs.New(errs.CodeInvalidInput, "gateway payments are initiated through the payments endpoint")
	default:
		return nil, errs.Newf(errs.CodeInvalidInput, "unknown payment method %q", req.Method)
	}

	var (
		result *PayResult
		paid   bool
	)
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		o, err := getOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.Status == models.OrderPaid {
			return errs.New(errs.CodeOrderAlreadySettled, "this order has already been paid")
		}
		if o.Status != models.OrderOpen {
			return errs.Newf(errs.CodeOrderNotOpen, "order is %s, not OPEN", o.Status)
		}
		if o.Total.IsZero() {
			return errs.New(errs.CodeInvalidInput, "cannot pay an empty order")
		}

		switch req.Method {
		case models.MethodCash:
			if req.Amount == nil {
				return errs.New(errs.CodeInvalidInput, "cash payments require the tendered amount")
			}
			change, err := cashChange(o.Total, *req.Amount)
			if err != nil {
				return err
			}
			p, err := insertPayment(ctx, tx, o.ID, models.MethodCash, o.Total, models.PaymentPending, nil, nil)
			if err != nil {
				return err
			}
			desc := "paid in cash at the counter"
			if _, err := tx.Exec(ctx, database.MarkPaymentSucceededSQL, p.ID, nil, nil, desc); err != nil {
				return err
			}
			p.Status = models.PaymentSucceeded
			p.Description = &desc
			now := time.Now()
			p.PaidAt = &now

			points, err := s.confirmPaid(ctx, tx, o)
			if err != nil {
				return err
			}
			paid = true
			result = &PayResult{
				Order:   o,
				Payment: p,
				Change:  change,
				Points:  points,
			}

		case models.MethodCOD:
			if o.Type != models.Delivery {
				return errs.New(errs.CodeInvalidInput, "collect-on-delivery only applies to delivery orders")
			}
			p, err := insertPayment(ctx, tx, o.ID, models.MethodCOD, o.Total, models.PaymentPending, nil, nil)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, database.UpdateOrderStatusSQL, o.ID, models.OrderUnpaid); err != nil {
				return err
			}
			o.Status = models.OrderUnpaid
			result = &PayResult{Order: o, Payment: p, Change: decimal.Zero}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if paid {
		s.notifyPaid(ctx, result.Order, result.Points)
	} else {
		s.notifyAwaitingCOD(ctx, result.Order)
	}
	return result, nil
}

// UpdateStatus runs one transition of the order state machine on behalf
// of the given actor. Moving a COD order to PAID settles it.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target models.OrderStatus, actor models.Actor, actorUserID *uuid.UUID) (*models.Order, error) {
	var (
		result *models.Order
		points int64
		paid   bool
	)
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		o, err := getOrderForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		isOwner := o.UserID != nil && actorUserID != nil && *o.UserID == *actorUserID
		if err := Transition(o.Type, o.Status, target, actor, isOwner); err != nil {
			return err
		}

		if target == models.OrderPaid {
			points, err = s.confirmPaid(ctx, tx, o)
			if err != nil {
				return err
			}
			paid = true
		} else {
			if _, err := tx.Exec(ctx, database.UpdateOrderStatusSQL, o.ID, target); err != nil {
				return err
			}
			o.Status = target

			if detachesVoucher(target) && o.AppliedUserVoucherID != nil {
				if _, err := tx.Exec(ctx, database.UpdateOrderVoucherSQL, o.ID, nil); err != nil {
					return err
				}
				o.AppliedUserVoucherID = nil
				if err := s.recompute(ctx, tx, o); err != nil {
					return err
				}
			}
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if paid {
		s.notifyPaid(ctx, result, points)
	}
	return result, nil
}

// ConfirmPaidTx settles the order inside the caller's transaction after
// a successful gateway payment. Only orders still OPEN are settled; a
// replay or a payment against a cancelled order leaves the order alone
// and reports settled=false.
func (s *Service) ConfirmPaidTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (o *models.Order, points int64, settled bool, err error) {
	o, err = getOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, 0, false, err
	}
	if o.Status != models.OrderOpen {
		return o, 0, false, nil
	}
	points, err = s.confirmPaid(ctx, tx, o)
	if err != nil {
		return nil, 0, false, err
	}
	return o, points, true, nil
}

// NotifyPaid publishes the settlement event outside any transaction
func (s *Service) NotifyPaid(ctx context.Context, o *models.Order, points int64) {
	s.notifyPaid(ctx, o, points)
}

// confirmPaid flips the order to PAID, burns the applied voucher and
// credits loyalty points. Replays are no-ops so gateway retries and
// double-submits cannot double-credit.
func (s *Service) confirmPaid(ctx context.Context, tx pgx.Tx, o *models.Order) (int64, error) {
	if o.Status == models.OrderPaid {
		return 0, nil
	}

	if _, err := tx.Exec(ctx, database.UpdateOrderStatusSQL, o.ID, models.OrderPaid); err != nil {
		return 0, err
	}
	o.Status = models.OrderPaid

	if o.AppliedUserVoucherID != nil {
		var id uuid.UUID
		err := tx.QueryRow(ctx, database.RedeemUserVoucherSQL, *o.AppliedUserVoucherID).Scan(&id)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return 0, err
		}
	}

	var points int64
	if o.UserID != nil {
		points = money.EarnedPoints(o.Total)
		if points > 0 {
			if _, err := tx.Exec(ctx, database.UpsertLoyaltyCreditSQL, *o.UserID, points); err != nil {
				return 0, err
			}
		}
	}
	return points, nil
}

// GetByID loads an order with its items
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := getOrder(ctx, s.db.Pool, id)
	if err != nil {
		return nil, err
	}
	o.Items, err = listItems(ctx, s.db.Pool, o.ID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	rows, err := s.db.Query(ctx, database.ListOrdersByUserSQL, userID)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

// ListAll returns every order, newest first
func (s *Service) ListAll(ctx context.Context) ([]models.Order, error) {
	rows, err := s.db.Query(ctx, database.ListAllOrdersSQL)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

// CleanupEmpty deletes abandoned empty delivery carts and returns how
// many were removed.
func (s *Service) CleanupEmpty(ctx context.Context) (int64, error) {
	tag, err := s.db.Pool.Exec(ctx, database.DeleteEmptyOrdersSQL)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// StatsToday returns today's order counts grouped by status
func (s *Service) StatsToday(ctx context.Context) (map[models.OrderStatus]int, error) {
	rows, err := s.db.Query(ctx, database.CountOrdersByStatusTodaySQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[models.OrderStatus]int)
	for rows.Next() {
		var status models.OrderStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// recompute derives and persists the order totals from its current line
// items and applied voucher, then refreshes the in-memory order.
func (s *Service) recompute(ctx context.Context, tx pgx.Tx, o *models.Order) error {
	items, err := listItems(ctx, tx, o.ID)
	if err != nil {
		return err
	}

	discount := decimal.Zero
	if o.AppliedUserVoucherID != nil {
		_, v, err := getUserVoucher(ctx, tx, *o.AppliedUserVoucherID)
		if err != nil {
			return err
		}
		subtotal := money.Recompute(items, decimal.Zero).Subtotal
		discount = voucher.ComputeDiscount(v, subtotal)
	}

	t := money.Recompute(items, discount)
	if _, err := tx.Exec(ctx, database.UpdateOrderTotalsSQL, o.ID, t.Subtotal, t.Discount, t.Tax, t.Total); err != nil {
		return err
	}

	o.Subtotal, o.Discount, o.Tax, o.Total = t.Subtotal, t.Discount, t.Tax, t.Total
	o.Items = items
	return nil
}

func (s *Service) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Service) notifyPaid(ctx context.Context, o *models.Order, points int64) {
	if s.publisher == nil {
		return
	}
	msg := models.NewOrderPaidMessage(o.ID, o.UserID, o.Total.StringFixed(2), points)
	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		s.logger.Error("publish_notification", "failed to publish order_paid event",
			logger.GenerateRequestID(), err, map[string]interface{}{"order_id": o.ID.String()})
	}
}

func (s *Service) notifyAwaitingCOD(ctx context.Context, o *models.Order) {
	if s.publisher == nil {
		return
	}
	msg := models.NewOrderAwaitingCODMessage(o.ID, o.UserID, o.Total.StringFixed(2))
	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		s.logger.Error("publish_notification", "failed to publish order_awaiting_cod event",
			logger.GenerateRequestID(), err, map[string]interface{}{"order_id": o.ID.String()})
	}
}
