// Package payment owns gateway payments and their reconciliation. A
// payment is created PENDING with a signed pay URL; the gateway later
// reports the result on two channels (browser return and server IPN),
// both of which funnel into the same settle routine so replays and
// channel races cannot settle an order twice.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hoaban-restaurant/internal/config"
	"hoaban-restaurant/internal/database"
	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/logger"
	"hoaban-restaurant/internal/models"
	"hoaban-restaurant/internal/services/order"
	"hoaban-restaurant/internal/vnpay"
)

// payURLTTLMinutes is how long a generated pay URL stays valid
const payURLTTLMinutes = 15

type Service struct {
	db     *database.DB
	orders *order.Service
	cfg    config.VNPayConfig
	logger *logger.Logger
}

func NewService(db *database.DB, orders *order.Service, cfg config.VNPayConfig, log *logger.Logger) *Service {
	return &Service{
		db:     db,
		orders: orders,
		cfg:    cfg,
		logger: log,
	}
}

// GatewayResponse is returned to the client that initiated a gateway
// payment; the client redirects the customer to PaymentURL.
type GatewayResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	PaymentURL string `json:"payment_url"`
	TxnRef     string `json:"txn_ref"`
}

// CreateGateway records a PENDING gateway payment for the order and
// builds the signed pay URL the customer is sent to.
func (s *Service) CreateGateway(ctx context.Context, orderID uuid.UUID, clientIP string) (*GatewayResponse, error) {
	var resp *GatewayResponse

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := order.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == models.OrderPaid {
		return nil, errs.New(errs.CodeOrderAlreadySettled, "this order has already been paid")
	}
	if o.Status != models.OrderOpen {
		return nil, errs.Newf(errs.CodeOrderNotOpen, "order is %s, not OPEN", o.Status)
	}
	if o.Total.IsZero() {
		return nil, errs.New(errs.CodeInvalidInput, "cannot pay an empty order")
	}

	txnRef := vnpay.NewTxnRef()
	expiredAt := time.Now().Add(payURLTTLMinutes * time.Minute)

	_, err = tx.Exec(ctx, database.InsertPaymentSQL,
		uuid.New(), o.ID, models.MethodVNPay, o.Total, models.PaymentPending, txnRef, expiredAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    s.cfg.TmnCode,
		"vnp_Amount":     vnpay.ToVnpAmount(o.Total),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     txnRef,
		"vnp_OrderInfo":  fmt.Sprintf("Payment order %s", o.ID),
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  s.cfg.ReturnURL,
		"vnp_IpnUrl":     s.cfg.IpnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": vnpay.NowString(),
		"vnp_ExpireDate": vnpay.PlusMinutesString(payURLTTLMinutes),
	}

	resp = &GatewayResponse{
		Code:       vnpay.CodeSuccess,
		Message:    "OK",
		PaymentURL: s.cfg.URL + "?" + vnpay.SignQuery(params, s.cfg.Secret),
		TxnRef:     txnRef,
	}
	return resp, nil
}

// Result is the outcome of reconciling one gateway callback
type Result struct {
	Payment *models.Payment `json:"payment"`
	Order   *models.Order   `json:"order,omitempty"`
	Points  int64           `json:"points_earned,omitempty"`
	Success bool            `json:"success"`
	Settled bool            `json:"settled"`
}

// Settle reconciles one gateway callback. The checksum is verified
// before anything else; then the payment row is locked by transaction
// reference and the pure decision table picks the action. Both callback
// channels run through here, so whichever arrives second is a no-op.
func (s *Service) Settle(ctx context.Context, params map[string]string) (*Result, error) {
	if !vnpay.VerifyChecksum(params, s.cfg.Secret) {
		return nil, errs.New(errs.CodeInvalidSignature, "checksum verification failed")
	}

	txnRef := params[vnpay.ParamTxnRef]
	if txnRef == "" {
		return nil, errs.New(errs.CodeInvalidInput, "missing transaction reference")
	}
	success := vnpay.Success(params)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	p, err := getPaymentByTxnRef(ctx, tx, txnRef)
	if err != nil {
		return nil, err
	}

	bank := optional(params[vnpay.ParamBankCode])
	card := optional(params[vnpay.ParamCardType])

	result := &Result{Payment: p, Success: success}

	switch decide(p.Status, success) {
	case outcomeConfirm:
		desc := "gateway callback"
		if _, err := tx.Exec(ctx, database.MarkPaymentSucceededSQL, p.ID, bank, card, desc); err != nil {
			return nil, err
		}
		p.Status = models.PaymentSucceeded
		p.BankCode, p.CardType = bank, card
		p.Description = &desc
		now := time.Now()
		p.PaidAt = &now

		o, points, settled, err := s.orders.ConfirmPaidTx(ctx, tx, p.OrderID)
		if err != nil {
			return nil, err
		}
		result.Order, result.Points, result.Settled = o, points, settled

	case outcomeDuplicate:
		// a second success report for an already settled payment

	case outcomeFail:
		desc := "gateway reported failure"
		if _, err := tx.Exec(ctx, database.MarkPaymentFailedSQL, p.ID, bank, card, desc); err != nil {
			return nil, err
		}
		p.Status = models.PaymentFailed
		p.BankCode, p.CardType = bank, card
		p.Description = &desc

	case outcomeIgnore:
		// failure report after a recorded success; keep the success
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if result.Settled {
		s.orders.NotifyPaid(ctx, result.Order, result.Points)
	}
	return result, nil
}

func getPaymentByTxnRef(ctx context.Context, tx pgx.Tx, txnRef string) (*models.Payment, error) {
	var p models.Payment
	err := tx.QueryRow(ctx, database.GetPaymentByTxnRefForUpdateSQL, txnRef).Scan(
		&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.Status, &p.TransactionRef,
		&p.BankCode, &p.CardType, &p.Description, &p.CreatedAt, &p.PaidAt, &p.ExpiredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.New(errs.CodePaymentNotFound, "no payment with this transaction reference")
		}
		return nil, err
	}
	return &p, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
