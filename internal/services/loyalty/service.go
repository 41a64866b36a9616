// Package loyalty owns point balances and the voucher wallet. Points
// are credited when orders settle; spending them buys vouchers. The
// debit is a conditional update so a concurrent double-spend can never
// push a balance negative.
package loyalty

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hoaban-restaurant/internal/database"
	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/logger"
	"hoaban-restaurant/internal/models"
	"hoaban-restaurant/internal/voucher"
)

type Service struct {
	db     *database.DB
	logger *logger.Logger
}

func NewService(db *database.DB, log *logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: log,
	}
}

// Points returns the user's balance; users with no account have zero
func (s *Service) Points(ctx context.Context, userID uuid.UUID) (int64, error) {
	var points int64
	err := s.db.QueryRow(ctx, database.GetLoyaltyPointsSQL, userID).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return points, nil
}

// RedeemByID buys the voucher with loyalty points, placing it in the
// user's wallet unredeemed.
func (s *Service) RedeemByID(ctx context.Context, userID, voucherID uuid.UUID) (*models.UserVoucher, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	v, err := getVoucher(ctx, tx, database.GetVoucherByIDSQL, voucherID)
	if err != nil {
		return nil, err
	}
	uv, err := s.redeem(ctx, tx, userID, v)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return uv, nil
}

// RedeemByCode is RedeemByID with a code lookup
func (s *Service) RedeemByCode(ctx context.Context, userID uuid.UUID, code string) (*models.UserVoucher, error) {
	if code == "" {
		return nil, errs.New(errs.CodeInvalidInput, "a voucher code is required")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	v, err := getVoucher(ctx, tx, database.GetVoucherByCodeSQL, code)
	if err != nil {
		return nil, err
	}
	uv, err := s.redeem(ctx, tx, userID, v)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return uv, nil
}

func (s *Service) redeem(ctx context.Context, tx pgx.Tx, userID uuid.UUID, v *models.Voucher) (*models.UserVoucher, error) {
	if v.PointCost <= 0 {
		return nil, errs.New(errs.CodeInvalidInput, "this voucher cannot be bought with points")
	}
	if err := voucher.ValidateWindow(v, time.Now()); err != nil {
		return nil, err
	}

	var alreadyOwned bool
	if err := tx.QueryRow(ctx, database.ExistsUnredeemedUserVoucherSQL, userID, v.ID).Scan(&alreadyOwned); err != nil {
		return nil, err
	}
	if alreadyOwned {
		return nil, errs.New(errs.CodeVoucherOwned, "you already hold an unused copy of this voucher")
	}

	if _, err := tx.Exec(ctx, database.EnsureLoyaltyAccountSQL, userID); err != nil {
		return nil, err
	}

	var remaining int64
	err := tx.QueryRow(ctx, database.DebitLoyaltySQL, userID, v.PointCost).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.Newf(errs.CodeInsufficientPoints, "you need %d points for this voucher", v.PointCost)
		}
		return nil, err
	}

	uv := &models.UserVoucher{
		ID:        uuid.New(),
		UserID:    userID,
		VoucherID: v.ID,
		Voucher:   v,
	}
	if _, err := tx.Exec(ctx, database.InsertUserVoucherSQL, uv.ID, uv.UserID, uv.VoucherID); err != nil {
		return nil, err
	}
	return uv, nil
}

// Wallet lists the user's unredeemed vouchers with their definitions
func (s *Service) Wallet(ctx context.Context, userID uuid.UUID) ([]models.UserVoucher, error) {
	rows, err := s.db.Query(ctx, database.ListUnredeemedUserVouchersSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallet []models.UserVoucher
	for rows.Next() {
		var uv models.UserVoucher
		var v models.Voucher
		if err := rows.Scan(
			&uv.ID, &uv.UserID, &uv.VoucherID, &uv.Redeemed, &uv.RedeemedAt,
			&v.ID, &v.Code, &v.Name, &v.Type, &v.Value, &v.MinOrder,
			&v.MaxDiscount, &v.PointCost, &v.Status, &v.StartAt, &v.EndAt,
		); err != nil {
			return nil, err
		}
		uv.Voucher = &v
		wallet = append(wallet, uv)
	}
	return wallet, rows.Err()
}

// Redeemable lists active point vouchers the user can currently afford
func (s *Service) Redeemable(ctx context.Context, userID uuid.UUID) ([]models.Voucher, error) {
	points, err := s.Points(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, database.ListRedeemableVouchersSQL, points)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vouchers []models.Voucher
	for rows.Next() {
		var v models.Voucher
		if err := rows.Scan(
			&v.ID, &v.Code, &v.Name, &v.Type, &v.Value, &v.MinOrder,
			&v.MaxDiscount, &v.PointCost, &v.Status, &v.StartAt, &v.EndAt,
		); err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

func getVoucher(ctx context.Context, tx pgx.Tx, query string, key interface{}) (*models.Voucher, error) {
	var v models.Voucher
	err := tx.QueryRow(ctx, query, key).Scan(
		&v.ID, &v.Code, &v.Name, &v.Type, &v.Value, &v.MinOrder,
		&v.MaxDiscount, &v.PointCost, &v.Status, &v.StartAt, &v.EndAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.New(errs.CodeVoucherNotFound, "voucher not found")
		}
		return nil, err
	}
	return &v, nil
}
