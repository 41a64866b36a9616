// Package reservation owns table bookings: a reservation is created
// PENDING, staff assign tables which confirms it, and either side can
// cancel. Double-booking is prevented inside one transaction: the
// candidate table rows are locked, then the half-open windows of every
// other live reservation on those tables are checked.
package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hoaban-restaurant/internal/database"
	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/logger"
	"hoaban-restaurant/internal/messaging"
	"hoaban-restaurant/internal/models"
)

type Service struct {
	db        *database.DB
	publisher *messaging.Publisher
	logger    *logger.Logger
}

func NewService(db *database.DB, publisher *messaging.Publisher, log *logger.Logger) *Service {
	return &Service{
		db:        db,
		publisher: publisher,
		logger:    log,
	}
}

// CreateRequest describes a new booking
type CreateRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	PartySize int       `json:"party_size"`
	Note      string    `json:"note,omitempty"`
}

// Create books a PENDING reservation for the user. Tables are assigned
// later by staff.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*models.Reservation, error) {
	if !req.StartTime.Before(req.EndTime) {
		return nil, errs.New(errs.CodeInvalidInput, "the reservation must start before it ends")
	}
	if req.StartTime.Before(time.Now()) {
		return nil, errs.New(errs.CodeInvalidInput, "the reservation cannot start in the past")
	}
	if req.PartySize < 1 {
		return nil, errs.New(errs.CodeInvalidInput, "party size must be at least 1")
	}

	r := &models.Reservation{
		ID:        uuid.New(),
		UserID:    userID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		PartySize: req.PartySize,
		Status:    models.ReservationPending,
		Note:      req.Note,
	}
	err := s.db.QueryRow(ctx, database.InsertReservationSQL,
		r.ID, r.UserID, r.StartTime, r.EndTime, r.PartySize, r.Status, r.Note,
	).Scan(&r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// AssignTables attaches tables to the reservation and confirms it.
// Re-assignment replaces the previous tables. The candidate table rows
// are locked in id order before the overlap check so two staff members
// assigning the same tables serialize instead of double-booking.
func (s *Service) AssignTables(ctx context.Context, reservationID uuid.UUID, tableIDs []uuid.UUID) (*models.Reservation, error) {
	if len(tableIDs) == 0 {
		return nil, errs.New(errs.CodeInvalidInput, "at least one table is required")
	}

	var (
		result *models.Reservation
		tables []models.Table
	)
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		r, err := getReservationForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if r.Status == models.ReservationCancelled || r.Status == models.ReservationCompleted {
			return errs.Newf(errs.CodeReservationClosed, "a %s reservation cannot be assigned tables", r.Status)
		}

		rows, err := tx.Query(ctx, database.GetTablesByIDsForUpdateSQL, tableIDs)
		if err != nil {
			return err
		}
		tables, err = scanTables(rows)
		if err != nil {
			return err
		}
		if len(tables) != len(tableIDs) {
			return errs.New(errs.CodeTableNotFound, "one or more tables do not exist")
		}
		if !SufficientSeats(tables, r.PartySize) {
			return errs.Newf(errs.CodeInsufficientCapacity,
				"the assigned tables do not seat a party of %d", r.PartySize)
		}

		var overlapping int
		err = tx.QueryRow(ctx, database.CountReservationOverlapsSQL,
			tableIDs, r.ID, r.StartTime, r.EndTime).Scan(&overlapping)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return errs.New(errs.CodeTableOverlap, "one or more tables are already booked in this time window")
		}

		if _, err := tx.Exec(ctx, database.DeleteReservationLinksSQL, r.ID); err != nil {
			return err
		}
		for _, t := range tables {
			if _, err := tx.Exec(ctx, database.InsertReservationLinkSQL, r.ID, t.ID); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, database.UpdateReservationStatusSQL, r.ID, models.ReservationConfirmed); err != nil {
			return err
		}
		r.Status = models.ReservationConfirmed
		r.Tables = tables
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyConfirmed(ctx, result, tables)
	return result, nil
}

// CancelByUser cancels the user's own reservation. Cancelling an
// already cancelled reservation is a no-op.
func (s *Service) CancelByUser(ctx context.Context, reservationID, userID uuid.UUID, reason string) (*models.Reservation, error) {
	return s.cancel(ctx, reservationID, reason, fmt.Sprintf("USER:%s", userID), &userID)
}

// CancelByStaff cancels any non-completed reservation
func (s *Service) CancelByStaff(ctx context.Context, reservationID uuid.UUID, actor models.Actor, staffID uuid.UUID, reason string) (*models.Reservation, error) {
	return s.cancel(ctx, reservationID, reason, fmt.Sprintf("%s:%s", actor, staffID), nil)
}

func (s *Service) cancel(ctx context.Context, reservationID uuid.UUID, reason, canceledBy string, ownerID *uuid.UUID) (*models.Reservation, error) {
	var (
		result    *models.Reservation
		cancelled bool
	)
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		r, err := getReservationForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if ownerID != nil && r.UserID != *ownerID {
			return errs.New(errs.CodeOwnershipViolation, "you can only cancel your own reservations")
		}
		if r.Status == models.ReservationCancelled {
			result = r
			return nil
		}
		if r.Status == models.ReservationCompleted {
			return errs.New(errs.CodeReservationClosed, "a completed reservation cannot be cancelled")
		}

		if _, err := tx.Exec(ctx, database.CancelReservationSQL, r.ID, reason, canceledBy); err != nil {
			return err
		}
		r.Status = models.ReservationCancelled
		r.CancelReason = &reason
		r.CanceledBy = &canceledBy
		result = r
		cancelled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cancelled {
		s.notifyCancelled(ctx, result)
	}
	return result, nil
}

// Complete marks a confirmed reservation as finished
func (s *Service) Complete(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	var result *models.Reservation
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		r, err := getReservationForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if r.Status != models.ReservationConfirmed {
			return errs.Newf(errs.CodeReservationClosed, "only a CONFIRMED reservation can be completed, this one is %s", r.Status)
		}
		if _, err := tx.Exec(ctx, database.UpdateReservationStatusSQL, r.ID, models.ReservationCompleted); err != nil {
			return err
		}
		r.Status = models.ReservationCompleted
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID loads a reservation with its assigned tables
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	r, err := getReservation(ctx, s.db.Pool, id)
	if err != nil {
		return nil, err
	}
	r.Tables, err = listReservationTables(ctx, s.db.Pool, r.ID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListByUser returns the user's reservations, most recent window first
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error) {
	rows, err := s.db.Query(ctx, database.ListReservationsByUserSQL, userID)
	if err != nil {
		return nil, err
	}
	return scanReservations(ctx, s.db.Pool, rows)
}

// ListAll returns every reservation, most recent window first
func (s *Service) ListAll(ctx context.Context) ([]models.Reservation, error) {
	rows, err := s.db.Query(ctx, database.ListAllReservationsSQL)
	if err != nil {
		return nil, err
	}
	return scanReservations(ctx, s.db.Pool, rows)
}

// AvailableTables lists tables free for the whole window
func (s *Service) AvailableTables(ctx context.Context, start, end time.Time) ([]models.Table, error) {
	if !start.Before(end) {
		return nil, errs.New(errs.CodeInvalidInput, "the window must start before it ends")
	}
	rows, err := s.db.Query(ctx, database.ListAvailableTablesSQL, start, end)
	if err != nil {
		return nil, err
	}
	tables, err := scanTables(rows)
	if err != nil {
		return nil, err
	}
	if tables == nil {
		tables = []models.Table{}
	}
	return tables, nil
}

// StatsToday returns today's reservation counts grouped by status
func (s *Service) StatsToday(ctx context.Context) (map[models.ReservationStatus]int, error) {
	rows, err := s.db.Query(ctx, database.CountReservationsByStatusTodaySQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[models.ReservationStatus]int)
	for rows.Next() {
		var status models.ReservationStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
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

func (s *Service) notifyConfirmed(ctx context.Context, r *models.Reservation, tables []models.Table) {
	if s.publisher == nil {
		return
	}
	codes := make([]string, 0, len(tables))
	for _, t := range tables {
		codes = append(codes, t.Code)
	}
	msg := models.NewReservationConfirmedMessage(r, codes)
	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		s.logger.Error("publish_notification", "failed to publish reservation_confirmed event",
			logger.GenerateRequestID(), err, map[string]interface{}{"reservation_id": r.ID.String()})
	}
}

func (s *Service) notifyCancelled(ctx context.Context, r *models.Reservation) {
	if s.publisher == nil {
		return
	}
	msg := models.NewReservationCancelledMessage(r)
	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		s.logger.Error("publish_notification", "failed to publish reservation_cancelled event",
			logger.GenerateRequestID(), err, map[string]interface{}{"reservation_id": r.ID.String()})
	}
}
