package reservation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hoaban-restaurant/internal/database"
	"hoaban-restaurant/internal/errs"
	"hoaban-restaurant/internal/models"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var r models.Reservation
	err := row.Scan(
		&r.ID, &r.UserID, &r.StartTime, &r.EndTime, &r.PartySize,
		&r.Status, &r.Note, &r.CancelReason, &r.CanceledBy, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.New(errs.CodeReservationNotFound, "reservation not found")
		}
		return nil, err
	}
	return &r, nil
}

func getReservation(ctx context.Context, q querier, id uuid.UUID) (*models.Reservation, error) {
	return scanReservation(q.QueryRow(ctx, database.GetReservationSQL, id))
}

func getReservationForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Reservation, error) {
	return scanReservation(tx.QueryRow(ctx, database.GetReservationForUpdateSQL, id))
}

func scanTables(rows pgx.Rows) ([]models.Table, error) {
	defer rows.Close()
	var tables []models.Table
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.ID, &t.AreaID, &t.Code, &t.Seats, &t.Status); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func listReservationTables(ctx context.Context, q querier, reservationID uuid.UUID) ([]models.Table, error) {
	rows, err := q.Query(ctx, database.ListTablesForReservationSQL, reservationID)
	if err != nil {
		return nil, err
	}
	return scanTables(rows)
}

func scanReservations(ctx context.Context, q querier, rows pgx.Rows) ([]models.Reservation, error) {
	var reservations []models.Reservation
	for rows.Next() {
		var r models.Reservation
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.StartTime, &r.EndTime, &r.PartySize,
			&r.Status, &r.Note, &r.CancelReason, &r.CanceledBy, &r.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, err
		}
		reservations = append(reservations, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range reservations {
		tables, err := listReservationTables(ctx, q, reservations[i].ID)
		if err != nil {
			return nil, err
		}
		reservations[i].Tables = tables
	}
	return reservations, nil
}
