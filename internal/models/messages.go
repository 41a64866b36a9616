package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification events published on the fanout exchange. Delivery is
// best-effort: a publish failure never rolls back the transaction that
// produced the event.

// EventType identifies the kind of notification event
type EventType string

const (
	EventOrderPaid            EventType = "order_paid"
	EventOrderAwaitingCOD     EventType = "order_awaiting_cod"
	EventReservationConfirmed EventType = "reservation_confirmed"
	EventReservationCancelled EventType = "reservation_cancelled"
)

// NotificationMessage is the envelope for all notification events
type NotificationMessage struct {
	Event       EventType         `json:"event"`
	OrderID     *uuid.UUID        `json:"order_id,omitempty"`
	UserID      *uuid.UUID        `json:"user_id,omitempty"`
	Total       string            `json:"total,omitempty"`
	Points      int64             `json:"points,omitempty"`
	Reservation *ReservationBrief `json:"reservation,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// ReservationBrief carries the reservation fields a notification needs
type ReservationBrief struct {
	ID        uuid.UUID `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	PartySize int       `json:"party_size"`
	Tables    []string  `json:"tables,omitempty"`
}

// NewOrderPaidMessage builds the settlement notification for an order
func NewOrderPaidMessage(orderID uuid.UUID, userID *uuid.UUID, total string, points int64) *NotificationMessage {
	return &NotificationMessage{
		Event:     EventOrderPaid,
		OrderID:   &orderID,
		UserID:    userID,
		Total:     total,
		Points:    points,
		Timestamp: time.Now().UTC(),
	}
}

// NewOrderAwaitingCODMessage builds the pending-collection notification
func NewOrderAwaitingCODMessage(orderID uuid.UUID, userID *uuid.UUID, total string) *NotificationMessage {
	return &NotificationMessage{
		Event:     EventOrderAwaitingCOD,
		OrderID:   &orderID,
		UserID:    userID,
		Total:     total,
		Timestamp: time.Now().UTC(),
	}
}

// NewReservationConfirmedMessage builds the table-assignment notification
func NewReservationConfirmedMessage(r *Reservation, tableCodes []string) *NotificationMessage {
	userID := r.UserID
	return &NotificationMessage{
		Event:  EventReservationConfirmed,
		UserID: &userID,
		Reservation: &ReservationBrief{
			ID:        r.ID,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			PartySize: r.PartySize,
			Tables:    tableCodes,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewReservationCancelledMessage builds the cancellation notification
func NewReservationCancelledMessage(r *Reservation) *NotificationMessage {
	userID := r.UserID
	return &NotificationMessage{
		Event:  EventReservationCancelled,
		UserID: &userID,
		Reservation: &ReservationBrief{
			ID:        r.ID,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			PartySize: r.PartySize,
		},
		Timestamp: time.Now().UTC(),
	}
}
