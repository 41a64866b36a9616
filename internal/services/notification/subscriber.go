// Package notification consumes the fanout events the core publishes
// and turns them into human-readable notifications. Delivery targets
// (mail, push) hang off this subscriber; the core itself never waits
// for them.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"hoaban-restaurant/internal/logger"
	"hoaban-restaurant/internal/messaging"
	"hoaban-restaurant/internal/models"
)

// Subscriber handles notification messages
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger

	shutdown chan os.Signal
	done     chan bool
}

// NewSubscriber creates a new notification subscriber
func NewSubscriber(consumer *messaging.Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
		shutdown: make(chan os.Signal, 1),
		done:     make(chan bool, 1),
	}
}

// Start starts the notification subscriber
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)

	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	go func() {
		if err := s.consumer.StartConsuming(ctx, s.handleNotification); err != nil {
			s.logger.Error("consumer_failed", "Notification consumer failed", requestID, err, nil)
		}
		s.done <- true
	}()

	select {
	case <-s.shutdown:
		s.logger.Info("graceful_shutdown", "Received shutdown signal", requestID, nil)
		return s.consumer.Close()
	case <-s.done:
		return nil
	case <-ctx.Done():
		return s.consumer.Close()
	}
}

// handleNotification processes one event from the fanout queue
func (s *Subscriber) handleNotification(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var msg models.NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return fmt.Errorf("failed to parse notification: %w", err)
	}

	s.logger.Debug("notification_received", "Received notification event", requestID, map[string]interface{}{
		"event": msg.Event,
	})

	fmt.Println(s.format(&msg))
	return nil
}

// format renders an event as a console notification line
func (s *Subscriber) format(msg *models.NotificationMessage) string {
	switch msg.Event {
	case models.EventOrderPaid:
		line := fmt.Sprintf("[PAID] Order %s settled for %s", shortID(msg.OrderID), msg.Total)
		if msg.Points > 0 {
			line += fmt.Sprintf(" (+%d points)", msg.Points)
		}
		return line
	case models.EventOrderAwaitingCOD:
		return fmt.Sprintf("[COD] Order %s is awaiting collection, total %s", shortID(msg.OrderID), msg.Total)
	case models.EventReservationConfirmed:
		r := msg.Reservation
		if r == nil {
			return "[RESERVED] Reservation confirmed"
		}
		return fmt.Sprintf("[RESERVED] Party of %d on %s, tables %v",
			r.PartySize, r.StartTime.Format("2006-01-02 15:04"), r.Tables)
	case models.EventReservationCancelled:
		r := msg.Reservation
		if r == nil {
			return "[CANCELLED] Reservation cancelled"
		}
		return fmt.Sprintf("[CANCELLED] Reservation for %s is cancelled", r.StartTime.Format("2006-01-02 15:04"))
	default:
		return fmt.Sprintf("[EVENT] %s", msg.Event)
	}
}

func shortID(id *uuid.UUID) string {
	if id == nil {
		return "?"
	}
	return id.String()[:8]
}
