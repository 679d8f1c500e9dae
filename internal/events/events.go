// Package events publishes order notifications to the kitchen and other listeners.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	OrderCreated       = "order.created"
	OrderUpdated       = "order.updated"
	OrderStatusChanged = "order.status_changed"
	OrderDeleted       = "order.deleted"
	OrderLineAdded     = "order.line_added"
	OrderLineUpdated   = "order.line_updated"
	OrderLineRemoved   = "order.line_removed"
)

// Event is the envelope every publisher serializes as JSON.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	OrderID    int64     `json:"order_id"`
	LineID     int64     `json:"line_id,omitempty"`
	ProductID  int64     `json:"product_id,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	StatusID   int64     `json:"status_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	TableID    int64     `json:"table_id,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(kind string, orderID int64) Event {
	return Event{ID: uuid.NewString(), Type: kind, OccurredAt: time.Now().UTC(), OrderID: orderID}
}

// Publisher delivers events after the producing transaction has committed.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, evt Event) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "order event",
		slog.String("event_id", evt.ID),
		slog.String("type", evt.Type),
		slog.Int64("order_id", evt.OrderID))
	return nil
}

func (LogPublisher) Close() error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
