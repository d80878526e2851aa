package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Routing keys.
const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
)

// Event is the envelope published for order lifecycle changes.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// OrderStatusPayload is the body of order events.
type OrderStatusPayload struct {
	OrderID   int64  `json:"orderId"`
	UserID    string `json:"userId"`
	From      string `json:"from,omitempty"`
	To        string `json:"to"`
	ChangedBy string `json:"changedBy,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Publisher delivers events on a best-effort basis.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// New stamps an event with a fresh id and the current time.
func New(eventType string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
