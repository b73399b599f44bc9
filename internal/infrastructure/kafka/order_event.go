package kafka

import (
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

// OrderEvent is the wire shape of order notifications. Rendering text is up to the consumer.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewOrderEvent(evt domain.DomainEvent) OrderEvent {
	return OrderEvent{
		Type:       string(evt.Type),
		OrderID:    evt.OrderID,
		FromStatus: string(evt.FromStatus),
		ToStatus:   string(evt.ToStatus),
		Actor:      evt.Actor,
		OccurredAt: evt.OccurredAt,
	}
}
