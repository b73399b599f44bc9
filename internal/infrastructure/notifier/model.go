package notifier

import (
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

type CallbackPayload struct {
	EventType  string    `json:"event_type"`
	OrderID    string    `json:"order_id"`
	DisputeID  string    `json:"dispute_id,omitempty"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewCallbackPayload(evt domain.DomainEvent) CallbackPayload {
	return CallbackPayload{
		EventType:  string(evt.Type),
		OrderID:    evt.OrderID,
		DisputeID:  evt.DisputeID,
		FromStatus: string(evt.FromStatus),
		ToStatus:   string(evt.ToStatus),
		Actor:      evt.Actor,
		OccurredAt: evt.OccurredAt,
	}
}
