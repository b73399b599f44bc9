package kafka

import (
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

type DisputeEvent struct {
	Type       string    `json:"type"`
	DisputeID  string    `json:"dispute_id"`
	OrderID    string    `json:"order_id"`
	Actor      string    `json:"actor,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewDisputeEvent(evt domain.DomainEvent) DisputeEvent {
	return DisputeEvent{
		Type:       string(evt.Type),
		DisputeID:  evt.DisputeID,
		OrderID:    evt.OrderID,
		Actor:      evt.Actor,
		ToStatus:   string(evt.ToStatus),
		OccurredAt: evt.OccurredAt,
	}
}
