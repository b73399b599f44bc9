package domain

import (
	"context"
	"time"
)

type EventType string

const (
	EventTypeOrderCreated               EventType = "order.created"
	EventTypeStatusChanged              EventType = "order.status_changed"
	EventTypeExpirationWarning          EventType = "order.expiration_warning"
	EventTypeCooperativeCancelRequested EventType = "order.cooperative_cancel_requested"
	EventTypePayoutFailed               EventType = "order.payout_failed"
	EventTypeDisputeOpened              EventType = "dispute.opened"
	EventTypeDisputeAssigned            EventType = "dispute.assigned"
	EventTypeDisputeResolved            EventType = "dispute.resolved"
)

// DomainEvent is what notifiers receive. It never carries user-facing text.
type DomainEvent struct {
	Type       EventType
	OrderID    string
	FromStatus OrderStatus
	ToStatus   OrderStatus
	Actor      string
	DisputeID  string
	OccurredAt time.Time
}

type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent)
}
