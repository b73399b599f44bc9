package kafka

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

// Forwarder is an event bus handler relaying domain events to the notification topics.
type Forwarder struct {
	publisher    domain.PublisherPort
	orderTopic   string
	disputeTopic string
}

func NewForwarder(publisher domain.PublisherPort, orderTopic, disputeTopic string) *Forwarder {
	return &Forwarder{publisher: publisher, orderTopic: orderTopic, disputeTopic: disputeTopic}
}

func (f *Forwarder) Handle(ctx context.Context, evt domain.DomainEvent) error {
	topic := f.orderTopic
	var payload any = NewOrderEvent(evt)
	if strings.HasPrefix(string(evt.Type), "dispute.") {
		topic = f.disputeTopic
		payload = NewDisputeEvent(evt)
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	// Keyed by order so a consumer sees one order's events in order.
	return f.publisher.Publish(ctx, topic, domain.Message{Key: []byte(evt.OrderID), Value: value})
}
