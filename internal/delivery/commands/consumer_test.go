package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/dispute"
	orderdto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name    string
	orderID string
	actorID string
	extra   string
}

type recorder struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (r *recorder) add(c call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	return r.err
}

func (r *recorder) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func (r *recorder) CreateOrder(_ context.Context, in *orderdto.CreateOrderInput) (*orderdto.OrderOutput, error) {
	return &orderdto.OrderOutput{}, r.add(call{name: "create", actorID: in.CreatorID, extra: in.FiatCode})
}

func (r *recorder) TakeOrder(_ context.Context, in *orderdto.TakeOrderInput) (*orderdto.OrderOutput, error) {
	return &orderdto.OrderOutput{}, r.add(call{name: "take", orderID: in.OrderID, actorID: in.TakerID, extra: in.Invoice})
}

func (r *recorder) AddBuyerInvoice(_ context.Context, orderID, buyerID, invoice string) (*domain.Order, error) {
	return nil, r.add(call{name: "invoice", orderID: orderID, actorID: buyerID, extra: invoice})
}

func (r *recorder) ConfirmFiatSent(_ context.Context, orderID, buyerID string) (*domain.Order, error) {
	return nil, r.add(call{name: "fiat_sent", orderID: orderID, actorID: buyerID})
}

func (r *recorder) Release(_ context.Context, orderID, sellerID string) (*domain.Order, error) {
	return nil, r.add(call{name: "release", orderID: orderID, actorID: sellerID})
}

func (r *recorder) RequestCooperativeCancel(_ context.Context, orderID, userID string) (*domain.Order, error) {
	return nil, r.add(call{name: "cancel", orderID: orderID, actorID: userID})
}

func (r *recorder) CloseOrder(_ context.Context, orderID, creatorID string) (*domain.Order, error) {
	return nil, r.add(call{name: "close", orderID: orderID, actorID: creatorID})
}

func (r *recorder) OpenDispute(_ context.Context, in *disputedto.OpenDisputeInput) (*disputedto.DisputeOutput, error) {
	return &disputedto.DisputeOutput{}, r.add(call{name: "dispute", orderID: in.OrderID, actorID: in.InitiatorID})
}

func (r *recorder) ResolveDispute(_ context.Context, in *disputedto.ResolveDisputeInput) (*domain.Dispute, error) {
	return nil, r.add(call{name: "resolve", actorID: in.ActorID, extra: in.DisputeID + ":" + string(in.Ruling)})
}

type chanSubscriber struct {
	ch  chan domain.Message
	err error
}

func (s *chanSubscriber) Subscribe(context.Context, string, string) (<-chan domain.Message, error) {
	return s.ch, s.err
}

func msg(body string) domain.Message {
	return domain.Message{Key: []byte("k"), Value: []byte(body)}
}

func TestHandleDispatchesByType(t *testing.T) {
	rec := &recorder{}
	c := NewConsumer(nil, rec, rec, "order-commands", "p2p", nil)
	ctx := context.Background()

	bodies := []string{
		`{"type":"create_order","actor_id":"alice","order_type":"sell","fiat_code":"USD","fiat_amount":"100"}`,
		`{"type":"take_order","actor_id":"bob","order_id":"o1","invoice":"lnbc1"}`,
		`{"type":"add_invoice","actor_id":"bob","order_id":"o1","invoice":"lnbc2"}`,
		`{"type":"fiat_sent","actor_id":"bob","order_id":"o1"}`,
		`{"type":"release","actor_id":"alice","order_id":"o1"}`,
		`{"type":"cancel","actor_id":"alice","order_id":"o1"}`,
		`{"type":"close","actor_id":"alice","order_id":"o1"}`,
		`{"type":"open_dispute","actor_id":"bob","order_id":"o1"}`,
		`{"type":"resolve_dispute","actor_id":"solver","dispute_id":"d1","ruling":"RELEASE_TO_BUYER"}`,
	}
	for _, b := range bodies {
		require.NoError(t, c.Handle(ctx, msg(b)), b)
	}

	assert.Equal(t, []call{
		{name: "create", actorID: "alice", extra: "USD"},
		{name: "take", orderID: "o1", actorID: "bob", extra: "lnbc1"},
		{name: "invoice", orderID: "o1", actorID: "bob", extra: "lnbc2"},
		{name: "fiat_sent", orderID: "o1", actorID: "bob"},
		{name: "release", orderID: "o1", actorID: "alice"},
		{name: "cancel", orderID: "o1", actorID: "alice"},
		{name: "close", orderID: "o1", actorID: "alice"},
		{name: "dispute", orderID: "o1", actorID: "bob"},
		{name: "resolve", actorID: "solver", extra: "d1:RELEASE_TO_BUYER"},
	}, rec.snapshot())
}

func TestHandleRejectsBadCommands(t *testing.T) {
	rec := &recorder{}
	c := NewConsumer(nil, rec, rec, "order-commands", "p2p", nil)
	ctx := context.Background()

	assert.Error(t, c.Handle(ctx, msg(`not json`)))
	assert.ErrorIs(t, c.Handle(ctx, msg(`{"type":"release","order_id":"o1"}`)), ErrMissingActor)
	assert.ErrorIs(t, c.Handle(ctx, msg(`{"type":"release","actor_id":"system","order_id":"o1"}`)), domain.ErrUnauthorizedActor)
	assert.ErrorIs(t, c.Handle(ctx, msg(`{"type":"teleport","actor_id":"alice"}`)), ErrUnknownCommand)
	assert.Empty(t, rec.snapshot())

	rec.err = domain.ErrInvalidStateTransition
	assert.ErrorIs(t, c.Handle(ctx, msg(`{"type":"release","actor_id":"alice","order_id":"o1"}`)), domain.ErrInvalidStateTransition)
}

func TestRunSkipsRejectedCommandsUntilClosed(t *testing.T) {
	rec := &recorder{}
	sub := &chanSubscriber{ch: make(chan domain.Message, 3)}
	c := NewConsumer(sub, rec, rec, "order-commands", "p2p", nil)

	sub.ch <- msg(`{"type":"fiat_sent","actor_id":"system","order_id":"o1"}`)
	sub.ch <- msg(`{"type":"fiat_sent","actor_id":"bob","order_id":"o1"}`)
	close(sub.ch)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after the subscription closed")
	}
	assert.Equal(t, []call{{name: "fiat_sent", orderID: "o1", actorID: "bob"}}, rec.snapshot())
}

func TestRunReportsSubscribeFailure(t *testing.T) {
	c := NewConsumer(&chanSubscriber{err: errors.New("broker down")}, &recorder{}, &recorder{}, "order-commands", "p2p", nil)
	assert.ErrorContains(t, c.Run(context.Background()), "broker down")
}
