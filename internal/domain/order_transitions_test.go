package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderVariants returns copies of an order in status s covering every context
// a transition target may depend on.
func orderVariants(s OrderStatus) []*Order {
	now := time.Now()
	base := &Order{ID: "o1", Status: s, Hash: "h", SellerID: "seller", BuyerID: "buyer", CreatorID: "seller"}

	taken := base.Clone()
	taken.TakenAt = &now

	held := base.Clone()
	held.InvoiceHeldAt = &now

	agreed := held.Clone()
	agreed.BuyerCooperativeCancel = true
	agreed.SellerCooperativeCancel = true

	return []*Order{base, taken, held, agreed}
}

func TestTransitionTableStaysInsideStatusGraph(t *testing.T) {
	reached := map[OrderStatus]map[OrderStatus]bool{}
	for _, ev := range Events() {
		for _, from := range AllStatuses {
			for _, o := range orderVariants(from) {
				next, err := NextStatus(o, ev)
				if err != nil {
					continue
				}
				require.Truef(t, CanTransition(from, next), "%s: %s -> %s is not in the graph", ev, from, next)
				if reached[from] == nil {
					reached[from] = map[OrderStatus]bool{}
				}
				reached[from][next] = true
			}
		}
	}

	for from, targets := range StatusGraph {
		for _, to := range targets {
			assert.Truef(t, reached[from][to], "edge %s -> %s has no event", from, to)
		}
	}
}

func TestEverySourceStatusAcceptsItsEvent(t *testing.T) {
	for _, ev := range Events() {
		for _, from := range SourceStatuses(ev) {
			accepted := false
			for _, o := range orderVariants(from) {
				if _, err := NextStatus(o, ev); err == nil {
					accepted = true
					break
				}
			}
			assert.Truef(t, accepted, "%s is declared from %s but never applies", ev, from)
		}
	}
}

func TestTerminalStatusesRejectTradeEvents(t *testing.T) {
	for _, s := range AllStatuses {
		if !s.IsTerminal() {
			continue
		}
		assert.Empty(t, StatusGraph[s])
		for _, ev := range Events() {
			o := &Order{ID: "o1", Status: s, Hash: "h"}
			_, err := NextStatus(o, ev)
			require.Error(t, err, "%s accepted %s", s, ev)
			if !errors.Is(err, ErrAlreadyApplied) {
				assert.ErrorIs(t, err, ErrInvalidStateTransition)
			}
		}
	}
}

func TestStatusesAreEnumerated(t *testing.T) {
	assert.Len(t, AllStatuses, 13)
	for _, s := range AllStatuses {
		assert.True(t, s.Valid())
	}
	assert.False(t, OrderStatus("LOST").Valid())
}

func TestNextStatusContextualTargets(t *testing.T) {
	now := time.Now()

	o := &Order{Status: StatusWaitingPayment, Hash: "h"}
	next, err := NextStatus(o, EventInvoiceHeld)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, next)

	o.TakenAt = &now
	next, err = NextStatus(o, EventInvoiceHeld)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, next)

	o = &Order{Status: StatusPending, Hash: "h", InvoiceHeldAt: &now}
	next, err = NextStatus(o, EventTake)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, next)

	o = &Order{Status: StatusPending}
	next, err = NextStatus(o, EventTake)
	require.NoError(t, err)
	assert.Equal(t, StatusWaitingPayment, next)

	o = &Order{Status: StatusWaitingPayment, Hash: "h"}
	next, err = NextStatus(o, EventInvoiceCanceled)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, next)
}

func TestDuplicateDeliveriesAreDetected(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name  string
		order *Order
		event OrderEvent
	}{
		{"held twice", &Order{Status: StatusPending, InvoiceHeldAt: &now}, EventInvoiceHeld},
		{"settled after release", &Order{Status: StatusPaidHoldInvoice}, EventInvoiceSettled},
		{"settled after success", &Order{Status: StatusSuccess}, EventInvoiceSettled},
		{"canceled after expiry", &Order{Status: StatusExpired}, EventInvoiceCanceled},
		{"canceled after cooperative cancel", &Order{Status: StatusCanceled}, EventInvoiceCanceled},
		{"timeout twice", &Order{Status: StatusExpired}, EventTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := NextStatus(tc.order, tc.event)
			assert.ErrorIs(t, err, ErrAlreadyApplied)
			assert.Equal(t, tc.order.Status, next)
		})
	}
}

func TestCooperativeCancelNeedsBothFlags(t *testing.T) {
	o := &Order{Status: StatusActive, BuyerCooperativeCancel: true}
	_, err := NextStatus(o, EventCooperativeCancel)
	assert.ErrorIs(t, err, ErrCooperativeCancelPending)

	o.SellerCooperativeCancel = true
	next, err := NextStatus(o, EventCooperativeCancel)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, next)
}

func TestAuthorize(t *testing.T) {
	o := &Order{ID: "o1", Status: StatusActive, SellerID: "s", BuyerID: "b", CreatorID: "s"}
	system := Actor{ID: SystemActorID}

	assert.NoError(t, Authorize(o, EventFiatSent, Actor{ID: "b"}))
	assert.ErrorIs(t, Authorize(o, EventFiatSent, Actor{ID: "s"}), ErrUnauthorizedActor)

	assert.NoError(t, Authorize(o, EventRelease, Actor{ID: "s"}))
	assert.ErrorIs(t, Authorize(o, EventRelease, Actor{ID: "b"}), ErrUnauthorizedActor)

	assert.NoError(t, Authorize(o, EventDispute, Actor{ID: "b"}))
	assert.ErrorIs(t, Authorize(o, EventDispute, Actor{ID: "stranger"}), ErrUnauthorizedActor)

	assert.NoError(t, Authorize(o, EventInvoiceHeld, system))
	assert.ErrorIs(t, Authorize(o, EventInvoiceHeld, Actor{ID: "s"}), ErrUnauthorizedActor)

	assert.NoError(t, Authorize(o, EventAdminCancel, Actor{ID: "root", Admin: true}))
	assert.NoError(t, Authorize(o, EventResolveRefund, Actor{ID: "solver", Solver: true}))
	assert.ErrorIs(t, Authorize(o, EventAdminComplete, Actor{ID: "b"}), ErrUnauthorizedActor)

	assert.ErrorIs(t, Authorize(o, EventTake, Actor{ID: "s"}), ErrUnauthorizedActor)
	assert.ErrorIs(t, Authorize(o, EventTake, system), ErrUnauthorizedActor)
	assert.NoError(t, Authorize(o, EventTake, Actor{ID: "b"}))
}

func TestEscrowHeld(t *testing.T) {
	now := time.Now()
	o := &Order{Status: StatusActive, Hash: "h"}
	assert.False(t, o.EscrowHeld())

	o.InvoiceHeldAt = &now
	assert.True(t, o.EscrowHeld())

	o.Status = StatusPaidHoldInvoice
	assert.False(t, o.EscrowHeld())
}
