package domain

import (
	"fmt"
	"slices"
)

type OrderEvent string

const (
	EventInvoiceHeld       OrderEvent = "invoice_held"
	EventBuyerInvoice      OrderEvent = "buyer_invoice"
	EventTake              OrderEvent = "take"
	EventFiatSent          OrderEvent = "fiat_sent"
	EventRelease           OrderEvent = "release"
	EventBuyerPaid         OrderEvent = "buyer_paid"
	EventDispute           OrderEvent = "dispute"
	EventCooperativeCancel OrderEvent = "cooperative_cancel"
	EventClose             OrderEvent = "close"
	EventTimeout           OrderEvent = "timeout"
	EventResolveRelease    OrderEvent = "resolve_release"
	EventResolveRefund     OrderEvent = "resolve_refund"
	EventAdminCancel       OrderEvent = "admin_cancel"
	EventAdminComplete     OrderEvent = "admin_complete"
	EventInvoiceCanceled   OrderEvent = "invoice_canceled"
	EventInvoiceSettled    OrderEvent = "invoice_settled"
)

// StatusGraph is the complete set of edges an order status may take.
var StatusGraph = map[OrderStatus][]OrderStatus{
	StatusWaitingPayment:      {StatusPending, StatusActive, StatusClosed, StatusExpired, StatusCanceledByAdmin, StatusCompletedByAdmin},
	StatusWaitingBuyerInvoice: {StatusPending, StatusClosed, StatusExpired, StatusCanceledByAdmin, StatusCompletedByAdmin},
	StatusPending:             {StatusActive, StatusWaitingPayment, StatusClosed, StatusExpired, StatusCanceled, StatusCanceledByAdmin, StatusCompletedByAdmin},
	StatusActive:              {StatusFiatSent, StatusDispute, StatusCanceled, StatusCanceledByAdmin, StatusCompletedByAdmin},
	StatusFiatSent:            {StatusPaidHoldInvoice, StatusDispute, StatusCanceled, StatusCanceledByAdmin, StatusCompletedByAdmin},
	StatusDispute:             {StatusPaidHoldInvoice, StatusCanceled, StatusCanceledByAdmin, StatusCompletedByAdmin},
	StatusPaidHoldInvoice:     {StatusSuccess, StatusCompletedByAdmin},
	StatusClosed:              {StatusCanceledByAdmin, StatusCompletedByAdmin},
	StatusCanceled:            {},
	StatusSuccess:             {},
	StatusCanceledByAdmin:     {},
	StatusExpired:             {},
	StatusCompletedByAdmin:    {},
}

// CanTransition reports whether from -> to is an edge of StatusGraph.
func CanTransition(from, to OrderStatus) bool {
	return slices.Contains(StatusGraph[from], to)
}

type transitionRule struct {
	from   []OrderStatus
	target func(o *Order) OrderStatus
	// applied detects duplicate deliveries of an event that already took effect.
	applied func(o *Order) bool
	guard   func(o *Order) error
	allowed func(o *Order, a Actor) bool
}

func to(s OrderStatus) func(*Order) OrderStatus {
	return func(*Order) OrderStatus { return s }
}

func systemOnly(_ *Order, a Actor) bool { return a.IsSystem() }

func buyerOnly(o *Order, a Actor) bool { return a.ID != "" && a.ID == o.BuyerID }

func sellerOnly(o *Order, a Actor) bool { return a.ID != "" && a.ID == o.SellerID }

func partyOnly(o *Order, a Actor) bool { return o.IsParty(a.ID) }

func staffOnly(_ *Order, a Actor) bool { return a.Admin || a.Solver }

var preActive = []OrderStatus{StatusWaitingPayment, StatusWaitingBuyerInvoice, StatusPending}

var transitionTable = map[OrderEvent]transitionRule{
	EventInvoiceHeld: {
		from: []OrderStatus{StatusWaitingPayment},
		target: func(o *Order) OrderStatus {
			if o.TakenAt != nil {
				return StatusActive
			}
			return StatusPending
		},
		applied: func(o *Order) bool { return o.InvoiceHeldAt != nil },
		allowed: systemOnly,
	},
	EventBuyerInvoice: {
		from:    []OrderStatus{StatusWaitingBuyerInvoice},
		target:  to(StatusPending),
		allowed: buyerOnly,
	},
	EventTake: {
		from: []OrderStatus{StatusPending},
		target: func(o *Order) OrderStatus {
			if o.EscrowHeld() {
				return StatusActive
			}
			return StatusWaitingPayment
		},
		allowed: func(o *Order, a Actor) bool {
			return a.ID != "" && !a.IsSystem() && a.ID != o.CreatorID
		},
	},
	EventFiatSent: {
		from:    []OrderStatus{StatusActive},
		target:  to(StatusFiatSent),
		allowed: buyerOnly,
	},
	EventRelease: {
		from:    []OrderStatus{StatusFiatSent},
		target:  to(StatusPaidHoldInvoice),
		allowed: sellerOnly,
	},
	EventBuyerPaid: {
		from:    []OrderStatus{StatusPaidHoldInvoice},
		target:  to(StatusSuccess),
		allowed: systemOnly,
	},
	EventDispute: {
		from:    []OrderStatus{StatusActive, StatusFiatSent},
		target:  to(StatusDispute),
		allowed: partyOnly,
	},
	EventCooperativeCancel: {
		from:   []OrderStatus{StatusActive, StatusFiatSent},
		target: to(StatusCanceled),
		guard: func(o *Order) error {
			if !o.BuyerCooperativeCancel || !o.SellerCooperativeCancel {
				return ErrCooperativeCancelPending
			}
			return nil
		},
		allowed: partyOnly,
	},
	EventClose: {
		from:    preActive,
		target:  to(StatusClosed),
		allowed: func(o *Order, a Actor) bool { return a.ID != "" && a.ID == o.CreatorID },
	},
	EventTimeout: {
		from:    preActive,
		target:  to(StatusExpired),
		applied: func(o *Order) bool { return o.Status == StatusExpired },
		allowed: systemOnly,
	},
	EventResolveRelease: {
		from:    []OrderStatus{StatusDispute},
		target:  to(StatusPaidHoldInvoice),
		allowed: staffOnly,
	},
	EventResolveRefund: {
		from:    []OrderStatus{StatusDispute},
		target:  to(StatusCanceledByAdmin),
		allowed: staffOnly,
	},
	EventAdminCancel: {
		from: []OrderStatus{
			StatusWaitingPayment, StatusWaitingBuyerInvoice, StatusPending,
			StatusActive, StatusFiatSent, StatusDispute, StatusClosed,
		},
		target:  to(StatusCanceledByAdmin),
		allowed: staffOnly,
	},
	EventAdminComplete: {
		from: []OrderStatus{
			StatusWaitingPayment, StatusWaitingBuyerInvoice, StatusPending,
			StatusActive, StatusFiatSent, StatusDispute, StatusPaidHoldInvoice, StatusClosed,
		},
		target:  to(StatusCompletedByAdmin),
		allowed: staffOnly,
	},
	EventInvoiceCanceled: {
		from: []OrderStatus{StatusWaitingPayment, StatusPending, StatusActive, StatusFiatSent, StatusDispute},
		target: func(o *Order) OrderStatus {
			if o.Status == StatusWaitingPayment {
				return StatusExpired
			}
			return StatusCanceled
		},
		applied: func(o *Order) bool {
			switch o.Status {
			case StatusCanceled, StatusCanceledByAdmin, StatusExpired, StatusClosed:
				return true
			}
			return false
		},
		allowed: systemOnly,
	},
	EventInvoiceSettled: {
		applied: func(o *Order) bool {
			switch o.Status {
			case StatusPaidHoldInvoice, StatusSuccess, StatusCompletedByAdmin:
				return true
			}
			return false
		},
		allowed: systemOnly,
	},
}

// Events lists every event the transition table knows about.
func Events() []OrderEvent {
	events := make([]OrderEvent, 0, len(transitionTable))
	for ev := range transitionTable {
		events = append(events, ev)
	}
	slices.Sort(events)
	return events
}

// SourceStatuses returns the statuses ev is legal from.
func SourceStatuses(ev OrderEvent) []OrderStatus {
	return slices.Clone(transitionTable[ev].from)
}

// NextStatus resolves the status ev leads to from the order's current status.
// ErrAlreadyApplied is returned for a duplicate delivery that must be ignored.
func NextStatus(o *Order, ev OrderEvent) (OrderStatus, error) {
	rule, ok := transitionTable[ev]
	if !ok {
		return "", fmt.Errorf("%w: unknown event %q", ErrInvalidStateTransition, ev)
	}
	if rule.applied != nil && rule.applied(o) {
		return o.Status, ErrAlreadyApplied
	}
	if !slices.Contains(rule.from, o.Status) {
		return "", fmt.Errorf("%w: %s is not allowed from %s", ErrInvalidStateTransition, ev, o.Status)
	}
	if rule.guard != nil {
		if err := rule.guard(o); err != nil {
			return "", err
		}
	}
	next := rule.target(o)
	if !CanTransition(o.Status, next) {
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, o.Status, next)
	}
	return next, nil
}

// Authorize checks that the actor may trigger ev on the order.
func Authorize(o *Order, ev OrderEvent, a Actor) error {
	rule, ok := transitionTable[ev]
	if !ok || rule.allowed == nil || !rule.allowed(o, a) {
		return fmt.Errorf("%w: %q may not %s order %s", ErrUnauthorizedActor, a.ID, ev, o.ID)
	}
	return nil
}
