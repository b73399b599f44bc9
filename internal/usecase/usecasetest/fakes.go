// Package usecasetest provides in-memory collaborators for usecase tests.
package usecasetest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/shopspring/decimal"
)

type InvoiceState string

const (
	InvoiceOpen     InvoiceState = "OPEN"
	InvoiceHeld     InvoiceState = "ACCEPTED"
	InvoiceSettled  InvoiceState = "SETTLED"
	InvoiceCanceled InvoiceState = "CANCELED"
)

type Payment struct {
	Request string
	Amount  int64
	MaxFee  int64
}

// Escrow is a scripted payment node. Invoice state changes reach the
// subscribed handlers only through Hold, Expire and Notify.
type Escrow struct {
	mu       sync.Mutex
	seq      int
	states   map[string]InvoiceState
	handlers map[string]domain.InvoiceHandlers
	amounts  map[string]int64
	Payments []Payment

	CreateErr error
	SettleErr error
	CancelErr error
	PayErr    error
}

func NewEscrow() *Escrow {
	return &Escrow{
		states:   make(map[string]InvoiceState),
		handlers: make(map[string]domain.InvoiceHandlers),
		amounts:  make(map[string]int64),
	}
}

// SetInvoiceAmount makes DecodeInvoice report amount for request.
func (e *Escrow) SetInvoiceAmount(request string, amount int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.amounts[request] = amount
}

func (e *Escrow) CreateHoldInvoice(_ context.Context, amount int64, _ string) (*domain.HoldInvoice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.CreateErr != nil {
		return nil, e.CreateErr
	}
	e.seq++
	hash := fmt.Sprintf("hash-%d", e.seq)
	e.states[hash] = InvoiceOpen
	return &domain.HoldInvoice{
		PaymentHash:    hash,
		Secret:         fmt.Sprintf("secret-%d", e.seq),
		PaymentRequest: fmt.Sprintf("lnbc%dhold%d", amount, e.seq),
	}, nil
}

type subscription struct {
	escrow *Escrow
	hash   string
}

func (s subscription) Cancel() {
	s.escrow.mu.Lock()
	delete(s.escrow.handlers, s.hash)
	s.escrow.mu.Unlock()
}

func (e *Escrow) Subscribe(_ context.Context, hash string, handlers domain.InvoiceHandlers) (domain.Subscription, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[hash] = handlers
	return subscription{escrow: e, hash: hash}, nil
}

func (e *Escrow) Settle(_ context.Context, hash, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SettleErr != nil {
		return e.SettleErr
	}
	switch e.states[hash] {
	case InvoiceSettled:
		return nil
	case InvoiceHeld:
		e.states[hash] = InvoiceSettled
		return nil
	}
	return fmt.Errorf("%w: %s is %s", domain.ErrInvoiceNotHeld, hash, e.states[hash])
}

func (e *Escrow) Cancel(_ context.Context, hash string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.CancelErr != nil {
		return e.CancelErr
	}
	switch e.states[hash] {
	case InvoiceCanceled:
		return nil
	case InvoiceHeld:
		e.states[hash] = InvoiceCanceled
		return nil
	}
	return fmt.Errorf("%w: %s is %s", domain.ErrInvoiceNotHeld, hash, e.states[hash])
}

func (e *Escrow) PayInvoice(_ context.Context, request string, amount, maxFee int64) (*domain.Payment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.PayErr != nil {
		return nil, e.PayErr
	}
	e.Payments = append(e.Payments, Payment{Request: request, Amount: amount, MaxFee: maxFee})
	return &domain.Payment{PaymentHash: "paid-" + request, RoutingFee: 1}, nil
}

// DecodeInvoice accepts any request starting with "lnbc". Invoices are
// amountless unless SetInvoiceAmount was called for them.
func (e *Escrow) DecodeInvoice(_ context.Context, request string) (*domain.DecodedInvoice, error) {
	if !strings.HasPrefix(request, "lnbc") {
		return nil, fmt.Errorf("%w: cannot decode %q", domain.ErrInvalidInvoice, request)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return &domain.DecodedInvoice{PaymentHash: "decoded-" + request, Amount: e.amounts[request]}, nil
}

func (e *Escrow) State(hash string) InvoiceState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states[hash]
}

// Hold marks the invoice as paid by the seller and notifies the subscriber.
func (e *Escrow) Hold(hash string) {
	e.mu.Lock()
	e.states[hash] = InvoiceHeld
	h := e.handlers[hash]
	e.mu.Unlock()
	if h.OnHeld != nil {
		h.OnHeld(hash)
	}
}

// Expire cancels the invoice on the node side and notifies the subscriber.
func (e *Escrow) Expire(hash string) {
	e.mu.Lock()
	e.states[hash] = InvoiceCanceled
	h := e.handlers[hash]
	e.mu.Unlock()
	if h.OnCanceled != nil {
		h.OnCanceled(hash)
	}
}

// Notify replays the callback matching the current invoice state.
func (e *Escrow) Notify(hash string) {
	e.mu.Lock()
	state := e.states[hash]
	h := e.handlers[hash]
	e.mu.Unlock()
	switch {
	case state == InvoiceHeld && h.OnHeld != nil:
		h.OnHeld(hash)
	case state == InvoiceSettled && h.OnSettled != nil:
		h.OnSettled(hash)
	case state == InvoiceCanceled && h.OnCanceled != nil:
		h.OnCanceled(hash)
	}
}

// Events records published domain events.
type Events struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (r *Events) Publish(_ context.Context, evt domain.DomainEvent) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

func (r *Events) All() []domain.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Events) OfType(t domain.EventType) []domain.DomainEvent {
	var out []domain.DomainEvent
	for _, evt := range r.All() {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}

// StatusTrail lists the target status of every status change of an order.
func (r *Events) StatusTrail(orderID string) []domain.OrderStatus {
	var out []domain.OrderStatus
	for _, evt := range r.OfType(domain.EventTypeStatusChanged) {
		if evt.OrderID == orderID {
			out = append(out, evt.ToStatus)
		}
	}
	return out
}

// Policies resolves policies from a fixed table; "" is the global policy.
type Policies struct {
	mu       sync.Mutex
	policies map[string]*domain.Policy
}

func NewPolicies(global *domain.Policy) *Policies {
	return &Policies{policies: map[string]*domain.Policy{"": global}}
}

func (p *Policies) Put(policy *domain.Policy) {
	p.mu.Lock()
	p.policies[policy.CommunityID] = policy
	p.mu.Unlock()
}

func (p *Policies) Resolve(_ context.Context, communityID string) (*domain.Policy, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	policy, ok := p.policies[communityID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCommunityNotFound, communityID)
	}
	return policy, nil
}

// Price quotes a constant price for every currency.
type Price decimal.Decimal

func (p Price) GetBTCPrice(context.Context, string) (decimal.Decimal, error) {
	return decimal.Decimal(p), nil
}
