package domain

import (
	"context"
	"time"
)

type HoldInvoice struct {
	PaymentHash    string
	Secret         string
	PaymentRequest string
}

type InvoiceHandlers struct {
	OnHeld     func(paymentHash string)
	OnSettled  func(paymentHash string)
	OnCanceled func(paymentHash string)
}

// Subscription is a cancellable registration for invoice state changes.
type Subscription interface {
	Cancel()
}

type Payment struct {
	PaymentHash string
	RoutingFee  int64
}

type DecodedInvoice struct {
	PaymentHash string
	Amount      int64
	ExpiresAt   time.Time
}

// HoldInvoiceCoordinator wraps the payment node that escrows the seller's funds.
// Settle and Cancel are idempotent by invoice identity and fail with
// ErrInvoiceNotHeld when the invoice is not in the expected escrow state.
type HoldInvoiceCoordinator interface {
	CreateHoldInvoice(ctx context.Context, amount int64, description string) (*HoldInvoice, error)
	Subscribe(ctx context.Context, paymentHash string, handlers InvoiceHandlers) (Subscription, error)
	Settle(ctx context.Context, paymentHash, secret string) error
	Cancel(ctx context.Context, paymentHash string) error
	PayInvoice(ctx context.Context, paymentRequest string, amount, maxFee int64) (*Payment, error)
	DecodeInvoice(ctx context.Context, paymentRequest string) (*DecodedInvoice, error)
}
