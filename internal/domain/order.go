package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusWaitingPayment      OrderStatus = "WAITING_PAYMENT"
	StatusWaitingBuyerInvoice OrderStatus = "WAITING_BUYER_INVOICE"
	StatusPending             OrderStatus = "PENDING"
	StatusActive              OrderStatus = "ACTIVE"
	StatusFiatSent            OrderStatus = "FIAT_SENT"
	StatusDispute             OrderStatus = "DISPUTE"
	StatusClosed              OrderStatus = "CLOSED"
	StatusCanceled            OrderStatus = "CANCELED"
	StatusSuccess             OrderStatus = "SUCCESS"
	StatusPaidHoldInvoice     OrderStatus = "PAID_HOLD_INVOICE"
	StatusCanceledByAdmin     OrderStatus = "CANCELED_BY_ADMIN"
	StatusExpired             OrderStatus = "EXPIRED"
	StatusCompletedByAdmin    OrderStatus = "COMPLETED_BY_ADMIN"
)

// AllStatuses lists every order status in lifecycle order.
var AllStatuses = []OrderStatus{
	StatusWaitingPayment,
	StatusWaitingBuyerInvoice,
	StatusPending,
	StatusActive,
	StatusFiatSent,
	StatusDispute,
	StatusClosed,
	StatusCanceled,
	StatusSuccess,
	StatusPaidHoldInvoice,
	StatusCanceledByAdmin,
	StatusExpired,
	StatusCompletedByAdmin,
}

// Valid reports whether s is one of the enumerated statuses.
func (s OrderStatus) Valid() bool {
	_, ok := StatusGraph[s]
	return ok
}

// IsTerminal reports whether no further trade transition is possible.
// CLOSED is not terminal: admin overrides may still move it for audit.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusCanceled, StatusCanceledByAdmin, StatusExpired, StatusCompletedByAdmin:
		return true
	}
	return false
}

// IsPreActive reports whether the order has not been matched with funded escrow yet.
func (s OrderStatus) IsPreActive() bool {
	switch s {
	case StatusWaitingPayment, StatusWaitingBuyerInvoice, StatusPending:
		return true
	}
	return false
}

type OrderType string

const (
	TypeBuy  OrderType = "buy"
	TypeSell OrderType = "sell"
)

func (t OrderType) Valid() bool {
	return t == TypeBuy || t == TypeSell
}

type Order struct {
	ID          string
	Description string
	// Amount is denominated in satoshis; zero until computed from the fiat amount.
	Amount       int64
	FiatAmount   decimal.Decimal
	FiatCode     string
	MinAmount    decimal.Decimal
	MaxAmount    decimal.Decimal
	PriceFromAPI bool
	PriceMargin  decimal.Decimal

	// Fee snapshot, frozen at creation.
	Fee          int64
	BotFee       decimal.Decimal
	CommunityFee decimal.Decimal
	RoutingFee   int64

	Hash        string
	Secret      string
	HoldInvoice string

	CreatorID string
	SellerID  string
	BuyerID   string

	BuyerInvoice        string
	BuyerInvoiceUpdated bool

	BuyerDispute            bool
	SellerDispute           bool
	BuyerCooperativeCancel  bool
	SellerCooperativeCancel bool
	CancelInitiatorID       string

	Status        OrderStatus
	Type          OrderType
	PaymentMethod string
	// CommunityID is empty for orders on the global marketplace.
	CommunityID   string
	ParentOrderID string

	AdminWarned    bool
	Calculated     bool
	PayoutAttempts int

	CreatedAt     time.Time
	InvoiceHeldAt *time.Time
	TakenAt       *time.Time
	UpdatedAt     time.Time
}

// IsRange reports whether the order expresses a fiat interval instead of a fixed amount.
func (o *Order) IsRange() bool {
	return o.MaxAmount.IsPositive()
}

// EscrowHeld reports whether the seller's funds are currently locked by the hold invoice.
func (o *Order) EscrowHeld() bool {
	if o.Hash == "" || o.InvoiceHeldAt == nil {
		return false
	}
	switch o.Status {
	case StatusPending, StatusActive, StatusFiatSent, StatusDispute:
		return true
	}
	return false
}

// IsParty reports whether userID is the buyer or the seller of the order.
func (o *Order) IsParty(userID string) bool {
	return userID != "" && (userID == o.BuyerID || userID == o.SellerID)
}

// Counterparty returns the other side of the trade for a party.
func (o *Order) Counterparty(userID string) string {
	if userID == o.SellerID {
		return o.BuyerID
	}
	return o.SellerID
}

// EscrowAmount is what the seller locks: the traded amount plus the fee.
func (o *Order) EscrowAmount() int64 {
	return o.Amount + o.Fee
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	if o.InvoiceHeldAt != nil {
		t := *o.InvoiceHeldAt
		clone.InvoiceHeldAt = &t
	}
	if o.TakenAt != nil {
		t := *o.TakenAt
		clone.TakenAt = &t
	}
	return &clone
}

// Command is an external trigger applied to one order.
type Command struct {
	Event   OrderEvent
	ActorID string
	// BuyerInvoice is carried by take (sell orders) and buyer_invoice.
	BuyerInvoice string
	// FiatAmount picks the traded amount when taking a range order.
	FiatAmount decimal.Decimal
}

// SystemActorID identifies transitions triggered by the payment network or the scheduler.
const SystemActorID = "system"

// Actor is the resolved identity behind a command.
type Actor struct {
	ID     string
	Admin  bool
	Solver bool
}

func (a Actor) IsSystem() bool {
	return a.ID == SystemActorID
}
