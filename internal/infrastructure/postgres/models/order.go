package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Description  string
	Amount       int64
	FiatAmount   decimal.Decimal `gorm:"type:numeric"`
	FiatCode     string          `gorm:"size:3;index"`
	MinAmount    decimal.Decimal `gorm:"type:numeric"`
	MaxAmount    decimal.Decimal `gorm:"type:numeric"`
	PriceFromAPI bool
	PriceMargin  decimal.Decimal `gorm:"type:numeric"`

	Fee          int64
	BotFee       decimal.Decimal `gorm:"type:numeric"`
	CommunityFee decimal.Decimal `gorm:"type:numeric"`
	RoutingFee   int64

	// NULL until an invoice exists, so the unique indexes only cover real values.
	Hash        *string `gorm:"uniqueIndex:idx_order_hash"`
	Secret      *string `gorm:"uniqueIndex:idx_order_secret"`
	HoldInvoice string

	CreatorID string `gorm:"index"`
	SellerID  string `gorm:"index"`
	BuyerID   string `gorm:"index"`

	BuyerInvoice        string
	BuyerInvoiceUpdated bool

	BuyerDispute            bool
	SellerDispute           bool
	BuyerCooperativeCancel  bool
	SellerCooperativeCancel bool
	CancelInitiatorID       string

	Status        string `gorm:"index:idx_status_created;not null"`
	Type          string `gorm:"not null"`
	PaymentMethod string
	CommunityID   string `gorm:"index"`
	ParentOrderID string

	AdminWarned    bool
	Calculated     bool
	PayoutAttempts int

	CreatedAt     time.Time `gorm:"index:idx_status_created"`
	InvoiceHeldAt *time.Time
	TakenAt       *time.Time
	UpdatedAt     time.Time
}
