package orderdto

import "github.com/shopspring/decimal"

type CreateOrderInput struct {
	CreatorID     string
	Type          string
	Description   string
	FiatCode      string
	PaymentMethod string
	// CommunityID is empty for the global marketplace.
	CommunityID string
	// Amount in satoshis; zero means market price at creation.
	Amount      int64
	FiatAmount  decimal.Decimal
	MinAmount   decimal.Decimal
	MaxAmount   decimal.Decimal
	PriceMargin decimal.Decimal
}

type TakeOrderInput struct {
	OrderID    string
	TakerID    string
	Invoice    string
	FiatAmount decimal.Decimal
}
