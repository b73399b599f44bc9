package request

import "github.com/shopspring/decimal"

type CreateOrderRequest struct {
	Type          string          `json:"type"`
	Description   string          `json:"description"`
	Amount        int64           `json:"amount"`
	FiatCode      string          `json:"fiat_code"`
	FiatAmount    decimal.Decimal `json:"fiat_amount"`
	MinAmount     decimal.Decimal `json:"min_amount"`
	MaxAmount     decimal.Decimal `json:"max_amount"`
	PriceMargin   decimal.Decimal `json:"price_margin"`
	PaymentMethod string          `json:"payment_method"`
	CommunityID   string          `json:"community_id"`
}

type TakeOrderRequest struct {
	Invoice    string          `json:"invoice"`
	FiatAmount decimal.Decimal `json:"fiat_amount"`
}

type InvoiceRequest struct {
	Invoice string `json:"invoice"`
}
