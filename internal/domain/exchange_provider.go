package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ExchangeRateProvider quotes the price of one bitcoin in a fiat currency.
type ExchangeRateProvider interface {
	GetBTCPrice(ctx context.Context, fiatCode string) (decimal.Decimal, error)
	GetName() string
}
