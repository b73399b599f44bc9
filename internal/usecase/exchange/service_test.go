package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	price decimal.Decimal
	err   error
	calls int
}

func (p *stubProvider) GetName() string { return p.name }

func (p *stubProvider) GetBTCPrice(context.Context, string) (decimal.Decimal, error) {
	p.calls++
	return p.price, p.err
}

func TestFallbackAndCache(t *testing.T) {
	ctx := context.Background()
	primary := &stubProvider{name: "yadio", err: errors.New("timeout")}
	fallback := &stubProvider{name: "rapira", price: decimal.NewFromInt(61000)}
	svc := NewDefaultExchangeRateService(time.Minute, nil, primary, fallback)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.cache.now = func() time.Time { return now }

	price, err := svc.GetBTCPrice(ctx, "usd")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(61000).Equal(price))

	_, err = svc.GetBTCPrice(ctx, "USD")
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)

	now = now.Add(2 * time.Minute)
	_, err = svc.GetBTCPrice(ctx, "USD")
	require.NoError(t, err)
	assert.Equal(t, 2, fallback.calls)

	assert.Equal(t, []string{"yadio", "rapira"}, svc.GetAvailableProviders())
	health := svc.HealthCheck(ctx, "USD")
	assert.Contains(t, health, "yadio")
	assert.NotContains(t, health, "rapira")
}

func TestAllProvidersFail(t *testing.T) {
	svc := NewDefaultExchangeRateService(time.Minute, nil,
		&stubProvider{name: "a", err: errors.New("down")},
		&stubProvider{name: "b", err: errors.New("down")},
	)
	_, err := svc.GetBTCPrice(context.Background(), "EUR")
	assert.ErrorContains(t, err, "all exchange providers failed")
}
