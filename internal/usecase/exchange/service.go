package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/shopspring/decimal"
)

type ExchangeRateService interface {
	GetBTCPrice(ctx context.Context, fiatCode string) (decimal.Decimal, error)
	GetAvailableProviders() []string
	HealthCheck(ctx context.Context, fiatCode string) map[string]error
}

// DefaultExchangeRateService asks its providers in registration order and
// caches the first answer per currency.
type DefaultExchangeRateService struct {
	providers []domain.ExchangeRateProvider
	cache     *ExchangeRateCache
	logger    *slog.Logger
}

type ExchangeRateCache struct {
	rates map[string]CachedRate
	ttl   time.Duration
	mu    sync.RWMutex
	now   func() time.Time
}

type CachedRate struct {
	rate      decimal.Decimal
	timestamp time.Time
	provider  string
}

func NewDefaultExchangeRateService(ttl time.Duration, logger *slog.Logger, providers ...domain.ExchangeRateProvider) *DefaultExchangeRateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultExchangeRateService{
		providers: providers,
		cache: &ExchangeRateCache{
			rates: make(map[string]CachedRate),
			ttl:   ttl,
			now:   time.Now,
		},
		logger: logger.With("component", "exchange_rates"),
	}
}

func (s *DefaultExchangeRateService) RegisterProvider(provider domain.ExchangeRateProvider) {
	s.providers = append(s.providers, provider)
}

func (s *DefaultExchangeRateService) GetBTCPrice(ctx context.Context, fiatCode string) (decimal.Decimal, error) {
	fiatCode = strings.ToUpper(fiatCode)
	if cached, ok := s.cache.Get(fiatCode); ok {
		return cached.rate, nil
	}
	if len(s.providers) == 0 {
		return decimal.Zero, errors.New("no exchange providers registered")
	}

	var errs []error
	for i, provider := range s.providers {
		rate, err := provider.GetBTCPrice(ctx, fiatCode)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", provider.GetName(), err))
			continue
		}
		if i > 0 {
			s.logger.Warn("Using fallback exchange provider",
				"primary", s.providers[0].GetName(),
				"fallback", provider.GetName(),
				"fiat", fiatCode)
		}
		s.cache.Set(fiatCode, rate, provider.GetName())
		return rate, nil
	}
	return decimal.Zero, fmt.Errorf("all exchange providers failed: %w", errors.Join(errs...))
}

func (s *DefaultExchangeRateService) GetAvailableProviders() []string {
	names := make([]string, 0, len(s.providers))
	for _, provider := range s.providers {
		names = append(names, provider.GetName())
	}
	return names
}

func (s *DefaultExchangeRateService) HealthCheck(ctx context.Context, fiatCode string) map[string]error {
	errs := make(map[string]error)
	for _, provider := range s.providers {
		if _, err := provider.GetBTCPrice(ctx, fiatCode); err != nil {
			errs[provider.GetName()] = err
		}
	}
	return errs
}

func (c *ExchangeRateCache) Get(key string) (CachedRate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, exists := c.rates[key]
	if !exists || c.now().Sub(cached.timestamp) > c.ttl {
		return CachedRate{}, false
	}
	return cached, true
}

func (c *ExchangeRateCache) Set(key string, rate decimal.Decimal, provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rates[key] = CachedRate{
		rate:      rate,
		timestamp: c.now(),
		provider:  provider,
	}
}
