package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultYadioURL = "https://api.yadio.io/exrates/BTC"

// YadioProvider reads the BTC rate table published by yadio.io.
type YadioProvider struct {
	client *http.Client
	url    string
}

// yadioResponse is {"BTC": {"USD": 64000.5, "EUR": ...}, "base": "BTC", "timestamp": ...}.
type yadioResponse struct {
	BTC       map[string]decimal.Decimal `json:"BTC"`
	Base      string                     `json:"base"`
	Timestamp int64                      `json:"timestamp"`
}

func NewYadioProvider(url string, timeout time.Duration) *YadioProvider {
	if url == "" {
		url = DefaultYadioURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &YadioProvider{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

func (y *YadioProvider) GetName() string {
	return "yadio"
}

func (y *YadioProvider) GetBTCPrice(ctx context.Context, fiatCode string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get rates from yadio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("yadio API returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read response body: %w", err)
	}

	var rates yadioResponse
	if err := json.Unmarshal(body, &rates); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse yadio response: %w", err)
	}

	price, ok := rates.BTC[strings.ToUpper(fiatCode)]
	if !ok {
		return decimal.Zero, fmt.Errorf("yadio has no BTC rate for %s", fiatCode)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("yadio returned non-positive BTC rate for %s", fiatCode)
	}
	return price, nil
}
