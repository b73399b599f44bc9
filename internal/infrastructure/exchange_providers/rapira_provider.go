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

const DefaultRapiraURL = "https://api.rapira.net/market/exchange-plate-mini"

// RapiraProvider prices BTC from the rapira order book. It only knows USD
// (quoted as USDT) and RUB (BTC/USDT crossed with USDT/RUB).
type RapiraProvider struct {
	client *http.Client
	url    string
	// depth is the number of best asks averaged into a price.
	depth int
}

type RapiraItem struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

type RapiraResponse struct {
	Ask struct {
		Direction    string          `json:"direction"`
		Symbol       string          `json:"symbol"`
		MaxAmount    decimal.Decimal `json:"max_amount"`
		MinAmount    decimal.Decimal `json:"min_amount"`
		HighestPrice decimal.Decimal `json:"highest_price"`
		LowestPrice  decimal.Decimal `json:"lowest_price"`
		Items        []RapiraItem    `json:"items"`
	}
}

func NewRapiraProvider(url string, timeout time.Duration) *RapiraProvider {
	if url == "" {
		url = DefaultRapiraURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RapiraProvider{
		client: &http.Client{Timeout: timeout},
		url:    url,
		depth:  5,
	}
}

func (r *RapiraProvider) GetName() string {
	return "rapira"
}

func (r *RapiraProvider) GetBTCPrice(ctx context.Context, fiatCode string) (decimal.Decimal, error) {
	btcUSDT, err := r.averageAsk(ctx, "BTC/USDT")
	if err != nil {
		return decimal.Zero, err
	}
	switch strings.ToUpper(fiatCode) {
	case "USD":
		return btcUSDT, nil
	case "RUB":
		usdtRUB, err := r.averageAsk(ctx, "USDT/RUB")
		if err != nil {
			return decimal.Zero, err
		}
		return btcUSDT.Mul(usdtRUB), nil
	}
	return decimal.Zero, fmt.Errorf("rapira does not quote BTC in %s", fiatCode)
}

func (r *RapiraProvider) averageAsk(ctx context.Context, symbol string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("symbol", symbol)
	req.URL.RawQuery = q.Encode()

	resp, err := r.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get rates from Rapira: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rapira API returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read response body: %w", err)
	}

	var rapiraResponse RapiraResponse
	if err := json.Unmarshal(body, &rapiraResponse); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse Rapira response: %w", err)
	}
	return averagePrice(rapiraResponse.Ask.Items, r.depth)
}

func averagePrice(items []RapiraItem, depth int) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, fmt.Errorf("no items in order book")
	}
	if depth > len(items) {
		depth = len(items)
	}

	total := decimal.Zero
	for _, item := range items[:depth] {
		total = total.Add(item.Price)
	}
	return total.Div(decimal.NewFromInt(int64(depth))), nil
}
