package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

// SignatureHeader carries the hex HMAC-SHA256 of the body when a secret is set.
const SignatureHeader = "X-Signature"

// WebhookNotifier posts every domain event to the messaging front-end.
type WebhookNotifier struct {
	url    string
	secret []byte
	client *http.Client
	logger *slog.Logger
}

func NewWebhookNotifier(callbackURL, secret string, timeout time.Duration, logger *slog.Logger) *WebhookNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:    callbackURL,
		secret: []byte(secret),
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "webhook_notifier"),
	}
}

// Handle is an event bus handler. A non-2xx answer counts as a failure.
func (n *WebhookNotifier) Handle(ctx context.Context, evt domain.DomainEvent) error {
	body, err := json.Marshal(NewCallbackPayload(evt))
	if err != nil {
		return fmt.Errorf("marshal callback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if len(n.secret) > 0 {
		req.Header.Set(SignatureHeader, Sign(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	n.logger.Debug("callback sent", "event_type", evt.Type, "order_id", evt.OrderID)
	return nil
}

func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
