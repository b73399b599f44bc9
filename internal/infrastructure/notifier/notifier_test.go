package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookNotifierSignsPayload(t *testing.T) {
	var (
		got       CallbackPayload
		signature string
		body      []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		signature = r.Header.Get(SignatureHeader)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "s3cret", time.Second, nil)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := n.Handle(context.Background(), domain.DomainEvent{
		Type:       domain.EventTypeStatusChanged,
		OrderID:    "o1",
		FromStatus: domain.StatusFiatSent,
		ToStatus:   domain.StatusPaidHoldInvoice,
		Actor:      "alice",
		OccurredAt: at,
	})
	require.NoError(t, err)

	assert.Equal(t, "order.status_changed", got.EventType)
	assert.Equal(t, "FIAT_SENT", got.FromStatus)
	assert.Equal(t, "PAID_HOLD_INVOICE", got.ToStatus)
	assert.True(t, got.OccurredAt.Equal(at))
	assert.Equal(t, Sign([]byte("s3cret"), body), signature)
}

func TestWebhookNotifierReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "", time.Second, nil)
	err := n.Handle(context.Background(), domain.DomainEvent{Type: domain.EventTypeOrderCreated, OrderID: "o1"})
	assert.ErrorContains(t, err, "502")
}
