package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/delivery/commands"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/eventbus"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/notifier"
	expirationuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/expiration"
)

// PayoutRetrier retries buyer payouts of settled orders.
type PayoutRetrier interface {
	RetryPayouts(ctx context.Context) error
}

type Tasks struct {
	Bus           *eventbus.Bus
	Scheduler     *expirationuc.ExpirationScheduler
	Payouts       PayoutRetrier
	EventLog      logger.OrderEventLogger
	Forwarder     *kafka.Forwarder
	Webhook       *notifier.WebhookNotifier
	Commands      *commands.Consumer
	SweepInterval time.Duration
	RetryInterval time.Duration
	Logger        *slog.Logger

	wg sync.WaitGroup
}

// StartAll subscribes the bus handlers and starts every loop. Wait blocks
// until they returned after ctx was canceled.
func (t *Tasks) StartAll(ctx context.Context) error {
	if t.EventLog != nil {
		if _, err := t.Bus.SubscribeAll(t.EventLog.LogEvent); err != nil {
			return err
		}
	}
	if t.Forwarder != nil {
		if _, err := t.Bus.SubscribeAll(t.Forwarder.Handle); err != nil {
			return err
		}
	}

	if t.Webhook != nil {
		if _, err := t.Bus.SubscribeAll(t.Webhook.Handle); err != nil {
			return err
		}
	}

	t.goRun(func() { t.Bus.Run(ctx) })
	t.goRun(func() { t.Scheduler.Start(ctx, t.SweepInterval) })
	t.goRun(func() { t.startPayoutRetry(ctx) })
	if t.Commands != nil {
		t.goRun(func() {
			if err := t.Commands.Run(ctx); err != nil {
				t.Logger.Error("command consumer stopped", "error", err)
			}
		})
	}
	return nil
}

func (t *Tasks) Wait() {
	t.wg.Wait()
}

func (t *Tasks) goRun(fn func()) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn()
	}()
}

func (t *Tasks) startPayoutRetry(ctx context.Context) {
	ticker := time.NewTicker(t.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.Payouts.RetryPayouts(ctx); err != nil {
				t.Logger.Error("payout retry failed", "error", err)
			}
		}
	}
}
