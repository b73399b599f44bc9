package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/metrics"
	"golang.org/x/sync/errgroup"
)

// OrderTimer is the part of the order usecase the scheduler drives.
type OrderTimer interface {
	GetOrdersByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]*domain.Order, error)
	ApplyWith(ctx context.Context, orderID string, cmd domain.Command, hook domain.OrderMutation) (*domain.Order, error)
}

// errNotDue rejects a timeout when the locked order turns out younger than
// the listed snapshot, e.g. because it was taken in between.
var errNotDue = errors.New("order is not due for expiry")

type Config struct {
	// OrderTTL bounds how long a published order may wait for a taker.
	OrderTTL time.Duration
	// TakenOrderTTL bounds how long a taken order may wait on its counterparty.
	TakenOrderTTL time.Duration
	// WarnAfter is measured against OrderTTL; taken orders are warned at the same fraction of TakenOrderTTL.
	WarnAfter time.Duration
	Workers   int
}

type ExpirationScheduler struct {
	orders    OrderTimer
	orderRepo domain.OrderRepository
	publisher domain.EventPublisher
	metrics   *metrics.OrderMetrics
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

func NewExpirationScheduler(
	orders OrderTimer,
	orderRepo domain.OrderRepository,
	publisher domain.EventPublisher,
	orderMetrics *metrics.OrderMetrics,
	cfg Config,
	logger *slog.Logger,
) *ExpirationScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	return &ExpirationScheduler{
		orders:    orders,
		orderRepo: orderRepo,
		publisher: publisher,
		metrics:   orderMetrics,
		cfg:       cfg,
		logger:    logger.With("component", "expiration_scheduler"),
		now:       time.Now,
	}
}

// SetClock replaces the time source.
func (s *ExpirationScheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start sweeps every interval until ctx is done.
func (s *ExpirationScheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("expiration sweep failed", "error", err)
			}
		}
	}
}

// Sweep warns about orders close to their deadline and times out the ones past it.
// Orders are handled in parallel; each one goes through the per-order lock of the state machine.
func (s *ExpirationScheduler) Sweep(ctx context.Context) error {
	orders, err := s.orders.GetOrdersByStatus(ctx,
		domain.StatusWaitingPayment, domain.StatusWaitingBuyerInvoice, domain.StatusPending)
	if err != nil {
		return err
	}

	now := s.now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, order := range orders {
		g.Go(func() error {
			s.check(gctx, order, now)
			return nil
		})
	}
	return g.Wait()
}

// deadline returns the timestamp the order's age is measured from and its TTL.
func (s *ExpirationScheduler) deadline(order *domain.Order) (time.Time, time.Duration) {
	if order.TakenAt != nil {
		return *order.TakenAt, s.cfg.TakenOrderTTL
	}
	return order.CreatedAt, s.cfg.OrderTTL
}

func (s *ExpirationScheduler) check(ctx context.Context, order *domain.Order, now time.Time) {
	since, ttl := s.deadline(order)
	if ttl <= 0 {
		return
	}
	age := now.Sub(since)

	if age >= ttl {
		s.expire(ctx, order, now)
		return
	}
	if !order.AdminWarned && age >= s.warnAt(ttl) {
		s.warn(ctx, order, now)
	}
}

func (s *ExpirationScheduler) warnAt(ttl time.Duration) time.Duration {
	if s.cfg.WarnAfter <= 0 || s.cfg.OrderTTL <= 0 || s.cfg.WarnAfter >= s.cfg.OrderTTL {
		return ttl
	}
	return time.Duration(float64(ttl) * float64(s.cfg.WarnAfter) / float64(s.cfg.OrderTTL))
}

func (s *ExpirationScheduler) expire(ctx context.Context, order *domain.Order, now time.Time) {
	cmd := domain.Command{Event: domain.EventTimeout, ActorID: domain.SystemActorID}
	_, err := s.orders.ApplyWith(ctx, order.ID, cmd, func(_ context.Context, locked *domain.Order, _ domain.TxScope) error {
		since, ttl := s.deadline(locked)
		if ttl <= 0 || now.Sub(since) < ttl {
			return errNotDue
		}
		return nil
	})
	switch {
	case err == nil:
		s.metrics.RecordOrderExpired()
		s.logger.Info("order expired", "order_id", order.ID, "status", order.Status)
	case errors.Is(err, domain.ErrInvalidStateTransition), errors.Is(err, errNotDue):
		// A user transition won the lock first.
		s.logger.Debug("order moved before expiry", "order_id", order.ID, "reason", err)
	default:
		s.logger.Warn("order expiry failed, retrying next sweep", "order_id", order.ID, "error", err)
	}
}

func (s *ExpirationScheduler) warn(ctx context.Context, order *domain.Order, now time.Time) {
	set, err := s.orderRepo.MarkAdminWarned(ctx, order.ID)
	if err != nil {
		s.logger.Warn("failed to mark order warned", "order_id", order.ID, "error", err)
		return
	}
	if !set {
		return
	}
	s.metrics.RecordExpirationWarning()
	if s.publisher != nil {
		s.publisher.Publish(ctx, domain.DomainEvent{
			Type:       domain.EventTypeExpirationWarning,
			OrderID:    order.ID,
			FromStatus: order.Status,
			ToStatus:   order.Status,
			Actor:      domain.SystemActorID,
			OccurredAt: now,
		})
	}
}
