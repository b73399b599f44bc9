package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/metrics"
)

const defaultQueueSize = 256

type Handler func(ctx context.Context, event domain.DomainEvent) error

// HandlerError is a failure of one subscriber during a dispatch.
type HandlerError struct {
	EventType domain.EventType
	Position  int
	Err       error
}

func (e HandlerError) Error() string {
	return fmt.Sprintf("handler #%d for %s: %v", e.Position, e.EventType, e.Err)
}

func (e HandlerError) Unwrap() error { return e.Err }

// DispatchReport describes one dispatch. Handler failures never fail the dispatch itself.
type DispatchReport struct {
	Delivered int
	Failures  []HandlerError
}

// Err joins the handler failures, or returns nil when every handler succeeded.
func (r DispatchReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

type subscriber struct {
	id        uint64
	eventType domain.EventType
	handler   Handler
}

// Bus is an explicitly constructed publish/subscribe hub. Handlers run in
// registration order; Publish hands events to a single worker so notifications
// for one order keep their publish order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber

	queue   chan domain.DomainEvent
	logger  *slog.Logger
	metrics *metrics.OrderMetrics
}

type Option func(*Bus)

func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan domain.DomainEvent, n)
		}
	}
}

func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(b *Bus) { b.metrics = m }
}

func NewBus(logger *slog.Logger, opts ...Option) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		queue:  make(chan domain.DomainEvent, defaultQueueSize),
		logger: logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for one event type and returns its unsubscribe function.
func (b *Bus) Subscribe(eventType domain.EventType, handler Handler) (func(), error) {
	if handler == nil {
		return nil, domain.ErrHandlerNotAFunction
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscriber{id: id, eventType: eventType, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}, nil
}

// SubscribeAll registers handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) (func(), error) {
	return b.Subscribe("", handler)
}

// Dispatch runs every matching handler synchronously and returns once all of them completed.
func (b *Bus) Dispatch(ctx context.Context, event domain.DomainEvent) DispatchReport {
	b.mu.RLock()
	matching := make([]subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s.eventType == "" || s.eventType == event.Type {
			matching = append(matching, s)
		}
	}
	b.mu.RUnlock()

	var report DispatchReport
	for i, s := range matching {
		if err := b.invoke(ctx, s.handler, event); err != nil {
			report.Failures = append(report.Failures, HandlerError{EventType: event.Type, Position: i, Err: err})
			b.metrics.RecordHandlerFailure(string(event.Type))
			b.logger.Warn("event handler failed",
				"event_type", event.Type,
				"order_id", event.OrderID,
				"handler", i,
				"error", err,
			)
			continue
		}
		report.Delivered++
	}
	return report
}

func (b *Bus) invoke(ctx context.Context, h Handler, event domain.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, event)
}

// Publish queues the event for the worker started by Run. It blocks only while
// the queue is full and gives up when ctx is done.
func (b *Bus) Publish(ctx context.Context, event domain.DomainEvent) {
	select {
	case b.queue <- event:
		return
	default:
	}
	select {
	case b.queue <- event:
	case <-ctx.Done():
		b.logger.Error("event dropped", "event_type", event.Type, "order_id", event.OrderID, "error", ctx.Err())
	}
}

// Run drains the queue until ctx is canceled, then flushes what is left.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case event := <-b.queue:
			b.Dispatch(context.WithoutCancel(ctx), event)
		case <-ctx.Done():
			b.flush(context.WithoutCancel(ctx))
			return
		}
	}
}

func (b *Bus) flush(ctx context.Context) {
	for {
		select {
		case event := <-b.queue:
			b.Dispatch(ctx, event)
		default:
			return
		}
	}
}
