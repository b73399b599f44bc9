package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/metrics"
	orderdto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/order"
	"github.com/shopspring/decimal"
)

type OrderUsecase interface {
	CreateOrder(ctx context.Context, input *orderdto.CreateOrderInput) (*orderdto.OrderOutput, error)
	AddBuyerInvoice(ctx context.Context, orderID, buyerID, invoice string) (*domain.Order, error)
	TakeOrder(ctx context.Context, input *orderdto.TakeOrderInput) (*orderdto.OrderOutput, error)
	ConfirmFiatSent(ctx context.Context, orderID, buyerID string) (*domain.Order, error)
	Release(ctx context.Context, orderID, sellerID string) (*domain.Order, error)
	RequestCooperativeCancel(ctx context.Context, orderID, userID string) (*domain.Order, error)
	CloseOrder(ctx context.Context, orderID, creatorID string) (*domain.Order, error)
	AdminCancel(ctx context.Context, orderID, actorID string) (*domain.Order, error)
	AdminComplete(ctx context.Context, orderID, actorID string) (*domain.Order, error)
	UpdateBuyerInvoice(ctx context.Context, orderID, buyerID, invoice string) (*domain.Order, error)

	Apply(ctx context.Context, orderID string, cmd domain.Command) (*domain.Order, error)
	ApplyWith(ctx context.Context, orderID string, cmd domain.Command, hook domain.OrderMutation) (*domain.Order, error)
	Payout(ctx context.Context, orderID string) (*domain.Order, error)
	RetryPayouts(ctx context.Context) error
	ResubscribeInvoices(ctx context.Context) error

	GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrdersByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]*domain.Order, error)
}

// PriceSource quotes bitcoin in fiat for market-priced orders.
type PriceSource interface {
	GetBTCPrice(ctx context.Context, fiatCode string) (decimal.Decimal, error)
}

type Config struct {
	// MaxFee is the fee fraction of the traded amount.
	MaxFee decimal.Decimal
	// BotFeePercent is the operator's share of MaxFee on community orders.
	BotFeePercent decimal.Decimal
	// MaxRoutingFee caps the routing fee of a payout as a fraction of the amount.
	MaxRoutingFee        decimal.Decimal
	MaxPayoutAttempts    int
	AdminIDs             []string
	DisputeCounterPolicy domain.DisputeCounterPolicy
	InvoiceDescription   string
}

type DefaultOrderUsecase struct {
	OrderRepo domain.OrderRepository
	UserRepo  domain.UserRepository
	Policy    domain.CommunityPolicy
	Escrow    domain.HoldInvoiceCoordinator
	Prices    PriceSource
	Publisher domain.EventPublisher
	Metrics   *metrics.OrderMetrics

	cfg    Config
	logger *slog.Logger
	locks  *keyedLocker
	now    func() time.Time

	subsMu sync.Mutex
	subs   map[string]domain.Subscription
	// callbackCtx outlives request contexts; invoice callbacks run on it.
	callbackCtx context.Context
}

func NewDefaultOrderUsecase(
	orderRepo domain.OrderRepository,
	userRepo domain.UserRepository,
	policy domain.CommunityPolicy,
	escrow domain.HoldInvoiceCoordinator,
	prices PriceSource,
	publisher domain.EventPublisher,
	orderMetrics *metrics.OrderMetrics,
	cfg Config,
	logger *slog.Logger,
) *DefaultOrderUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPayoutAttempts <= 0 {
		cfg.MaxPayoutAttempts = 3
	}
	if cfg.DisputeCounterPolicy == "" {
		cfg.DisputeCounterPolicy = domain.CountLoser
	}
	if cfg.InvoiceDescription == "" {
		cfg.InvoiceDescription = "p2p escrow"
	}
	return &DefaultOrderUsecase{
		OrderRepo:   orderRepo,
		UserRepo:    userRepo,
		Policy:      policy,
		Escrow:      escrow,
		Prices:      prices,
		Publisher:   publisher,
		Metrics:     orderMetrics,
		cfg:         cfg,
		logger:      logger.With("component", "order_usecase"),
		locks:       newKeyedLocker(),
		now:         time.Now,
		subs:        make(map[string]domain.Subscription),
		callbackCtx: context.Background(),
	}
}

// SetClock replaces the time source.
func (uc *DefaultOrderUsecase) SetClock(now func() time.Time) {
	uc.now = now
}

// SetCallbackContext bounds the lifetime of invoice subscriptions.
func (uc *DefaultOrderUsecase) SetCallbackContext(ctx context.Context) {
	uc.callbackCtx = ctx
}

func (uc *DefaultOrderUsecase) publish(ctx context.Context, events ...domain.DomainEvent) {
	if uc.Publisher == nil {
		return
	}
	for _, evt := range events {
		uc.Publisher.Publish(ctx, evt)
	}
}

func (uc *DefaultOrderUsecase) statusChanged(orderID string, from, to domain.OrderStatus, actor string) domain.DomainEvent {
	return domain.DomainEvent{
		Type:       domain.EventTypeStatusChanged,
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		OccurredAt: uc.now(),
	}
}
