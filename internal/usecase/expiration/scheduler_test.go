package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/testdb"
	orderdto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/order"
	orderuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/order"
	"github.com/LavaJover/shvark-p2p-service/internal/usecase/usecasetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type harness struct {
	scheduler *ExpirationScheduler
	orders    *orderuc.DefaultOrderUsecase
	escrow    *usecasetest.Escrow
	events    *usecasetest.Events
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testdb.New(t)
	orderRepo := repository.NewDefaultOrderRepository(db)
	h := &harness{escrow: usecasetest.NewEscrow(), events: &usecasetest.Events{}}
	h.orders = orderuc.NewDefaultOrderUsecase(
		orderRepo,
		repository.NewDefaultUserRepository(db),
		usecasetest.NewPolicies(&domain.Policy{}),
		h.escrow,
		usecasetest.Price(decimal.NewFromInt(50_000)),
		h.events,
		nil,
		orderuc.Config{
			MaxFee:        decimal.RequireFromString("0.006"),
			MaxRoutingFee: decimal.RequireFromString("0.002"),
		},
		nil,
	)
	h.orders.SetClock(func() time.Time { return base })
	h.scheduler = NewExpirationScheduler(h.orders, orderRepo, h.events, nil, Config{
		OrderTTL:      23 * time.Hour,
		TakenOrderTTL: 15 * time.Minute,
		WarnAfter:     22 * time.Hour,
		Workers:       4,
	}, nil)
	return h
}

func (h *harness) sweepAt(t *testing.T, at time.Duration) {
	t.Helper()
	h.scheduler.SetClock(func() time.Time { return base.Add(at) })
	require.NoError(t, h.scheduler.Sweep(context.Background()))
}

func (h *harness) order(t *testing.T, orderID string) *domain.Order {
	t.Helper()
	order, err := h.orders.GetOrderByID(context.Background(), orderID)
	require.NoError(t, err)
	return order
}

func (h *harness) create(t *testing.T, input *orderdto.CreateOrderInput) *domain.Order {
	t.Helper()
	out, err := h.orders.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	return out.Order
}

func sellInput() *orderdto.CreateOrderInput {
	return &orderdto.CreateOrderInput{
		CreatorID: "alice", Type: "sell", FiatCode: "USD",
		FiatAmount: decimal.NewFromInt(100), Amount: 150_000, PaymentMethod: "cash",
	}
}

func TestWarnsOnceThenExpires(t *testing.T) {
	h := newHarness(t)
	order := h.create(t, sellInput())

	h.sweepAt(t, time.Hour)
	assert.False(t, h.order(t, order.ID).AdminWarned)
	assert.Empty(t, h.events.OfType(domain.EventTypeExpirationWarning))

	h.sweepAt(t, 22*time.Hour+time.Minute)
	h.sweepAt(t, 22*time.Hour+2*time.Minute)
	warnings := h.events.OfType(domain.EventTypeExpirationWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, order.ID, warnings[0].OrderID)

	current := h.order(t, order.ID)
	assert.True(t, current.AdminWarned)
	assert.Equal(t, domain.StatusWaitingPayment, current.Status)

	h.sweepAt(t, 23*time.Hour)
	assert.Equal(t, domain.StatusExpired, h.order(t, order.ID).Status)
	assert.Equal(t, []domain.OrderStatus{domain.StatusExpired}, h.events.StatusTrail(order.ID))
}

func TestExpiryRefundsHeldEscrow(t *testing.T) {
	h := newHarness(t)
	order := h.create(t, sellInput())
	h.escrow.Hold(order.Hash)
	require.Equal(t, domain.StatusPending, h.order(t, order.ID).Status)

	h.sweepAt(t, 24*time.Hour)
	assert.Equal(t, domain.StatusExpired, h.order(t, order.ID).Status)
	assert.Equal(t, usecasetest.InvoiceCanceled, h.escrow.State(order.Hash))
}

func TestTakenOrdersUseShorterTTL(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	buy := h.create(t, &orderdto.CreateOrderInput{
		CreatorID: "bob", Type: "buy", FiatCode: "EUR",
		FiatAmount: decimal.NewFromInt(50), Amount: 90_000, PaymentMethod: "sepa",
	})
	_, err := h.orders.AddBuyerInvoice(ctx, buy.ID, "bob", "lnbc-bob")
	require.NoError(t, err)
	taken, err := h.orders.TakeOrder(ctx, &orderdto.TakeOrderInput{OrderID: buy.ID, TakerID: "alice"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusWaitingPayment, taken.Order.Status)

	untaken := h.create(t, sellInput())

	h.sweepAt(t, 14*time.Minute+30*time.Second)
	assert.True(t, h.order(t, buy.ID).AdminWarned)
	assert.False(t, h.order(t, untaken.ID).AdminWarned)

	h.sweepAt(t, 16*time.Minute)
	assert.Equal(t, domain.StatusExpired, h.order(t, buy.ID).Status)
	assert.Equal(t, domain.StatusWaitingPayment, h.order(t, untaken.ID).Status)
}

// takenDuringSweep lets a taker win the race between the sweep listing
// orders and the timeout acquiring the order lock.
type takenDuringSweep struct {
	*orderuc.DefaultOrderUsecase
	once sync.Once
	take func()
}

func (o *takenDuringSweep) GetOrdersByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]*domain.Order, error) {
	orders, err := o.DefaultOrderUsecase.GetOrdersByStatus(ctx, statuses...)
	o.once.Do(o.take)
	return orders, err
}

func TestOrderTakenAfterListingIsNotExpired(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	buy := h.create(t, &orderdto.CreateOrderInput{
		CreatorID: "bob", Type: "buy", FiatCode: "EUR",
		FiatAmount: decimal.NewFromInt(50), Amount: 90_000, PaymentMethod: "sepa",
	})
	_, err := h.orders.AddBuyerInvoice(ctx, buy.ID, "bob", "lnbc-bob")
	require.NoError(t, err)

	h.orders.SetClock(func() time.Time { return base.Add(24 * time.Hour) })
	h.scheduler.orders = &takenDuringSweep{
		DefaultOrderUsecase: h.orders,
		take: func() {
			_, err := h.orders.TakeOrder(ctx, &orderdto.TakeOrderInput{OrderID: buy.ID, TakerID: "carol"})
			require.NoError(t, err)
		},
	}

	h.sweepAt(t, 24*time.Hour)
	current := h.order(t, buy.ID)
	assert.Equal(t, domain.StatusWaitingPayment, current.Status)
	assert.Equal(t, "carol", current.SellerID)
	assert.NotContains(t, h.events.StatusTrail(buy.ID), domain.StatusExpired)

	h.sweepAt(t, 24*time.Hour+16*time.Minute)
	assert.Equal(t, domain.StatusExpired, h.order(t, buy.ID).Status)
}

func TestFinishedOrdersAreIgnored(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.create(t, sellInput())
	_, err := h.orders.CloseOrder(ctx, order.ID, "alice")
	require.NoError(t, err)

	h.sweepAt(t, 48*time.Hour)
	assert.Equal(t, domain.StatusClosed, h.order(t, order.ID).Status)
	assert.Empty(t, h.events.OfType(domain.EventTypeExpirationWarning))
}
