package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/testdb"
	orderdto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/order"
	"github.com/LavaJover/shvark-p2p-service/internal/usecase/usecasetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	uc       *DefaultOrderUsecase
	escrow   *usecasetest.Escrow
	events   *usecasetest.Events
	policies *usecasetest.Policies
	users    *repository.DefaultUserRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testdb.New(t)
	h := &harness{
		escrow: usecasetest.NewEscrow(),
		events: &usecasetest.Events{},
		policies: usecasetest.NewPolicies(&domain.Policy{
			Currencies: []string{"USD", "EUR"},
			SolverIDs:  []string{"solver"},
		}),
		users: repository.NewDefaultUserRepository(db),
	}
	h.uc = NewDefaultOrderUsecase(
		repository.NewDefaultOrderRepository(db),
		h.users,
		h.policies,
		h.escrow,
		usecasetest.Price(decimal.NewFromInt(50_000)),
		h.events,
		nil,
		Config{
			MaxFee:            decimal.RequireFromString("0.006"),
			BotFeePercent:     decimal.RequireFromString("0.7"),
			MaxRoutingFee:     decimal.RequireFromString("0.002"),
			MaxPayoutAttempts: 3,
			AdminIDs:          []string{"admin"},
		},
		nil,
	)
	return h
}

func (h *harness) sellOrder(t *testing.T, seller string) *domain.Order {
	t.Helper()
	out, err := h.uc.CreateOrder(context.Background(), &orderdto.CreateOrderInput{
		CreatorID:     seller,
		Type:          "sell",
		FiatCode:      "usd",
		FiatAmount:    decimal.NewFromInt(100),
		PaymentMethod: "bank transfer",
	})
	require.NoError(t, err)
	return out.Order
}

// activeOrder returns a funded sell order taken by buyer.
func (h *harness) activeOrder(t *testing.T, seller, buyer string) *domain.Order {
	t.Helper()
	order := h.sellOrder(t, seller)
	h.escrow.Hold(order.Hash)
	out, err := h.uc.TakeOrder(context.Background(), &orderdto.TakeOrderInput{
		OrderID: order.ID, TakerID: buyer, Invoice: "lnbc-" + buyer,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, out.Order.Status)
	return out.Order
}

func (h *harness) status(t *testing.T, orderID string) domain.OrderStatus {
	t.Helper()
	order, err := h.uc.GetOrderByID(context.Background(), orderID)
	require.NoError(t, err)
	return order.Status
}

func TestSellOrderHappyPath(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	out, err := h.uc.CreateOrder(ctx, &orderdto.CreateOrderInput{
		CreatorID:     "alice",
		Type:          "sell",
		FiatCode:      "USD",
		FiatAmount:    decimal.NewFromInt(100),
		PaymentMethod: "bank transfer",
	})
	require.NoError(t, err)
	order := out.Order
	assert.Equal(t, domain.StatusWaitingPayment, order.Status)
	assert.Equal(t, int64(200_000), order.Amount)
	assert.Equal(t, int64(1_200), order.Fee)
	assert.True(t, order.Calculated)
	assert.NotEmpty(t, order.Hash)
	assert.Equal(t, order.HoldInvoice, out.PaymentRequest)

	h.escrow.Hold(order.Hash)
	assert.Equal(t, domain.StatusPending, h.status(t, order.ID))

	taken, err := h.uc.TakeOrder(ctx, &orderdto.TakeOrderInput{OrderID: order.ID, TakerID: "bob", Invoice: "lnbc-bob"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, taken.Order.Status)
	assert.Equal(t, "bob", taken.Order.BuyerID)
	assert.Empty(t, taken.PaymentRequest)

	_, err = h.uc.ConfirmFiatSent(ctx, order.ID, "bob")
	require.NoError(t, err)

	done, err := h.uc.Release(ctx, order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, done.Status)
	assert.Equal(t, int64(1), done.RoutingFee)
	assert.Equal(t, usecasetest.InvoiceSettled, h.escrow.State(order.Hash))
	require.Len(t, h.escrow.Payments, 1)
	assert.Equal(t, usecasetest.Payment{Request: "lnbc-bob", Amount: 200_000, MaxFee: 400}, h.escrow.Payments[0])

	assert.Equal(t, []domain.OrderStatus{
		domain.StatusPending,
		domain.StatusActive,
		domain.StatusFiatSent,
		domain.StatusPaidHoldInvoice,
		domain.StatusSuccess,
	}, h.events.StatusTrail(order.ID))

	for _, id := range []string{"alice", "bob"} {
		user, err := h.users.GetUserByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, user.TradesCompleted)
		assert.Equal(t, int64(200_000), user.VolumeTraded)
	}

	_, err = h.uc.Release(ctx, order.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestDuplicateInvoiceCallbacksAreNoOps(t *testing.T) {
	h := newHarness(t)
	order := h.sellOrder(t, "alice")

	h.escrow.Hold(order.Hash)
	h.escrow.Notify(order.Hash)
	h.escrow.Notify(order.Hash)

	assert.Equal(t, domain.StatusPending, h.status(t, order.ID))
	assert.Equal(t, []domain.OrderStatus{domain.StatusPending}, h.events.StatusTrail(order.ID))
}

func TestBuyOrderTakerFundsEscrow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	out, err := h.uc.CreateOrder(ctx, &orderdto.CreateOrderInput{
		CreatorID:     "bob",
		Type:          "buy",
		FiatCode:      "EUR",
		FiatAmount:    decimal.NewFromInt(50),
		Amount:        90_000,
		PaymentMethod: "sepa",
	})
	require.NoError(t, err)
	order := out.Order
	assert.Equal(t, domain.StatusWaitingBuyerInvoice, order.Status)
	assert.Empty(t, out.PaymentRequest)
	assert.False(t, order.Calculated)

	_, err = h.uc.AddBuyerInvoice(ctx, order.ID, "bob", "not-an-invoice")
	assert.ErrorIs(t, err, domain.ErrInvalidInvoice)
	_, err = h.uc.AddBuyerInvoice(ctx, order.ID, "alice", "lnbc-bob")
	assert.ErrorIs(t, err, domain.ErrUnauthorizedActor)

	pending, err := h.uc.AddBuyerInvoice(ctx, order.ID, "bob", "lnbc-bob")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, pending.Status)

	taken, err := h.uc.TakeOrder(ctx, &orderdto.TakeOrderInput{OrderID: order.ID, TakerID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingPayment, taken.Order.Status)
	assert.Equal(t, "alice", taken.Order.SellerID)
	assert.NotEmpty(t, taken.PaymentRequest)
	require.NotNil(t, taken.Order.TakenAt)

	h.escrow.Hold(taken.Order.Hash)
	assert.Equal(t, domain.StatusActive, h.status(t, order.ID))
}

func TestActorsAreChecked(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	pending := h.sellOrder(t, "alice")
	h.escrow.Hold(pending.Hash)
	_, err := h.uc.TakeOrder(ctx, &orderdto.TakeOrderInput{OrderID: pending.ID, TakerID: "alice", Invoice: "lnbc-a"})
	assert.ErrorIs(t, err, domain.ErrUnauthorizedActor)
	_, err = h.uc.CloseOrder(ctx, pending.ID, "bob")
	assert.ErrorIs(t, err, domain.ErrUnauthorizedActor)
	_, err = h.uc.Apply(ctx, pending.ID, domain.Command{Event: domain.EventTimeout, ActorID: "alice"})
	assert.ErrorIs(t, err, domain.ErrUnauthorizedActor)

	active := h.activeOrder(t, "carol", "dave")
	_, err = h.uc.ConfirmFiatSent(ctx, active.ID, "carol")
	assert.ErrorIs(t, err, domain.ErrUnauthorizedActor)
	_, err = h.uc.Release(ctx, active.ID, "dave")
	assert.ErrorIs(t, err, domain.ErrUnauthorizedActor)
	_, err = h.uc.AdminCancel(ctx, active.ID, "dave")
	assert.ErrorIs(t, err, domain.ErrUnauthorizedActor)

	assert.Equal(t, domain.StatusActive, h.status(t, active.ID))
}

func TestExpiredOrderRejectsTake(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.sellOrder(t, "alice")
	h.escrow.Hold(order.Hash)

	expired, err := h.uc.Apply(ctx, order.ID, domain.Command{Event: domain.EventTimeout, ActorID: domain.SystemActorID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, expired.Status)
	assert.Equal(t, usecasetest.InvoiceCanceled, h.escrow.State(order.Hash))

	_, err = h.uc.TakeOrder(ctx, &orderdto.TakeOrderInput{OrderID: order.ID, TakerID: "bob", Invoice: "lnbc-bob"})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	// The node confirms the cancel afterwards.
	h.escrow.Notify(order.Hash)
	assert.Equal(t, []domain.OrderStatus{domain.StatusPending, domain.StatusExpired}, h.events.StatusTrail(order.ID))
}

func TestPaymentAfterExpiryIsRefunded(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.sellOrder(t, "alice")

	_, err := h.uc.Apply(ctx, order.ID, domain.Command{Event: domain.EventTimeout, ActorID: domain.SystemActorID})
	require.NoError(t, err)

	h.escrow.Hold(order.Hash)
	assert.Equal(t, domain.StatusExpired, h.status(t, order.ID))
	assert.Equal(t, usecasetest.InvoiceCanceled, h.escrow.State(order.Hash))
}

func TestInvoiceExpiryBeforePayment(t *testing.T) {
	h := newHarness(t)
	order := h.sellOrder(t, "alice")

	h.escrow.Expire(order.Hash)
	assert.Equal(t, domain.StatusExpired, h.status(t, order.ID))
}

func TestCooperativeCancel(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.activeOrder(t, "alice", "bob")

	first, err := h.uc.RequestCooperativeCancel(ctx, order.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, first.Status)
	assert.True(t, first.BuyerCooperativeCancel)
	assert.Equal(t, "bob", first.CancelInitiatorID)
	assert.Len(t, h.events.OfType(domain.EventTypeCooperativeCancelRequested), 1)

	h.escrow.CancelErr = domain.ErrInvoiceNotHeld
	_, err = h.uc.RequestCooperativeCancel(ctx, order.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrInvoiceNotHeld)

	stuck, err := h.uc.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, stuck.Status)
	assert.True(t, stuck.BuyerCooperativeCancel)
	assert.True(t, stuck.SellerCooperativeCancel)

	h.escrow.CancelErr = nil
	canceled, err := h.uc.RequestCooperativeCancel(ctx, order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, canceled.Status)
	assert.Equal(t, usecasetest.InvoiceCanceled, h.escrow.State(order.Hash))

	_, err = h.uc.RequestCooperativeCancel(ctx, order.ID, "bob")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestSettleFailureKeepsPriorStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.activeOrder(t, "alice", "bob")
	_, err := h.uc.ConfirmFiatSent(ctx, order.ID, "bob")
	require.NoError(t, err)

	h.escrow.SettleErr = domain.ErrPaymentNetworkUnavailable
	_, err = h.uc.Release(ctx, order.ID, "alice")
	assert.ErrorIs(t, err, domain.ErrPaymentNetworkUnavailable)
	assert.Equal(t, domain.StatusFiatSent, h.status(t, order.ID))

	h.escrow.SettleErr = nil
	done, err := h.uc.Release(ctx, order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, done.Status)
}

func TestPayoutFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.activeOrder(t, "alice", "bob")
	_, err := h.uc.ConfirmFiatSent(ctx, order.ID, "bob")
	require.NoError(t, err)

	h.escrow.PayErr = errors.New("no route")
	released, err := h.uc.Release(ctx, order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaidHoldInvoice, released.Status)
	assert.Equal(t, 1, released.PayoutAttempts)
	assert.Len(t, h.events.OfType(domain.EventTypePayoutFailed), 1)

	_, err = h.uc.UpdateBuyerInvoice(ctx, order.ID, "alice", "lnbc-other")
	assert.ErrorIs(t, err, domain.ErrUnauthorizedActor)

	h.escrow.PayErr = nil
	require.NoError(t, h.uc.RetryPayouts(ctx))
	assert.Equal(t, domain.StatusSuccess, h.status(t, order.ID))
}

func TestUpdateBuyerInvoiceAfterFailedPayout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.activeOrder(t, "alice", "bob")
	_, err := h.uc.ConfirmFiatSent(ctx, order.ID, "bob")
	require.NoError(t, err)

	h.escrow.PayErr = errors.New("invoice expired")
	_, err = h.uc.Release(ctx, order.ID, "alice")
	require.NoError(t, err)

	h.escrow.PayErr = nil
	paid, err := h.uc.UpdateBuyerInvoice(ctx, order.ID, "bob", "lnbc-fresh")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, paid.Status)
	assert.True(t, paid.BuyerInvoiceUpdated)
	assert.Equal(t, "lnbc-fresh", h.escrow.Payments[len(h.escrow.Payments)-1].Request)
}

func TestCommunityPolicyAtCreation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.policies.Put(&domain.Policy{
		CommunityID:   "c1",
		FeePercent:    decimal.NewFromInt(10),
		Currencies:    []string{"EUR"},
		SolverIDs:     []string{"judge"},
		BannedUserIDs: []string{"mallory"},
	})

	input := orderdto.CreateOrderInput{
		CreatorID:     "alice",
		Type:          "sell",
		FiatCode:      "USD",
		FiatAmount:    decimal.NewFromInt(100),
		PaymentMethod: "cash",
		CommunityID:   "c1",
	}
	_, err := h.uc.CreateOrder(ctx, &input)
	assert.ErrorIs(t, err, domain.ErrCurrencyNotAllowed)

	input.CommunityID = "nope"
	_, err = h.uc.CreateOrder(ctx, &input)
	assert.ErrorIs(t, err, domain.ErrCommunityNotFound)

	input.CommunityID = "c1"
	input.FiatCode = "EUR"
	out, err := h.uc.CreateOrder(ctx, &input)
	require.NoError(t, err)
	assert.Equal(t, "c1", out.Order.CommunityID)
	// 840 for the bot plus 10% of the remaining 360.
	assert.Equal(t, int64(876), out.Order.Fee)

	// Later policy changes do not touch the order.
	h.policies.Put(&domain.Policy{CommunityID: "c1", FeePercent: decimal.NewFromInt(50), Currencies: []string{"EUR"}})
	stored, err := h.uc.GetOrderByID(ctx, out.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(876), stored.Fee)
	assert.True(t, stored.CommunityFee.Equal(decimal.RequireFromString("0.1")))

	h.escrow.Hold(out.Order.Hash)
	h.policies.Put(&domain.Policy{CommunityID: "c1", Currencies: []string{"EUR"}, BannedUserIDs: []string{"mallory"}})
	_, err = h.uc.TakeOrder(ctx, &orderdto.TakeOrderInput{OrderID: out.Order.ID, TakerID: "mallory", Invoice: "lnbc-m"})
	assert.ErrorIs(t, err, domain.ErrUserBanned)
}

func TestInvalidOrdersAreRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	cases := map[string]orderdto.CreateOrderInput{
		"unknown type":   {CreatorID: "a", Type: "swap", FiatCode: "USD", FiatAmount: decimal.NewFromInt(10), PaymentMethod: "x"},
		"zero fiat":      {CreatorID: "a", Type: "sell", FiatCode: "USD", PaymentMethod: "x"},
		"no method":      {CreatorID: "a", Type: "sell", FiatCode: "USD", FiatAmount: decimal.NewFromInt(10)},
		"range sell":     {CreatorID: "a", Type: "sell", FiatCode: "USD", MinAmount: decimal.NewFromInt(10), MaxAmount: decimal.NewFromInt(20), PaymentMethod: "x"},
		"inverted range": {CreatorID: "a", Type: "buy", FiatCode: "USD", MinAmount: decimal.NewFromInt(30), MaxAmount: decimal.NewFromInt(20), PaymentMethod: "x"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.uc.CreateOrder(ctx, &input)
			assert.ErrorIs(t, err, domain.ErrInvalidOrder)
		})
	}

	_, err := h.uc.CreateOrder(ctx, &orderdto.CreateOrderInput{
		CreatorID: "a", Type: "sell", FiatCode: "JPY", FiatAmount: decimal.NewFromInt(10), PaymentMethod: "x",
	})
	assert.ErrorIs(t, err, domain.ErrCurrencyNotAllowed)
}

func TestBannedUserCannotCreate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.users.EnsureUser(ctx, &domain.User{ID: "mallory"})
	require.NoError(t, err)
	user, err := h.users.GetUserByID(ctx, "mallory")
	require.NoError(t, err)
	user.Banned = true
	require.NoError(t, h.users.SaveUser(ctx, user))

	_, err = h.uc.CreateOrder(ctx, &orderdto.CreateOrderInput{
		CreatorID: "mallory", Type: "sell", FiatCode: "USD", FiatAmount: decimal.NewFromInt(10), PaymentMethod: "x",
	})
	assert.ErrorIs(t, err, domain.ErrUserBanned)
}

func TestRangeOrderSpawnsChild(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	out, err := h.uc.CreateOrder(ctx, &orderdto.CreateOrderInput{
		CreatorID:     "bob",
		Type:          "buy",
		FiatCode:      "USD",
		MinAmount:     decimal.NewFromInt(10),
		MaxAmount:     decimal.NewFromInt(100),
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	parent := out.Order
	assert.Zero(t, parent.Amount)

	_, err = h.uc.AddBuyerInvoice(ctx, parent.ID, "bob", "lnbc-bob")
	require.NoError(t, err)

	_, err = h.uc.TakeOrder(ctx, &orderdto.TakeOrderInput{OrderID: parent.ID, TakerID: "alice", FiatAmount: decimal.NewFromInt(200)})
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	taken, err := h.uc.TakeOrder(ctx, &orderdto.TakeOrderInput{OrderID: parent.ID, TakerID: "alice", FiatAmount: decimal.NewFromInt(30)})
	require.NoError(t, err)
	assert.Equal(t, int64(60_000), taken.Order.Amount)
	assert.Equal(t, int64(360), taken.Order.Fee)

	h.escrow.Hold(taken.Order.Hash)
	_, err = h.uc.ConfirmFiatSent(ctx, parent.ID, "bob")
	require.NoError(t, err)
	done, err := h.uc.Release(ctx, parent.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, domain.StatusSuccess, done.Status)

	waiting, err := h.uc.GetOrdersByStatus(ctx, domain.StatusWaitingBuyerInvoice)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	child := waiting[0]
	assert.Equal(t, parent.ID, child.ParentOrderID)
	assert.True(t, child.MinAmount.Equal(decimal.NewFromInt(10)))
	assert.True(t, child.MaxAmount.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, "bob", child.BuyerID)
}

func TestRangeBuyInvoiceIsCheckedAgainstTakenAmount(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	out, err := h.uc.CreateOrder(ctx, &orderdto.CreateOrderInput{
		CreatorID:     "bob",
		Type:          "buy",
		FiatCode:      "USD",
		MinAmount:     decimal.NewFromInt(10),
		MaxAmount:     decimal.NewFromInt(100),
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	h.escrow.SetInvoiceAmount("lnbc-big", 10_000_000)
	_, err = h.uc.AddBuyerInvoice(ctx, out.Order.ID, "bob", "lnbc-big")
	require.NoError(t, err)

	_, err = h.uc.TakeOrder(ctx, &orderdto.TakeOrderInput{OrderID: out.Order.ID, TakerID: "alice", FiatAmount: decimal.NewFromInt(30)})
	assert.ErrorIs(t, err, domain.ErrInvalidInvoice)

	order, err := h.uc.GetOrderByID(ctx, out.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Zero(t, order.Amount)
	assert.Empty(t, order.SellerID)
	assert.Empty(t, order.Hash)
}

func TestPayoutRefusesMismatchedInvoiceAmount(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.activeOrder(t, "alice", "bob")
	_, err := h.uc.ConfirmFiatSent(ctx, order.ID, "bob")
	require.NoError(t, err)

	h.escrow.SetInvoiceAmount("lnbc-bob", 10_000_000)
	released, err := h.uc.Release(ctx, order.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaidHoldInvoice, released.Status)
	assert.Equal(t, 1, released.PayoutAttempts)
	assert.Empty(t, h.escrow.Payments)
	assert.Len(t, h.events.OfType(domain.EventTypePayoutFailed), 1)

	h.escrow.SetInvoiceAmount("lnbc-exact", order.Amount)
	paid, err := h.uc.UpdateBuyerInvoice(ctx, order.ID, "bob", "lnbc-exact")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, paid.Status)
	require.Len(t, h.escrow.Payments, 1)
	assert.Equal(t, usecasetest.Payment{Request: "lnbc-exact", Amount: order.Amount, MaxFee: 400}, h.escrow.Payments[0])
}

func TestConcurrentTransitionsApplyOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.activeOrder(t, "alice", "bob")

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.uc.ConfirmFiatSent(ctx, order.ID, "bob"); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	trail := h.events.StatusTrail(order.ID)
	assert.Equal(t, domain.StatusFiatSent, trail[len(trail)-1])
	assert.Len(t, trail, 3)
}

func TestAdminOverrides(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	order := h.activeOrder(t, "alice", "bob")
	canceled, err := h.uc.AdminCancel(ctx, order.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceledByAdmin, canceled.Status)
	assert.Equal(t, usecasetest.InvoiceCanceled, h.escrow.State(order.Hash))

	other := h.activeOrder(t, "carol", "dave")
	completed, err := h.uc.AdminComplete(ctx, other.ID, "solver")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompletedByAdmin, completed.Status)
	assert.Equal(t, usecasetest.InvoiceSettled, h.escrow.State(other.Hash))

	_, err = h.uc.AdminCancel(ctx, other.ID, "admin")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestResubscribeInvoices(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	order := h.sellOrder(t, "alice")

	restarted := NewDefaultOrderUsecase(h.uc.OrderRepo, h.users, h.policies, h.escrow, nil, h.events, nil, h.uc.cfg, nil)
	require.NoError(t, restarted.ResubscribeInvoices(ctx))

	h.escrow.Hold(order.Hash)
	assert.Equal(t, domain.StatusPending, h.status(t, order.ID))
	assert.Len(t, restarted.subs, 1)
}
