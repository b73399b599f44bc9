package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

const callbackTimeout = 30 * time.Second

var escrowStatuses = []domain.OrderStatus{
	domain.StatusWaitingPayment,
	domain.StatusPending,
	domain.StatusActive,
	domain.StatusFiatSent,
	domain.StatusDispute,
}

// subscribe keeps one live subscription per hash; a newer one replaces the old.
func (uc *DefaultOrderUsecase) subscribe(order *domain.Order) {
	if order.Hash == "" {
		return
	}
	hash := order.Hash
	sub, err := uc.Escrow.Subscribe(uc.callbackCtx, hash, domain.InvoiceHandlers{
		OnHeld:     func(h string) { uc.runCallback(h, uc.HandleInvoiceHeld) },
		OnSettled:  func(h string) { uc.runCallback(h, uc.HandleInvoiceSettled) },
		OnCanceled: func(h string) { uc.runCallback(h, uc.HandleInvoiceCanceled) },
	})
	if err != nil {
		uc.logger.Error("failed to subscribe to hold invoice", "order_id", order.ID, "hash", hash, "error", err)
		return
	}

	uc.subsMu.Lock()
	if old, ok := uc.subs[hash]; ok {
		old.Cancel()
	}
	uc.subs[hash] = sub
	uc.subsMu.Unlock()
}

func (uc *DefaultOrderUsecase) forget(hash string) {
	uc.subsMu.Lock()
	delete(uc.subs, hash)
	uc.subsMu.Unlock()
}

func (uc *DefaultOrderUsecase) runCallback(hash string, handle func(context.Context, string) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(uc.callbackCtx), callbackTimeout)
	defer cancel()
	if err := handle(ctx, hash); err != nil {
		uc.logger.Error("invoice callback failed", "hash", hash, "error", err)
	}
}

// HandleInvoiceHeld moves a funded order on. When the order is already over
// (expired or closed while the seller was paying) the payment is refunded.
func (uc *DefaultOrderUsecase) HandleInvoiceHeld(ctx context.Context, hash string) error {
	order, err := uc.OrderRepo.GetOrderByHash(ctx, hash)
	if err != nil {
		return err
	}
	_, err = uc.Apply(ctx, order.ID, domain.Command{Event: domain.EventInvoiceHeld, ActorID: domain.SystemActorID})
	if !errors.Is(err, domain.ErrInvalidStateTransition) {
		return err
	}

	order, reloadErr := uc.OrderRepo.GetOrderByID(ctx, order.ID)
	if reloadErr != nil {
		return reloadErr
	}
	if !order.Status.IsTerminal() && order.Status != domain.StatusClosed {
		return err
	}
	uc.logger.Info("refunding payment of finished order", "order_id", order.ID, "status", order.Status)
	return uc.Escrow.Cancel(ctx, hash)
}

// HandleInvoiceSettled only confirms a settle the order already went through.
func (uc *DefaultOrderUsecase) HandleInvoiceSettled(ctx context.Context, hash string) error {
	defer uc.forget(hash)
	order, err := uc.OrderRepo.GetOrderByHash(ctx, hash)
	if err != nil {
		return err
	}
	_, err = uc.Apply(ctx, order.ID, domain.Command{Event: domain.EventInvoiceSettled, ActorID: domain.SystemActorID})
	if errors.Is(err, domain.ErrInvalidStateTransition) {
		uc.logger.Warn("invoice settled outside of a release", "order_id", order.ID, "status", order.Status)
		uc.Metrics.RecordError("unexpected_settle")
		return nil
	}
	return err
}

func (uc *DefaultOrderUsecase) HandleInvoiceCanceled(ctx context.Context, hash string) error {
	defer uc.forget(hash)
	order, err := uc.OrderRepo.GetOrderByHash(ctx, hash)
	if err != nil {
		return err
	}
	_, err = uc.Apply(ctx, order.ID, domain.Command{Event: domain.EventInvoiceCanceled, ActorID: domain.SystemActorID})
	return err
}

// ResubscribeInvoices restores invoice watchers for every order whose escrow may still move.
func (uc *DefaultOrderUsecase) ResubscribeInvoices(ctx context.Context) error {
	orders, err := uc.OrderRepo.FindOrdersByStatus(ctx, escrowStatuses...)
	if err != nil {
		return err
	}
	count := 0
	for _, order := range orders {
		if order.Hash == "" {
			continue
		}
		uc.subscribe(order)
		count++
	}
	uc.logger.Info("hold invoices resubscribed", "count", count)
	return nil
}
