package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

const payoutWorkers = 4

// Release settles the escrow and pays the buyer. A failed payout leaves the
// order in PAID_HOLD_INVOICE for the retry worker; the release itself stands.
func (uc *DefaultOrderUsecase) Release(ctx context.Context, orderID, sellerID string) (*domain.Order, error) {
	order, err := uc.Apply(ctx, orderID, domain.Command{Event: domain.EventRelease, ActorID: sellerID})
	if err != nil {
		return nil, err
	}
	return uc.payoutAfterSettle(ctx, order), nil
}

func (uc *DefaultOrderUsecase) payoutAfterSettle(ctx context.Context, order *domain.Order) *domain.Order {
	if order.Status != domain.StatusPaidHoldInvoice {
		return order
	}
	paid, err := uc.Payout(ctx, order.ID)
	if err != nil {
		uc.logger.Warn("payout deferred", "order_id", order.ID, "error", err)
		if paid != nil {
			return paid
		}
		return order
	}
	return paid
}

// Payout pays the buyer invoice of a settled order. On failure the attempt is
// counted and the order keeps its status; ErrPaymentFailed is returned along
// with the updated order.
func (uc *DefaultOrderUsecase) Payout(ctx context.Context, orderID string) (*domain.Order, error) {
	system := domain.Actor{ID: domain.SystemActorID}

	unlock := uc.locks.Lock(orderID)
	var (
		payErr error
		from   domain.OrderStatus
	)
	updated, err := uc.OrderRepo.ProcessOrderCriticalOperation(ctx, orderID, func(ctx context.Context, order *domain.Order, tx domain.TxScope) error {
		from = order.Status
		if err := domain.Authorize(order, domain.EventBuyerPaid, system); err != nil {
			return err
		}
		next, err := domain.NextStatus(order, domain.EventBuyerPaid)
		if err != nil {
			return err
		}

		order.UpdatedAt = uc.now()
		if err := uc.checkPayoutAmount(ctx, order); err != nil {
			payErr = err
			order.PayoutAttempts++
			return nil
		}
		payment, err := uc.Escrow.PayInvoice(ctx, order.BuyerInvoice, order.Amount, uc.maxRoutingFee(order.Amount))
		if err != nil {
			payErr = err
			order.PayoutAttempts++
			return nil
		}

		order.RoutingFee = payment.RoutingFee
		for _, userID := range []string{order.SellerID, order.BuyerID} {
			if err := tx.RecordUserTrade(ctx, userID, order.Amount); err != nil {
				return err
			}
		}
		order.Status = next
		return nil
	})
	unlock()
	if err != nil {
		uc.recordRejection(orderID, domain.EventBuyerPaid, err)
		return nil, err
	}

	if payErr != nil {
		uc.Metrics.RecordPayoutFailure()
		uc.logger.Warn("buyer payout failed", "order_id", orderID, "attempt", updated.PayoutAttempts, "error", payErr)
		uc.publish(ctx, domain.DomainEvent{
			Type:       domain.EventTypePayoutFailed,
			OrderID:    orderID,
			FromStatus: from,
			ToStatus:   from,
			Actor:      domain.SystemActorID,
			OccurredAt: uc.now(),
		})
		return updated, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, payErr)
	}

	uc.Metrics.RecordFeeCollected(updated.CommunityID, updated.Fee)
	uc.afterTransition(ctx, &transition{
		order: updated, event: domain.EventBuyerPaid, from: from, to: updated.Status, actor: system,
	})
	uc.spawnChild(ctx, updated)
	return updated, nil
}

// checkPayoutAmount refuses an invoice that asks for more or less than the order amount.
func (uc *DefaultOrderUsecase) checkPayoutAmount(ctx context.Context, order *domain.Order) error {
	decoded, err := uc.Escrow.DecodeInvoice(ctx, order.BuyerInvoice)
	if err != nil {
		return err
	}
	if decoded.Amount > 0 && decoded.Amount != order.Amount {
		return fmt.Errorf("%w: invoice amount %d does not match order amount %d",
			domain.ErrInvalidInvoice, decoded.Amount, order.Amount)
	}
	return nil
}

// RetryPayouts re-attempts payouts that failed fewer than the configured times.
func (uc *DefaultOrderUsecase) RetryPayouts(ctx context.Context) error {
	orders, err := uc.OrderRepo.FindOrdersByStatus(ctx, domain.StatusPaidHoldInvoice)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(payoutWorkers)
	for _, order := range orders {
		if order.PayoutAttempts >= uc.cfg.MaxPayoutAttempts {
			continue
		}
		g.Go(func() error {
			_, err := uc.Payout(gctx, order.ID)
			if err != nil && !errors.Is(err, domain.ErrPaymentFailed) {
				uc.logger.Error("payout retry failed", "order_id", order.ID, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// UpdateBuyerInvoice replaces the buyer invoice of a settled order whose payout
// failed, resets the attempt counter and pays again.
func (uc *DefaultOrderUsecase) UpdateBuyerInvoice(ctx context.Context, orderID, buyerID, invoice string) (*domain.Order, error) {
	unlock := uc.locks.Lock(orderID)
	_, err := uc.OrderRepo.ProcessOrderCriticalOperation(ctx, orderID, func(ctx context.Context, order *domain.Order, _ domain.TxScope) error {
		if order.Status != domain.StatusPaidHoldInvoice {
			return fmt.Errorf("%w: invoice can only be replaced while the payout is pending, order is %s",
				domain.ErrInvalidStateTransition, order.Status)
		}
		if buyerID == "" || buyerID != order.BuyerID {
			return fmt.Errorf("%w: %q is not the buyer of order %s", domain.ErrUnauthorizedActor, buyerID, order.ID)
		}
		if err := uc.checkInvoice(ctx, order, invoice); err != nil {
			return err
		}
		order.BuyerInvoice = invoice
		order.BuyerInvoiceUpdated = true
		order.PayoutAttempts = 0
		order.UpdatedAt = uc.now()
		return nil
	})
	unlock()
	if err != nil {
		return nil, err
	}
	return uc.Payout(ctx, orderID)
}
