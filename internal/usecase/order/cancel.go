package usecase

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

// RequestCooperativeCancel records one party's wish to cancel. The flag is
// committed on its own, so when the second request finds the escrow cannot be
// refunded both flags stay set and the cancel can be retried.
func (uc *DefaultOrderUsecase) RequestCooperativeCancel(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	unlock := uc.locks.Lock(orderID)
	flagged, err := uc.OrderRepo.ProcessOrderCriticalOperation(ctx, orderID, func(ctx context.Context, order *domain.Order, _ domain.TxScope) error {
		switch order.Status {
		case domain.StatusActive, domain.StatusFiatSent:
		default:
			return fmt.Errorf("%w: cooperative cancel is not allowed from %s",
				domain.ErrInvalidStateTransition, order.Status)
		}
		if !order.IsParty(userID) {
			return fmt.Errorf("%w: %q is not a party of order %s", domain.ErrUnauthorizedActor, userID, order.ID)
		}
		if userID == order.BuyerID {
			order.BuyerCooperativeCancel = true
		} else {
			order.SellerCooperativeCancel = true
		}
		if order.CancelInitiatorID == "" {
			order.CancelInitiatorID = userID
		}
		order.UpdatedAt = uc.now()
		return nil
	})
	if err != nil {
		unlock()
		uc.recordRejection(orderID, domain.EventCooperativeCancel, err)
		return nil, err
	}

	if !flagged.BuyerCooperativeCancel || !flagged.SellerCooperativeCancel {
		unlock()
		uc.publish(ctx, domain.DomainEvent{
			Type:       domain.EventTypeCooperativeCancelRequested,
			OrderID:    orderID,
			FromStatus: flagged.Status,
			ToStatus:   flagged.Status,
			Actor:      userID,
			OccurredAt: uc.now(),
		})
		return flagged, nil
	}

	t, err := uc.applyLocked(ctx, orderID, domain.Command{Event: domain.EventCooperativeCancel, ActorID: userID}, nil)
	unlock()
	if err != nil {
		return nil, err
	}
	uc.afterTransition(ctx, t)
	return t.order, nil
}

func (uc *DefaultOrderUsecase) CloseOrder(ctx context.Context, orderID, creatorID string) (*domain.Order, error) {
	return uc.Apply(ctx, orderID, domain.Command{Event: domain.EventClose, ActorID: creatorID})
}

// AdminCancel refunds the seller and ends the order. An open dispute is solved in the same step.
func (uc *DefaultOrderUsecase) AdminCancel(ctx context.Context, orderID, actorID string) (*domain.Order, error) {
	return uc.Apply(ctx, orderID, domain.Command{Event: domain.EventAdminCancel, ActorID: actorID})
}

// AdminComplete settles the escrow and ends the order. Paying the buyer is left to the operator.
func (uc *DefaultOrderUsecase) AdminComplete(ctx context.Context, orderID, actorID string) (*domain.Order, error) {
	return uc.Apply(ctx, orderID, domain.Command{Event: domain.EventAdminComplete, ActorID: actorID})
}
