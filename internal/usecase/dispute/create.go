package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/dispute"
	"github.com/jaevor/go-nanoid"
)

// OpenDispute escalates an ACTIVE or FIAT_SENT order. The dispute row and the
// party's dispute flag are written in the transaction that moves the order to DISPUTE.
func (uc *DefaultDisputeUsecase) OpenDispute(ctx context.Context, input *disputedto.OpenDisputeInput) (*disputedto.DisputeOutput, error) {
	if err := uc.ensureNoOpenDispute(ctx, input.OrderID); err != nil {
		return nil, err
	}

	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}

	var dispute *domain.Dispute
	order, err := uc.orders.ApplyWith(ctx, input.OrderID, domain.Command{
		Event:   domain.EventDispute,
		ActorID: input.InitiatorID,
	}, func(ctx context.Context, o *domain.Order, tx domain.TxScope) error {
		dispute = &domain.Dispute{
			ID:          idGenerator(),
			OrderID:     o.ID,
			InitiatorID: input.InitiatorID,
			SellerID:    o.SellerID,
			BuyerID:     o.BuyerID,
			CommunityID: o.CommunityID,
			CreatedAt:   uc.now(),
		}
		return tx.CreateDispute(ctx, dispute)
	})
	if err != nil {
		// A concurrent open won the race and already moved the order.
		if errors.Is(err, domain.ErrInvalidStateTransition) {
			if openErr := uc.ensureNoOpenDispute(ctx, input.OrderID); openErr != nil {
				return nil, openErr
			}
		}
		return nil, err
	}

	initiator := "buyer"
	if dispute.InitiatedBySeller() {
		initiator = "seller"
	}
	uc.metrics.RecordDisputeOpened(initiator)
	uc.logger.Info("dispute opened", "dispute_id", dispute.ID, "order_id", order.ID, "initiator", initiator)
	uc.publish(ctx, domain.EventTypeDisputeOpened, dispute, input.InitiatorID)

	first, second := dispute.Parties()
	return &disputedto.DisputeOutput{Dispute: dispute, Order: order, First: first, Second: second}, nil
}

func (uc *DefaultDisputeUsecase) ensureNoOpenDispute(ctx context.Context, orderID string) error {
	open, err := uc.disputeRepo.GetOpenDisputeByOrderID(ctx, orderID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s on order %s", domain.ErrDisputeAlreadyOpen, open.ID, orderID)
	case errors.Is(err, domain.ErrDisputeNotFound):
		return nil
	}
	return err
}
