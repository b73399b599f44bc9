package usecase

import (
	"context"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	orderdto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/order"
)

func (uc *DefaultOrderUsecase) AddBuyerInvoice(ctx context.Context, orderID, buyerID, invoice string) (*domain.Order, error) {
	return uc.Apply(ctx, orderID, domain.Command{
		Event:        domain.EventBuyerInvoice,
		ActorID:      buyerID,
		BuyerInvoice: invoice,
	})
}

// TakeOrder matches a counterparty. Taking a buy order returns the hold
// invoice the taker, now the seller, has to pay.
func (uc *DefaultOrderUsecase) TakeOrder(ctx context.Context, input *orderdto.TakeOrderInput) (*orderdto.OrderOutput, error) {
	current, err := uc.OrderRepo.GetOrderByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	policy, err := uc.Policy.Resolve(ctx, current.CommunityID)
	if err != nil {
		return nil, err
	}
	if err := uc.checkNotBanned(ctx, input.TakerID, policy); err != nil {
		return nil, err
	}

	order, err := uc.Apply(ctx, input.OrderID, domain.Command{
		Event:        domain.EventTake,
		ActorID:      input.TakerID,
		BuyerInvoice: input.Invoice,
		FiatAmount:   input.FiatAmount,
	})
	if err != nil {
		return nil, err
	}

	out := &orderdto.OrderOutput{Order: order}
	if order.Status == domain.StatusWaitingPayment {
		uc.subscribe(order)
		out.PaymentRequest = order.HoldInvoice
	}
	return out, nil
}

func (uc *DefaultOrderUsecase) ConfirmFiatSent(ctx context.Context, orderID, buyerID string) (*domain.Order, error) {
	return uc.Apply(ctx, orderID, domain.Command{Event: domain.EventFiatSent, ActorID: buyerID})
}
