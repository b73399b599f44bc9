package usecase

import (
	"context"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/dispute"
)

func (uc *DefaultDisputeUsecase) GetDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	return uc.disputeRepo.GetDisputeByID(ctx, disputeID)
}

func (uc *DefaultDisputeUsecase) GetOpenDisputeByOrderID(ctx context.Context, orderID string) (*domain.Dispute, error) {
	return uc.disputeRepo.GetOpenDisputeByOrderID(ctx, orderID)
}

func (uc *DefaultDisputeUsecase) GetOrderDisputes(ctx context.Context, orderID string) (*disputedto.GetOrderDisputesOutput, error) {
	disputes, err := uc.disputeRepo.GetDisputesByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &disputedto.GetOrderDisputesOutput{Disputes: disputes}, nil
}
