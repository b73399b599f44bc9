package mappers

import (
	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/models"
)

func ToDomainDispute(model *models.DisputeModel) *domain.Dispute {
	return &domain.Dispute{
		ID:          model.ID,
		OrderID:     model.OrderID,
		InitiatorID: model.InitiatorID,
		SellerID:    model.SellerID,
		BuyerID:     model.BuyerID,
		CommunityID: model.CommunityID,
		SolverID:    model.SolverID,
		Solved:      model.Solved,
		Ruling:      domain.Ruling(model.Ruling),
		CreatedAt:   model.CreatedAt,
		SolvedAt:    model.SolvedAt,
	}
}

func ToGORMDispute(dispute *domain.Dispute) *models.DisputeModel {
	return &models.DisputeModel{
		ID:          dispute.ID,
		OrderID:     dispute.OrderID,
		InitiatorID: dispute.InitiatorID,
		SellerID:    dispute.SellerID,
		BuyerID:     dispute.BuyerID,
		CommunityID: dispute.CommunityID,
		SolverID:    dispute.SolverID,
		Solved:      dispute.Solved,
		Ruling:      string(dispute.Ruling),
		CreatedAt:   dispute.CreatedAt,
		SolvedAt:    dispute.SolvedAt,
	}
}
