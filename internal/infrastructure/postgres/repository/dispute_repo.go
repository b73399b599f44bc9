package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultDisputeRepository struct {
	db *gorm.DB
}

func NewDefaultDisputeRepository(db *gorm.DB) *DefaultDisputeRepository {
	return &DefaultDisputeRepository{db: db}
}

func (r *DefaultDisputeRepository) GetDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	var disputeModel models.DisputeModel
	if err := r.db.WithContext(ctx).Where("id = ?", disputeID).First(&disputeModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDisputeNotFound, disputeID)
		}
		return nil, err
	}

	return mappers.ToDomainDispute(&disputeModel), nil
}

func (r *DefaultDisputeRepository) GetOpenDisputeByOrderID(ctx context.Context, orderID string) (*domain.Dispute, error) {
	return getOpenDispute(r.db.WithContext(ctx), orderID)
}

func (r *DefaultDisputeRepository) GetDisputesByOrderID(ctx context.Context, orderID string) ([]*domain.Dispute, error) {
	var disputeModels []models.DisputeModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&disputeModels).Error; err != nil {
		return nil, err
	}

	disputes := make([]*domain.Dispute, len(disputeModels))
	for i := range disputeModels {
		disputes[i] = mappers.ToDomainDispute(&disputeModels[i])
	}
	return disputes, nil
}

func (r *DefaultDisputeRepository) SaveDispute(ctx context.Context, dispute *domain.Dispute) error {
	return saveDispute(r.db.WithContext(ctx), dispute)
}
