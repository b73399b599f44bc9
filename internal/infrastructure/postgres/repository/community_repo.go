package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DefaultCommunityRepository struct {
	DB *gorm.DB
}

func NewDefaultCommunityRepository(db *gorm.DB) *DefaultCommunityRepository {
	return &DefaultCommunityRepository{DB: db}
}

func (r *DefaultCommunityRepository) CreateCommunity(ctx context.Context, community *domain.Community) error {
	if community.ID == "" {
		community.ID = uuid.New().String()
	}
	model := mappers.ToGORMCommunity(community)
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	community.CreatedAt = model.CreatedAt
	return nil
}

func (r *DefaultCommunityRepository) GetCommunityByID(ctx context.Context, communityID string) (*domain.Community, error) {
	var model models.CommunityModel
	if err := r.DB.WithContext(ctx).First(&model, "id = ?", communityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCommunityNotFound, communityID)
		}
		return nil, err
	}
	return mappers.ToDomainCommunity(&model), nil
}

func (r *DefaultCommunityRepository) SaveCommunity(ctx context.Context, community *domain.Community) error {
	model := mappers.ToGORMCommunity(community)
	res := r.DB.WithContext(ctx).
		Model(&models.CommunityModel{}).
		Where("id = ?", community.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrCommunityNotFound, community.ID)
	}
	return nil
}

func (r *DefaultCommunityRepository) ListPublicCommunities(ctx context.Context) ([]*domain.Community, error) {
	var communityModels []models.CommunityModel
	if err := r.DB.WithContext(ctx).
		Where("public = ?", true).
		Order("name ASC").
		Find(&communityModels).Error; err != nil {
		return nil, err
	}

	communities := make([]*domain.Community, len(communityModels))
	for i := range communityModels {
		communities[i] = mappers.ToDomainCommunity(&communityModels[i])
	}
	return communities, nil
}
