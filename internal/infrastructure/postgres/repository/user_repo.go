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

type DefaultUserRepository struct {
	DB *gorm.DB
}

func NewDefaultUserRepository(db *gorm.DB) *DefaultUserRepository {
	return &DefaultUserRepository{DB: db}
}

func (r *DefaultUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var model models.UserModel
	if err := r.DB.WithContext(ctx).First(&model, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
		}
		return nil, err
	}
	return mappers.ToDomainUser(&model), nil
}

func (r *DefaultUserRepository) EnsureUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	existing, err := r.GetUserByID(ctx, user.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	model := mappers.ToGORMUser(user)
	if err := r.DB.WithContext(ctx).Create(model).Error; err != nil {
		// Lost a race with another first interaction of the same user.
		if isUniqueViolation(err) {
			return r.GetUserByID(ctx, user.ID)
		}
		return nil, err
	}
	return mappers.ToDomainUser(model), nil
}

func (r *DefaultUserRepository) SaveUser(ctx context.Context, user *domain.User) error {
	model := mappers.ToGORMUser(user)
	res := r.DB.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", user.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, user.ID)
	}
	return nil
}
