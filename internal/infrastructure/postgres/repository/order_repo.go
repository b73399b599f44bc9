package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultOrderRepository struct {
	DB *gorm.DB
}

func NewDefaultOrderRepository(db *gorm.DB) *DefaultOrderRepository {
	return &DefaultOrderRepository{DB: db}
}

func (r *DefaultOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	orderModel := mappers.ToGORMOrder(order)
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(orderModel).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", domain.ErrDuplicateHash, err)
		}
		return err
	}
	order.CreatedAt = orderModel.CreatedAt
	order.UpdatedAt = orderModel.UpdatedAt
	return nil
}

func (r *DefaultOrderRepository) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order models.OrderModel
	if err := r.DB.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
		}
		return nil, err
	}

	return mappers.ToDomainOrder(&order), nil
}

func (r *DefaultOrderRepository) GetOrderByHash(ctx context.Context, hash string) (*domain.Order, error) {
	var order models.OrderModel
	if err := r.DB.WithContext(ctx).First(&order, "hash = ?", hash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: hash %s", domain.ErrOrderNotFound, hash)
		}
		return nil, err
	}

	return mappers.ToDomainOrder(&order), nil
}

func (r *DefaultOrderRepository) FindOrdersByStatus(ctx context.Context, statuses ...domain.OrderStatus) ([]*domain.Order, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	var orderModels []models.OrderModel
	if err := r.DB.WithContext(ctx).
		Where("status IN ?", values).
		Order("created_at ASC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = mappers.ToDomainOrder(&orderModels[i])
	}
	return orders, nil
}

func (r *DefaultOrderRepository) MarkAdminWarned(ctx context.Context, orderID string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND admin_warned = ?", orderID, false).
		Update("admin_warned", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ProcessOrderCriticalOperation loads the order under a row lock, lets mutate
// change it (payment side effects included) and writes it back with a
// compare-and-swap on the status mutate observed. Any error rolls back.
func (r *DefaultOrderRepository) ProcessOrderCriticalOperation(
	ctx context.Context,
	orderID string,
	mutate domain.OrderMutation,
) (*domain.Order, error) {
	var result *domain.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orderModel models.OrderModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&orderModel, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
			}
			return err
		}

		order := mappers.ToDomainOrder(&orderModel)
		observed := order.Status

		if err := mutate(ctx, order, &txScope{tx: tx}); err != nil {
			return err
		}

		res := tx.Model(&models.OrderModel{}).
			Where("id = ? AND status = ?", orderID, string(observed)).
			Updates(mappers.OrderUpdates(order))
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				return fmt.Errorf("%w: %v", domain.ErrDuplicateHash, res.Error)
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConcurrentModification
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
