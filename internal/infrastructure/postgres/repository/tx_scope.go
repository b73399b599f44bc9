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

// txScope runs dispute and user writes on the transaction of an order operation.
type txScope struct {
	tx *gorm.DB
}

func (s *txScope) CreateDispute(ctx context.Context, dispute *domain.Dispute) error {
	return createDispute(s.tx.WithContext(ctx), dispute)
}

func (s *txScope) SaveDispute(ctx context.Context, dispute *domain.Dispute) error {
	return saveDispute(s.tx.WithContext(ctx), dispute)
}

func (s *txScope) GetOpenDisputeByOrderID(ctx context.Context, orderID string) (*domain.Dispute, error) {
	return getOpenDispute(s.tx.WithContext(ctx), orderID)
}

func (s *txScope) IncrementUserDisputes(ctx context.Context, userID string) error {
	return bumpUser(s.tx.WithContext(ctx), userID, map[string]any{
		"disputes": gorm.Expr("disputes + ?", 1),
	}, &models.UserModel{ID: userID, Disputes: 1})
}

func (s *txScope) RecordUserTrade(ctx context.Context, userID string, volume int64) error {
	return bumpUser(s.tx.WithContext(ctx), userID, map[string]any{
		"trades_completed": gorm.Expr("trades_completed + ?", 1),
		"volume_traded":    gorm.Expr("volume_traded + ?", volume),
	}, &models.UserModel{ID: userID, TradesCompleted: 1, VolumeTraded: volume})
}

// bumpUser applies counter increments, creating the user row on first sight.
func bumpUser(db *gorm.DB, userID string, updates map[string]any, seed *models.UserModel) error {
	if userID == "" {
		return nil
	}
	res := db.Model(&models.UserModel{}).Where("id = ?", userID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return db.Create(seed).Error
}

func createDispute(db *gorm.DB, dispute *domain.Dispute) error {
	disputeModel := mappers.ToGORMDispute(dispute)
	if err := db.Omit(clause.Associations).Create(disputeModel).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order %s", domain.ErrDisputeAlreadyOpen, dispute.OrderID)
		}
		return err
	}
	dispute.CreatedAt = disputeModel.CreatedAt
	return nil
}

func saveDispute(db *gorm.DB, dispute *domain.Dispute) error {
	res := db.Model(&models.DisputeModel{}).
		Where("id = ?", dispute.ID).
		Updates(map[string]any{
			"solver_id": dispute.SolverID,
			"solved":    dispute.Solved,
			"ruling":    string(dispute.Ruling),
			"solved_at": dispute.SolvedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDisputeNotFound, dispute.ID)
	}
	return nil
}

func getOpenDispute(db *gorm.DB, orderID string) (*domain.Dispute, error) {
	var disputeModel models.DisputeModel
	if err := db.Where("order_id = ? AND solved = ?", orderID, false).
		First(&disputeModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no open dispute for order %s", domain.ErrDisputeNotFound, orderID)
		}
		return nil, err
	}
	return mappers.ToDomainDispute(&disputeModel), nil
}
