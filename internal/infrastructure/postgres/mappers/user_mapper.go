package mappers

import (
	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/models"
)

func ToDomainUser(model *models.UserModel) *domain.User {
	return &domain.User{
		ID:               model.ID,
		Username:         model.Username,
		Language:         model.Language,
		TradesCompleted:  model.TradesCompleted,
		VolumeTraded:     model.VolumeTraded,
		Admin:            model.Admin,
		Banned:           model.Banned,
		ShowUsername:     model.ShowUsername,
		ShowVolumeTraded: model.ShowVolumeTraded,
		Disputes:         model.Disputes,
		CreatedAt:        model.CreatedAt,
	}
}

func ToGORMUser(user *domain.User) *models.UserModel {
	return &models.UserModel{
		ID:               user.ID,
		Username:         user.Username,
		Language:         user.Language,
		TradesCompleted:  user.TradesCompleted,
		VolumeTraded:     user.VolumeTraded,
		Admin:            user.Admin,
		Banned:           user.Banned,
		ShowUsername:     user.ShowUsername,
		ShowVolumeTraded: user.ShowVolumeTraded,
		Disputes:         user.Disputes,
		CreatedAt:        user.CreatedAt,
	}
}
