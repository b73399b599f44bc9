package mappers

import (
	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/models"
)

func ToDomainCommunity(model *models.CommunityModel) *domain.Community {
	channels := make([]domain.OrderChannel, len(model.OrderChannels))
	for i, ch := range model.OrderChannels {
		channels[i] = domain.OrderChannel{Name: ch.Name, Scope: domain.ChannelScope(ch.Scope)}
	}
	return &domain.Community{
		ID:             model.ID,
		Name:           model.Name,
		CreatorID:      model.CreatorID,
		Group:          model.GroupName,
		OrderChannels:  channels,
		FeePercent:     model.FeePercent,
		Payday:         model.Payday,
		DisputeChannel: model.DisputeChannel,
		SolverIDs:      model.SolverIDs,
		BannedUserIDs:  model.BannedUserIDs,
		Public:         model.Public,
		Currencies:     model.Currencies,
		CreatedAt:      model.CreatedAt,
	}
}

func ToGORMCommunity(community *domain.Community) *models.CommunityModel {
	channels := make([]models.OrderChannelModel, len(community.OrderChannels))
	for i, ch := range community.OrderChannels {
		channels[i] = models.OrderChannelModel{Name: ch.Name, Scope: string(ch.Scope)}
	}
	return &models.CommunityModel{
		ID:             community.ID,
		Name:           community.Name,
		CreatorID:      community.CreatorID,
		GroupName:      community.Group,
		OrderChannels:  channels,
		FeePercent:     community.FeePercent,
		Payday:         community.Payday,
		DisputeChannel: community.DisputeChannel,
		SolverIDs:      community.SolverIDs,
		BannedUserIDs:  community.BannedUserIDs,
		Public:         community.Public,
		Currencies:     community.Currencies,
		CreatedAt:      community.CreatedAt,
	}
}
