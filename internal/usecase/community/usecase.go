package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/shopspring/decimal"
)

type CommunityUsecase interface {
	CreateCommunity(ctx context.Context, params domain.NewCommunityParams) (*domain.Community, error)
	UpdateFee(ctx context.Context, communityID, actorID string, feePercent decimal.Decimal) (*domain.Community, error)
	AddSolver(ctx context.Context, communityID, actorID, solverID string) (*domain.Community, error)
	BanUser(ctx context.Context, communityID, actorID, userID string) (*domain.Community, error)
	UnbanUser(ctx context.Context, communityID, actorID, userID string) (*domain.Community, error)
	GetCommunity(ctx context.Context, communityID string) (*domain.Community, error)
	ListPublicCommunities(ctx context.Context) ([]*domain.Community, error)
}

type DefaultCommunityUsecase struct {
	communityRepo domain.CommunityRepository
	resolver      *DefaultPolicyResolver
	adminIDs      []string
	logger        *slog.Logger
}

func NewDefaultCommunityUsecase(
	communityRepo domain.CommunityRepository,
	resolver *DefaultPolicyResolver,
	adminIDs []string,
	logger *slog.Logger,
) *DefaultCommunityUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultCommunityUsecase{
		communityRepo: communityRepo,
		resolver:      resolver,
		adminIDs:      adminIDs,
		logger:        logger.With("component", "community_usecase"),
	}
}

func (uc *DefaultCommunityUsecase) CreateCommunity(ctx context.Context, params domain.NewCommunityParams) (*domain.Community, error) {
	community, err := domain.NewCommunity(params)
	if err != nil {
		return nil, err
	}
	if err := uc.communityRepo.CreateCommunity(ctx, community); err != nil {
		return nil, err
	}
	uc.logger.Info("community created", "community_id", community.ID, "creator_id", community.CreatorID)
	return community, nil
}

func (uc *DefaultCommunityUsecase) UpdateFee(ctx context.Context, communityID, actorID string, feePercent decimal.Decimal) (*domain.Community, error) {
	return uc.mutate(ctx, communityID, actorID, func(c *domain.Community) {
		c.FeePercent = feePercent
	})
}

func (uc *DefaultCommunityUsecase) AddSolver(ctx context.Context, communityID, actorID, solverID string) (*domain.Community, error) {
	return uc.mutate(ctx, communityID, actorID, func(c *domain.Community) {
		if solverID != "" && !c.HasSolver(solverID) {
			c.SolverIDs = append(c.SolverIDs, solverID)
		}
	})
}

func (uc *DefaultCommunityUsecase) BanUser(ctx context.Context, communityID, actorID, userID string) (*domain.Community, error) {
	return uc.mutate(ctx, communityID, actorID, func(c *domain.Community) {
		if userID != "" && !c.IsBanned(userID) {
			c.BannedUserIDs = append(c.BannedUserIDs, userID)
		}
	})
}

func (uc *DefaultCommunityUsecase) UnbanUser(ctx context.Context, communityID, actorID, userID string) (*domain.Community, error) {
	return uc.mutate(ctx, communityID, actorID, func(c *domain.Community) {
		c.BannedUserIDs = slices.DeleteFunc(c.BannedUserIDs, func(id string) bool { return id == userID })
	})
}

func (uc *DefaultCommunityUsecase) GetCommunity(ctx context.Context, communityID string) (*domain.Community, error) {
	return uc.communityRepo.GetCommunityByID(ctx, communityID)
}

func (uc *DefaultCommunityUsecase) ListPublicCommunities(ctx context.Context) ([]*domain.Community, error) {
	return uc.communityRepo.ListPublicCommunities(ctx)
}

// mutate applies change as the community creator or an admin, validates the
// result and invalidates the cached policy. Orders already created keep the
// fee they snapshotted.
func (uc *DefaultCommunityUsecase) mutate(ctx context.Context, communityID, actorID string, change func(*domain.Community)) (*domain.Community, error) {
	community, err := uc.communityRepo.GetCommunityByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if actorID != community.CreatorID && !slices.Contains(uc.adminIDs, actorID) {
		return nil, fmt.Errorf("%w: %q may not manage community %s", domain.ErrUnauthorizedActor, actorID, communityID)
	}

	change(community)
	if err := community.Validate(); err != nil {
		return nil, err
	}
	if err := uc.communityRepo.SaveCommunity(ctx, community); err != nil {
		return nil, err
	}
	uc.resolver.Invalidate(ctx, communityID)
	uc.logger.Info("community updated", "community_id", communityID, "actor_id", actorID)
	return community, nil
}
