package usecase

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

// DefaultPolicyResolver answers CommunityPolicy lookups. The empty community id
// resolves to the marketplace defaults; community policies are read through cache.
type DefaultPolicyResolver struct {
	communityRepo domain.CommunityRepository
	cache         domain.PolicyCache
	global        *domain.Policy
	logger        *slog.Logger
}

func NewDefaultPolicyResolver(
	communityRepo domain.CommunityRepository,
	cache domain.PolicyCache,
	global *domain.Policy,
	logger *slog.Logger,
) *DefaultPolicyResolver {
	if logger == nil {
		logger = slog.Default()
	}
	if global == nil {
		global = &domain.Policy{}
	}
	global.CommunityID = ""
	return &DefaultPolicyResolver{
		communityRepo: communityRepo,
		cache:         cache,
		global:        global,
		logger:        logger.With("component", "policy_resolver"),
	}
}

func (r *DefaultPolicyResolver) Resolve(ctx context.Context, communityID string) (*domain.Policy, error) {
	if communityID == "" {
		global := *r.global
		return &global, nil
	}

	if r.cache != nil {
		policy, err := r.cache.Get(ctx, communityID)
		if err != nil {
			r.logger.Warn("policy cache read failed", "community_id", communityID, "error", err)
		} else if policy != nil {
			return policy, nil
		}
	}

	community, err := r.communityRepo.GetCommunityByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	policy := domain.PolicyOf(community)
	if r.cache != nil {
		if err := r.cache.Set(ctx, policy); err != nil {
			r.logger.Warn("policy cache write failed", "community_id", communityID, "error", err)
		}
	}
	return policy, nil
}

// Invalidate drops the cached policy of a community after it changed.
func (r *DefaultPolicyResolver) Invalidate(ctx context.Context, communityID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, communityID); err != nil {
		r.logger.Error("policy cache invalidation failed", "community_id", communityID, "error", err)
	}
}
