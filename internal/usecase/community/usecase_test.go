package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/cache"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/testdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommunityUsecase(t *testing.T) (*DefaultCommunityUsecase, *DefaultPolicyResolver) {
	t.Helper()
	repo := repository.NewDefaultCommunityRepository(testdb.New(t))
	resolver := NewDefaultPolicyResolver(repo, cache.NewMemoryPolicyCache(time.Hour), &domain.Policy{
		Currencies: []string{"USD"},
		SolverIDs:  []string{"global-solver"},
	}, nil)
	return NewDefaultCommunityUsecase(repo, resolver, []string{"admin"}, nil), resolver
}

func validParams() domain.NewCommunityParams {
	return domain.NewCommunityParams{
		Name:          "Caracas Traders",
		CreatorID:     "carol",
		OrderChannels: []domain.OrderChannel{{Name: "@ccs_p2p", Scope: domain.ScopeMixed}},
		FeePercent:    decimal.NewFromInt(20),
		SolverIDs:     []string{"s1"},
		Currencies:    []string{"ves", "usd"},
		Public:        true,
	}
}

func TestResolveGlobalAndUnknownCommunity(t *testing.T) {
	ctx := context.Background()
	_, resolver := newCommunityUsecase(t)

	global, err := resolver.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, global.CommunityID)
	assert.True(t, global.HasSolver("global-solver"))

	_, err = resolver.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCommunityNotFound)
}

func TestCommunityMutationsInvalidatePolicy(t *testing.T) {
	ctx := context.Background()
	uc, resolver := newCommunityUsecase(t)

	community, err := uc.CreateCommunity(ctx, validParams())
	require.NoError(t, err)
	require.NotEmpty(t, community.ID)
	assert.Equal(t, []string{"VES", "USD"}, community.Currencies)

	policy, err := resolver.Resolve(ctx, community.ID)
	require.NoError(t, err)
	assert.True(t, policy.FeePercent.Equal(decimal.NewFromInt(20)))
	assert.True(t, policy.AllowsCurrency("ves"))

	_, err = uc.UpdateFee(ctx, community.ID, "carol", decimal.NewFromInt(35))
	require.NoError(t, err)
	_, err = uc.AddSolver(ctx, community.ID, "admin", "s2")
	require.NoError(t, err)
	_, err = uc.BanUser(ctx, community.ID, "carol", "mallory")
	require.NoError(t, err)

	policy, err = resolver.Resolve(ctx, community.ID)
	require.NoError(t, err)
	assert.True(t, policy.FeePercent.Equal(decimal.NewFromInt(35)))
	assert.True(t, policy.HasSolver("s2"))
	assert.True(t, policy.IsBanned("mallory"))

	_, err = uc.UnbanUser(ctx, community.ID, "carol", "mallory")
	require.NoError(t, err)
	policy, err = resolver.Resolve(ctx, community.ID)
	require.NoError(t, err)
	assert.False(t, policy.IsBanned("mallory"))
}

func TestCommunityMutationRules(t *testing.T) {
	ctx := context.Background()
	uc, _ := newCommunityUsecase(t)

	community, err := uc.CreateCommunity(ctx, validParams())
	require.NoError(t, err)

	_, err = uc.UpdateFee(ctx, community.ID, "mallory", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrUnauthorizedActor)

	_, err = uc.UpdateFee(ctx, community.ID, "carol", decimal.NewFromInt(101))
	assert.ErrorIs(t, err, domain.ErrInvalidCommunity)

	stored, err := uc.GetCommunity(ctx, community.ID)
	require.NoError(t, err)
	assert.True(t, stored.FeePercent.Equal(decimal.NewFromInt(20)))

	params := validParams()
	params.SolverIDs = nil
	_, err = uc.CreateCommunity(ctx, params)
	assert.ErrorIs(t, err, domain.ErrInvalidCommunity)

	public, err := uc.ListPublicCommunities(ctx)
	require.NoError(t, err)
	assert.Len(t, public, 1)
}
