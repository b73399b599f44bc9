package repository

import (
	"context"
	"testing"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/testdb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultCommunityRepository(testdb.New(t))

	community, err := domain.NewCommunity(domain.NewCommunityParams{
		Name:          "Bazaar",
		CreatorID:     "creator",
		OrderChannels: []domain.OrderChannel{{Name: "@buy", Scope: domain.ScopeBuy}, {Name: "@sell", Scope: domain.ScopeSell}},
		FeePercent:    decimal.NewFromInt(25),
		SolverIDs:     []string{"solver"},
		Currencies:    []string{"usd"},
		Public:        true,
	})
	require.NoError(t, err)
	require.NoError(t, repo.CreateCommunity(ctx, community))
	require.NotEmpty(t, community.ID)

	loaded, err := repo.GetCommunityByID(ctx, community.ID)
	require.NoError(t, err)
	assert.Equal(t, community.OrderChannels, loaded.OrderChannels)
	assert.Equal(t, []string{"USD"}, loaded.Currencies)
	assert.True(t, loaded.FeePercent.Equal(decimal.NewFromInt(25)))

	loaded.BannedUserIDs = []string{"troll"}
	loaded.Public = false
	require.NoError(t, repo.SaveCommunity(ctx, loaded))

	again, err := repo.GetCommunityByID(ctx, community.ID)
	require.NoError(t, err)
	assert.True(t, again.IsBanned("troll"))

	public, err := repo.ListPublicCommunities(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)

	_, err = repo.GetCommunityByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrCommunityNotFound)
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewDefaultUserRepository(testdb.New(t))

	first, err := repo.EnsureUser(ctx, &domain.User{ID: "42", Username: "bob", Language: "es"})
	require.NoError(t, err)
	second, err := repo.EnsureUser(ctx, &domain.User{ID: "42", Username: "other"})
	require.NoError(t, err)

	assert.Equal(t, "bob", first.Username)
	assert.Equal(t, "bob", second.Username)

	second.Banned = true
	require.NoError(t, repo.SaveUser(ctx, second))
	stored, err := repo.GetUserByID(ctx, "42")
	require.NoError(t, err)
	assert.True(t, stored.Banned)
}
