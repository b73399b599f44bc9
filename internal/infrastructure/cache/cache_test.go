package cache

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPolicyCacheExpiresAndInvalidates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryPolicyCache(time.Minute)
	c.now = func() time.Time { return now }

	miss, err := c.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Set(ctx, &domain.Policy{CommunityID: "c1", Currencies: []string{"EUR"}}))
	hit, err := c.Get(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, hit)
	hit.Currencies[0] = "USD"

	again, err := c.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR"}, again.Currencies)

	require.NoError(t, c.Invalidate(ctx, "c1"))
	gone, err := c.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, gone)

	require.NoError(t, c.Set(ctx, &domain.Policy{CommunityID: "c1"}))
	now = now.Add(time.Minute)
	expired, err := c.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestPolicyEnvelopeKeepsFeePrecision(t *testing.T) {
	in := &domain.Policy{
		CommunityID:   "c1",
		FeePercent:    decimal.RequireFromString("12.5"),
		Currencies:    []string{"EUR", "VES"},
		SolverIDs:     []string{"s1"},
		Channels:      []domain.OrderChannel{{Name: "@buy", Scope: domain.ScopeMixed}},
		BannedUserIDs: []string{"mallory"},
	}
	raw, err := encodePolicy(in)
	require.NoError(t, err)

	out, err := decodePolicy(raw)
	require.NoError(t, err)
	assert.True(t, in.FeePercent.Equal(out.FeePercent))
	assert.Equal(t, in.Channels, out.Channels)
	assert.Equal(t, in.BannedUserIDs, out.BannedUserIDs)
	assert.Equal(t, "p2p:policy:c1", policyKey("c1"))
}
