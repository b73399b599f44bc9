package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const policyKeyPrefix = "p2p:policy:"

// RedisPolicyCache shares resolved policies between service replicas.
type RedisPolicyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPolicyCache(client *redis.Client, ttl time.Duration) *RedisPolicyCache {
	return &RedisPolicyCache{client: client, ttl: ttl}
}

type policyEnvelope struct {
	CommunityID   string                `json:"community_id"`
	FeePercent    decimal.Decimal       `json:"fee_percent"`
	Currencies    []string              `json:"currencies"`
	SolverIDs     []string              `json:"solver_ids"`
	Channels      []domain.OrderChannel `json:"channels"`
	BannedUserIDs []string              `json:"banned_user_ids"`
}

func policyKey(communityID string) string {
	return policyKeyPrefix + communityID
}

func (c *RedisPolicyCache) Get(ctx context.Context, communityID string) (*domain.Policy, error) {
	raw, err := c.client.Get(ctx, policyKey(communityID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decodePolicy(raw)
}

func (c *RedisPolicyCache) Set(ctx context.Context, policy *domain.Policy) error {
	raw, err := encodePolicy(policy)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, policyKey(policy.CommunityID), raw, c.ttl).Err()
}

func (c *RedisPolicyCache) Invalidate(ctx context.Context, communityID string) error {
	return c.client.Del(ctx, policyKey(communityID)).Err()
}

func encodePolicy(p *domain.Policy) ([]byte, error) {
	return json.Marshal(policyEnvelope{
		CommunityID:   p.CommunityID,
		FeePercent:    p.FeePercent,
		Currencies:    p.Currencies,
		SolverIDs:     p.SolverIDs,
		Channels:      p.Channels,
		BannedUserIDs: p.BannedUserIDs,
	})
}

func decodePolicy(raw []byte) (*domain.Policy, error) {
	var env policyEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &domain.Policy{
		CommunityID:   env.CommunityID,
		FeePercent:    env.FeePercent,
		Currencies:    env.Currencies,
		SolverIDs:     env.SolverIDs,
		Channels:      env.Channels,
		BannedUserIDs: env.BannedUserIDs,
	}, nil
}
