package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

type memoryEntry struct {
	policy    *domain.Policy
	expiresAt time.Time
}

// MemoryPolicyCache is the single-process policy cache used when Redis is not configured.
type MemoryPolicyCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryPolicyCache(ttl time.Duration) *MemoryPolicyCache {
	return &MemoryPolicyCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryPolicyCache) Get(_ context.Context, communityID string) (*domain.Policy, error) {
	c.mu.RLock()
	entry, ok := c.entries[communityID]
	c.mu.RUnlock()
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, nil
	}
	return clonePolicy(entry.policy), nil
}

func (c *MemoryPolicyCache) Set(_ context.Context, policy *domain.Policy) error {
	c.mu.Lock()
	c.entries[policy.CommunityID] = memoryEntry{policy: clonePolicy(policy), expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryPolicyCache) Invalidate(_ context.Context, communityID string) error {
	c.mu.Lock()
	delete(c.entries, communityID)
	c.mu.Unlock()
	return nil
}

// callers may mutate what they get back
func clonePolicy(p *domain.Policy) *domain.Policy {
	clone := *p
	clone.Currencies = slices.Clone(p.Currencies)
	clone.SolverIDs = slices.Clone(p.SolverIDs)
	clone.Channels = slices.Clone(p.Channels)
	clone.BannedUserIDs = slices.Clone(p.BannedUserIDs)
	return &clone
}
