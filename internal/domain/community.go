package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ChannelScope string

const (
	ScopeBuy   ChannelScope = "buy"
	ScopeSell  ChannelScope = "sell"
	ScopeMixed ChannelScope = "mixed"
)

type OrderChannel struct {
	Name  string
	Scope ChannelScope
}

const (
	maxOrderChannels = 2
	maxCurrencies    = 9
)

// Community is a marketplace tenant with its own fee, currencies and solvers.
type Community struct {
	ID             string
	Name           string
	CreatorID      string
	Group          string
	OrderChannels  []OrderChannel
	FeePercent     decimal.Decimal
	Payday         int
	DisputeChannel string
	SolverIDs      []string
	BannedUserIDs  []string
	Public         bool
	Currencies     []string
	CreatedAt      time.Time
}

type NewCommunityParams struct {
	Name           string
	CreatorID      string
	Group          string
	OrderChannels  []OrderChannel
	FeePercent     decimal.Decimal
	Payday         int
	DisputeChannel string
	SolverIDs      []string
	Public         bool
	Currencies     []string
}

// NewCommunity builds a community, rejecting any that breaks its invariants.
func NewCommunity(p NewCommunityParams) (*Community, error) {
	c := &Community{
		Name:           strings.TrimSpace(p.Name),
		CreatorID:      p.CreatorID,
		Group:          p.Group,
		OrderChannels:  slices.Clone(p.OrderChannels),
		FeePercent:     p.FeePercent,
		Payday:         p.Payday,
		DisputeChannel: p.DisputeChannel,
		SolverIDs:      dedupe(p.SolverIDs),
		Public:         p.Public,
		Currencies:     normalizeCurrencies(p.Currencies),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Community) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCommunity)
	}
	if c.CreatorID == "" {
		return fmt.Errorf("%w: creator is required", ErrInvalidCommunity)
	}
	if c.FeePercent.IsNegative() || c.FeePercent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: fee must be within 0..100", ErrInvalidCommunity)
	}
	if c.Payday < 0 || c.Payday > 31 {
		return fmt.Errorf("%w: payday must be within 1..31", ErrInvalidCommunity)
	}
	if len(c.OrderChannels) < 1 || len(c.OrderChannels) > maxOrderChannels {
		return fmt.Errorf("%w: 1 or 2 order channels required, got %d", ErrInvalidCommunity, len(c.OrderChannels))
	}
	for _, ch := range c.OrderChannels {
		if strings.TrimSpace(ch.Name) == "" {
			return fmt.Errorf("%w: channel name is required", ErrInvalidCommunity)
		}
		switch ch.Scope {
		case ScopeBuy, ScopeSell, ScopeMixed:
		default:
			return fmt.Errorf("%w: unknown channel scope %q", ErrInvalidCommunity, ch.Scope)
		}
	}
	if len(c.SolverIDs) < 1 {
		return fmt.Errorf("%w: at least one solver is required", ErrInvalidCommunity)
	}
	if len(c.Currencies) < 1 || len(c.Currencies) > maxCurrencies {
		return fmt.Errorf("%w: 1 to 9 currencies required, got %d", ErrInvalidCommunity, len(c.Currencies))
	}
	for _, code := range c.Currencies {
		if len(code) != 3 {
			return fmt.Errorf("%w: bad currency code %q", ErrInvalidCommunity, code)
		}
	}
	return nil
}

func (c *Community) HasSolver(userID string) bool {
	return slices.Contains(c.SolverIDs, userID)
}

func (c *Community) IsBanned(userID string) bool {
	return slices.Contains(c.BannedUserIDs, userID)
}

func (c *Community) Clone() *Community {
	clone := *c
	clone.OrderChannels = slices.Clone(c.OrderChannels)
	clone.SolverIDs = slices.Clone(c.SolverIDs)
	clone.BannedUserIDs = slices.Clone(c.BannedUserIDs)
	clone.Currencies = slices.Clone(c.Currencies)
	return &clone
}

// Policy is the resolved rule set an order is created under.
type Policy struct {
	// CommunityID is empty for the global marketplace defaults.
	CommunityID   string
	FeePercent    decimal.Decimal
	Currencies    []string
	SolverIDs     []string
	Channels      []OrderChannel
	BannedUserIDs []string
}

// PolicyOf snapshots the rules a community imposes on its orders.
func PolicyOf(c *Community) *Policy {
	return &Policy{
		CommunityID:   c.ID,
		FeePercent:    c.FeePercent,
		Currencies:    slices.Clone(c.Currencies),
		SolverIDs:     slices.Clone(c.SolverIDs),
		Channels:      slices.Clone(c.OrderChannels),
		BannedUserIDs: slices.Clone(c.BannedUserIDs),
	}
}

func (p *Policy) AllowsCurrency(code string) bool {
	if len(p.Currencies) == 0 {
		return true
	}
	return slices.Contains(p.Currencies, strings.ToUpper(code))
}

func (p *Policy) HasSolver(userID string) bool {
	return slices.Contains(p.SolverIDs, userID)
}

func (p *Policy) IsBanned(userID string) bool {
	return slices.Contains(p.BannedUserIDs, userID)
}

type CommunityPolicy interface {
	Resolve(ctx context.Context, communityID string) (*Policy, error)
}

// PolicyCache holds resolved community policies between mutations.
// Get reports a miss with a nil policy and a nil error.
type PolicyCache interface {
	Get(ctx context.Context, communityID string) (*Policy, error)
	Set(ctx context.Context, policy *Policy) error
	Invalidate(ctx context.Context, communityID string) error
}

type CommunityRepository interface {
	CreateCommunity(ctx context.Context, community *Community) error
	GetCommunityByID(ctx context.Context, communityID string) (*Community, error)
	SaveCommunity(ctx context.Context, community *Community) error
	ListPublicCommunities(ctx context.Context) ([]*Community, error)
}

func normalizeCurrencies(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || slices.Contains(out, code) {
			continue
		}
		out = append(out, code)
	}
	return out
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
