package response

import (
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/shopspring/decimal"
)

type OrderChannel struct {
	Name  string `json:"name"`
	Scope string `json:"scope"`
}

type CommunityResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CreatorID      string          `json:"creator_id"`
	Group          string          `json:"group,omitempty"`
	OrderChannels  []OrderChannel  `json:"order_channels"`
	FeePercent     decimal.Decimal `json:"fee_percent"`
	Payday         int             `json:"payday,omitempty"`
	DisputeChannel string          `json:"dispute_channel,omitempty"`
	SolverIDs      []string        `json:"solver_ids"`
	BannedUserIDs  []string        `json:"banned_user_ids"`
	Public         bool            `json:"public"`
	Currencies     []string        `json:"currencies"`
	CreatedAt      time.Time       `json:"created_at"`
}

func NewCommunityResponse(c *domain.Community) CommunityResponse {
	channels := make([]OrderChannel, len(c.OrderChannels))
	for i, ch := range c.OrderChannels {
		channels[i] = OrderChannel{Name: ch.Name, Scope: string(ch.Scope)}
	}
	return CommunityResponse{
		ID:             c.ID,
		Name:           c.Name,
		CreatorID:      c.CreatorID,
		Group:          c.Group,
		OrderChannels:  channels,
		FeePercent:     c.FeePercent,
		Payday:         c.Payday,
		DisputeChannel: c.DisputeChannel,
		SolverIDs:      c.SolverIDs,
		BannedUserIDs:  c.BannedUserIDs,
		Public:         c.Public,
		Currencies:     c.Currencies,
		CreatedAt:      c.CreatedAt,
	}
}
