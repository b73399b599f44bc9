package response

import (
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

type DisputeResponse struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	InitiatorID string     `json:"initiator_id"`
	SellerID    string     `json:"seller_id"`
	BuyerID     string     `json:"buyer_id"`
	CommunityID string     `json:"community_id,omitempty"`
	SolverID    string     `json:"solver_id,omitempty"`
	Solved      bool       `json:"solved"`
	Ruling      string     `json:"ruling,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	SolvedAt    *time.Time `json:"solved_at,omitempty"`
}

func NewDisputeResponse(d *domain.Dispute) DisputeResponse {
	return DisputeResponse{
		ID:          d.ID,
		OrderID:     d.OrderID,
		InitiatorID: d.InitiatorID,
		SellerID:    d.SellerID,
		BuyerID:     d.BuyerID,
		CommunityID: d.CommunityID,
		SolverID:    d.SolverID,
		Solved:      d.Solved,
		Ruling:      string(d.Ruling),
		CreatedAt:   d.CreatedAt,
		SolvedAt:    d.SolvedAt,
	}
}

// OpenDisputeResponse lists the parties counterparty first, initiator second.
type OpenDisputeResponse struct {
	Dispute DisputeResponse `json:"dispute"`
	Order   OrderResponse   `json:"order"`
	Parties [2]string       `json:"parties"`
}

func NewDisputeList(disputes []*domain.Dispute) []DisputeResponse {
	out := make([]DisputeResponse, len(disputes))
	for i, d := range disputes {
		out[i] = NewDisputeResponse(d)
	}
	return out
}
