package domain

import (
	"context"
	"time"
)

type Ruling string

const (
	RulingReleaseToBuyer Ruling = "RELEASE_TO_BUYER"
	RulingRefundToSeller Ruling = "REFUND_TO_SELLER"
)

func (r Ruling) Valid() bool {
	return r == RulingReleaseToBuyer || r == RulingRefundToSeller
}

// Event maps a ruling onto the order transition that enforces it.
func (r Ruling) Event() OrderEvent {
	if r == RulingReleaseToBuyer {
		return EventResolveRelease
	}
	return EventResolveRefund
}

// Dispute is the escalation record of exactly one order.
type Dispute struct {
	ID          string
	OrderID     string
	InitiatorID string
	SellerID    string
	BuyerID     string
	CommunityID string
	SolverID    string
	Solved      bool
	Ruling      Ruling
	CreatedAt   time.Time
	SolvedAt    *time.Time
}

// Parties returns the pair a solver is shown: the counterparty first, then the
// initiator. The order is the same whichever side opened the dispute.
func (d *Dispute) Parties() (first, second string) {
	if d.InitiatorID == d.SellerID {
		return d.BuyerID, d.SellerID
	}
	return d.SellerID, d.BuyerID
}

// InitiatedBySeller reports whether the seller escalated.
func (d *Dispute) InitiatedBySeller() bool {
	return d.InitiatorID == d.SellerID
}

// Loser returns the party the ruling went against.
func (d *Dispute) Loser() string {
	if d.Ruling == RulingReleaseToBuyer {
		return d.SellerID
	}
	return d.BuyerID
}

type DisputeCounterPolicy string

const (
	// CountLoser increments only the party the ruling went against.
	CountLoser DisputeCounterPolicy = "loser"
	// CountBoth increments both parties of the disputed trade.
	CountBoth DisputeCounterPolicy = "both"
)

// CountedParties returns the users whose dispute counters a solved dispute bumps.
func (p DisputeCounterPolicy) CountedParties(d *Dispute) []string {
	if p == CountBoth {
		return []string{d.SellerID, d.BuyerID}
	}
	return []string{d.Loser()}
}

type DisputeRepository interface {
	GetDisputeByID(ctx context.Context, disputeID string) (*Dispute, error)
	GetOpenDisputeByOrderID(ctx context.Context, orderID string) (*Dispute, error)
	GetDisputesByOrderID(ctx context.Context, orderID string) ([]*Dispute, error)
	SaveDispute(ctx context.Context, dispute *Dispute) error
}
