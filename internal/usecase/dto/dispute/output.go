package disputedto

import "github.com/LavaJover/shvark-p2p-service/internal/domain"

// DisputeOutput carries the pair shown to the solver: the counterparty
// first, then the initiator, whichever side opened the dispute.
type DisputeOutput struct {
	Dispute *domain.Dispute
	Order   *domain.Order
	First   string
	Second  string
}

type GetOrderDisputesOutput struct {
	Disputes []*domain.Dispute
}
