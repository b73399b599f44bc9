package disputedto

import "github.com/LavaJover/shvark-p2p-service/internal/domain"

type OpenDisputeInput struct {
	OrderID     string
	InitiatorID string
}

type ResolveDisputeInput struct {
	DisputeID string
	Ruling    domain.Ruling
	ActorID   string
}
