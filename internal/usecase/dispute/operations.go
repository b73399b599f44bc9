package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/dispute"
)

func (uc *DefaultDisputeUsecase) AssignSolver(ctx context.Context, disputeID, solverID string) (*domain.Dispute, error) {
	dispute, err := uc.disputeRepo.GetDisputeByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Solved {
		return nil, fmt.Errorf("%w: %s", domain.ErrDisputeAlreadySolved, disputeID)
	}
	ok, err := uc.canSolve(ctx, solverID, dispute.CommunityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q for dispute %s", domain.ErrSolverNotAuthorized, solverID, disputeID)
	}

	dispute.SolverID = solverID
	if err := uc.disputeRepo.SaveDispute(ctx, dispute); err != nil {
		return nil, err
	}
	uc.logger.Info("dispute assigned", "dispute_id", disputeID, "solver_id", solverID)
	uc.publish(ctx, domain.EventTypeDisputeAssigned, dispute, solverID)
	return dispute, nil
}

// ResolveDispute enforces a ruling through the order state machine: the
// escrow is settled or refunded, and the dispute is marked solved together
// with the user dispute counters in the same transaction. An authorized
// solver resolving an unassigned dispute takes it over.
func (uc *DefaultDisputeUsecase) ResolveDispute(ctx context.Context, input *disputedto.ResolveDisputeInput) (*domain.Dispute, error) {
	if !input.Ruling.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRuling, input.Ruling)
	}
	dispute, err := uc.disputeRepo.GetDisputeByID(ctx, input.DisputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Solved {
		return nil, fmt.Errorf("%w: %s", domain.ErrDisputeAlreadySolved, dispute.ID)
	}
	if err := uc.checkResolver(ctx, dispute, input.ActorID); err != nil {
		return nil, err
	}

	var resolved *domain.Dispute
	order, err := uc.orders.ApplyWith(ctx, dispute.OrderID, domain.Command{
		Event:   input.Ruling.Event(),
		ActorID: input.ActorID,
	}, func(ctx context.Context, o *domain.Order, tx domain.TxScope) error {
		open, err := tx.GetOpenDisputeByOrderID(ctx, o.ID)
		if errors.Is(err, domain.ErrDisputeNotFound) || (err == nil && open.ID != dispute.ID) {
			return fmt.Errorf("%w: %s", domain.ErrDisputeAlreadySolved, dispute.ID)
		}
		if err != nil {
			return err
		}

		now := uc.now()
		open.Solved = true
		open.Ruling = input.Ruling
		open.SolvedAt = &now
		if open.SolverID == "" {
			open.SolverID = input.ActorID
		}
		if err := tx.SaveDispute(ctx, open); err != nil {
			return err
		}
		for _, userID := range uc.cfg.CounterPolicy.CountedParties(open) {
			if err := tx.IncrementUserDisputes(ctx, userID); err != nil {
				return err
			}
		}
		resolved = open
		return nil
	})
	if err != nil {
		// Someone else closed the dispute first, e.g. an admin override.
		if errors.Is(err, domain.ErrInvalidStateTransition) {
			if current, getErr := uc.disputeRepo.GetDisputeByID(ctx, dispute.ID); getErr == nil && current.Solved {
				return nil, fmt.Errorf("%w: %s", domain.ErrDisputeAlreadySolved, dispute.ID)
			}
		}
		return nil, err
	}

	uc.metrics.RecordDisputeResolved(string(input.Ruling))
	uc.logger.Info("dispute resolved", "dispute_id", resolved.ID, "order_id", order.ID, "ruling", input.Ruling)
	uc.publish(ctx, domain.EventTypeDisputeResolved, resolved, input.ActorID)

	if order.Status == domain.StatusPaidHoldInvoice {
		if _, err := uc.orders.Payout(ctx, order.ID); err != nil {
			uc.logger.Warn("payout after ruling deferred", "order_id", order.ID, "error", err)
		}
	}
	return resolved, nil
}

func (uc *DefaultDisputeUsecase) checkResolver(ctx context.Context, dispute *domain.Dispute, actorID string) error {
	if actorID != "" && actorID == dispute.SolverID {
		return nil
	}
	admin, err := uc.isAdmin(ctx, actorID)
	if err != nil || admin {
		return err
	}
	if dispute.SolverID != "" {
		return fmt.Errorf("%w: dispute %s is assigned to %s", domain.ErrSolverNotAuthorized, dispute.ID, dispute.SolverID)
	}
	ok, err := uc.canSolve(ctx, actorID, dispute.CommunityID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q for dispute %s", domain.ErrSolverNotAuthorized, actorID, dispute.ID)
	}
	return nil
}
