package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
)

// transition is the outcome of one critical operation on an order.
type transition struct {
	order     *domain.Order
	event     domain.OrderEvent
	from      domain.OrderStatus
	to        domain.OrderStatus
	actor     domain.Actor
	duplicate bool
}

func (uc *DefaultOrderUsecase) Apply(ctx context.Context, orderID string, cmd domain.Command) (*domain.Order, error) {
	return uc.ApplyWith(ctx, orderID, cmd, nil)
}

// ApplyWith applies cmd under the order lock. hook runs inside the same
// transaction before the escrow side effects, so its writes commit or roll
// back together with the status change. Events are published after the lock
// is released.
func (uc *DefaultOrderUsecase) ApplyWith(ctx context.Context, orderID string, cmd domain.Command, hook domain.OrderMutation) (*domain.Order, error) {
	unlock := uc.locks.Lock(orderID)
	t, err := uc.applyLocked(ctx, orderID, cmd, hook)
	unlock()
	if err != nil {
		return nil, err
	}

	uc.afterTransition(ctx, t)
	return t.order, nil
}

func (uc *DefaultOrderUsecase) applyLocked(ctx context.Context, orderID string, cmd domain.Command, hook domain.OrderMutation) (*transition, error) {
	current, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	actor, err := uc.resolveActor(ctx, current, cmd.ActorID)
	if err != nil {
		return nil, err
	}

	t := &transition{event: cmd.Event, actor: actor}
	updated, err := uc.OrderRepo.ProcessOrderCriticalOperation(ctx, orderID, func(ctx context.Context, order *domain.Order, tx domain.TxScope) error {
		t.from = order.Status
		if err := domain.Authorize(order, cmd.Event, actor); err != nil {
			return err
		}
		next, err := domain.NextStatus(order, cmd.Event)
		if err != nil {
			return err
		}
		if hook != nil {
			if err := hook(ctx, order, tx); err != nil {
				return err
			}
		}
		if err := uc.enter(ctx, order, next, cmd, actor, tx); err != nil {
			return err
		}
		order.Status = next
		order.UpdatedAt = uc.now()
		t.to = next
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyApplied):
		uc.logger.Info("duplicate delivery ignored", "order_id", orderID, "event", cmd.Event)
		uc.Metrics.RecordDuplicateDelivery(string(cmd.Event))
		current, err = uc.OrderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return &transition{
			order: current, event: cmd.Event, from: current.Status, to: current.Status,
			actor: actor, duplicate: true,
		}, nil
	case err != nil:
		uc.recordRejection(orderID, cmd.Event, err)
		return nil, err
	}

	t.order = updated
	return t, nil
}

func (uc *DefaultOrderUsecase) afterTransition(ctx context.Context, t *transition) {
	if t.duplicate || t.from == t.to {
		return
	}
	uc.Metrics.RecordTransition(string(t.from), string(t.to), string(t.event))
	if t.to.IsTerminal() {
		uc.Metrics.RecordOrderFinished(string(t.to), uc.now().Sub(t.order.CreatedAt).Seconds())
	}
	uc.logger.Info("order transition applied",
		"order_id", t.order.ID, "event", t.event, "from", t.from, "to", t.to, "actor", t.actor.ID)
	uc.publish(ctx, uc.statusChanged(t.order.ID, t.from, t.to, t.actor.ID))
}

// enter runs the side effects of moving order to next. A failure aborts the
// transition and leaves the stored order untouched.
func (uc *DefaultOrderUsecase) enter(
	ctx context.Context,
	order *domain.Order,
	next domain.OrderStatus,
	cmd domain.Command,
	actor domain.Actor,
	tx domain.TxScope,
) error {
	now := uc.now()
	switch cmd.Event {
	case domain.EventInvoiceHeld:
		order.InvoiceHeldAt = &now

	case domain.EventBuyerInvoice:
		if err := uc.checkInvoice(ctx, order, cmd.BuyerInvoice); err != nil {
			return err
		}
		order.BuyerInvoice = cmd.BuyerInvoice

	case domain.EventTake:
		return uc.take(ctx, order, next, cmd, actor)

	case domain.EventDispute:
		if actor.ID == order.BuyerID {
			order.BuyerDispute = true
		} else {
			order.SellerDispute = true
		}

	case domain.EventRelease, domain.EventResolveRelease:
		return uc.settle(ctx, order)

	case domain.EventCooperativeCancel, domain.EventResolveRefund:
		return uc.refund(ctx, order)

	case domain.EventClose, domain.EventTimeout:
		if order.EscrowHeld() {
			return uc.refund(ctx, order)
		}

	case domain.EventAdminCancel:
		if err := uc.solveOpenDispute(ctx, order, actor, domain.RulingRefundToSeller, tx); err != nil {
			return err
		}
		if order.EscrowHeld() {
			return uc.refund(ctx, order)
		}

	case domain.EventAdminComplete:
		if err := uc.solveOpenDispute(ctx, order, actor, domain.RulingReleaseToBuyer, tx); err != nil {
			return err
		}
		if order.EscrowHeld() {
			return uc.settle(ctx, order)
		}
	}
	return nil
}

func (uc *DefaultOrderUsecase) take(ctx context.Context, order *domain.Order, next domain.OrderStatus, cmd domain.Command, actor domain.Actor) error {
	if order.IsRange() {
		if err := uc.fixRangeAmount(ctx, order, cmd.FiatAmount); err != nil {
			return err
		}
	}

	switch order.Type {
	case domain.TypeSell:
		if err := uc.checkInvoice(ctx, order, cmd.BuyerInvoice); err != nil {
			return err
		}
		order.BuyerID = actor.ID
		order.BuyerInvoice = cmd.BuyerInvoice
	case domain.TypeBuy:
		// A range order had no amount when the buyer attached the invoice.
		if order.BuyerInvoice != "" {
			if err := uc.checkInvoice(ctx, order, order.BuyerInvoice); err != nil {
				return err
			}
		}
		order.SellerID = actor.ID
	}
	now := uc.now()
	order.TakenAt = &now

	if next != domain.StatusWaitingPayment {
		return nil
	}
	invoice, err := uc.Escrow.CreateHoldInvoice(ctx, order.EscrowAmount(), uc.cfg.InvoiceDescription)
	if err != nil {
		return err
	}
	order.Hash = invoice.PaymentHash
	order.Secret = invoice.Secret
	order.HoldInvoice = invoice.PaymentRequest
	return nil
}

func (uc *DefaultOrderUsecase) settle(ctx context.Context, order *domain.Order) error {
	err := uc.Escrow.Settle(ctx, order.Hash, order.Secret)
	if err != nil {
		uc.logger.Warn("hold invoice settle failed", "order_id", order.ID, "hash", order.Hash, "error", err)
		return err
	}
	return nil
}

func (uc *DefaultOrderUsecase) refund(ctx context.Context, order *domain.Order) error {
	err := uc.Escrow.Cancel(ctx, order.Hash)
	if err != nil {
		uc.logger.Warn("hold invoice cancel failed", "order_id", order.ID, "hash", order.Hash, "error", err)
		return err
	}
	return nil
}

// solveOpenDispute closes the open dispute of an order an admin overrides.
func (uc *DefaultOrderUsecase) solveOpenDispute(ctx context.Context, order *domain.Order, actor domain.Actor, ruling domain.Ruling, tx domain.TxScope) error {
	if order.Status != domain.StatusDispute {
		return nil
	}
	dispute, err := tx.GetOpenDisputeByOrderID(ctx, order.ID)
	if errors.Is(err, domain.ErrDisputeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := uc.now()
	dispute.Solved = true
	dispute.Ruling = ruling
	dispute.SolvedAt = &now
	if dispute.SolverID == "" {
		dispute.SolverID = actor.ID
	}
	if err := tx.SaveDispute(ctx, dispute); err != nil {
		return err
	}
	for _, userID := range uc.cfg.DisputeCounterPolicy.CountedParties(dispute) {
		if err := tx.IncrementUserDisputes(ctx, userID); err != nil {
			return err
		}
	}
	uc.Metrics.RecordDisputeResolved(string(ruling))
	return nil
}

// checkInvoice validates a buyer invoice against the order through the node.
func (uc *DefaultOrderUsecase) checkInvoice(ctx context.Context, order *domain.Order, invoice string) error {
	if invoice == "" {
		return fmt.Errorf("%w: invoice is required", domain.ErrInvalidInvoice)
	}
	decoded, err := uc.Escrow.DecodeInvoice(ctx, invoice)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNetworkUnavailable) || errors.Is(err, domain.ErrInvalidInvoice) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInvoice, err)
	}
	if decoded.Amount > 0 && order.Amount > 0 && decoded.Amount != order.Amount {
		return fmt.Errorf("%w: invoice amount %d does not match order amount %d",
			domain.ErrInvalidInvoice, decoded.Amount, order.Amount)
	}
	if !decoded.ExpiresAt.IsZero() && !decoded.ExpiresAt.After(uc.now()) {
		return fmt.Errorf("%w: invoice expired", domain.ErrInvalidInvoice)
	}
	return nil
}

// resolveActor attaches the admin and solver roles of actorID for this order's community.
func (uc *DefaultOrderUsecase) resolveActor(ctx context.Context, order *domain.Order, actorID string) (domain.Actor, error) {
	actor := domain.Actor{ID: actorID}
	if actorID == "" || actor.IsSystem() {
		return actor, nil
	}

	actor.Admin = slices.Contains(uc.cfg.AdminIDs, actorID)
	if !actor.Admin && uc.UserRepo != nil {
		user, err := uc.UserRepo.GetUserByID(ctx, actorID)
		switch {
		case err == nil:
			actor.Admin = user.Admin
		case !errors.Is(err, domain.ErrUserNotFound):
			return actor, err
		}
	}

	policy, err := uc.Policy.Resolve(ctx, order.CommunityID)
	if err != nil {
		if errors.Is(err, domain.ErrCommunityNotFound) {
			return actor, nil
		}
		return actor, err
	}
	actor.Solver = policy.HasSolver(actorID)
	return actor, nil
}

// checkNotBanned rejects users banned globally or by the order's community.
func (uc *DefaultOrderUsecase) checkNotBanned(ctx context.Context, userID string, policy *domain.Policy) error {
	if policy != nil && policy.IsBanned(userID) {
		return fmt.Errorf("%w: %s", domain.ErrUserBanned, userID)
	}
	if uc.UserRepo == nil {
		return nil
	}
	user, err := uc.UserRepo.GetUserByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.Banned {
		return fmt.Errorf("%w: %s", domain.ErrUserBanned, userID)
	}
	return nil
}

func (uc *DefaultOrderUsecase) recordRejection(orderID string, event domain.OrderEvent, err error) {
	reason := errorClass(err)
	uc.Metrics.RecordRejectedTransition(string(event), reason)
	uc.logger.Info("order event rejected", "order_id", orderID, "event", event, "reason", reason, "error", err)
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrUnauthorizedActor):
		return "unauthorized"
	case errors.Is(err, domain.ErrPaymentNetworkUnavailable):
		return "network_unavailable"
	case errors.Is(err, domain.ErrInvoiceNotHeld):
		return "invoice_not_held"
	case errors.Is(err, domain.ErrInvalidInvoice):
		return "invalid_invoice"
	case errors.Is(err, domain.ErrCooperativeCancelPending):
		return "cancel_pending"
	case errors.Is(err, domain.ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, domain.ErrOrderNotFound):
		return "not_found"
	}
	return "internal"
}
