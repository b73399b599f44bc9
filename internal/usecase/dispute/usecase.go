package usecase

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/metrics"
	disputedto "github.com/LavaJover/shvark-p2p-service/internal/usecase/dto/dispute"
)

type DisputeUsecase interface {
	OpenDispute(ctx context.Context, input *disputedto.OpenDisputeInput) (*disputedto.DisputeOutput, error)
	AssignSolver(ctx context.Context, disputeID, solverID string) (*domain.Dispute, error)
	ResolveDispute(ctx context.Context, input *disputedto.ResolveDisputeInput) (*domain.Dispute, error)
	GetDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error)
	GetOpenDisputeByOrderID(ctx context.Context, orderID string) (*domain.Dispute, error)
	GetOrderDisputes(ctx context.Context, orderID string) (*disputedto.GetOrderDisputesOutput, error)
}

// OrderTransitioner is the part of the order state machine disputes drive.
type OrderTransitioner interface {
	ApplyWith(ctx context.Context, orderID string, cmd domain.Command, hook domain.OrderMutation) (*domain.Order, error)
	Payout(ctx context.Context, orderID string) (*domain.Order, error)
}

type Config struct {
	AdminIDs      []string
	CounterPolicy domain.DisputeCounterPolicy
}

type DefaultDisputeUsecase struct {
	disputeRepo domain.DisputeRepository
	userRepo    domain.UserRepository
	orders      OrderTransitioner
	policy      domain.CommunityPolicy
	publisher   domain.EventPublisher
	metrics     *metrics.OrderMetrics
	cfg         Config
	logger      *slog.Logger
	now         func() time.Time
}

func NewDefaultDisputeUsecase(
	disputeRepo domain.DisputeRepository,
	userRepo domain.UserRepository,
	orders OrderTransitioner,
	policy domain.CommunityPolicy,
	publisher domain.EventPublisher,
	orderMetrics *metrics.OrderMetrics,
	cfg Config,
	logger *slog.Logger,
) *DefaultDisputeUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CounterPolicy == "" {
		cfg.CounterPolicy = domain.CountLoser
	}
	return &DefaultDisputeUsecase{
		disputeRepo: disputeRepo,
		userRepo:    userRepo,
		orders:      orders,
		policy:      policy,
		publisher:   publisher,
		metrics:     orderMetrics,
		cfg:         cfg,
		logger:      logger.With("component", "dispute_usecase"),
		now:         time.Now,
	}
}

func (uc *DefaultDisputeUsecase) isAdmin(ctx context.Context, userID string) (bool, error) {
	if slices.Contains(uc.cfg.AdminIDs, userID) {
		return true, nil
	}
	if uc.userRepo == nil {
		return false, nil
	}
	user, err := uc.userRepo.GetUserByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.Admin, nil
}

// canSolve reports whether userID may rule on disputes of the community.
func (uc *DefaultDisputeUsecase) canSolve(ctx context.Context, userID, communityID string) (bool, error) {
	admin, err := uc.isAdmin(ctx, userID)
	if err != nil || admin {
		return admin, err
	}
	policy, err := uc.policy.Resolve(ctx, communityID)
	if err != nil {
		return false, err
	}
	return policy.HasSolver(userID), nil
}

func (uc *DefaultDisputeUsecase) publish(ctx context.Context, eventType domain.EventType, d *domain.Dispute, actor string) {
	if uc.publisher == nil {
		return
	}
	uc.publisher.Publish(ctx, domain.DomainEvent{
		Type:       eventType,
		OrderID:    d.OrderID,
		DisputeID:  d.ID,
		Actor:      actor,
		OccurredAt: uc.now(),
	})
}
