package setup

import (
	"strings"

	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	exchangeproviders "github.com/LavaJover/shvark-p2p-service/internal/infrastructure/exchange_providers"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/logger"
	communityuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/community"
	disputeuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/dispute"
	exchangeuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/exchange"
	expirationuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/expiration"
	orderuc "github.com/LavaJover/shvark-p2p-service/internal/usecase/order"
	useruc "github.com/LavaJover/shvark-p2p-service/internal/usecase/user"
	"github.com/shopspring/decimal"
)

type UseCases struct {
	Orders      *orderuc.DefaultOrderUsecase
	Disputes    *disputeuc.DefaultDisputeUsecase
	Communities *communityuc.DefaultCommunityUsecase
	Users       *useruc.DefaultUserUsecase
	Exchange    *exchangeuc.DefaultExchangeRateService
	Scheduler   *expirationuc.ExpirationScheduler
	EventLog    *logger.PGOrderEventLogger
}

func InitializeUseCases(deps *Dependencies) *UseCases {
	cfg := deps.Config
	repos := deps.Repositories
	log := deps.Logger

	exchange := exchangeuc.NewDefaultExchangeRateService(cfg.Exchange.CacheTTL, log,
		exchangeproviders.NewYadioProvider(cfg.Exchange.URL, cfg.Exchange.Timeout),
	)
	if cfg.Exchange.FallbackURL != "" {
		exchange.RegisterProvider(exchangeproviders.NewRapiraProvider(cfg.Exchange.FallbackURL, cfg.Exchange.Timeout))
	}

	resolver := communityuc.NewDefaultPolicyResolver(repos.CommunityRepo, deps.PolicyCache, GlobalPolicy(cfg.Policy.Currencies, cfg.Policy.SolverIDs), log)
	counterPolicy := domain.DisputeCounterPolicy(strings.ToLower(cfg.Policy.DisputeCounterPolicy))

	orders := orderuc.NewDefaultOrderUsecase(
		repos.OrderRepo,
		repos.UserRepo,
		resolver,
		deps.Escrow,
		exchange,
		deps.Bus,
		deps.Metrics,
		orderuc.Config{
			MaxFee:               decimal.NewFromFloat(cfg.Policy.MaxFee),
			BotFeePercent:        decimal.NewFromFloat(cfg.Policy.BotFeePercent),
			MaxRoutingFee:        decimal.NewFromFloat(cfg.HoldInvoice.MaxRoutingFee),
			MaxPayoutAttempts:    cfg.HoldInvoice.MaxPayoutAttempts,
			AdminIDs:             cfg.Policy.AdminIDs,
			DisputeCounterPolicy: counterPolicy,
		},
		log,
	)

	disputes := disputeuc.NewDefaultDisputeUsecase(
		repos.DisputeRepo,
		repos.UserRepo,
		orders,
		resolver,
		deps.Bus,
		deps.Metrics,
		disputeuc.Config{AdminIDs: cfg.Policy.AdminIDs, CounterPolicy: counterPolicy},
		log,
	)

	scheduler := expirationuc.NewExpirationScheduler(orders, repos.OrderRepo, deps.Bus, deps.Metrics, expirationuc.Config{
		OrderTTL:      cfg.Expiration.OrderTTL,
		TakenOrderTTL: cfg.Expiration.TakenOrderTTL,
		WarnAfter:     cfg.Expiration.WarnAfter,
		Workers:       cfg.Expiration.Workers,
	}, log)

	return &UseCases{
		Orders:      orders,
		Disputes:    disputes,
		Communities: communityuc.NewDefaultCommunityUsecase(repos.CommunityRepo, resolver, cfg.Policy.AdminIDs, log),
		Users:       useruc.NewDefaultUserUsecase(repos.UserRepo, log),
		Exchange:    exchange,
		Scheduler:   scheduler,
		EventLog:    logger.NewPGOrderEventLogger(deps.DB),
	}
}

// GlobalPolicy builds the rules of orders published outside any community.
func GlobalPolicy(currencies, solverIDs []string) *domain.Policy {
	codes := make([]string, 0, len(currencies))
	for _, c := range currencies {
		codes = append(codes, strings.ToUpper(strings.TrimSpace(c)))
	}
	return &domain.Policy{
		Currencies: codes,
		SolverIDs:  solverIDs,
	}
}
