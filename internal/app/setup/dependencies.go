package setup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-p2p-service/internal/config"
	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/cache"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/eventbus"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/lightning"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/postgres/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config   *config.P2PConfig
	Logger   *slog.Logger
	DB       *gorm.DB
	Registry *prometheus.Registry
	Metrics  *metrics.OrderMetrics
	Bus      *eventbus.Bus

	Escrow      domain.HoldInvoiceCoordinator
	PolicyCache domain.PolicyCache

	// Kafka is nil when the kafka section is disabled.
	Publisher    *kafka.DefaultKafkaPublisher
	Subscriber   *kafka.DefaultKafkaSubscriber
	Repositories *Repositories

	lndConn *grpc.ClientConn
	redis   *redis.Client
}

type Repositories struct {
	OrderRepo     domain.OrderRepository
	DisputeRepo   domain.DisputeRepository
	UserRepo      domain.UserRepository
	CommunityRepo domain.CommunityRepository
}

func InitializeDependencies(ctx context.Context, cfg *config.P2PConfig, db *gorm.DB, logger *slog.Logger) (*Dependencies, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	orderMetrics := metrics.NewOrderMetrics(registry)

	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Registry: registry,
		Metrics:  orderMetrics,
		Bus:      eventbus.NewBus(logger.With("component", "eventbus"), eventbus.WithMetrics(orderMetrics)),
		Repositories: &Repositories{
			OrderRepo:     repository.NewDefaultOrderRepository(db),
			DisputeRepo:   repository.NewDefaultDisputeRepository(db),
			UserRepo:      repository.NewDefaultUserRepository(db),
			CommunityRepo: repository.NewDefaultCommunityRepository(db),
		},
	}

	conn, err := lightning.Dial(cfg.LNDService)
	if err != nil {
		return nil, fmt.Errorf("lnd: %w", err)
	}
	deps.lndConn = conn
	deps.Escrow = lightning.NewCoordinator(conn, lightning.Options{
		Expiry:     cfg.HoldInvoice.Expiry,
		CltvExpiry: cfg.HoldInvoice.CltvExpiry,
	}, logger.With("component", "lightning"), orderMetrics)

	if cfg.RedisService.URL != "" {
		client, err := cache.Connect(ctx, cfg.RedisService.URL)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		deps.redis = client
		deps.PolicyCache = cache.NewRedisPolicyCache(client, cfg.RedisService.PolicyCacheTTL)
	} else {
		deps.PolicyCache = cache.NewMemoryPolicyCache(cfg.RedisService.PolicyCacheTTL)
	}

	if cfg.KafkaService.Enabled {
		brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
		deps.Publisher = kafka.NewDefaultKafkaPublisher(brokers)
		deps.Subscriber = kafka.NewDefaultKafkaSubscriber(brokers)
	}

	return deps, nil
}

// Close releases the network clients. The database is closed by the caller.
func (d *Dependencies) Close() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			d.Logger.Warn("kafka publisher close failed", "error", err)
		}
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.lndConn != nil {
		_ = d.lndConn.Close()
	}
}
