package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type P2PConfig struct {
	Env          string `yaml:"env" env:"P2P_ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	OrderDB      `yaml:"order_db"`
	LogConfig    `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
	LNDService   `yaml:"lnd-service"`
	RedisService `yaml:"redis-service"`
	Policy       `yaml:"policy"`
	Expiration   `yaml:"expiration"`
	HoldInvoice  `yaml:"hold_invoice"`
	Exchange     `yaml:"exchange"`
	Notifier     `yaml:"notifier"`
}

type HTTPServer struct {
	Host         string        `yaml:"host" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"30s"`
}

type OrderDB struct {
	Dsn string `yaml:"dsn" env:"ORDER_DB_DSN"`
	// MigrationsPath switches schema management from AutoMigrate to SQL migrations.
	MigrationsPath string `yaml:"migrations_path"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env-default:"info"`
	LogFormat string `yaml:"log_format" env-default:"json"`
	// LogOutput is "stdout" or a file path rotated by size.
	LogOutput  string `yaml:"log_output" env-default:"stdout"`
	MaxSizeMB  int    `yaml:"max_size_mb" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env-default:"5"`
	MaxAgeDays int    `yaml:"max_age_days" env-default:"30"`
}

type KafkaService struct {
	Enabled            bool   `yaml:"enabled"`
	Host               string `yaml:"host"`
	Port               string `yaml:"port"`
	OrderEventsTopic   string `yaml:"order_events_topic" env-default:"order-events"`
	DisputeEventsTopic string `yaml:"dispute_events_topic" env-default:"dispute-events"`
	CommandsTopic      string `yaml:"commands_topic" env-default:"order-commands"`
	GroupID            string `yaml:"group_id" env-default:"p2p-service"`
}

type LNDService struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port" env-default:"10009"`
	TLSCertPath string `yaml:"tls_cert_path"`
	MacaroonHex string `yaml:"macaroon_hex" env:"LND_MACAROON_HEX"`
}

type RedisService struct {
	// URL enables the shared policy cache, e.g. redis://localhost:6379/0.
	URL            string        `yaml:"url" env:"REDIS_URL"`
	PolicyCacheTTL time.Duration `yaml:"policy_cache_ttl" env-default:"5m"`
}

type Policy struct {
	// MaxFee is the fee fraction charged on the traded amount.
	MaxFee float64 `yaml:"max_fee" env-default:"0.006"`
	// BotFeePercent is the operator's share of MaxFee on community orders.
	BotFeePercent        float64  `yaml:"bot_fee_percent" env-default:"0.7"`
	Currencies           []string `yaml:"currencies"`
	SolverIDs            []string `yaml:"solver_ids"`
	AdminIDs             []string `yaml:"admin_ids"`
	DisputeCounterPolicy string   `yaml:"dispute_counter_policy" env-default:"loser"`
}

type Expiration struct {
	Interval time.Duration `yaml:"interval" env-default:"1m"`
	// OrderTTL applies to published orders nobody took.
	OrderTTL time.Duration `yaml:"order_ttl" env-default:"23h"`
	// TakenOrderTTL applies once a taker is waiting on the other side.
	TakenOrderTTL time.Duration `yaml:"taken_order_ttl" env-default:"15m"`
	WarnAfter     time.Duration `yaml:"warn_after" env-default:"22h"`
	Workers       int           `yaml:"workers" env-default:"8"`
}

type HoldInvoice struct {
	Expiry               time.Duration `yaml:"expiry" env-default:"1h"`
	CltvExpiry           uint64        `yaml:"cltv_expiry" env-default:"144"`
	MaxRoutingFee        float64       `yaml:"max_routing_fee" env-default:"0.002"`
	PayoutRetryInterval  time.Duration `yaml:"payout_retry_interval" env-default:"5m"`
	MaxPayoutAttempts    int           `yaml:"max_payout_attempts" env-default:"3"`
	ResubscribeOnStartup bool          `yaml:"resubscribe_on_startup" env-default:"true"`
}

type Exchange struct {
	URL string `yaml:"url" env-default:"https://api.yadio.io/exrates/BTC"`
	// FallbackURL is the rapira order book, asked when the rate table fails.
	FallbackURL string        `yaml:"fallback_url" env-default:"https://api.rapira.net/market/exchange-plate-mini"`
	CacheTTL    time.Duration `yaml:"cache_ttl" env-default:"1m"`
	Timeout     time.Duration `yaml:"timeout" env-default:"5s"`
}

type Notifier struct {
	// WebhookURL receives every domain event as JSON; empty disables the webhook.
	WebhookURL string        `yaml:"webhook_url" env:"NOTIFIER_WEBHOOK_URL"`
	Secret     string        `yaml:"secret" env:"NOTIFIER_SECRET"`
	Timeout    time.Duration `yaml:"timeout" env-default:"5s"`
}

func MustLoad() *P2PConfig {

	// Processing env config variable and file
	configPath := os.Getenv("P2P_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("P2P_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return cfg
}

// Load reads the YAML file at path and applies env overrides and defaults.
func Load(path string) (*P2PConfig, error) {
	var cfg P2PConfig
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
