package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/luisovando/payout-orchestrator/internal/data/db"
	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
	"github.com/luisovando/payout-orchestrator/internal/events/bus"
	"github.com/luisovando/payout-orchestrator/internal/observability"
	"github.com/luisovando/payout-orchestrator/internal/platform/envutil"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

const (
	DriverMemory = "memory"

	SinkLog   = "log"
	SinkRedis = "redis"
	SinkKafka = "kafka"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

type OutboxConfig struct {
	Sink      string
	Interval  time.Duration
	BatchSize int
}

type Config struct {
	Environment     string
	Addr            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MetricsEnabled  bool

	DB     db.Config
	Policy payout.Policy
	Outbox OutboxConfig
	Redis  bus.RedisConfig
	Kafka  bus.KafkaConfig
	Otel   observability.OtelConfig
}

// policyFile is the optional YAML override for the admission policy.
type policyFile struct {
	MaxIdempotencyKeyLength int      `yaml:"maxIdempotencyKeyLength"`
	SupportedCurrencies     []string `yaml:"supportedCurrencies"`
}

// LoadDotEnv seeds the environment from path (".env" when empty). A missing
// file is not an error.
func LoadDotEnv(log *logger.Logger, path string) {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			log.Debug("No env file found, using process environment", "path", path)
			return
		}
		log.Warn("Failed to load env file", "path", path, "error", err)
	}
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Environment:     envutil.String("APP_ENV", "development", log),
		Addr:            ":" + envutil.String("PORT", "8080", log),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 10*time.Second, log),
		CORSOrigins:     envutil.CSV("CORS_ALLOWED_ORIGINS", nil, log),
		MetricsEnabled:  envutil.Bool("METRICS_ENABLED", true, log),
	}

	driver := strings.ToLower(envutil.String("DB_DRIVER", db.DriverPostgres, log))
	switch driver {
	case db.DriverPostgres, db.DriverSQLite, DriverMemory:
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be postgres, sqlite or memory, got %q", driver)
	}
	dsn := envutil.String("DATABASE_URL", "", log)
	if dsn == "" && driver == db.DriverPostgres {
		dsn = db.PostgresDSN(
			envutil.String("POSTGRES_HOST", "localhost", log),
			envutil.String("POSTGRES_PORT", "5432", log),
			envutil.String("POSTGRES_USER", "postgres", log),
			envutil.String("POSTGRES_PASSWORD", "", log),
			envutil.String("POSTGRES_NAME", "payouts", log),
		)
	}
	cfg.DB = db.Config{
		Driver:      driver,
		DSN:         dsn,
		SQLitePath:  envutil.String("SQLITE_PATH", "payouts.db", log),
		AutoMigrate: envutil.Bool("DB_AUTO_MIGRATE", driver == db.DriverSQLite, log),
		MaxOpen:     envutil.Int("DB_MAX_OPEN_CONNS", 20, log),
		MaxIdle:     envutil.Int("DB_MAX_IDLE_CONNS", 5, log),
	}

	policy, err := loadPolicy(log)
	if err != nil {
		return Config{}, err
	}
	cfg.Policy = policy

	sink := strings.ToLower(envutil.String("OUTBOX_SINK", SinkLog, log))
	switch sink {
	case SinkLog, SinkRedis, SinkKafka:
	default:
		return Config{}, fmt.Errorf("OUTBOX_SINK must be log, redis or kafka, got %q", sink)
	}
	cfg.Outbox = OutboxConfig{
		Sink:      sink,
		Interval:  envutil.Duration("OUTBOX_POLL_INTERVAL", time.Second, log),
		BatchSize: envutil.Int("OUTBOX_BATCH_SIZE", 100, log),
	}
	cfg.Redis = bus.RedisConfig{
		Addr:     envutil.String("REDIS_ADDR", "", log),
		Password: envutil.String("REDIS_PASSWORD", "", log),
		DB:       envutil.Int("REDIS_DB", 0, log),
		Channel:  envutil.String("REDIS_CHANNEL", "payouts", log),
	}
	cfg.Kafka = bus.KafkaConfig{
		Brokers: envutil.CSV("KAFKA_BROKERS", nil, log),
		Topic:   envutil.String("KAFKA_TOPIC", "payouts", log),
	}
	cfg.Otel = observability.OtelConfig{
		Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "payout-orchestrator", log),
		Environment: cfg.Environment,
		Version:     Version,
		Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
		Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
		Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log)),
		SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1, log),
	}
	return cfg, nil
}

// loadPolicy reads the env defaults, then lets PAYOUT_POLICY_FILE override
// whichever fields it sets.
func loadPolicy(log *logger.Logger) (payout.Policy, error) {
	maxLen := envutil.Int("PAYOUT_MAX_IDEMPOTENCY_KEY_LENGTH", payout.DefaultMaxKeyLength, log)
	currencies := envutil.CSV("PAYOUT_SUPPORTED_CURRENCIES", payout.DefaultSupportedCurrencies, log)

	if path := envutil.String("PAYOUT_POLICY_FILE", "", log); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return payout.Policy{}, fmt.Errorf("read policy file: %w", err)
		}
		var pf policyFile
		if err := yaml.Unmarshal(raw, &pf); err != nil {
			return payout.Policy{}, fmt.Errorf("parse policy file %s: %w", path, err)
		}
		if pf.MaxIdempotencyKeyLength > 0 {
			maxLen = pf.MaxIdempotencyKeyLength
		}
		if len(pf.SupportedCurrencies) > 0 {
			currencies = pf.SupportedCurrencies
		}
		log.Info("Loaded payout policy file", "path", path)
	}

	policy, err := payout.NewPolicy(maxLen, currencies)
	if err != nil {
		return payout.Policy{}, fmt.Errorf("payout policy: %w", err)
	}
	return policy, nil
}
