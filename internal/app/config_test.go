package app

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("OUTBOX_SINK", "")
	t.Setenv("PORT", "")
	t.Setenv("PAYOUT_POLICY_FILE", "")
	t.Setenv("PAYOUT_SUPPORTED_CURRENCIES", "")
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("POSTGRES_PORT", "")
	t.Setenv("POSTGRES_NAME", "")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.DB.Driver != "postgres" {
		t.Fatalf("driver = %q", cfg.DB.Driver)
	}
	if !strings.Contains(cfg.DB.DSN, "@localhost:5432/payouts") {
		t.Fatalf("dsn = %q", cfg.DB.DSN)
	}
	if cfg.Outbox.Sink != SinkLog || cfg.Outbox.Interval != time.Second || cfg.Outbox.BatchSize != 100 {
		t.Fatalf("outbox = %+v", cfg.Outbox)
	}
	if cfg.Policy.MaxKeyLength != payout.DefaultMaxKeyLength {
		t.Fatalf("max key length = %d", cfg.Policy.MaxKeyLength)
	}
	if got := cfg.Policy.SupportedCurrencies(); !reflect.DeepEqual(got, []string{"EUR", "MXN", "USD"}) {
		t.Fatalf("currencies = %v", got)
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mongo")
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestLoadConfigRejectsUnknownSink(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("OUTBOX_SINK", "sqs")
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatal("expected error for unknown sink")
	}
}

func TestLoadConfigPolicyFileOverridesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	body := "maxIdempotencyKeyLength: 32\nsupportedCurrencies: [usd, cop]\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("PAYOUT_SUPPORTED_CURRENCIES", "EUR")
	t.Setenv("PAYOUT_POLICY_FILE", path)

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Policy.MaxKeyLength != 32 {
		t.Fatalf("max key length = %d", cfg.Policy.MaxKeyLength)
	}
	if got := cfg.Policy.SupportedCurrencies(); !reflect.DeepEqual(got, []string{"COP", "USD"}) {
		t.Fatalf("currencies = %v", got)
	}
}

func TestLoadConfigWildcardCurrencies(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("PAYOUT_POLICY_FILE", "")
	t.Setenv("PAYOUT_SUPPORTED_CURRENCIES", "*")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Policy.Supports(payout.Currency("JPY")) {
		t.Fatal("wildcard policy should admit JPY")
	}
}

func TestLoadConfigBadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("supportedCurrencies: [US1]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("PAYOUT_POLICY_FILE", path)
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatal("expected error for invalid currency in policy file")
	}
}

func TestLoadDotEnvSeedsEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PAYOUT_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAYOUT_TEST_DOTENV", "")
	os.Unsetenv("PAYOUT_TEST_DOTENV")

	LoadDotEnv(logger.Nop(), path)
	if got := os.Getenv("PAYOUT_TEST_DOTENV"); got != "loaded" {
		t.Fatalf("PAYOUT_TEST_DOTENV = %q", got)
	}
	LoadDotEnv(logger.Nop(), filepath.Join(t.TempDir(), "missing.env"))
}
