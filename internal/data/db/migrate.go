package db

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// AutoMigrateAll is used for sqlite and tests. Postgres deployments run the
// goose migrations instead.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&payout.Payout{},
		&payout.OutboxMessage{},
	)
}

// Migrate runs a goose command ("up", "down", "status", "version", "redo",
// "reset") against a postgres database.
func Migrate(dsn, command string) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer sqlDB.Close()
	return runGoose(sqlDB, command)
}

func runGoose(sqlDB *sql.DB, command string) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "", "up":
		return goose.Up(sqlDB, migrationsDir)
	case "down":
		return goose.Down(sqlDB, migrationsDir)
	case "status":
		return goose.Status(sqlDB, migrationsDir)
	case "version":
		return goose.Version(sqlDB, migrationsDir)
	case "redo":
		return goose.Redo(sqlDB, migrationsDir)
	case "reset":
		return goose.Reset(sqlDB, migrationsDir)
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}
