package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luisovando/payout-orchestrator/internal/app"
	"github.com/luisovando/payout-orchestrator/internal/data/db"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "payout-orchestrator",
		Short:         "Payout orchestrator - idempotent payout admission API",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("env-file", ".env", "Env file loaded before reading configuration")
	rootCmd.PersistentFlags().String("log-mode", "", "Logger mode (development, production, test); defaults to LOG_MODE")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap builds the logger, loads the env file and reads configuration.
func bootstrap(cmd *cobra.Command) (*logger.Logger, app.Config, error) {
	logMode, _ := cmd.Flags().GetString("log-mode")
	if logMode == "" {
		logMode = os.Getenv("LOG_MODE")
	}
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, app.Config{}, fmt.Errorf("init logger: %w", err)
	}

	envFile, _ := cmd.Flags().GetString("env-file")
	app.LoadDotEnv(log, envFile)

	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, app.Config{}, err
	}
	return log, cfg, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			addr, _ := cmd.Flags().GetString("addr")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, log, cfg)
			if err != nil {
				log.Error("App init failed", "error", err)
				log.Sync()
				return err
			}
			defer a.Close()

			log.Info("Starting payout orchestrator", "version", app.Version, "driver", cfg.DB.Driver, "sink", cfg.Outbox.Sink)
			return a.Run(ctx, addr)
		},
	}
	cmd.Flags().String("addr", "", "Listen address; defaults to :$PORT")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status|version|redo|reset]",
		Short:     "Run database migrations against Postgres",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status", "version", "redo", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			log, cfg, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			if cfg.DB.Driver != db.DriverPostgres {
				return fmt.Errorf("migrate needs DB_DRIVER=postgres, got %q (sqlite uses DB_AUTO_MIGRATE)", cfg.DB.Driver)
			}
			log.Info("Running migrations", "command", command)
			if err := db.Migrate(cfg.DB.DSN, command); err != nil {
				log.Error("Migration failed", "command", command, "error", err)
				return err
			}
			log.Info("Migrations finished", "command", command)
			return nil
		},
	}
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.Version)
		},
	}
}
