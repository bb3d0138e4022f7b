package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luisovando/payout-orchestrator/internal/data/db"
	"github.com/luisovando/payout-orchestrator/internal/events/bus"
	apihttp "github.com/luisovando/payout-orchestrator/internal/http"
	"github.com/luisovando/payout-orchestrator/internal/observability"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Bus      bus.Bus
	Metrics  *observability.Metrics
	Repos    Repos
	Services Services
	Handlers Handlers
	Server   *apihttp.Server

	otelShutdown func(context.Context) error
}

// New builds the full dependency graph. DB is nil for the memory driver.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	a := &App{Log: log, Cfg: cfg}

	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)
	if cfg.MetricsEnabled {
		a.Metrics = observability.NewMetrics()
	}

	if cfg.DB.Driver != DriverMemory {
		database, err := db.NewService(cfg.DB, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init database: %w", err)
		}
		a.DB = database
	}

	b, err := newBus(log, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init outbox sink: %w", err)
	}
	a.Bus = b

	a.Repos = wireRepos(a.DB, log)
	a.Services = wireServices(log, cfg, a.Repos, a.Bus, a.Metrics)
	handlers, err := wireHandlers(log, a.DB, a.Services)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("wire handlers: %w", err)
	}
	a.Handlers = handlers
	a.Server = wireServer(log, cfg, a.Handlers, a.Metrics)
	return a, nil
}

// Run serves HTTP and drains the outbox until ctx is cancelled or either
// fails.
func (a *App) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.Cfg.Addr
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Server.Run(gctx, addr, a.Cfg.ShutdownTimeout)
	})
	if a.Services.Relay != nil {
		g.Go(func() error {
			return a.Services.Relay.Run(gctx)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	timeout := a.Cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("event bus close failed", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	a.Log.Sync()
}
