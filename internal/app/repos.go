package app

import (
	"github.com/luisovando/payout-orchestrator/internal/data/aggregates"
	"github.com/luisovando/payout-orchestrator/internal/data/db"
	"github.com/luisovando/payout-orchestrator/internal/data/repos"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

type Repos struct {
	Payouts repos.PayoutStore
	// Outbox is nil for the memory driver.
	Outbox repos.OutboxRepo
	Tx     aggregates.TxRunner
}

func wireRepos(database *db.Service, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	if database == nil {
		log.Warn("Using in-memory payout store; data is lost on restart")
		return Repos{
			Payouts: repos.NewMemoryStore(),
			Tx:      aggregates.NewDirectRunner(),
		}
	}
	gdb := database.DB()
	return Repos{
		Payouts: repos.NewPayoutRepo(gdb, log),
		Outbox:  repos.NewOutboxRepo(gdb, log),
		Tx:      aggregates.NewGormTxRunner(gdb),
	}
}
