package repos

import (
	"gorm.io/gorm"

	"github.com/luisovando/payout-orchestrator/internal/data/repos/payouts"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

type PayoutStore = payouts.PayoutStore
type OutboxRepo = payouts.OutboxRepo
type InsertOutcome = payouts.InsertOutcome

const (
	InsertCreated      = payouts.InsertCreated
	InsertDuplicateKey = payouts.InsertDuplicateKey
)

func NewPayoutRepo(db *gorm.DB, log *logger.Logger) PayoutStore {
	return payouts.NewPayoutRepo(db, log)
}

func NewOutboxRepo(db *gorm.DB, log *logger.Logger) OutboxRepo {
	return payouts.NewOutboxRepo(db, log)
}

func NewMemoryStore() *payouts.MemoryStore {
	return payouts.NewMemoryStore()
}
