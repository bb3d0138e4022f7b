package aggregates

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/luisovando/payout-orchestrator/internal/platform/dbctx"
)

var ErrNilDB = errors.New("transaction runner has nil db")

// TxRunner provides the transaction boundary for writes that must land
// together, such as a payout and its outbox message.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return ErrNilDB
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

type directRunner struct{}

// NewDirectRunner runs fn without a transaction. Used with stores that are
// atomic on their own, like the in-memory store.
func NewDirectRunner() TxRunner { return directRunner{} }

func (directRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}
