package payouts

import (
	"github.com/google/uuid"

	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
	"github.com/luisovando/payout-orchestrator/internal/platform/dbctx"
)

// InsertOutcome tells the caller whether Insert wrote the row or found the
// (company, key) pair already taken.
type InsertOutcome int

const (
	InsertCreated InsertOutcome = iota + 1
	InsertDuplicateKey
)

func (o InsertOutcome) String() string {
	switch o {
	case InsertCreated:
		return "created"
	case InsertDuplicateKey:
		return "duplicate_key"
	default:
		return "unknown"
	}
}

// PayoutStore persists payouts under the (company_id, idempotency_key)
// uniqueness constraint. FindByKey returns (nil, nil) when nothing matches.
type PayoutStore interface {
	FindByKey(dbc dbctx.Context, companyID uuid.UUID, idempotencyKey string) (*payout.Payout, error)
	Insert(dbc dbctx.Context, p *payout.Payout) (InsertOutcome, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*payout.Payout, error)
}
