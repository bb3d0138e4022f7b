package payout

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const StatusCreated Status = "CREATED"

// UniqueKeyIndex is the storage-level constraint that makes admission safe.
const UniqueKeyIndex = "uk_payouts_company_id_idempotency_key"

// Payout is one admitted payout. Rows are never updated by admission; status
// transitions belong to settlement.
type Payout struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID      uuid.UUID       `gorm:"column:company_id;type:uuid;not null;uniqueIndex:uk_payouts_company_id_idempotency_key,priority:1" json:"company_id"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric(15,2);not null" json:"amount"`
	Currency       string          `gorm:"column:currency;type:char(3);not null" json:"currency"`
	Status         Status          `gorm:"column:status;type:varchar(32);not null" json:"status"`
	IdempotencyKey string          `gorm:"column:idempotency_key;type:varchar(128);not null;uniqueIndex:uk_payouts_company_id_idempotency_key,priority:2" json:"idempotency_key"`
	CreatedAt      time.Time       `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Payout) TableName() string { return "payouts" }

// NewPayout assigns a fresh id and the initial status.
func NewPayout(cmd CreatePayoutCommand) *Payout {
	return &Payout{
		ID:             uuid.New(),
		CompanyID:      cmd.CompanyID,
		Amount:         cmd.Money.Amount(),
		Currency:       cmd.Money.Currency().String(),
		Status:         StatusCreated,
		IdempotencyKey: cmd.IdempotencyKey,
	}
}

// Money rebuilds the stored value without re-running policy checks.
func (p *Payout) Money() Money {
	return Money{amount: p.Amount, currency: Currency(p.Currency)}
}

type CreatePayoutCommand struct {
	CompanyID      uuid.UUID
	Money          Money
	IdempotencyKey string
}

// CreatePayoutResult reports Created only when this call performed the insert.
type CreatePayoutResult struct {
	PayoutID uuid.UUID
	Status   Status
	Created  bool
}
