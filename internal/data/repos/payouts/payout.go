package payouts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
	"github.com/luisovando/payout-orchestrator/internal/platform/dbctx"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

type payoutRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPayoutRepo(db *gorm.DB, baseLog *logger.Logger) PayoutStore {
	return &payoutRepo{
		db:  db,
		log: baseLog.With("repo", "PayoutRepo"),
	}
}

func (r *payoutRepo) FindByKey(dbc dbctx.Context, companyID uuid.UUID, idempotencyKey string) (*payout.Payout, error) {
	transaction := dbc.DB(r.db)
	if companyID == uuid.Nil || strings.TrimSpace(idempotencyKey) == "" {
		return nil, nil
	}
	var rows []payout.Payout
	err := transaction.
		Where("company_id = ? AND idempotency_key = ?", companyID, idempotencyKey).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find payout by key: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// Insert writes p unless its (company, key) pair already exists. The conflict
// is absorbed by ON CONFLICT DO NOTHING so an enclosing postgres transaction
// stays usable for the follow-up lookup.
func (r *payoutRepo) Insert(dbc dbctx.Context, p *payout.Payout) (InsertOutcome, error) {
	if p == nil {
		return 0, fmt.Errorf("insert payout: nil payout")
	}
	transaction := dbc.DB(r.db)
	now := time.Now().UTC()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	res := transaction.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(p)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			r.log.Debug("Insert hit unique violation", "payout_id", p.ID)
			return InsertDuplicateKey, nil
		}
		return 0, fmt.Errorf("insert payout: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return InsertDuplicateKey, nil
	}
	return InsertCreated, nil
}

func (r *payoutRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*payout.Payout, error) {
	transaction := dbc.DB(r.db)
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []payout.Payout
	if err := transaction.Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get payout: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
