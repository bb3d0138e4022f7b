package payouts

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
	"github.com/luisovando/payout-orchestrator/internal/platform/dbctx"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

type OutboxRepo interface {
	Insert(dbc dbctx.Context, msg *payout.OutboxMessage) error
	// ClaimUnpublished returns up to limit unpublished messages oldest first.
	// On postgres the rows stay locked (SKIP LOCKED) for the enclosing tx.
	ClaimUnpublished(dbc dbctx.Context, limit int) ([]*payout.OutboxMessage, error)
	MarkPublished(dbc dbctx.Context, ids []uuid.UUID, at time.Time) error
	CountUnpublished(dbc dbctx.Context) (int64, error)
}

type outboxRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOutboxRepo(db *gorm.DB, baseLog *logger.Logger) OutboxRepo {
	return &outboxRepo{
		db:  db,
		log: baseLog.With("repo", "OutboxRepo"),
	}
}

func (r *outboxRepo) Insert(dbc dbctx.Context, msg *payout.OutboxMessage) error {
	if msg == nil {
		return nil
	}
	if err := dbc.DB(r.db).Create(msg).Error; err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

func (r *outboxRepo) ClaimUnpublished(dbc dbctx.Context, limit int) ([]*payout.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	q := dbc.DB(r.db)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	var out []*payout.OutboxMessage
	err := q.
		Where("published_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("claim outbox messages: %w", err)
	}
	return out, nil
}

func (r *outboxRepo) MarkPublished(dbc dbctx.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := dbc.DB(r.db).
		Model(&payout.OutboxMessage{}).
		Where("id IN ?", ids).
		Update("published_at", at).Error
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func (r *outboxRepo) CountUnpublished(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&payout.OutboxMessage{}).
		Where("published_at IS NULL").
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count outbox: %w", err)
	}
	return n, nil
}
