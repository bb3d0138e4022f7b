package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/luisovando/payout-orchestrator/internal/data/aggregates"
	"github.com/luisovando/payout-orchestrator/internal/data/repos"
	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
	"github.com/luisovando/payout-orchestrator/internal/events/bus"
	"github.com/luisovando/payout-orchestrator/internal/observability"
	"github.com/luisovando/payout-orchestrator/internal/platform/dbctx"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

type OutboxRelayConfig struct {
	Interval  time.Duration
	BatchSize int
}

// OutboxRelay moves committed outbox rows to the event bus. Delivery is at
// least once; a publish failure stops the batch so ordering is kept.
type OutboxRelay struct {
	log     *logger.Logger
	tx      aggregates.TxRunner
	outbox  repos.OutboxRepo
	bus     bus.Bus
	metrics *observability.Metrics
	cfg     OutboxRelayConfig
}

func NewOutboxRelay(
	baseLog *logger.Logger,
	tx aggregates.TxRunner,
	outbox repos.OutboxRepo,
	b bus.Bus,
	metrics *observability.Metrics,
	cfg OutboxRelayConfig,
) *OutboxRelay {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &OutboxRelay{
		log:     baseLog.With("service", "OutboxRelay"),
		tx:      tx,
		outbox:  outbox,
		bus:     b,
		metrics: metrics,
		cfg:     cfg,
	}
}

// Run polls until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	r.log.Info("Outbox relay started", "interval", r.cfg.Interval.String(), "batch_size", r.cfg.BatchSize)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("Outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
				r.log.Warn("Outbox relay tick failed", "error", err)
			}
		}
	}
}

// RelayOnce publishes one batch and returns how many messages were marked
// published.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	var published, failed int
	err := r.tx.InTx(ctx, func(dbc dbctx.Context) error {
		msgs, err := r.outbox.ClaimUnpublished(dbc, r.cfg.BatchSize)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(msgs))
		for _, m := range msgs {
			if err := r.bus.Publish(dbc.Context(), toEvent(m)); err != nil {
				failed = len(msgs) - len(ids)
				r.log.Warn("Outbox publish failed; will retry", "event_id", m.ID, "event_type", m.EventType, "error", err)
				break
			}
			ids = append(ids, m.ID)
		}
		if err := r.outbox.MarkPublished(dbc, ids, time.Now().UTC()); err != nil {
			return err
		}
		published = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.metrics.ObserveOutboxPublish("ok", published)
	r.metrics.ObserveOutboxPublish("failed", failed)
	if n, err := r.outbox.CountUnpublished(dbctx.Context{Ctx: ctx}); err == nil {
		r.metrics.SetOutboxBacklog(n)
	}
	if published > 0 {
		r.log.Debug("Outbox batch published", "count", published)
	}
	return published, nil
}

func toEvent(m *payout.OutboxMessage) bus.Event {
	return bus.Event{
		ID:          m.ID,
		Type:        m.EventType,
		AggregateID: m.AggregateID,
		OccurredAt:  m.CreatedAt,
		Payload:     json.RawMessage(m.Payload),
	}
}
