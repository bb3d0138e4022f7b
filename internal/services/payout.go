package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/luisovando/payout-orchestrator/internal/data/aggregates"
	"github.com/luisovando/payout-orchestrator/internal/data/repos"
	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
	"github.com/luisovando/payout-orchestrator/internal/observability"
	"github.com/luisovando/payout-orchestrator/internal/platform/ctxutil"
	"github.com/luisovando/payout-orchestrator/internal/platform/dbctx"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

type PayoutService interface {
	// Create admits a payout at most once per (company, idempotency key).
	// Replays with the same money return the original payout with
	// Created=false; replays with different money fail with an
	// idempotency_conflict error.
	Create(ctx context.Context, cmd payout.CreatePayoutCommand) (payout.CreatePayoutResult, error)
	Get(ctx context.Context, id uuid.UUID) (*payout.Payout, error)
}

type payoutService struct {
	log     *logger.Logger
	store   repos.PayoutStore
	outbox  repos.OutboxRepo
	tx      aggregates.TxRunner
	policy  payout.Policy
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// NewPayoutService wires the admission protocol. outbox and metrics may be
// nil; tx defaults to running without a transaction.
func NewPayoutService(
	baseLog *logger.Logger,
	store repos.PayoutStore,
	outbox repos.OutboxRepo,
	tx aggregates.TxRunner,
	policy payout.Policy,
	metrics *observability.Metrics,
) PayoutService {
	if tx == nil {
		tx = aggregates.NewDirectRunner()
	}
	return &payoutService{
		log:     baseLog.With("service", "PayoutService"),
		store:   store,
		outbox:  outbox,
		tx:      tx,
		policy:  policy,
		metrics: metrics,
		tracer:  observability.Tracer(),
	}
}

func (s *payoutService) Create(ctx context.Context, cmd payout.CreatePayoutCommand) (payout.CreatePayoutResult, error) {
	ctx = ctxutil.Default(ctx)
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "payout.create")
	defer span.End()

	log := s.requestLog(ctx).With("company_id", cmd.CompanyID, "idempotency_key", cmd.IdempotencyKey)

	if err := s.policy.Validate(cmd); err != nil {
		s.finish(span, observability.OutcomeValidationFailed, start, err)
		log.Debug("Payout rejected by validation", "error", err)
		return payout.CreatePayoutResult{}, err
	}

	var (
		result  payout.CreatePayoutResult
		outcome string
	)
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		result, outcome, err = s.admit(dbc, cmd, log)
		return err
	})
	if err != nil {
		// Commit failures surface here after admit reported success.
		outcome = outcomeForError(err)
		err = payout.InfrastructureError("payout.create", err)
		s.finish(span, outcome, start, err)
		return payout.CreatePayoutResult{}, err
	}

	span.SetAttributes(attribute.String("payout.id", result.PayoutID.String()))
	s.finish(span, outcome, start, nil)
	return result, nil
}

// admit runs lookup, insert, and the post-conflict re-read inside one
// transaction.
func (s *payoutService) admit(dbc dbctx.Context, cmd payout.CreatePayoutCommand, log *logger.Logger) (payout.CreatePayoutResult, string, error) {
	existing, err := s.store.FindByKey(dbc, cmd.CompanyID, cmd.IdempotencyKey)
	if err != nil {
		return payout.CreatePayoutResult{}, observability.OutcomeError, payout.InfrastructureError("payout.find", err)
	}
	if existing != nil {
		res, err := replay(existing, cmd)
		if err != nil {
			log.Warn("Idempotency conflict", "payout_id", existing.ID, "error", err)
			return res, observability.OutcomeConflict, err
		}
		log.Debug("Payout replayed", "payout_id", existing.ID)
		return res, observability.OutcomeReplayed, nil
	}

	candidate := payout.NewPayout(cmd)
	inserted, err := s.store.Insert(dbc, candidate)
	if err != nil {
		return payout.CreatePayoutResult{}, observability.OutcomeError, payout.InfrastructureError("payout.insert", err)
	}

	switch inserted {
	case repos.InsertCreated:
		if err := s.enqueueCreated(dbc, candidate); err != nil {
			return payout.CreatePayoutResult{}, observability.OutcomeError, err
		}
		log.Info("Payout created", "payout_id", candidate.ID, "amount", candidate.Amount.String(), "currency", candidate.Currency)
		return payout.CreatePayoutResult{PayoutID: candidate.ID, Status: candidate.Status, Created: true}, observability.OutcomeCreated, nil

	case repos.InsertDuplicateKey:
		winner, err := s.store.FindByKey(dbc, cmd.CompanyID, cmd.IdempotencyKey)
		if err != nil {
			return payout.CreatePayoutResult{}, observability.OutcomeError, payout.InfrastructureError("payout.find", err)
		}
		if winner == nil {
			log.Error("INVARIANT VIOLATION: unique key rejected insert but no payout is visible",
				"constraint", payout.UniqueKeyIndex,
				"candidate_id", candidate.ID,
			)
			return payout.CreatePayoutResult{}, observability.OutcomeError,
				payout.InvariantError("payout.create", "duplicate key reported but existing payout not found")
		}
		res, err := replay(winner, cmd)
		if err != nil {
			log.Warn("Idempotency conflict after concurrent insert", "payout_id", winner.ID, "error", err)
			return res, observability.OutcomeConflict, err
		}
		log.Warn("Concurrent insert lost the race; returning existing payout", "payout_id", winner.ID)
		return res, observability.OutcomeRaceRecovered, nil

	default:
		return payout.CreatePayoutResult{}, observability.OutcomeError,
			payout.InvariantError("payout.insert", "unknown insert outcome "+inserted.String())
	}
}

func (s *payoutService) enqueueCreated(dbc dbctx.Context, p *payout.Payout) error {
	if s.outbox == nil {
		return nil
	}
	msg, err := payout.NewCreatedMessage(p)
	if err != nil {
		return payout.InfrastructureError("payout.outbox", err)
	}
	if err := s.outbox.Insert(dbc, msg); err != nil {
		return payout.InfrastructureError("payout.outbox", err)
	}
	return nil
}

// replay compares the requested money with the stored payout. The amount is
// checked before the currency.
func replay(existing *payout.Payout, cmd payout.CreatePayoutCommand) (payout.CreatePayoutResult, error) {
	stored := existing.Money()
	if !stored.SameAmount(cmd.Money) {
		return payout.CreatePayoutResult{}, payout.ConflictError("Money amount differs from existing payout")
	}
	if !stored.SameCurrency(cmd.Money) {
		return payout.CreatePayoutResult{}, payout.ConflictError("Currency differs from existing payout")
	}
	return payout.CreatePayoutResult{
		PayoutID: existing.ID,
		Status:   existing.Status,
		Created:  false,
	}, nil
}

func (s *payoutService) Get(ctx context.Context, id uuid.UUID) (*payout.Payout, error) {
	ctx = ctxutil.Default(ctx)
	ctx, span := s.tracer.Start(ctx, "payout.get")
	defer span.End()

	p, err := s.store.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, payout.InfrastructureError("payout.get", err)
	}
	if p == nil {
		return nil, payout.NotFoundError("payout.get", "payout not found")
	}
	return p, nil
}

func (s *payoutService) finish(span trace.Span, outcome string, start time.Time, err error) {
	span.SetAttributes(attribute.String("payout.outcome", outcome))
	if err != nil && outcome == observability.OutcomeError {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payout admission failed")
	}
	s.metrics.ObserveAdmission(outcome, time.Since(start))
}

func (s *payoutService) requestLog(ctx context.Context) *logger.Logger {
	if td := ctxutil.GetTraceData(ctx); td != nil {
		return s.log.With("request_id", td.RequestID, "trace_id", td.TraceID)
	}
	return s.log
}

func outcomeForError(err error) string {
	switch payout.CodeOf(err) {
	case payout.CodeIdempotencyConflict:
		return observability.OutcomeConflict
	case payout.CodeValidation:
		return observability.OutcomeValidationFailed
	default:
		return observability.OutcomeError
	}
}
