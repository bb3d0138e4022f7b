package bus

import (
	"context"
	"sync"

	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

type logBus struct {
	log *logger.Logger
}

// NewLogBus writes events to the service log. It is the default sink when no
// broker is configured.
func NewLogBus(log *logger.Logger) Bus {
	return &logBus{log: log.With("service", "LogEventBus")}
}

func (b *logBus) Publish(_ context.Context, evt Event) error {
	b.log.Info("Event published",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"aggregate_id", evt.AggregateID,
		"payload", string(evt.Payload),
	)
	return nil
}

func (b *logBus) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
