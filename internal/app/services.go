package app

import (
	"fmt"

	"github.com/luisovando/payout-orchestrator/internal/events/bus"
	"github.com/luisovando/payout-orchestrator/internal/observability"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
	"github.com/luisovando/payout-orchestrator/internal/services"
)

type Services struct {
	Payouts services.PayoutService
	// Relay is nil when there is no outbox to drain.
	Relay *services.OutboxRelay
}

func wireServices(log *logger.Logger, cfg Config, r Repos, b bus.Bus, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	out := Services{
		Payouts: services.NewPayoutService(log, r.Payouts, r.Outbox, r.Tx, cfg.Policy, metrics),
	}
	if r.Outbox != nil && b != nil {
		out.Relay = services.NewOutboxRelay(log, r.Tx, r.Outbox, b, metrics, services.OutboxRelayConfig{
			Interval:  cfg.Outbox.Interval,
			BatchSize: cfg.Outbox.BatchSize,
		})
	}
	return out
}

// newBus picks the outbox sink. The memory driver has no outbox, so no bus.
func newBus(log *logger.Logger, cfg Config) (bus.Bus, error) {
	if cfg.DB.Driver == DriverMemory {
		return nil, nil
	}
	switch cfg.Outbox.Sink {
	case SinkRedis:
		return bus.NewRedisBus(log, cfg.Redis)
	case SinkKafka:
		return bus.NewKafkaBus(log, cfg.Kafka)
	case SinkLog, "":
		return bus.NewLogBus(log), nil
	default:
		return nil, fmt.Errorf("unknown outbox sink %q", cfg.Outbox.Sink)
	}
}
