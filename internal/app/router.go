package app

import (
	apihttp "github.com/luisovando/payout-orchestrator/internal/http"
	"github.com/luisovando/payout-orchestrator/internal/observability"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, h Handlers, metrics *observability.Metrics) *apihttp.Server {
	log.Info("Wiring router...")
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apihttp.NewServer(apihttp.RouterConfig{
		Log:           log,
		Metrics:       metrics,
		ServiceName:   serviceName,
		CORSOrigins:   cfg.CORSOrigins,
		PayoutHandler: h.Payout,
		HealthHandler: h.Health,
	})
}
