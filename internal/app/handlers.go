package app

import (
	"context"

	"github.com/luisovando/payout-orchestrator/internal/data/db"
	httpH "github.com/luisovando/payout-orchestrator/internal/http/handlers"
	"github.com/luisovando/payout-orchestrator/internal/platform/logger"
)

type Handlers struct {
	Payout *httpH.PayoutHandler
	Health *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, database *db.Service, s Services) (Handlers, error) {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger = alwaysReady{}
	if database != nil {
		sqlDB, err := database.DB().DB()
		if err != nil {
			return Handlers{}, err
		}
		pinger = sqlDB
	}
	return Handlers{
		Payout: httpH.NewPayoutHandler(log, s.Payouts),
		Health: httpH.NewHealthHandler(pinger),
	}, nil
}

type alwaysReady struct{}

func (alwaysReady) PingContext(context.Context) error { return nil }
