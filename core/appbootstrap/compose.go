package appbootstrap

import (
	"database/sql"

	"incidents-api/api"
	"incidents-api/config"
	"incidents-api/core/metrics"
	"incidents-api/core/store"
	"incidents-api/core/utils"
)

type runtimeComposition struct {
	serverDeps api.ServerDeps
}

func composeRuntime(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) *runtimeComposition {
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace)
	} else {
		logger.Printf("metrics disabled")
	}
	return &runtimeComposition{
		serverDeps: api.ServerDeps{
			Store:   store.NewStore(db),
			Metrics: collector,
		},
	}
}
