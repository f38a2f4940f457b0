package app

import (
	apphttp "github.com/yungbote/ecoscan-backend/internal/http"
	"github.com/yungbote/ecoscan-backend/internal/observability"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) apphttp.RouterConfig {
	return apphttp.RouterConfig{
		Log:           log,
		Metrics:       metrics,
		CORSOrigins:   cfg.CORSOrigins,
		ServiceName:   cfg.Otel.ServiceName,
		Tracing:       cfg.Otel.Enabled,
		ScanHandler:   handlers.Scan,
		PageHandler:   handlers.Page,
		TopicsHandler: handlers.Topics,
		HealthHandler: handlers.Health,
	}
}
