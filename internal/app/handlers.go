package app

import (
	httpH "github.com/yungbote/ecoscan-backend/internal/http/handlers"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

type Handlers struct {
	Scan   *httpH.ScanHandler
	Page   *httpH.PageHandler
	Topics *httpH.TopicsHandler
	Health *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Scan:   httpH.NewScanHandler(log, services.Scan, cfg.MaxImageBytes),
		Page:   httpH.NewPageHandler(services.Scan.ProviderName()),
		Topics: httpH.NewTopicsHandler(services.Catalog),
		Health: httpH.NewHealthHandler(cfg.Version, services.Scan),
	}
}
