package app

import (
	"fmt"

	"github.com/yungbote/ecoscan-backend/internal/modules/scan"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

type Services struct {
	Catalog *scan.Catalog
	Scan    *scan.Service
}

func wireServices(log *logger.Logger, cfg Config, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	catalog, err := scan.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return Services{}, fmt.Errorf("load catalog: %w", err)
	}
	if cfg.CatalogFile != "" {
		log.Info("catalog loaded", "file", cfg.CatalogFile, "topics", len(catalog.Topics()), "keywords", len(catalog.Keywords()))
	}

	svc, err := scan.NewService(log, catalog, clients.Provider, clients.Cache, scan.Config{
		MaxImageBytes: cfg.MaxImageBytes,
		FailurePolicy: cfg.FailurePolicy,
		CacheTTL:      cfg.CacheTTL,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init scan service: %w", err)
	}
	return Services{Catalog: catalog, Scan: svc}, nil
}
