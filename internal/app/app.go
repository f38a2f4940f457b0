package app

import (
	"context"
	"fmt"
	"net"

	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/ecoscan-backend/internal/http"
	"github.com/yungbote/ecoscan-backend/internal/observability"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Services Services
	Server   *apphttp.Server

	otelShutdown func(context.Context) error
}

// New builds the application from cfg. The caller owns log.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	gin.SetMode(cfg.GinMode)

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(log, cfg.MetricsEnabled)

	clientset, err := wireClients(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	serviceset, err := wireServices(log, cfg, clientset)
	if err != nil {
		clientset.Close()
		return nil, err
	}
	handlerset := wireHandlers(log, cfg, serviceset)

	server := apphttp.NewServer(
		wireRouter(log, cfg, handlerset, metrics),
		apphttp.ServerConfig{Addr: net.JoinHostPort("", cfg.Port)},
	)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clientset,
		Services:     serviceset,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening",
		"port", a.Cfg.Port,
		"provider", a.Services.Scan.ProviderName(),
		"provider_configured", a.Services.Scan.ProviderConfigured(),
		"failure_policy", string(a.Cfg.FailurePolicy),
	)
	err := a.Server.Run(ctx)
	a.Log.Info("Server stopped")
	return err
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
