package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/ecoscan-backend/internal/app"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (overrides PORT)")
	serveCmd.Flags().String("provider", "", "classifier: clarifai or vision (overrides ECOSCAN_PROVIDER)")
}

func runServe(cmd *cobra.Command, args []string) error {
	v, err := loadViper()
	if err != nil {
		return err
	}
	if err := v.BindPFlag("port", cmd.Flags().Lookup("port")); err != nil {
		return err
	}
	if err := v.BindPFlag("ecoscan_provider", cmd.Flags().Lookup("provider")); err != nil {
		return err
	}

	log, err := logger.New(v.GetString("log_mode"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("Loading configuration...")
	cfg, err := app.LoadConfig(v, log, Version)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Close(closeCtx)
	}()
	return a.Run(ctx)
}
