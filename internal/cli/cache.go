package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/ecoscan-backend/internal/app"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the scan result cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop cached provider labels (Redis entries under REDIS_PREFIX)",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	v, err := loadViper()
	if err != nil {
		return err
	}
	log, err := logger.New(v.GetString("log_mode"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	cfg, err := app.LoadConfig(v, log, Version)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	c, closeCache, err := app.OpenCache(cmd.Context(), log, cfg)
	if err != nil {
		return err
	}
	if c == nil {
		fmt.Fprintln(out, "result cache disabled (ECOSCAN_CACHE_TTL_SECONDS=0); nothing to clear")
		return nil
	}
	if closeCache != nil {
		defer closeCache()
	}
	if err := c.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	if cfg.RedisAddr == "" {
		fmt.Fprintln(out, "no shared cache configured (REDIS_ADDR unset); running servers keep their in-memory entries until TTL")
		return nil
	}
	fmt.Fprintf(out, "cleared shared scan cache at %s (prefix %q)\n", cfg.RedisAddr, cfg.RedisPrefix)
	return nil
}
