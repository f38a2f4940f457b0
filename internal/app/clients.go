package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/ecoscan-backend/internal/clients/clarifai"
	"github.com/yungbote/ecoscan-backend/internal/clients/gcp"
	"github.com/yungbote/ecoscan-backend/internal/clients/redis"
	"github.com/yungbote/ecoscan-backend/internal/modules/scan"
	"github.com/yungbote/ecoscan-backend/internal/platform/cache"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

type Clients struct {
	Provider scan.Provider
	Cache    cache.Cache

	closers []func() error
}

func (c Clients) Close() {
	for _, fn := range c.closers {
		_ = fn()
	}
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	switch cfg.Provider {
	case ProviderVision:
		v, err := gcp.NewVision(ctx, log, gcp.VisionConfig{
			APIKey:     cfg.VisionAPIKey,
			Timeout:    cfg.ProviderTimeout,
			MaxRetries: cfg.ProviderMaxRetries,
			RPS:        cfg.ProviderRPS,
			Burst:      cfg.ProviderBurst,
		})
		if err != nil {
			log.Warn("vision client unavailable; scans will return sample data", "error", err)
			out.Provider = gcp.Unconfigured{}
		} else {
			out.Provider = v
			out.closers = append(out.closers, v.Close)
		}
	default:
		c, err := clarifai.New(log, clarifai.Config{
			APIKey:     cfg.ClarifaiKey,
			URL:        cfg.ClarifaiURL,
			Timeout:    cfg.ProviderTimeout,
			MaxRetries: cfg.ProviderMaxRetries,
			RPS:        cfg.ProviderRPS,
			Burst:      cfg.ProviderBurst,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init clarifai client: %w", err)
		}
		out.Provider = c
	}

	c, closeCache, err := OpenCache(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}
	out.Cache = c
	if closeCache != nil {
		out.closers = append(out.closers, closeCache)
	}
	return out, nil
}

// OpenCache builds the scan result cache: memory, plus Redis when REDIS_ADDR is set.
// It returns a nil cache when caching is disabled (TTL 0). The close func is nil
// unless a Redis connection was opened.
func OpenCache(ctx context.Context, log *logger.Logger, cfg Config) (cache.Cache, func() error, error) {
	if cfg.CacheTTL <= 0 {
		return nil, nil, nil
	}
	mem := cache.NewMemory(cfg.CacheTTL, 2*cfg.CacheTTL)
	if cfg.RedisAddr == "" {
		return mem, nil, nil
	}
	rc, err := redis.NewCache(ctx, log, redis.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		Prefix:   cfg.RedisPrefix,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init redis cache: %w", err)
	}
	return cache.NewLayered(mem, rc, minDuration(cfg.CacheTTL, time.Minute)), rc.Close, nil
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
