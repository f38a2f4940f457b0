package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yungbote/ecoscan-backend/internal/clients/clarifai"
	"github.com/yungbote/ecoscan-backend/internal/modules/scan"
	"github.com/yungbote/ecoscan-backend/internal/observability"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

const (
	ProviderClarifai = "clarifai"
	ProviderVision   = "vision"
)

type Config struct {
	Port    string
	LogMode string
	GinMode string
	Version string

	Provider      string
	ClarifaiKey   string
	ClarifaiURL   string
	VisionAPIKey  string
	FailurePolicy scan.FailurePolicy

	ProviderTimeout    time.Duration
	ProviderMaxRetries int
	ProviderRPS        float64
	ProviderBurst      int

	MaxImageBytes int64
	CacheTTL      time.Duration
	CatalogFile   string

	RedisAddr     string
	RedisPassword string
	RedisPrefix   string

	CORSOrigins    []string
	MetricsEnabled bool
	Otel           observability.OtelConfig
}

// SetDefaults registers every key with its default so AutomaticEnv and config
// files resolve them. Keys are the lower-cased environment variable names.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_mode", "development")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("ecoscan_provider", ProviderClarifai)
	v.SetDefault("clarifai_api_key", clarifai.PlaceholderKey)
	v.SetDefault("clarifai_api_url", clarifai.DefaultURL)
	v.SetDefault("google_vision_api_key", "")
	v.SetDefault("ecoscan_failure_policy", string(scan.PolicyFallback))
	v.SetDefault("ecoscan_provider_timeout_seconds", 15)
	v.SetDefault("ecoscan_provider_max_retries", 1)
	v.SetDefault("ecoscan_provider_rps", 5.0)
	v.SetDefault("ecoscan_provider_burst", 10)
	v.SetDefault("ecoscan_max_image_bytes", scan.DefaultMaxImageBytes)
	v.SetDefault("ecoscan_cache_ttl_seconds", 600)
	v.SetDefault("ecoscan_catalog_file", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_prefix", "ecoscan")
	v.SetDefault("cors_allow_origins", "")
	v.SetDefault("metrics_enabled", false)
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_service_name", "ecoscan")
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_exporter_otlp_headers", "")
	v.SetDefault("otel_exporter_otlp_insecure", false)
	v.SetDefault("otel_sampler_ratio", 1.0)
	v.SetDefault("deployment_environment", "development")
}

// NewViper returns a viper reading the environment (and configFile, when set).
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// LoadConfig resolves Config. Numeric values that do not parse, or are out of range,
// fall back to defaults with a warning; an unknown provider or failure policy is
// an error.
func LoadConfig(v *viper.Viper, log *logger.Logger, version string) (Config, error) {
	cfg := Config{
		Port:          strings.TrimSpace(v.GetString("port")),
		LogMode:       strings.TrimSpace(v.GetString("log_mode")),
		GinMode:       strings.TrimSpace(v.GetString("gin_mode")),
		Version:       version,
		Provider:      strings.ToLower(strings.TrimSpace(v.GetString("ecoscan_provider"))),
		ClarifaiKey:   strings.TrimSpace(v.GetString("clarifai_api_key")),
		ClarifaiURL:   strings.TrimSpace(v.GetString("clarifai_api_url")),
		VisionAPIKey:  strings.TrimSpace(v.GetString("google_vision_api_key")),
		CatalogFile:   strings.TrimSpace(v.GetString("ecoscan_catalog_file")),
		RedisAddr:     strings.TrimSpace(v.GetString("redis_addr")),
		RedisPassword: v.GetString("redis_password"),
		RedisPrefix:   strings.TrimSpace(v.GetString("redis_prefix")),
		CORSOrigins:   splitList(v.GetString("cors_allow_origins")),
	}

	switch cfg.Provider {
	case ProviderClarifai, ProviderVision:
	default:
		return Config{}, fmt.Errorf("unknown ECOSCAN_PROVIDER %q (want %q or %q)", cfg.Provider, ProviderClarifai, ProviderVision)
	}
	policy, err := scan.ParseFailurePolicy(v.GetString("ecoscan_failure_policy"))
	if err != nil {
		return Config{}, fmt.Errorf("ECOSCAN_FAILURE_POLICY: %w", err)
	}
	cfg.FailurePolicy = policy

	cfg.ProviderTimeout = time.Duration(intSetting(v, log, "ecoscan_provider_timeout_seconds", 15, 1)) * time.Second
	cfg.ProviderMaxRetries = intSetting(v, log, "ecoscan_provider_max_retries", 1, 0)
	cfg.ProviderRPS = floatSetting(v, log, "ecoscan_provider_rps", 5, 0)
	cfg.ProviderBurst = intSetting(v, log, "ecoscan_provider_burst", 10, 1)
	cfg.MaxImageBytes = int64(intSetting(v, log, "ecoscan_max_image_bytes", int(scan.DefaultMaxImageBytes), 1))
	cfg.CacheTTL = time.Duration(intSetting(v, log, "ecoscan_cache_ttl_seconds", 600, 0)) * time.Second
	cfg.MetricsEnabled = boolSetting(v, log, "metrics_enabled", false)

	cfg.Otel = observability.OtelConfig{
		Enabled:     boolSetting(v, log, "otel_enabled", false),
		ServiceName: strings.TrimSpace(v.GetString("otel_service_name")),
		Environment: strings.TrimSpace(v.GetString("deployment_environment")),
		Version:     version,
		Endpoint:    strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint")),
		Headers:     observability.ParseHeaders(v.GetString("otel_exporter_otlp_headers")),
		Insecure:    boolSetting(v, log, "otel_exporter_otlp_insecure", false),
		SampleRatio: floatSetting(v, log, "otel_sampler_ratio", 1, 0),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		warnDefault(log, "gin_mode", cfg.GinMode, "release")
		cfg.GinMode = "release"
	}
	if cfg.Provider == ProviderClarifai && (cfg.ClarifaiKey == "" || cfg.ClarifaiKey == clarifai.PlaceholderKey) && log != nil {
		log.Warn("CLARIFAI_API_KEY not set; scans will return sample data")
	}
	return cfg, nil
}

func intSetting(v *viper.Viper, log *logger.Logger, key string, def, min int) int {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		warnDefault(log, key, raw, def)
		return def
	}
	return n
}

func floatSetting(v *viper.Viper, log *logger.Logger, key string, def, min float64) float64 {
	raw := strings.TrimSpace(v.GetString(key))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < min {
		warnDefault(log, key, raw, def)
		return def
	}
	return f
}

func boolSetting(v *viper.Viper, log *logger.Logger, key string, def bool) bool {
	raw := strings.TrimSpace(v.GetString(key))
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off", "":
		return false
	}
	warnDefault(log, key, raw, def)
	return def
}

func warnDefault(log *logger.Logger, key, raw string, def interface{}) {
	if log == nil {
		return
	}
	log.Warn("invalid config value, using default", "key", strings.ToUpper(key), "value", raw, "default", def)
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
