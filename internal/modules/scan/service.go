package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/ecoscan-backend/internal/domain"
	"github.com/yungbote/ecoscan-backend/internal/observability"
	"github.com/yungbote/ecoscan-backend/internal/platform/cache"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

// Provider is an image classification backend. DetectLabels returns candidate labels
// before environmental filtering; failures are *domain.ProviderError.
type Provider interface {
	Name() string
	Configured() bool
	DetectLabels(ctx context.Context, img domain.ImagePayload) ([]domain.Label, error)
}

// FailurePolicy decides what a provider failure looks like to the client.
type FailurePolicy string

const (
	// PolicyFallback answers provider failures with sample data and an explanatory note.
	PolicyFallback FailurePolicy = "fallback"
	// PolicySurface answers provider failures with success=false and the error text.
	PolicySurface FailurePolicy = "surface"
)

func ParseFailurePolicy(raw string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyFallback:
		return PolicyFallback, nil
	case PolicySurface:
		return PolicySurface, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (want %q or %q)", raw, PolicyFallback, PolicySurface)
	}
}

// Scan outcomes, also used as metric labels.
const (
	OutcomeSuccess       = "success"
	OutcomeUnconfigured  = "mock_unconfigured"
	OutcomeFallbackError = "fallback_error"
	OutcomeFallbackEmpty = "fallback_empty"
	OutcomeProviderError = "provider_error"
	OutcomeInvalidInput  = "invalid_input"
)

type Config struct {
	MaxImageBytes int64
	MaxResults    int
	FailurePolicy FailurePolicy
	CacheTTL      time.Duration
}

type Service struct {
	log      *logger.Logger
	catalog  *Catalog
	provider Provider
	cache    cache.Cache
	cfg      Config
	group    singleflight.Group
}

func NewService(log *logger.Logger, catalog *Catalog, provider Provider, c cache.Cache, cfg Config) (*Service, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if provider == nil {
		return nil, fmt.Errorf("provider required")
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = MaxResults
	}
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = PolicyFallback
	}
	return &Service{
		log:      log.With("service", "ScanService", "provider", provider.Name()),
		catalog:  catalog,
		provider: provider,
		cache:    c,
		cfg:      cfg,
	}, nil
}

func (s *Service) ProviderName() string { return s.provider.Name() }

func (s *Service) ProviderConfigured() bool { return s.provider.Configured() }

// Scan runs one request end to end. It never returns an error: every failure is
// expressed in the envelope.
func (s *Service) Scan(ctx context.Context, rawImage string) domain.ScanResponse {
	ctx, span := observability.Tracer().Start(ctx, "scan.Scan")
	defer span.End()

	resp, outcome := s.scan(ctx, rawImage)

	span.SetAttributes(
		attribute.String("scan.provider", s.provider.Name()),
		attribute.String("scan.outcome", outcome),
		attribute.Int("scan.results", len(resp.Results)),
	)
	if !resp.Success {
		span.SetStatus(codes.Error, resp.Error)
	}
	observability.Current().IncScanOutcome(s.provider.Name(), outcome)
	return resp
}

func (s *Service) scan(ctx context.Context, rawImage string) (domain.ScanResponse, string) {
	img, err := DecodeImagePayload(rawImage, s.cfg.MaxImageBytes)
	if err != nil {
		return domain.ScanFailure(err.Error()), OutcomeInvalidInput
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("image.format", img.Format),
		attribute.String("image.mime_type", img.MimeType),
		attribute.Int("image.bytes", len(img.Bytes)),
	)

	if !s.provider.Configured() {
		return s.mockResponse(true, unconfiguredNote(s.provider.Name())), OutcomeUnconfigured
	}

	candidates, err := s.detect(ctx, img)
	if err != nil {
		return s.failureResponse(err)
	}

	labels := s.catalog.SelectTop(candidates, s.cfg.MaxResults)
	observability.Current().ObserveLabelsReturned(len(labels))
	if len(labels) == 0 {
		s.log.Info("no environmental labels detected", "candidates", len(candidates))
		return s.mockResponse(false, noteNoMatches), OutcomeFallbackEmpty
	}

	return domain.ScanResponse{
		Success:            true,
		Results:            labels,
		EducationalContent: s.catalog.GenerateEducationalContent(labels),
	}, OutcomeSuccess
}

// detect consults the cache, then the provider. Identical images in flight at the
// same time share one provider call.
func (s *Service) detect(ctx context.Context, img domain.ImagePayload) ([]domain.Label, error) {
	key := cache.ScanKey(s.provider.Name(), img.Bytes)

	if labels, ok := s.cached(ctx, key); ok {
		return labels, nil
	}

	// The shared call must outlive any single caller; providers bound it with their own timeout.
	callCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		s.log.Debug("calling provider", "mime_type", img.MimeType, "bytes", len(img.Bytes))
		start := time.Now()
		labels, err := s.provider.DetectLabels(callCtx, img)
		observability.Current().ObserveProviderRequest(s.provider.Name(), string(domain.ProviderErrorKindOf(err)), time.Since(start))
		if err != nil {
			return nil, err
		}
		s.store(callCtx, key, labels)
		return labels, nil
	})

	select {
	case <-ctx.Done():
		return nil, domain.NewProviderError(s.provider.Name(), domain.ProviderTimeout, 0, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		labels, _ := res.Val.([]domain.Label)
		return labels, nil
	}
}

func (s *Service) cached(ctx context.Context, key string) ([]domain.Label, bool) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return nil, false
	}
	raw, ok := s.cache.Get(ctx, key)
	observability.Current().IncCacheLookup(ok)
	if !ok {
		return nil, false
	}
	var labels []domain.Label
	if err := json.Unmarshal(raw, &labels); err != nil {
		s.log.Warn("discarding unreadable cache entry", "key", key, "error", err)
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}
	return labels, true
}

func (s *Service) store(ctx context.Context, key string, labels []domain.Label) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(labels)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cfg.CacheTTL); err != nil {
		s.log.Warn("scan cache write failed", "key", key, "error", err)
	}
}

func (s *Service) failureResponse(err error) (domain.ScanResponse, string) {
	kind := domain.ProviderErrorKindOf(err)
	s.log.Warn("provider call failed", "kind", string(kind), "error", err)

	if kind == domain.ProviderUnconfigured {
		return s.mockResponse(true, unconfiguredNote(s.provider.Name())), OutcomeUnconfigured
	}
	if s.cfg.FailurePolicy == PolicySurface {
		return domain.ScanFailure(err.Error()), OutcomeProviderError
	}
	return s.mockResponse(false, s.failureNote(err, kind)), OutcomeFallbackError
}

func (s *Service) failureNote(err error, kind domain.ProviderErrorKind) string {
	switch kind {
	case domain.ProviderTimeout:
		return noteTimeout
	case domain.ProviderHTTPStatus, domain.ProviderReported:
		return providerDisplayName(s.provider.Name()) + " API error: " + err.Error()
	}
	msg := err.Error()
	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.Err != nil {
		msg = pe.Err.Error()
	}
	return "Error: " + msg + " - showing sample data"
}

func (s *Service) mockResponse(full bool, note string) domain.ScanResponse {
	labels := mockLabels(full)
	return domain.ScanResponse{
		Success:            true,
		Results:            labels,
		EducationalContent: s.catalog.GenerateEducationalContent(labels),
		Note:               note,
	}
}
