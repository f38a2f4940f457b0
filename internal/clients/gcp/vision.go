package gcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"golang.org/x/text/cases"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/ecoscan-backend/internal/domain"
	"github.com/yungbote/ecoscan-backend/internal/observability"
	"github.com/yungbote/ecoscan-backend/internal/platform/httpx"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

const (
	VisionProviderName = "vision"

	labelMaxResults = 10
	webMaxResults   = 5
	// Web entities often come back without a score.
	defaultWebScore = 0.5
)

// annotator is the slice of the Vision client this package uses.
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

type VisionConfig struct {
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	RPS        float64
	Burst      int
	RetryBase  time.Duration
}

// Vision detects labels and web entities with Google Cloud Vision.
type Vision struct {
	log        *logger.Logger
	client     annotator
	timeout    time.Duration
	maxRetries int
	retryBase  time.Duration
	limiter    *rate.Limiter
}

func NewVision(ctx context.Context, log *logger.Logger, cfg VisionConfig) (*Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	c, err := vision.NewImageAnnotatorClient(ctx, ClientOptionsFromEnv(cfg.APIKey)...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return newVision(log, c, cfg), nil
}

func newVision(log *logger.Logger, c annotator, cfg VisionConfig) *Vision {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Vision{
		log:        log.With("service", "gcp.Vision"),
		client:     c,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
	}
}

func (v *Vision) Name() string { return VisionProviderName }

func (v *Vision) Configured() bool { return v != nil && v.client != nil }

func (v *Vision) Close() error {
	if v == nil || v.client == nil {
		return nil
	}
	return v.client.Close()
}

func (v *Vision) DetectLabels(ctx context.Context, img domain.ImagePayload) ([]domain.Label, error) {
	if !v.Configured() {
		return nil, domain.NewProviderError(VisionProviderName, domain.ProviderUnconfigured, 0, errors.New("vision client not initialized"))
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: img.Bytes},
			Features: []*visionpb.Feature{
				{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: labelMaxResults},
				{Type: visionpb.Feature_WEB_DETECTION, MaxResults: webMaxResults},
			},
		}},
	}

	var resp *visionpb.BatchAnnotateImagesResponse
	var err error
	for attempt := 0; attempt <= v.maxRetries; attempt++ {
		if werr := v.limiter.Wait(ctx); werr != nil {
			return nil, classifyVisionError(ctx, werr, true)
		}
		// Retries are handled by this loop, not by gax.
		resp, err = v.client.BatchAnnotateImages(ctx, req, gax.WithRetry(nil))
		if err == nil || ctx.Err() != nil || !isRetryableVision(err) || attempt == v.maxRetries {
			break
		}
		sleepFor := httpx.JitterSleep(httpx.Backoff(v.retryBase, attempt+1))
		v.log.Warn("Vision request retrying",
			"attempt", attempt+1,
			"max_retries", v.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		observability.Current().IncProviderRetry(VisionProviderName)
		if serr := httpx.Sleep(ctx, sleepFor); serr != nil {
			err = serr
			break
		}
	}
	if err != nil {
		return nil, classifyVisionError(ctx, err, false)
	}
	return normalizeVisionResponse(resp)
}

// normalizeVisionResponse flattens label annotations then web entities into
// candidate labels. Web entities repeating a label's concept are dropped.
func normalizeVisionResponse(resp *visionpb.BatchAnnotateImagesResponse) ([]domain.Label, error) {
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return nil, nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, domain.NewProviderError(VisionProviderName, domain.ProviderReported, 0, errors.New(r0.Error.Message))
	}

	fold := cases.Fold()
	seen := map[string]bool{}
	labels := make([]domain.Label, 0, len(r0.LabelAnnotations)+webMaxResults)

	for _, a := range r0.LabelAnnotations {
		if a == nil || strings.TrimSpace(a.Description) == "" {
			continue
		}
		seen[fold.String(strings.TrimSpace(a.Description))] = true
		labels = append(labels, domain.Label{
			Concept: a.Description,
			Score:   domain.ClampScore(float64(a.Score)),
			Type:    domain.LabelTypeLabel,
		})
	}

	if wd := r0.WebDetection; wd != nil {
		for _, e := range wd.WebEntities {
			if e == nil || strings.TrimSpace(e.Description) == "" {
				continue
			}
			key := fold.String(strings.TrimSpace(e.Description))
			if seen[key] {
				continue
			}
			seen[key] = true
			score := float64(e.Score)
			if score == 0 {
				score = defaultWebScore
			}
			labels = append(labels, domain.Label{
				Concept: e.Description,
				Score:   domain.ClampScore(score),
				Type:    domain.LabelTypeWeb,
			})
		}
	}
	return labels, nil
}

func isRetryableVision(err error) bool {
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
			return true
		}
	}
	return httpx.IsRetryableError(err)
}

func classifyVisionError(ctx context.Context, err error, limiterWait bool) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewProviderError(VisionProviderName, domain.ProviderTimeout, 0, err)
	}
	if limiterWait {
		return domain.NewProviderError(VisionProviderName, domain.ProviderRateLimited, 0, err)
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.DeadlineExceeded:
			return domain.NewProviderError(VisionProviderName, domain.ProviderTimeout, 0, err)
		case codes.Unknown, codes.Unavailable:
		default:
			return domain.NewProviderError(VisionProviderName, domain.ProviderReported, 0, errors.New(st.Message()))
		}
	}
	return domain.NewProviderError(VisionProviderName, domain.ProviderTransport, 0, err)
}

// Unconfigured stands in for Vision when its client could not be built, so scans
// still answer with sample data.
type Unconfigured struct{}

func (Unconfigured) Name() string     { return VisionProviderName }
func (Unconfigured) Configured() bool { return false }
func (Unconfigured) DetectLabels(context.Context, domain.ImagePayload) ([]domain.Label, error) {
	return nil, domain.NewProviderError(VisionProviderName, domain.ProviderUnconfigured, 0, errors.New("vision client not initialized"))
}
