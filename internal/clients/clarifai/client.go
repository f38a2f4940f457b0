// Package clarifai calls the Clarifai general model over REST and returns its
// concepts as candidate labels.
package clarifai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/yungbote/ecoscan-backend/internal/domain"
	"github.com/yungbote/ecoscan-backend/internal/observability"
	"github.com/yungbote/ecoscan-backend/internal/platform/ctxutil"
	"github.com/yungbote/ecoscan-backend/internal/platform/httpx"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

const (
	ProviderName = "clarifai"

	// PlaceholderKey is shipped in sample configs; a client holding it is unconfigured.
	PlaceholderKey = "YOUR_CLARIFAI_API_KEY"
	DefaultURL     = "https://api.clarifai.com/v2/models/aaa03c23b3724a16a56b629203edc62c/outputs"

	maxErrorBody = 512
)

type Config struct {
	APIKey     string
	URL        string
	Timeout    time.Duration
	MaxRetries int
	RPS        float64
	Burst      int
	// RetryBase is the first retry delay before Retry-After and jitter apply.
	RetryBase time.Duration
	// HTTPClient overrides the instrumented default; tests point it at httptest.
	HTTPClient *http.Client
}

type Client struct {
	log        *logger.Logger
	apiKey     string
	url        string
	timeout    time.Duration
	maxRetries int
	retryBase  time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = DefaultURL
	}
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
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{
		log:        log.With("service", "ClarifaiClient"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		url:        url,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		httpClient: hc,
	}, nil
}

func (c *Client) Name() string { return ProviderName }

func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiKey != PlaceholderKey
}

type predictRequest struct {
	Inputs []predictInput `json:"inputs"`
}

type predictInput struct {
	Data struct {
		Image struct {
			Base64 string `json:"base64"`
		} `json:"image"`
	} `json:"data"`
}

type predictResponse struct {
	Status *struct {
		Code        int    `json:"code"`
		Description string `json:"description"`
		Details     string `json:"details"`
	} `json:"status"`
	Outputs []struct {
		Data *struct {
			Concepts []struct {
				Name  string  `json:"name"`
				Value float64 `json:"value"`
			} `json:"concepts"`
		} `json:"data"`
	} `json:"outputs"`
}

// DetectLabels sends one predict request (with bounded retries) and returns every
// concept the model reported.
func (c *Client) DetectLabels(ctx context.Context, img domain.ImagePayload) ([]domain.Label, error) {
	if !c.Configured() {
		return nil, domain.NewProviderError(ProviderName, domain.ProviderUnconfigured, 0, errors.New("clarifai api key not set"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body predictRequest
	var in predictInput
	in.Data.Image.Base64 = img.Base64
	body.Inputs = []predictInput{in}

	raw, err := c.do(ctx, body)
	if err != nil {
		return nil, c.classify(ctx, err)
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, domain.NewProviderError(ProviderName, domain.ProviderDecode, 0, fmt.Errorf("clarifai decode error: %w", err))
	}
	if len(out.Outputs) == 0 || out.Outputs[0].Data == nil {
		if out.Status != nil && out.Status.Description != "" {
			return nil, domain.NewProviderError(ProviderName, domain.ProviderReported, 0, errors.New(out.Status.Description))
		}
		return nil, domain.NewProviderError(ProviderName, domain.ProviderDecode, 0, errors.New("clarifai response has no outputs"))
	}

	concepts := out.Outputs[0].Data.Concepts
	labels := make([]domain.Label, 0, len(concepts))
	for _, cpt := range concepts {
		if strings.TrimSpace(cpt.Name) == "" {
			continue
		}
		labels = append(labels, domain.Label{
			Concept: cpt.Name,
			Score:   domain.ClampScore(cpt.Value),
			Type:    domain.LabelTypeClarifai,
		})
	}
	return labels, nil
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return e.Body
}

func (e *httpStatusError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *Client) doOnce(ctx context.Context, payload []byte) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if td := ctxutil.GetTraceData(ctx); td != nil && td.RequestID != "" {
		req.Header.Set("X-Request-ID", td.RequestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpStatusError{StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(raw)), maxErrorBody)}
	}
	return resp, raw, nil
}

func (c *Client) do(ctx context.Context, body predictRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &rateLimitError{err: err}
		}

		resp, raw, err := c.doOnce(ctx, payload)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil || !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return nil, err
		}

		sleepFor := httpx.RetryAfterDuration(resp, httpx.Backoff(c.retryBase, attempt+1), 5*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("Clarifai request retrying",
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		observability.Current().IncProviderRetry(ProviderName)

		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("unreachable retry loop")
}

type rateLimitError struct{ err error }

func (e *rateLimitError) Error() string { return "rate limit wait: " + e.err.Error() }
func (e *rateLimitError) Unwrap() error { return e.err }

// classify turns a transport-level failure into a ProviderError.
func (c *Client) classify(ctx context.Context, err error) error {
	var hse *httpStatusError
	if errors.As(err, &hse) {
		return domain.NewProviderError(ProviderName, domain.ProviderHTTPStatus, hse.StatusCode, hse)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewProviderError(ProviderName, domain.ProviderTimeout, 0, err)
	}
	var rle *rateLimitError
	if errors.As(err, &rle) {
		return domain.NewProviderError(ProviderName, domain.ProviderRateLimited, 0, err)
	}
	return domain.NewProviderError(ProviderName, domain.ProviderTransport, 0, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
