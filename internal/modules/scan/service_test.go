package scan

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/yungbote/ecoscan-backend/internal/domain"
	"github.com/yungbote/ecoscan-backend/internal/platform/cache"
	"github.com/yungbote/ecoscan-backend/internal/platform/logger"
)

type fakeProvider struct {
	name       string
	configured bool
	labels     []domain.Label
	err        error
	delay      time.Duration
	calls      atomic.Int32
	lastMime   atomic.Value
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }
func (f *fakeProvider) DetectLabels(ctx context.Context, img domain.ImagePayload) ([]domain.Label, error) {
	f.calls.Add(1)
	f.lastMime.Store(img.MimeType)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.labels, nil
}

func newTestService(t *testing.T, p Provider, c cache.Cache, cfg Config) *Service {
	t.Helper()
	s, err := NewService(logger.NewNop(), nil, p, c, cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s
}

func TestScanRejectsMissingImage(t *testing.T) {
	p := &fakeProvider{name: "clarifai", configured: true}
	resp := newTestService(t, p, nil, Config{}).Scan(context.Background(), "")
	if resp.Success || resp.Error != "No image data provided" {
		t.Fatalf("Scan(empty): got=%+v", resp)
	}
	if p.calls.Load() != 0 {
		t.Fatalf("provider called for empty image")
	}
}

func TestScanUnconfiguredReturnsFullMockSet(t *testing.T) {
	p := &fakeProvider{name: "clarifai", configured: false}
	resp := newTestService(t, p, nil, Config{}).Scan(context.Background(), pngBase64(t))
	if !resp.Success || len(resp.Results) != 6 || resp.Note == "" {
		t.Fatalf("Scan(unconfigured): got=%+v", resp)
	}
	if !strings.Contains(resp.Note, "configure ClarifAI API") {
		t.Fatalf("note: got=%q", resp.Note)
	}
	if len(resp.EducationalContent) != 6 {
		t.Fatalf("educational content: got=%d", len(resp.EducationalContent))
	}
	if p.calls.Load() != 0 {
		t.Fatalf("provider called while unconfigured")
	}
	for _, l := range resp.Results {
		if l.Type != domain.LabelTypeMock {
			t.Fatalf("mock label type: got=%q", l.Type)
		}
	}
}

func TestScanSuccess(t *testing.T) {
	p := &fakeProvider{name: "vision", configured: true, labels: []domain.Label{
		{Concept: "Tree", Score: 0.9, Type: domain.LabelTypeLabel},
		{Concept: "tree", Score: 0.95, Type: domain.LabelTypeWeb},
		{Concept: "Car", Score: 0.99, Type: domain.LabelTypeLabel},
		{Concept: "Rock garden", Score: 0.4, Type: domain.LabelTypeWeb},
	}}
	resp := newTestService(t, p, nil, Config{}).Scan(context.Background(), "data:image/png;base64,"+pngBase64(t))
	if !resp.Success || resp.Note != "" || resp.Error != "" {
		t.Fatalf("Scan: got=%+v", resp)
	}
	if len(resp.Results) != 2 || resp.Results[0].Concept != "Tree" || resp.Results[1].Concept != "Rock garden" {
		t.Fatalf("results: got=%+v", resp.Results)
	}
	if !strings.HasPrefix(resp.EducationalContent[0].Fact, "A single mature tree") {
		t.Fatalf("content: got=%+v", resp.EducationalContent[0])
	}
}

func TestScanNoMatchesFallsBackToShortMockSet(t *testing.T) {
	p := &fakeProvider{name: "clarifai", configured: true, labels: []domain.Label{
		{Concept: "Car", Score: 0.99, Type: domain.LabelTypeClarifai},
	}}
	resp := newTestService(t, p, nil, Config{FailurePolicy: PolicySurface}).Scan(context.Background(), pngBase64(t))
	if !resp.Success || len(resp.Results) != 4 || resp.Note != noteNoMatches {
		t.Fatalf("Scan(no matches): got=%+v", resp)
	}
}

func TestScanProviderErrorUnderFallbackPolicy(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantNote string
	}{
		{
			name:     "http status",
			err:      domain.NewProviderError("clarifai", domain.ProviderHTTPStatus, 401, errors.New(`{"status":"unauthorized"}`)),
			wantNote: `ClarifAI API error: {"status":"unauthorized"}`,
		},
		{
			name:     "timeout",
			err:      domain.NewProviderError("clarifai", domain.ProviderTimeout, 0, context.DeadlineExceeded),
			wantNote: noteTimeout,
		},
		{
			name:     "transport",
			err:      domain.NewProviderError("clarifai", domain.ProviderTransport, 0, errors.New("connection refused")),
			wantNote: "Error: connection refused - showing sample data",
		},
	}
	for _, tc := range cases {
		p := &fakeProvider{name: "clarifai", configured: true, err: tc.err}
		resp := newTestService(t, p, nil, Config{}).Scan(context.Background(), pngBase64(t))
		if !resp.Success || len(resp.Results) != 4 {
			t.Fatalf("%s: got=%+v", tc.name, resp)
		}
		if resp.Note != tc.wantNote {
			t.Fatalf("%s: note got=%q want=%q", tc.name, resp.Note, tc.wantNote)
		}
	}
}

func TestScanProviderErrorUnderSurfacePolicy(t *testing.T) {
	p := &fakeProvider{name: "vision", configured: true,
		err: domain.NewProviderError("vision", domain.ProviderReported, 0, errors.New("Bad image data."))}
	resp := newTestService(t, p, nil, Config{FailurePolicy: PolicySurface}).Scan(context.Background(), pngBase64(t))
	if resp.Success || resp.Error != "Bad image data." || len(resp.Results) != 0 {
		t.Fatalf("Scan(surface): got=%+v", resp)
	}
}

func TestScanLateUnconfiguredErrorUsesFullMockSet(t *testing.T) {
	p := &fakeProvider{name: "vision", configured: true,
		err: domain.NewProviderError("vision", domain.ProviderUnconfigured, 0, errors.New("no credentials"))}
	resp := newTestService(t, p, nil, Config{FailurePolicy: PolicySurface}).Scan(context.Background(), pngBase64(t))
	if !resp.Success || len(resp.Results) != 6 {
		t.Fatalf("Scan(late unconfigured): got=%+v", resp)
	}
}

func TestScanCachesProviderLabels(t *testing.T) {
	p := &fakeProvider{name: "clarifai", configured: true, labels: []domain.Label{
		{Concept: "Ocean", Score: 0.9, Type: domain.LabelTypeClarifai},
	}}
	c := cache.NewMemory(time.Minute, time.Minute)
	s := newTestService(t, p, c, Config{CacheTTL: time.Minute})
	img := pngBase64(t)

	first := s.Scan(context.Background(), img)
	second := s.Scan(context.Background(), img)
	if p.calls.Load() != 1 {
		t.Fatalf("provider calls: got=%d want=1", p.calls.Load())
	}
	if len(first.Results) != 1 || len(second.Results) != 1 || second.Results[0].Concept != "Ocean" {
		t.Fatalf("cached results differ: first=%+v second=%+v", first.Results, second.Results)
	}
}

func TestScanDoesNotCacheFailures(t *testing.T) {
	p := &fakeProvider{name: "clarifai", configured: true,
		err: domain.NewProviderError("clarifai", domain.ProviderTransport, 0, errors.New("boom"))}
	c := cache.NewMemory(time.Minute, time.Minute)
	s := newTestService(t, p, c, Config{CacheTTL: time.Minute})
	img := pngBase64(t)
	s.Scan(context.Background(), img)
	s.Scan(context.Background(), img)
	if p.calls.Load() != 2 {
		t.Fatalf("provider calls: got=%d want=2", p.calls.Load())
	}
	if c.Len() != 0 {
		t.Fatalf("failure was cached")
	}
}

func TestScanCollapsesConcurrentIdenticalImages(t *testing.T) {
	p := &fakeProvider{name: "clarifai", configured: true, delay: 50 * time.Millisecond, labels: []domain.Label{
		{Concept: "Forest", Score: 0.8, Type: domain.LabelTypeClarifai},
	}}
	s := newTestService(t, p, nil, Config{})
	img := pngBase64(t)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if resp := s.Scan(context.Background(), img); !resp.Success {
				t.Errorf("Scan: got=%+v", resp)
			}
		}()
	}
	wg.Wait()
	if n := p.calls.Load(); n >= 5 {
		t.Fatalf("provider calls: got=%d, want fewer than concurrent requests", n)
	}
}

func TestScanCallerDeadlineSurfacesAsTimeout(t *testing.T) {
	p := &fakeProvider{name: "clarifai", configured: true, delay: 200 * time.Millisecond}
	s := newTestService(t, p, nil, Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	resp := s.Scan(ctx, pngBase64(t))
	if !resp.Success || resp.Note != noteTimeout {
		t.Fatalf("Scan(deadline): got=%+v", resp)
	}
}

func TestResultsNeverExceedMax(t *testing.T) {
	var labels []domain.Label
	for _, c := range []string{"Tree", "Leaf", "Flower", "Bird", "Insect", "Ocean", "River", "Lake", "Soil"} {
		labels = append(labels, domain.Label{Concept: c, Score: 0.5, Type: domain.LabelTypeClarifai})
	}
	p := &fakeProvider{name: "clarifai", configured: true, labels: labels}
	resp := newTestService(t, p, nil, Config{}).Scan(context.Background(), pngBase64(t))
	if len(resp.Results) > MaxResults || len(resp.EducationalContent) > MaxResults {
		t.Fatalf("results: got=%d content=%d", len(resp.Results), len(resp.EducationalContent))
	}
}

func TestParseFailurePolicy(t *testing.T) {
	for raw, want := range map[string]FailurePolicy{"": PolicyFallback, "Fallback": PolicyFallback, " surface ": PolicySurface} {
		got, err := ParseFailurePolicy(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFailurePolicy(%q): got=%q err=%v", raw, got, err)
		}
	}
	if _, err := ParseFailurePolicy("retry"); err == nil {
		t.Fatalf("ParseFailurePolicy(retry): want error")
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, nil, &fakeProvider{}, nil, Config{}); err == nil {
		t.Fatalf("NewService(nil logger): want error")
	}
	if _, err := NewService(logger.NewNop(), nil, nil, nil, Config{}); err == nil {
		t.Fatalf("NewService(nil provider): want error")
	}
}

func opaqueDataURLs() map[string]string {
	return map[string]string{
		"heic": "data:image/heic;base64," + base64.StdEncoding.EncodeToString([]byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic")),
		"ico":  "data:image/x-icon;base64," + base64.StdEncoding.EncodeToString([]byte{0, 0, 1, 0, 1, 0, 16, 16, 0, 0, 1, 0, 32, 0}),
		"svg":  "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)),
	}
}

func TestScanUnknownFormatUnconfiguredGetsMockSet(t *testing.T) {
	for name, img := range opaqueDataURLs() {
		p := &fakeProvider{name: "clarifai", configured: false}
		resp := newTestService(t, p, nil, Config{}).Scan(context.Background(), img)
		if !resp.Success || len(resp.Results) != 6 || resp.Note == "" {
			t.Fatalf("%s: got=%+v", name, resp)
		}
	}
}

func TestScanUnknownFormatReachesProvider(t *testing.T) {
	for name, img := range opaqueDataURLs() {
		p := &fakeProvider{name: "vision", configured: true, labels: []domain.Label{
			{Concept: "Leaf", Score: 0.7, Type: domain.LabelTypeLabel},
		}}
		resp := newTestService(t, p, nil, Config{}).Scan(context.Background(), img)
		if p.calls.Load() != 1 {
			t.Fatalf("%s: provider calls got=%d want=1", name, p.calls.Load())
		}
		if !resp.Success || len(resp.Results) != 1 || resp.Results[0].Concept != "Leaf" {
			t.Fatalf("%s: got=%+v", name, resp)
		}
		if got := p.lastMime.Load(); got != "application/octet-stream" {
			t.Fatalf("%s: provider mime got=%v", name, got)
		}
	}
}

func TestScanRecordsImageAttributes(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	p := &fakeProvider{name: "clarifai", configured: false}
	newTestService(t, p, nil, Config{}).Scan(context.Background(), pngBase64(t))

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans: got=%d want=1", len(spans))
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["image.mime_type"] != "image/png" || attrs["image.format"] != "png" {
		t.Fatalf("image attributes: got=%v", attrs)
	}
	if attrs["scan.outcome"] != OutcomeUnconfigured {
		t.Fatalf("scan.outcome: got=%q", attrs["scan.outcome"])
	}
}
