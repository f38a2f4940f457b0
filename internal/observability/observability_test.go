package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key=abc , bad, =x, tenant = eco ")
	if len(got) != 2 || got["api-key"] != "abc" || got["tenant"] != "eco" {
		t.Fatalf("ParseHeaders: got=%v", got)
	}
	if ParseHeaders("   ") != nil {
		t.Fatalf("ParseHeaders(blank): want nil")
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.IncScanOutcome("clarifai", "success")
	m.ObserveProviderRequest("clarifai", "", time.Millisecond)
	m.IncCacheLookup(true)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Fatalf("nil Metrics handler: got=%d want=404", rec.Code)
	}
}

func TestMetricsHandlerExposesScanCounters(t *testing.T) {
	m := NewMetrics()
	m.IncScanOutcome("vision", "fallback_error")
	m.ObserveProviderRequest("vision", "timeout", 2*time.Second)
	m.ObserveLabelsReturned(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		`ecoscan_scan_outcomes_total{outcome="fallback_error",provider="vision"} 1`,
		`ecoscan_provider_requests_total{provider="vision",result="timeout"} 1`,
		`ecoscan_scan_labels_returned_count 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
