package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (m *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mapCache) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string][]byte{}
	return nil
}

func TestMemoryRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute, time.Minute)

	if _, ok := m.Get(ctx, "missing"); ok {
		t.Fatalf("Get(missing): want miss")
	}
	if err := m.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, ok := m.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Fatalf("Get(k): got=%q ok=%v", got, ok)
	}

	_ = m.Set(ctx, "short", []byte("x"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := m.Get(ctx, "short"); ok {
		t.Fatalf("Get(short): want expired")
	}

	_ = m.Clear(ctx)
	if m.Len() != 0 {
		t.Fatalf("Len after Clear: got=%d", m.Len())
	}
}

func TestLayeredBackfillsFastTier(t *testing.T) {
	ctx := context.Background()
	fast := newMapCache()
	shared := newMapCache()
	_ = shared.Set(ctx, "k", []byte("shared"), time.Minute)

	l := NewLayered(fast, shared, time.Minute)
	got, ok := l.Get(ctx, "k")
	if !ok || string(got) != "shared" {
		t.Fatalf("Get: got=%q ok=%v", got, ok)
	}
	if v, ok := fast.Get(ctx, "k"); !ok || string(v) != "shared" {
		t.Fatalf("fast tier not back-filled: got=%q ok=%v", v, ok)
	}

	if err := l.Set(ctx, "n", []byte("both"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := fast.Get(ctx, "n"); !ok {
		t.Fatalf("Set did not write fast tier")
	}
	if _, ok := shared.Get(ctx, "n"); !ok {
		t.Fatalf("Set did not write shared tier")
	}
}

func TestNewLayeredCollapsesMissingTier(t *testing.T) {
	fast := newMapCache()
	if got := NewLayered(fast, nil, time.Minute); got != Cache(fast) {
		t.Fatalf("NewLayered(fast, nil): want fast tier back")
	}
}

func TestScanKeyDependsOnProviderAndBytes(t *testing.T) {
	a := ScanKey("clarifai", []byte{1, 2, 3})
	b := ScanKey("vision", []byte{1, 2, 3})
	c := ScanKey("clarifai", []byte{1, 2, 4})
	if a == b || a == c {
		t.Fatalf("ScanKey collisions: a=%s b=%s c=%s", a, b, c)
	}
	if a != ScanKey("clarifai", []byte{1, 2, 3}) {
		t.Fatalf("ScanKey not deterministic")
	}
}
