package cache

import (
	"context"
	"errors"
	"time"
)

// Layered reads the fast tier first and back-fills it from the shared tier.
type Layered struct {
	fast   Cache
	shared Cache
	// backfillTTL bounds how long a shared hit lives in the fast tier.
	backfillTTL time.Duration
}

func NewLayered(fast, shared Cache, backfillTTL time.Duration) Cache {
	if shared == nil {
		return fast
	}
	if fast == nil {
		return shared
	}
	return &Layered{fast: fast, shared: shared, backfillTTL: backfillTTL}
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := l.fast.Get(ctx, key); ok {
		return v, true
	}
	v, ok := l.shared.Get(ctx, key)
	if !ok {
		return nil, false
	}
	_ = l.fast.Set(ctx, key, v, l.backfillTTL)
	return v, true
}

func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.Join(
		l.fast.Set(ctx, key, value, ttl),
		l.shared.Set(ctx, key, value, ttl),
	)
}

func (l *Layered) Delete(ctx context.Context, key string) error {
	return errors.Join(l.fast.Delete(ctx, key), l.shared.Delete(ctx, key))
}

func (l *Layered) Clear(ctx context.Context) error {
	return errors.Join(l.fast.Clear(ctx), l.shared.Clear(ctx))
}
