// Package cache offers a small byte-oriented key/value cache with Redis and
// SQL implementations.
package cache

import (
	"context"
	"strings"
	"time"
)

// Store is the cache contract shared by every backend. Get reports a miss as
// ok=false with a nil error.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Delete(ctx context.Context, keys ...string) error
}

// Purger is implemented by stores that need explicit expiry sweeps.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Key builds a colon separated cache key, skipping blank segments.
func Key(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(':')
		}
		b.WriteString(part)
	}
	return b.String()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
