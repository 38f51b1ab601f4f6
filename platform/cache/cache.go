// Package cache provides the short-TTL response cache capability.
// The cache is a pure optimization in front of reads against the remote ERP:
// disabling it (Noop) must never change an observable result.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is the injected caching capability. Implementations must be safe for
// concurrent use. Get returns (nil, false, nil) on a miss; cache errors are
// reported but callers are expected to degrade to the underlying read.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// InvalidatePattern removes every key matching the glob-style pattern,
	// e.g. "price:SP-001:*".
	InvalidatePattern(ctx context.Context, pattern string) error
}

// Key joins key segments with the cache separator. Empty segments are kept so
// that the same request shape always produces the same key.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
