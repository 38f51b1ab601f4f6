package cache

import (
	"context"
	"time"
)

// Noop is a Cache that stores nothing. Used when caching is disabled and as
// the default in tests; every read falls through to the remote system.
type Noop struct{}

// NewNoop creates a no-op cache.
func NewNoop() *Noop { return &Noop{} }

// Get implements Cache.
func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set implements Cache.
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// InvalidatePattern implements Cache.
func (Noop) InvalidatePattern(context.Context, string) error { return nil }
