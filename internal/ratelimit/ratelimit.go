package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate-limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter is a pluggable fixed-window rate-limit capability keyed by client
// identity. Implementations must be safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
