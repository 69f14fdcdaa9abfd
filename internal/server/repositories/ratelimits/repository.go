// Package ratelimits persists fixed-window attempt counters.
package ratelimits

import (
	"context"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/server/models"
)

// Repository operates on counters keyed by "action:subject". Acquire must be
// called inside a transaction; the returned row stays locked until commit.
type Repository interface {
	// Acquire creates the counter with Count 0 if absent and returns it locked.
	Acquire(ctx context.Context, key string, now time.Time) (*models.RateLimitCounter, error)

	// Reset starts a new window.
	Reset(ctx context.Context, key string, count int, windowStart time.Time) error

	// Increment adds one attempt to the current window and returns the new count.
	Increment(ctx context.Context, key string) (int, error)

	// DeleteExpired removes counters whose window started before the cutoff.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
