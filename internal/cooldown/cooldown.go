// Package cooldown rate-limits expensive per-user operations (AI learning
// plans) to one call per cooldown window.
//
// The Gate owns the policy; a Store owns the "last call" bookkeeping. The
// in-memory store serves a single process, the Redis store lets several
// replicas share one window per user.
package cooldown

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// DefaultCooldown is the minimum spacing between two allowed calls per user.
const DefaultCooldown = 60 * time.Second

// Store records the last allowed call per user.
//
// Acquire atomically checks whether a call for userID is allowed at now and,
// if so, records it. When the call is blocked, wait is the time remaining
// until the next one would be allowed.
type Store interface {
	Acquire(ctx context.Context, userID string, now time.Time, cooldown time.Duration) (allowed bool, wait time.Duration, err error)
}

// Decision is the outcome of Gate.Check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds (0 when allowed).
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed || d.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// Gate admits at most one call per user per cooldown.
type Gate struct {
	store    Store
	cooldown time.Duration
	logger   *slog.Logger
}

// NewGate creates a gate. A non-positive cooldown falls back to DefaultCooldown.
func NewGate(store Store, cooldown time.Duration, logger *slog.Logger) *Gate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Gate{store: store, cooldown: cooldown, logger: logger}
}

// Cooldown returns the configured window.
func (g *Gate) Cooldown() time.Duration { return g.cooldown }

// Check decides whether userID may call now, recording the call if so.
//
// A store error lets the call through and logs a warning.
func (g *Gate) Check(ctx context.Context, userID string, now time.Time) Decision {
	allowed, wait, err := g.store.Acquire(ctx, userID, now, g.cooldown)
	if err != nil {
		g.logger.Warn("cooldown store unavailable, allowing call",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return Decision{Allowed: true}
	}
	if !allowed {
		g.logger.Debug("call rejected by cooldown",
			slog.String("userID", userID),
			slog.Duration("retry_after", wait),
		)
		return Decision{RetryAfter: wait}
	}
	return Decision{Allowed: true}
}
