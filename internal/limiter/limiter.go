// Package limiter bounds outbound request pressure: a semaphore caps
// in-flight checks per provider class, and a token bucket paces requests
// per target host.
package limiter

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Group caps the number of tasks executing concurrently.
type Group struct {
	sem *semaphore.Weighted
}

// NewGroup builds a Group allowing at most n concurrent holders.
func NewGroup(n int) *Group {
	if n <= 0 {
		n = 1
	}
	return &Group{sem: semaphore.NewWeighted(int64(n))}
}

// Acquire blocks until a slot is free or the context ends.
func (g *Group) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	return nil
}

// Release frees a previously acquired slot.
func (g *Group) Release() {
	g.sem.Release(1)
}

// HostLimiter manages per-host request rates.
type HostLimiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// HostConfig holds host rate limiter configuration.
type HostConfig struct {
	DefaultRPS   float64
	DefaultBurst int
}

// NewHostLimiter creates a HostLimiter. A non-positive RPS disables pacing.
func NewHostLimiter(cfg HostConfig) *HostLimiter {
	r := rate.Limit(cfg.DefaultRPS)
	if cfg.DefaultRPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.DefaultBurst
	if burst <= 0 {
		burst = 1
	}
	return &HostLimiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Wait blocks until a token is available for the URL's host, respecting the
// context.
func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	l.mu.Lock()
	lim, exists := l.limiters[host]
	if !exists {
		lim = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[host] = lim
	}
	l.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
