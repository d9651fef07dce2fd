package fetch

import (
	"context"

	"github.com/proximodev/releasepass/internal/limiter"
	"github.com/proximodev/releasepass/internal/qa"
)

// Retrying decorates a Fetcher with backoff retries and per-host pacing.
type Retrying struct {
	inner  qa.Fetcher
	policy qa.RetryPolicy
	hosts  *limiter.HostLimiter
}

// NewRetrying wraps inner. hosts may be nil to skip pacing.
func NewRetrying(inner qa.Fetcher, policy qa.RetryPolicy, hosts *limiter.HostLimiter) *Retrying {
	return &Retrying{inner: inner, policy: policy, hosts: hosts}
}

// Fetch retries the inner fetch per the policy; terminal errors (4xx except
// 429, cancellation) surface immediately.
func (r *Retrying) Fetch(ctx context.Context, url string) (*qa.FetchedPage, error) {
	var page *qa.FetchedPage
	err := qa.Retry(ctx, r.policy, func() error {
		if r.hosts != nil {
			if err := r.hosts.Wait(ctx, url); err != nil {
				return err
			}
		}
		fetched, err := r.inner.Fetch(ctx, url)
		if err != nil {
			return err
		}
		page = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}
