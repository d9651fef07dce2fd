package qa

import (
	"context"
	"time"
)

// RunStore claims, tracks, and finalizes test runs.
type RunStore interface {
	// ClaimNext atomically claims the oldest queued run, transitioning it to
	// RUNNING with started-at and heartbeat stamps. Returns nil when the
	// queue is empty. Safe under concurrent callers: each queued run is
	// handed to exactly one of them.
	ClaimNext(ctx context.Context) (*TestRun, error)
	// RenewHeartbeat bumps the run's liveness timestamp. Advisory only;
	// callers log failures and keep working.
	RenewHeartbeat(ctx context.Context, runID string) error
	// Complete writes the terminal status exactly once per run.
	Complete(ctx context.Context, runID string, status RunStatus, score *int, errText string) error
	// ReapStuckRuns fails every RUNNING run whose heartbeat is older than
	// staleness, returning how many were reaped. Idempotent.
	ReapStuckRuns(ctx context.Context, staleness time.Duration) (int64, error)
}

// ResultStore persists per-URL outcomes and supports re-scoring.
type ResultStore interface {
	// SaveURLResult inserts the result row plus its findings in one
	// transaction. Findings are empty when the result carries an error.
	SaveURLResult(ctx context.Context, res URLResult, items []ResultItem) error
	// URLResults returns all result rows for a run.
	URLResults(ctx context.Context, runID string) ([]URLResult, error)
	// Findings returns the findings attached to a URL result.
	Findings(ctx context.Context, urlResultID string) ([]ResultItem, error)
	// UpdateURLScore persists a recomputed per-URL score and issue count.
	UpdateURLScore(ctx context.Context, urlResultID string, score int, issueCount int) error
	// UpdateRunScore persists a recomputed run-level aggregate score.
	UpdateRunScore(ctx context.Context, runID string, score int) error
}

// CatalogStore reads the externally managed rule configuration.
type CatalogStore interface {
	// Rules returns every catalog entry keyed by rule code.
	Rules(ctx context.Context) (map[string]Rule, error)
	// IgnoredCodes returns the rule codes suppressed for a (project, URL) pair.
	IgnoredCodes(ctx context.Context, projectID, url string) (map[string]bool, error)
	// EnabledOptionalCodes returns the optional rule codes a project enabled.
	EnabledOptionalCodes(ctx context.Context, projectID string) (map[string]bool, error)
}

// Fetcher performs one bounded HTTP GET.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedPage, error)
}

// RetryPolicy decides whether and when a failed remote call is retried.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}

// Notifier publishes run-completion events to interested consumers.
type Notifier interface {
	RunCompleted(ctx context.Context, event RunCompletedEvent) error
}

// BlobStore archives binary artifacts (screenshots, page snapshots) and
// returns a stable URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
