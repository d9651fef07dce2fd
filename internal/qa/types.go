// Package qa defines core types shared across subsystems.
package qa

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RunType identifies which check pipeline a test run executes.
type RunType string

// Run types persisted in the run store.
const (
	RunTypePreflight   RunType = "PAGE_PREFLIGHT"
	RunTypePerformance RunType = "PERFORMANCE"
	RunTypeScreenshots RunType = "SCREENSHOTS"
	RunTypeSpelling    RunType = "SPELLING"
	RunTypeSiteAudit   RunType = "SITE_AUDIT"
)

// RunTypes lists every known run type, in dispatch order.
var RunTypes = []RunType{
	RunTypePreflight,
	RunTypePerformance,
	RunTypeScreenshots,
	RunTypeSpelling,
	RunTypeSiteAudit,
}

// RunStatus represents the lifecycle state of a test run.
type RunStatus string

// Run status values. A run is born QUEUED, claimed into RUNNING by exactly
// one worker, and terminates exactly once into one of the terminal states.
const (
	RunStatusQueued  RunStatus = "QUEUED"
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
	RunStatusPartial RunStatus = "PARTIAL"
)

// Terminal reports whether the status is a final state.
func (s RunStatus) Terminal() bool {
	return s == RunStatusSuccess || s == RunStatusFailed || s == RunStatusPartial
}

// Severity ranks how badly a failed finding hurts the score.
type Severity string

// Severity tiers, highest penalty first.
const (
	SeverityBlocker  Severity = "BLOCKER"
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// ItemStatus is the outcome of a single rule or provider check.
type ItemStatus string

// Item status values. Severity is only meaningful on FAIL.
const (
	ItemPass ItemStatus = "PASS"
	ItemFail ItemStatus = "FAIL"
	ItemSkip ItemStatus = "SKIP"
)

// Project carries the subset of project data the worker needs.
type Project struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	SiteURL string `json:"site_url"`
}

// ReleaseRun is the optional parent grouping of a test run. It carries its
// own URL list which outranks the project site URL during resolution.
type ReleaseRun struct {
	ID   string   `json:"id"`
	URLs []string `json:"urls"`
}

// TestRun represents one execution of one check type against a project.
type TestRun struct {
	ID          string      `json:"id"`
	ProjectID   string      `json:"project_id"`
	Type        RunType     `json:"type"`
	Status      RunStatus   `json:"status"`
	Score       *int        `json:"score,omitempty"`
	ErrorText   string      `json:"error_text,omitempty"`
	URLs        []string    `json:"urls,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	FinishedAt  *time.Time  `json:"finished_at,omitempty"`
	HeartbeatAt *time.Time  `json:"heartbeat_at,omitempty"`
	Project     Project     `json:"project"`
	Release     *ReleaseRun `json:"release,omitempty"`
}

// URLResult is the outcome of checking one URL within a run. Exactly one of
// (Score, ErrorText) is populated: an operational error yields no findings
// and no score.
type URLResult struct {
	ID         string         `json:"id"`
	RunID      string         `json:"run_id"`
	URL        string         `json:"url"`
	Viewport   string         `json:"viewport,omitempty"`
	Score      *int           `json:"score,omitempty"`
	IssueCount int            `json:"issue_count"`
	Metrics    map[string]any `json:"metrics,omitempty"`
	ErrorText  string         `json:"error_text,omitempty"`
}

// ResultItem is one pass/fail/skip determination attached to a URLResult.
type ResultItem struct {
	ID          string         `json:"id"`
	URLResultID string         `json:"url_result_id"`
	Provider    string         `json:"provider"`
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Status      ItemStatus     `json:"status"`
	Severity    Severity       `json:"severity,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Ignored     bool           `json:"ignored"`
}

// Rule is one catalog entry keyed by rule code.
type Rule struct {
	Code        string   `json:"code"`
	Severity    Severity `json:"severity"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"`
	Fix         string   `json:"fix"`
	DocURL      string   `json:"doc_url,omitempty"`
	Category    string   `json:"category"`
	Optional    bool     `json:"optional"`
}

// FetchedPage is the raw material every page-level check works from.
type FetchedPage struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Scheme returns the scheme of the final resolved URL, lowercased.
func (p *FetchedPage) Scheme() string {
	u, err := url.Parse(p.FinalURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// RunCompletedEvent is published to the notifier when a run terminates.
type RunCompletedEvent struct {
	RunID      string    `json:"run_id"`
	ProjectID  string    `json:"project_id"`
	Type       RunType   `json:"type"`
	Status     RunStatus `json:"status"`
	Score      *int      `json:"score,omitempty"`
	ErrorText  string    `json:"error_text,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}
