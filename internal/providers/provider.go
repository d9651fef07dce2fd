// Package providers contains the adapters for the external check services.
// Each adapter calls one remote service and maps its native response into the
// finding shape shared with the rule engine. A remote failure after retries
// is an operational error for the URL, never a finding.
package providers

import (
	"context"

	"github.com/proximodev/releasepass/internal/catalog"
	"github.com/proximodev/releasepass/internal/qa"
)

// Target identifies one URL to check within a claimed run.
type Target struct {
	RunID         string
	ProjectID     string
	URL           string
	IgnoredCodes  map[string]bool
	OptionalCodes map[string]bool
}

// Report is one persistable unit of a provider check: the findings for one
// (URL, viewport) pair plus the metrics blob stored on the URL result row.
// Most providers emit a single untagged report per URL; performance emits one
// per device strategy.
type Report struct {
	Viewport string
	Metrics  map[string]any
	Items    []qa.ResultItem
}

// Provider checks one URL and returns its reports. An error return means the
// URL could not be checked; any reports are then discarded by the caller.
type Provider interface {
	Name() string
	Check(ctx context.Context, target Target) ([]Report, error)
}

// singleReport wraps the common one-report-per-URL case.
func singleReport(items []qa.ResultItem, metrics map[string]any) []Report {
	return []Report{{Metrics: metrics, Items: items}}
}

// resolver builds findings with catalog-first severity and display-name
// resolution, falling back to the adapter's defaults.
type resolver struct {
	provider   string
	catalog    *catalog.Catalog
	severities map[string]qa.Severity
	names      map[string]string
}

func (r resolver) pass(code string, meta map[string]any) qa.ResultItem {
	return qa.ResultItem{
		Provider: r.provider,
		Code:     code,
		Name:     r.catalog.DisplayName(code, r.names[code]),
		Status:   qa.ItemPass,
		Metadata: meta,
	}
}

func (r resolver) fail(code string, meta map[string]any) qa.ResultItem {
	return qa.ResultItem{
		Provider: r.provider,
		Code:     code,
		Name:     r.catalog.DisplayName(code, r.names[code]),
		Status:   qa.ItemFail,
		Severity: r.catalog.Severity(code, r.severities[code]),
		Metadata: meta,
	}
}

// summaryPass is the single finding emitted when the remote service reports
// zero issues, so an empty result set is never ambiguous.
func (r resolver) summaryPass(code string, meta map[string]any) []qa.ResultItem {
	return []qa.ResultItem{r.pass(code, meta)}
}

func markIgnored(items []qa.ResultItem, ignored map[string]bool) []qa.ResultItem {
	for i := range items {
		if ignored[items[i].Code] {
			items[i].Ignored = true
		}
	}
	return items
}
