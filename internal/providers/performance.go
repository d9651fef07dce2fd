package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/catalog"
	"github.com/proximodev/releasepass/internal/qa"
)

const (
	performanceProviderName = "performance"

	CodePerfScoreLow = "PERF_SCORE_LOW"
	CodePerfLCPPoor  = "PERF_LCP_POOR"
	CodePerfCLSPoor  = "PERF_CLS_POOR"
	CodePerfTBTPoor  = "PERF_TBT_POOR"
	CodeSEOScoreLow  = "SEO_SCORE_LOW"
	CodeSEOAuditFail = "SEO_AUDIT_FAIL"
	CodePerfClean    = "PERF_CLEAN"
)

var performanceSeverities = map[string]qa.Severity{
	CodePerfScoreLow: qa.SeverityHigh,
	CodePerfLCPPoor:  qa.SeverityHigh,
	CodePerfCLSPoor:  qa.SeverityMedium,
	CodePerfTBTPoor:  qa.SeverityMedium,
	CodeSEOScoreLow:  qa.SeverityHigh,
	CodeSEOAuditFail: qa.SeverityMedium,
}

var performanceNames = map[string]string{
	CodePerfScoreLow: "Performance score below threshold",
	CodePerfLCPPoor:  "Largest Contentful Paint is poor",
	CodePerfCLSPoor:  "Cumulative Layout Shift is poor",
	CodePerfTBTPoor:  "Total Blocking Time is poor",
	CodeSEOScoreLow:  "SEO score below threshold",
	CodeSEOAuditFail: "SEO audit failed",
	CodePerfClean:    "Performance and SEO checks clean",
}

// metricThresholds are the "poor" cut-offs for the Core Web Vitals the audit
// service reports. Values follow the public CWV definitions.
var metricThresholds = map[string]struct {
	code string
	poor float64
}{
	"largest_contentful_paint_ms": {CodePerfLCPPoor, 4000},
	"cumulative_layout_shift":     {CodePerfCLSPoor, 0.25},
	"total_blocking_time_ms":      {CodePerfTBTPoor, 600},
}

// performanceStrategies are the device profiles each URL is audited under.
var performanceStrategies = []string{"mobile", "desktop"}

const (
	minPerformanceScore = 50
	minSEOScore         = 80
)

// auditResponse is the wire shape of the remote performance/SEO audit
// service. Scores are 0..100, metrics keyed by the ids in metricThresholds,
// failed_audits restricted to the SEO category the service already filters.
type auditResponse struct {
	Scores       map[string]float64 `json:"scores"`
	Metrics      map[string]float64 `json:"metrics"`
	FailedAudits []failedAudit      `json:"failed_audits"`
}

type failedAudit struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// Performance audits a page's Core Web Vitals and SEO through the remote
// audit service, once per device strategy.
type Performance struct {
	client   *apiClient
	endpoint string
	resolve  resolver
	logger   *zap.Logger
}

func NewPerformance(endpoint, apiKey string, timeout time.Duration, policy qa.RetryPolicy, cat *catalog.Catalog, logger *zap.Logger) *Performance {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Performance{
		client:   newAPIClient(timeout, policy, apiKey, logger),
		endpoint: endpoint,
		resolve: resolver{
			provider:   performanceProviderName,
			catalog:    cat,
			severities: performanceSeverities,
			names:      performanceNames,
		},
		logger: logger,
	}
}

func (p *Performance) Name() string { return performanceProviderName }

// Check audits the URL once per device strategy and returns one report per
// strategy, so each viewport gets its own URL result row with the audit's
// scores and raw metric values on it.
func (p *Performance) Check(ctx context.Context, target Target) ([]Report, error) {
	if p.endpoint == "" {
		return nil, &qa.ConfigError{Reason: "performance provider endpoint not configured"}
	}

	reports := make([]Report, 0, len(performanceStrategies))
	for _, strategy := range performanceStrategies {
		audit, err := p.audit(ctx, target.URL, strategy)
		if err != nil {
			return nil, fmt.Errorf("audit %s (%s): %w", target.URL, strategy, err)
		}

		items := p.mapAudit(audit, strategy)
		if len(items) == 0 {
			items = p.resolve.summaryPass(CodePerfClean, map[string]any{
				"strategy": strategy,
			})
		}
		reports = append(reports, Report{
			Viewport: strategy,
			Metrics:  auditMetrics(audit),
			Items:    markIgnored(items, target.IgnoredCodes),
		})
	}
	return reports, nil
}

// auditMetrics flattens the audit's category scores and raw metric values
// into the blob stored on the viewport's URL result.
func auditMetrics(audit *auditResponse) map[string]any {
	if len(audit.Scores) == 0 && len(audit.Metrics) == 0 {
		return nil
	}
	m := make(map[string]any, len(audit.Scores)+len(audit.Metrics))
	for name, score := range audit.Scores {
		m[name+"_score"] = score
	}
	for name, value := range audit.Metrics {
		m[name] = value
	}
	return m
}

func (p *Performance) audit(ctx context.Context, pageURL, strategy string) (*auditResponse, error) {
	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("strategy", strategy)

	var resp auditResponse
	if err := p.client.getJSON(ctx, p.endpoint+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// mapAudit turns one strategy's audit into findings. Only problems become
// items here; a fully clean run is summarized by the caller.
func (p *Performance) mapAudit(audit *auditResponse, strategy string) []qa.ResultItem {
	var items []qa.ResultItem

	if score, ok := audit.Scores["performance"]; ok && score < minPerformanceScore {
		items = append(items, p.resolve.fail(CodePerfScoreLow, map[string]any{
			"strategy": strategy,
			"score":    score,
			"minimum":  minPerformanceScore,
		}))
	}
	if score, ok := audit.Scores["seo"]; ok && score < minSEOScore {
		items = append(items, p.resolve.fail(CodeSEOScoreLow, map[string]any{
			"strategy": strategy,
			"score":    score,
			"minimum":  minSEOScore,
		}))
	}

	for metric, threshold := range metricThresholds {
		value, ok := audit.Metrics[metric]
		if !ok || value <= threshold.poor {
			continue
		}
		items = append(items, p.resolve.fail(threshold.code, map[string]any{
			"strategy": strategy,
			"metric":   metric,
			"value":    value,
			"poor":     threshold.poor,
		}))
	}

	for _, audit := range audit.FailedAudits {
		items = append(items, p.resolve.fail(CodeSEOAuditFail, map[string]any{
			"strategy": strategy,
			"audit":    audit.ID,
			"title":    audit.Title,
			"category": audit.Category,
		}))
	}
	return items
}
