package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/catalog"
	"github.com/proximodev/releasepass/internal/qa"
)

const (
	siteAuditProviderName = "site_audit"

	CodeSiteAuditClean = "SITE_AUDIT_CLEAN"
)

var siteAuditNames = map[string]string{
	CodeSiteAuditClean: "Site audit found no issues",
}

type siteAuditResponse struct {
	PagesCrawled int         `json:"pages_crawled"`
	Issues       []siteIssue `json:"issues"`
}

type siteIssue struct {
	Code     string `json:"code"`
	Title    string `json:"title"`
	Severity string `json:"severity"`
	URL      string `json:"url"`
	Detail   string `json:"detail"`
}

// SiteAudit runs the remote crawler audit against a whole site. The remote
// service owns the crawl; this adapter only maps its issue list. Issue codes
// come from the service, so severity falls back to the remote's own rating
// when the catalog has no entry.
type SiteAudit struct {
	client   *apiClient
	endpoint string
	catalog  *catalog.Catalog
	logger   *zap.Logger
}

func NewSiteAudit(endpoint, apiKey string, timeout time.Duration, policy qa.RetryPolicy, cat *catalog.Catalog, logger *zap.Logger) *SiteAudit {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SiteAudit{
		client:   newAPIClient(timeout, policy, apiKey, logger),
		endpoint: endpoint,
		catalog:  cat,
		logger:   logger,
	}
}

func (s *SiteAudit) Name() string { return siteAuditProviderName }

func (s *SiteAudit) Check(ctx context.Context, target Target) ([]Report, error) {
	if s.endpoint == "" {
		return nil, &qa.ConfigError{Reason: "site audit provider endpoint not configured"}
	}

	var resp siteAuditResponse
	req := map[string]string{"url": target.URL}
	if err := s.client.postJSON(ctx, s.endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("site audit for %s: %w", target.URL, err)
	}

	var items []qa.ResultItem
	for _, issue := range resp.Issues {
		items = append(items, qa.ResultItem{
			Provider: siteAuditProviderName,
			Code:     issue.Code,
			Name:     s.catalog.DisplayName(issue.Code, issue.Title),
			Status:   qa.ItemFail,
			Severity: s.catalog.Severity(issue.Code, remoteSeverity(issue.Severity)),
			Metadata: map[string]any{
				"url":    issue.URL,
				"detail": issue.Detail,
			},
		})
	}

	if len(items) == 0 {
		items = []qa.ResultItem{{
			Provider: siteAuditProviderName,
			Code:     CodeSiteAuditClean,
			Name:     s.catalog.DisplayName(CodeSiteAuditClean, siteAuditNames[CodeSiteAuditClean]),
			Status:   qa.ItemPass,
			Metadata: map[string]any{"pagesCrawled": resp.PagesCrawled},
		}}
	}
	return singleReport(markIgnored(items, target.IgnoredCodes), map[string]any{
		"pagesCrawled": resp.PagesCrawled,
		"issuesFound":  len(resp.Issues),
	}), nil
}

// remoteSeverity maps the crawler's severity labels onto ours. Unknown
// labels rate MEDIUM rather than dropping the issue.
func remoteSeverity(label string) qa.Severity {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "blocker":
		return qa.SeverityBlocker
	case "critical", "error":
		return qa.SeverityCritical
	case "high", "warning":
		return qa.SeverityHigh
	case "low", "notice", "info":
		return qa.SeverityLow
	default:
		return qa.SeverityMedium
	}
}
