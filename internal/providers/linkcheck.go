package providers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/catalog"
	"github.com/proximodev/releasepass/internal/qa"
)

const (
	linkCheckProviderName = "link_check"

	CodeLinkBroken      = "LINK_BROKEN"
	CodeLinkUnreachable = "LINK_UNREACHABLE"
	CodeLinksClean      = "LINKS_CLEAN"
)

var linkCheckSeverities = map[string]qa.Severity{
	CodeLinkBroken:      qa.SeverityHigh,
	CodeLinkUnreachable: qa.SeverityMedium,
}

var linkCheckNames = map[string]string{
	CodeLinkBroken:      "Broken link",
	CodeLinkUnreachable: "Unreachable link",
	CodeLinksClean:      "All links resolve",
}

type linkCheckResponse struct {
	Checked int          `json:"checked"`
	Broken  []brokenLink `json:"broken"`
}

type brokenLink struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
	Text   string `json:"text"`
}

// LinkCheck verifies every link on a page through the remote link-check
// service. A link answering 4xx/5xx is broken; one that never answered
// (status 0) is unreachable.
type LinkCheck struct {
	client   *apiClient
	endpoint string
	resolve  resolver
	logger   *zap.Logger
}

func NewLinkCheck(endpoint, apiKey string, timeout time.Duration, policy qa.RetryPolicy, cat *catalog.Catalog, logger *zap.Logger) *LinkCheck {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkCheck{
		client:   newAPIClient(timeout, policy, apiKey, logger),
		endpoint: endpoint,
		resolve: resolver{
			provider:   linkCheckProviderName,
			catalog:    cat,
			severities: linkCheckSeverities,
			names:      linkCheckNames,
		},
		logger: logger,
	}
}

func (l *LinkCheck) Name() string { return linkCheckProviderName }

func (l *LinkCheck) Check(ctx context.Context, target Target) ([]Report, error) {
	if l.endpoint == "" {
		return nil, &qa.ConfigError{Reason: "link check provider endpoint not configured"}
	}

	var resp linkCheckResponse
	req := map[string]string{"url": target.URL}
	if err := l.client.postJSON(ctx, l.endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("check links on %s: %w", target.URL, err)
	}

	var items []qa.ResultItem
	for _, link := range resp.Broken {
		code := CodeLinkBroken
		if link.Status == 0 {
			code = CodeLinkUnreachable
		}
		items = append(items, l.resolve.fail(code, map[string]any{
			"link":   link.URL,
			"status": link.Status,
			"text":   link.Text,
		}))
	}

	if len(items) == 0 {
		items = l.resolve.summaryPass(CodeLinksClean, map[string]any{
			"checked": resp.Checked,
		})
	}
	return singleReport(markIgnored(items, target.IgnoredCodes), map[string]any{
		"linksChecked": resp.Checked,
		"linksBroken":  len(resp.Broken),
	}), nil
}
