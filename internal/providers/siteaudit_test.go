package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/proximodev/releasepass/internal/catalog"
	"github.com/proximodev/releasepass/internal/qa"
)

func siteAuditServer(t *testing.T, resp siteAuditResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestSiteAudit_MapsIssues(t *testing.T) {
	t.Parallel()
	srv := siteAuditServer(t, siteAuditResponse{
		PagesCrawled: 40,
		Issues: []siteIssue{
			{Code: "CRAWL_ORPHAN_PAGE", Title: "Orphan page", Severity: "warning", URL: "https://a.test/lost"},
			{Code: "CRAWL_REDIRECT_LOOP", Title: "Redirect loop", Severity: "error", URL: "https://a.test/loop"},
			{Code: "CRAWL_THIN_CONTENT", Title: "Thin content", Severity: "mystery", URL: "https://a.test/thin"},
		},
	})
	defer srv.Close()

	s := NewSiteAudit(srv.URL, "", time.Second, testPolicy(), emptyCatalog(), nil)
	reports, err := s.Check(context.Background(), testTarget("https://a.test/"))
	require.NoError(t, err)

	rep := soleReport(t, reports)
	require.Len(t, rep.Items, 3)

	require.Equal(t, qa.SeverityHigh, rep.Items[0].Severity)
	require.Equal(t, qa.SeverityCritical, rep.Items[1].Severity)
	// Unknown remote labels settle on MEDIUM.
	require.Equal(t, qa.SeverityMedium, rep.Items[2].Severity)
	require.Equal(t, "Orphan page", rep.Items[0].Name)

	require.Equal(t, 40, rep.Metrics["pagesCrawled"])
	require.Equal(t, 3, rep.Metrics["issuesFound"])
}

func TestSiteAudit_CatalogOverridesRemoteSeverity(t *testing.T) {
	t.Parallel()
	srv := siteAuditServer(t, siteAuditResponse{
		Issues: []siteIssue{
			{Code: "CRAWL_ORPHAN_PAGE", Title: "Orphan page", Severity: "warning"},
		},
	})
	defer srv.Close()

	cat := catalog.New(map[string]qa.Rule{
		"CRAWL_ORPHAN_PAGE": {Code: "CRAWL_ORPHAN_PAGE", Name: "Unlinked page", Severity: qa.SeverityLow},
	})
	s := NewSiteAudit(srv.URL, "", time.Second, testPolicy(), cat, nil)
	reports, err := s.Check(context.Background(), testTarget("https://a.test/"))
	require.NoError(t, err)
	items := soleReport(t, reports).Items
	require.Equal(t, qa.SeverityLow, items[0].Severity)
	require.Equal(t, "Unlinked page", items[0].Name)
}

func TestSiteAudit_CleanCrawl(t *testing.T) {
	t.Parallel()
	srv := siteAuditServer(t, siteAuditResponse{PagesCrawled: 18})
	defer srv.Close()

	s := NewSiteAudit(srv.URL, "", time.Second, testPolicy(), emptyCatalog(), nil)
	reports, err := s.Check(context.Background(), testTarget("https://a.test/"))
	require.NoError(t, err)
	items := soleReport(t, reports).Items
	require.Len(t, items, 1)
	require.Equal(t, CodeSiteAuditClean, items[0].Code)
	require.Equal(t, qa.ItemPass, items[0].Status)
	require.Equal(t, 18, items[0].Metadata["pagesCrawled"])
}

func TestRemoteSeverity(t *testing.T) {
	t.Parallel()
	require.Equal(t, qa.SeverityBlocker, remoteSeverity("Blocker"))
	require.Equal(t, qa.SeverityCritical, remoteSeverity("error"))
	require.Equal(t, qa.SeverityHigh, remoteSeverity("WARNING"))
	require.Equal(t, qa.SeverityLow, remoteSeverity("notice"))
	require.Equal(t, qa.SeverityMedium, remoteSeverity(""))
}
