package providers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/qa"
	"github.com/proximodev/releasepass/internal/rules"
)

// pageFetcher serves canned pages per URL.
type pageFetcher struct {
	pages map[string]*qa.FetchedPage
	err   error
}

func (f *pageFetcher) Fetch(_ context.Context, u string) (*qa.FetchedPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if page, ok := f.pages[u]; ok {
		return page, nil
	}
	return &qa.FetchedPage{
		URL:        u,
		FinalURL:   u,
		StatusCode: 200,
		Headers:    http.Header{"Content-Length": []string{"64"}},
		Body:       []byte{0, 0, 1, 0},
	}, nil
}

const preflightTestPage = `<html><head>
	<title>A perfectly reasonable page title here</title>
	<meta name="description" content="A meta description that is comfortably long enough to sit inside the accepted length bounds for this check.">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<link rel="canonical" href="https://a.test/page">
	<link rel="icon" href="data:image/png;base64,iVBOR">
</head><body><h1>Welcome</h1></body></html>`

func newPreflight(t *testing.T, fetcher qa.Fetcher, links *LinkCheck) *Preflight {
	t.Helper()
	engine := rules.NewEngine(emptyCatalog(), fetcher, zap.NewNop())
	return NewPreflight(fetcher, engine, links, zap.NewNop())
}

func TestPreflight_RulesAndLinksCombined(t *testing.T) {
	t.Parallel()
	srv := linkCheckServer(t, linkCheckResponse{Checked: 5})
	defer srv.Close()

	fetcher := &pageFetcher{pages: map[string]*qa.FetchedPage{
		"https://a.test/page": {
			URL:        "https://a.test/page",
			FinalURL:   "https://a.test/page",
			StatusCode: 200,
			Headers:    http.Header{},
			Body:       []byte(preflightTestPage),
		},
	}}
	links := NewLinkCheck(srv.URL, "", time.Second, testPolicy(), emptyCatalog(), nil)

	p := newPreflight(t, fetcher, links)
	reports, err := p.Check(context.Background(), testTarget("https://a.test/page"))
	require.NoError(t, err)
	rep := soleReport(t, reports)
	items := rep.Items
	require.Equal(t, 200, rep.Metrics["statusCode"])
	require.Equal(t, "https://a.test/page", rep.Metrics["finalUrl"])

	providers := map[string]bool{}
	for _, item := range items {
		providers[item.Provider] = true
	}
	require.True(t, providers["custom_rules"])
	require.True(t, providers["link_check"])
	require.Empty(t, failItems(items))
}

func TestPreflight_FetchFailurePropagates(t *testing.T) {
	t.Parallel()
	fetcher := &pageFetcher{err: &qa.StatusError{Code: 503, URL: "https://a.test/"}}

	p := newPreflight(t, fetcher, nil)
	reports, err := p.Check(context.Background(), testTarget("https://a.test/"))
	require.Error(t, err)
	require.Nil(t, reports)

	var statusErr *qa.StatusError
	require.ErrorAs(t, err, &statusErr)
}

func TestPreflight_LinkCheckFailurePropagates(t *testing.T) {
	t.Parallel()
	// No configured endpoint makes the link checker fail with a config error.
	links := NewLinkCheck("", "", time.Second, testPolicy(), emptyCatalog(), nil)
	fetcher := &pageFetcher{pages: map[string]*qa.FetchedPage{
		"https://a.test/page": {
			URL:        "https://a.test/page",
			FinalURL:   "https://a.test/page",
			StatusCode: 200,
			Headers:    http.Header{},
			Body:       []byte(preflightTestPage),
		},
	}}

	p := newPreflight(t, fetcher, links)
	_, err := p.Check(context.Background(), testTarget("https://a.test/page"))

	var cfgErr *qa.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestPreflight_WithoutLinkCheckerStillRuns(t *testing.T) {
	t.Parallel()
	fetcher := &pageFetcher{pages: map[string]*qa.FetchedPage{
		"https://a.test/page": {
			URL:        "https://a.test/page",
			FinalURL:   "https://a.test/page",
			StatusCode: 200,
			Headers:    http.Header{},
			Body:       []byte(preflightTestPage),
		},
	}}

	p := newPreflight(t, fetcher, nil)
	reports, err := p.Check(context.Background(), testTarget("https://a.test/page"))
	require.NoError(t, err)
	items := soleReport(t, reports).Items
	require.NotEmpty(t, items)
	for _, item := range items {
		require.Equal(t, "custom_rules", item.Provider)
	}
}
