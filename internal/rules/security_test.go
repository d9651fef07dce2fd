package rules

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proximodev/releasepass/internal/qa"
)

func TestCheckSecurity_HTTPPage(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	pc := newContext(t, `<html><head></head></html>`, "http://a.test/", nil)

	items := e.checkSecurity(pc)
	httpItem := findItem(t, items, CodeSecurityHTTP)
	require.Equal(t, qa.ItemFail, httpItem.Status)
	require.Equal(t, qa.SeverityBlocker, httpItem.Severity)
	// Mixed content analysis needs an https page.
	require.Equal(t, qa.ItemSkip, findItem(t, items, CodeSecurityMixedContent).Status)
}

func TestCheckSecurity_HTTPSPage(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	html := `<html><head></head><body>
		<script src="https://cdn.a.test/app.js"></script>
		<img src="/hero.png">
	</body></html>`
	pc := newContext(t, html, "https://a.test/", nil)

	items := e.checkSecurity(pc)
	require.Equal(t, qa.ItemPass, findItem(t, items, CodeSecurityHTTP).Status)
	require.Equal(t, qa.ItemPass, findItem(t, items, CodeSecurityMixedContent).Status)
	require.Equal(t, qa.ItemPass, findItem(t, items, CodeSecurityHTTPIframe).Status)
}

func TestCheckInsecureMetadata(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	html := `<html><head>
		<link rel="canonical" href="http://a.test/page">
		<meta property="og:image" content="http://a.test/img.png">
		<meta property="og:url" content="https://a.test/page">
	</head></html>`
	pc := newContext(t, html, "https://a.test/page", nil)

	item := e.checkInsecureMetadata(pc)
	require.Equal(t, qa.ItemFail, item.Status)
	require.Equal(t, []string{"http://a.test/page", "http://a.test/img.png"}, item.Metadata["urls"])
}

func TestCheckMixedContent(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	html := `<html><head>
		<link rel="stylesheet" href="http://a.test/site.css">
		<link rel="canonical" href="http://a.test/page">
	</head><body>
		<script src="http://a.test/app.js"></script>
		<img src="https://a.test/ok.png">
		<object data="http://a.test/legacy.swf"></object>
	</body></html>`
	pc := newContext(t, html, "https://a.test/page", nil)

	item := e.checkMixedContent(pc, true)
	require.Equal(t, qa.ItemFail, item.Status)
	// The canonical link is metadata, not loaded content.
	require.Equal(t, 3, item.Metadata["count"])
}

func TestCheckMixedContent_ExampleCap(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, `<img src="http://a.test/img%d.png">`, i)
	}
	b.WriteString(`</body></html>`)
	pc := newContext(t, b.String(), "https://a.test/", nil)

	item := e.checkMixedContent(pc, true)
	require.Equal(t, qa.ItemFail, item.Status)
	require.Equal(t, 15, item.Metadata["count"])
	require.Len(t, item.Metadata["examples"], mixedContentExampleCap)
}

func TestCheckInsecureIframes(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	html := `<html><body>
		<iframe src="http://a.test/embed"></iframe>
		<iframe src="https://player.a.test/v/1"></iframe>
		<iframe></iframe>
	</body></html>`
	pc := newContext(t, html, "https://a.test/", nil)

	item := e.checkInsecureIframes(pc)
	require.Equal(t, qa.ItemFail, item.Status)
	require.Equal(t, 1, item.Metadata["count"])
	require.Equal(t, []string{"http://a.test/embed"}, item.Metadata["examples"])
}

func TestIsHTTPURL(t *testing.T) {
	t.Parallel()
	require.True(t, isHTTPURL("http://a.test/x"))
	require.True(t, isHTTPURL("  HTTP://a.test/x"))
	require.False(t, isHTTPURL("https://a.test/x"))
	require.False(t, isHTTPURL("//a.test/x"))
	require.False(t, isHTTPURL("/relative"))
}
