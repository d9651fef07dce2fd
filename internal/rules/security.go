package rules

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/proximodev/releasepass/internal/qa"
)

const (
	mixedContentExampleCap = 10
	iframeExampleCap       = 5
)

func isHTTPURL(raw string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "http:")
}

// checkSecurity covers the protocol hygiene group: the page scheme itself,
// insecure canonical/Open Graph URLs, mixed content, and insecure iframes.
func (e *Engine) checkSecurity(pc *pageContext) []qa.ResultItem {
	var items []qa.ResultItem

	pageHTTPS := pc.page.Scheme() == "https"
	if !pageHTTPS && pc.page.Scheme() == "http" {
		items = append(items, e.fail(CodeSecurityHTTP, map[string]any{"url": pc.page.FinalURL}))
	} else {
		items = append(items, e.pass(CodeSecurityHTTP, map[string]any{"scheme": pc.page.Scheme()}))
	}

	items = append(items, e.checkInsecureMetadata(pc))
	items = append(items, e.checkMixedContent(pc, pageHTTPS))
	items = append(items, e.checkInsecureIframes(pc))
	return items
}

// checkInsecureMetadata collects canonical and OG URLs served over http.
func (e *Engine) checkInsecureMetadata(pc *pageContext) qa.ResultItem {
	var offenders []string
	for _, href := range canonicalHrefs(pc) {
		if isHTTPURL(href) {
			offenders = append(offenders, href)
		}
	}
	for _, prop := range []string{"og:url", "og:image"} {
		if content, ok := metaContent(pc, "property", prop); ok && isHTTPURL(content) {
			offenders = append(offenders, content)
		}
	}
	if len(offenders) > 0 {
		return e.fail(CodeSecurityHTTPMetadata, map[string]any{"urls": offenders})
	}
	return e.pass(CodeSecurityHTTPMetadata, nil)
}

// mixedContentSelectors maps element selectors to the attribute carrying the
// resource URL.
var mixedContentSelectors = []struct {
	selector string
	attr     string
}{
	{"script", "src"},
	{"img", "src"},
	{"video", "src"},
	{"audio", "src"},
	{"source", "src"},
	{"embed", "src"},
	{"object", "data"},
}

// checkMixedContent scans embedded resources for http URLs. Only meaningful
// on HTTPS pages.
func (e *Engine) checkMixedContent(pc *pageContext, pageHTTPS bool) qa.ResultItem {
	if !pageHTTPS {
		return e.skip(CodeSecurityMixedContent, map[string]any{
			"reason": "page not served over https",
		})
	}

	total := 0
	var examples []string
	record := func(raw string) {
		if !isHTTPURL(raw) {
			return
		}
		total++
		if len(examples) < mixedContentExampleCap {
			examples = append(examples, raw)
		}
	}

	for _, sel := range mixedContentSelectors {
		pc.doc.Find(sel.selector).Each(func(_ int, s *goquery.Selection) {
			if raw, ok := s.Attr(sel.attr); ok {
				record(raw)
			}
		})
	}
	// Stylesheet links count too; the canonical link is excluded by matching
	// rel=stylesheet only.
	pc.doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		if !strings.EqualFold(strings.TrimSpace(rel), "stylesheet") {
			return
		}
		if raw, ok := s.Attr("href"); ok {
			record(raw)
		}
	})

	if total > 0 {
		return e.fail(CodeSecurityMixedContent, map[string]any{
			"count":    total,
			"examples": examples,
		})
	}
	return e.pass(CodeSecurityMixedContent, nil)
}

// checkInsecureIframes flags iframes loading http sources.
func (e *Engine) checkInsecureIframes(pc *pageContext) qa.ResultItem {
	total := 0
	var examples []string
	pc.doc.Find("iframe").Each(func(_ int, s *goquery.Selection) {
		raw, ok := s.Attr("src")
		if !ok || !isHTTPURL(raw) {
			return
		}
		total++
		if len(examples) < iframeExampleCap {
			examples = append(examples, raw)
		}
	})
	if total > 0 {
		return e.fail(CodeSecurityHTTPIframe, map[string]any{
			"count":    total,
			"examples": examples,
		})
	}
	return e.pass(CodeSecurityHTTPIframe, nil)
}
