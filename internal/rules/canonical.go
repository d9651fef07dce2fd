package rules

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/proximodev/releasepass/internal/qa"
)

// trackingParams are query parameter names that must never appear on a
// canonical URL. Names starting with "utm_" are matched by prefix.
var trackingParams = map[string]bool{
	"gclid":      true,
	"dclid":      true,
	"fbclid":     true,
	"msclkid":    true,
	"mc_cid":     true,
	"mc_eid":     true,
	"sid":        true,
	"sessionid":  true,
	"session_id": true,
	"phpsessid":  true,
	"jsessionid": true,
}

func isTrackingParam(name string) bool {
	lower := strings.ToLower(name)
	return trackingParams[lower] || strings.HasPrefix(lower, "utm_")
}

func canonicalHrefs(pc *pageContext) []string {
	var hrefs []string
	pc.doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		rel, _ := s.Attr("rel")
		if !strings.EqualFold(strings.TrimSpace(rel), "canonical") {
			return
		}
		if href, ok := s.Attr("href"); ok {
			hrefs = append(hrefs, strings.TrimSpace(href))
		}
	})
	return hrefs
}

// checkCanonical validates the canonical link group. A page without any
// canonical tag fails once and short-circuits the remaining four sub-checks.
func (e *Engine) checkCanonical(pc *pageContext) []qa.ResultItem {
	hrefs := canonicalHrefs(pc)
	if len(hrefs) == 0 {
		return []qa.ResultItem{e.fail(CodeCanonicalMissing, nil)}
	}

	items := []qa.ResultItem{
		e.pass(CodeCanonicalMissing, map[string]any{"href": hrefs[0]}),
	}

	if len(hrefs) > 1 {
		items = append(items, e.fail(CodeCanonicalMultiple, map[string]any{
			"count": len(hrefs),
			"hrefs": hrefs,
		}))
	} else {
		items = append(items, e.pass(CodeCanonicalMultiple, map[string]any{"count": 1}))
	}

	ref, err := url.Parse(hrefs[0])
	if err != nil {
		// An unparseable canonical can match nothing.
		items = append(items, e.fail(CodeCanonicalURLMismatch, map[string]any{
			"href":  hrefs[0],
			"error": "canonical href is not a valid URL",
		}))
		return items
	}
	canonical := pc.url.ResolveReference(ref)

	if !strings.EqualFold(canonical.Scheme, pc.url.Scheme) {
		items = append(items, e.fail(CodeCanonicalProtocolMismatch, map[string]any{
			"canonical": canonical.Scheme,
			"page":      pc.url.Scheme,
		}))
	} else {
		items = append(items, e.pass(CodeCanonicalProtocolMismatch, map[string]any{
			"protocol": canonical.Scheme,
		}))
	}

	if !strings.EqualFold(canonical.Hostname(), pc.url.Hostname()) {
		items = append(items, e.fail(CodeCanonicalHostMismatch, map[string]any{
			"canonical": canonical.Hostname(),
			"page":      pc.url.Hostname(),
		}))
	} else {
		items = append(items, e.pass(CodeCanonicalHostMismatch, map[string]any{
			"host": canonical.Hostname(),
		}))
	}

	canonicalNorm := normalizeForComparison(canonical)
	pageNorm := normalizeForComparison(pc.url)
	if canonicalNorm != pageNorm {
		items = append(items, e.fail(CodeCanonicalURLMismatch, map[string]any{
			"canonical": canonicalNorm,
			"page":      pageNorm,
		}))
	} else {
		items = append(items, e.pass(CodeCanonicalURLMismatch, map[string]any{
			"url": pageNorm,
		}))
	}

	var tracking []string
	for name := range canonical.Query() {
		if isTrackingParam(name) {
			tracking = append(tracking, name)
		}
	}
	sort.Strings(tracking)
	if len(tracking) > 0 {
		items = append(items, e.fail(CodeCanonicalTrackingParams, map[string]any{
			"params": tracking,
		}))
	} else {
		items = append(items, e.pass(CodeCanonicalTrackingParams, nil))
	}
	return items
}

// normalizeForComparison reduces a URL to the form used for canonical
// matching: lowercase scheme and host, default ports stripped, trailing
// slash trimmed from the path, query sorted, fragment dropped.
func normalizeForComparison(u *url.URL) string {
	c := *u
	c.Scheme = strings.ToLower(c.Scheme)
	c.Host = strings.ToLower(c.Host)
	if c.Scheme == "http" {
		c.Host = strings.TrimSuffix(c.Host, ":80")
	}
	if c.Scheme == "https" {
		c.Host = strings.TrimSuffix(c.Host, ":443")
	}
	c.Path = strings.TrimRight(c.Path, "/")
	c.Fragment = ""
	c.RawQuery = c.Query().Encode()
	return c.String()
}
