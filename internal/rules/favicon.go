package rules

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/proximodev/releasepass/internal/qa"
)

// faviconHref returns the first icon link's href, if any.
func faviconHref(pc *pageContext) (string, bool) {
	var href string
	found := false
	pc.doc.Find("link").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		rel = strings.ToLower(strings.TrimSpace(rel))
		if rel != "icon" && rel != "shortcut icon" {
			return true
		}
		if h, ok := s.Attr("href"); ok {
			href = strings.TrimSpace(h)
			found = true
			return false
		}
		return true
	})
	return href, found
}

// checkFavicon verifies the page exposes a usable favicon: a declared icon
// link whose target actually serves bytes, or the /favicon.ico fallback at
// the origin. Data URIs pass without a probe.
func (e *Engine) checkFavicon(ctx context.Context, pc *pageContext) qa.ResultItem {
	href, found := faviconHref(pc)
	if !found {
		fallback := pc.url.Scheme + "://" + pc.url.Host + "/favicon.ico"
		if err := e.probeFavicon(ctx, fallback); err != nil {
			return e.fail(CodeFaviconMissing, map[string]any{
				"probed": fallback,
				"reason": err.Error(),
			})
		}
		return e.pass(CodeFaviconMissing, map[string]any{
			"href":     fallback,
			"fallback": true,
		})
	}

	if strings.HasPrefix(strings.ToLower(href), "data:") {
		return e.pass(CodeFaviconMissing, map[string]any{"dataUri": true})
	}

	resolved := href
	if ref, err := pc.url.Parse(href); err == nil {
		resolved = ref.String()
	}
	if err := e.probeFavicon(ctx, resolved); err != nil {
		return e.fail(CodeFaviconMissing, map[string]any{
			"href":   resolved,
			"reason": err.Error(),
		})
	}
	return e.pass(CodeFaviconMissing, map[string]any{"href": resolved})
}

// probeFavicon fetches the icon and requires a non-empty body. The
// Content-Length header is trusted when present; the body length decides
// otherwise.
func (e *Engine) probeFavicon(ctx context.Context, url string) error {
	if e.fetcher == nil {
		return &qa.ConfigError{Reason: "favicon probe requires a fetcher"}
	}
	page, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if cl := page.Headers.Get("Content-Length"); cl != "" {
		n, err := strconv.Atoi(cl)
		if err == nil && n > 0 {
			return nil
		}
	}
	if len(page.Body) == 0 {
		return fmt.Errorf("favicon at %s returned an empty body", url)
	}
	return nil
}
