package rules

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/proximodev/releasepass/internal/qa"
)

// Length bounds for title and meta description, in characters.
const (
	titleMinLen = 30
	titleMaxLen = 55
	descMinLen  = 70
	descMaxLen  = 155
)

const previewLen = 60

// metaContent returns the content attribute of the first meta tag whose
// name/property matches, case-insensitively.
func metaContent(pc *pageContext, attr, value string) (string, bool) {
	var content string
	found := false
	pc.doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if name, ok := s.Attr(attr); ok && strings.EqualFold(strings.TrimSpace(name), value) {
			content, _ = s.Attr("content")
			found = true
			return false
		}
		return true
	})
	return content, found
}

// checkViewport flags pages without a viewport meta tag.
func (e *Engine) checkViewport(pc *pageContext) []qa.ResultItem {
	content, found := metaContent(pc, "name", "viewport")
	if !found {
		return []qa.ResultItem{e.fail(CodeViewportMissing, nil)}
	}
	return []qa.ResultItem{
		e.pass(CodeViewportMissing, map[string]any{"content": content}),
	}
}

// checkTitle enforces the title length bounds. A missing or blank title is
// another provider's finding, so both sub-checks are skipped then.
func (e *Engine) checkTitle(pc *pageContext) []qa.ResultItem {
	title := strings.TrimSpace(pc.doc.Find("title").First().Text())
	if title == "" {
		return []qa.ResultItem{
			e.skip(CodeTitleTooShort, map[string]any{"reason": "title missing or blank"}),
			e.skip(CodeTitleTooLong, map[string]any{"reason": "title missing or blank"}),
		}
	}
	return lengthBoundItems(e, title, titleMinLen, titleMaxLen, CodeTitleTooShort, CodeTitleTooLong)
}

// checkMetaDescription enforces the description length bounds with the same
// present-and-non-blank gate as the title check.
func (e *Engine) checkMetaDescription(pc *pageContext) []qa.ResultItem {
	desc, _ := metaContent(pc, "name", "description")
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return []qa.ResultItem{
			e.skip(CodeMetaDescTooShort, map[string]any{"reason": "description missing or blank"}),
			e.skip(CodeMetaDescTooLong, map[string]any{"reason": "description missing or blank"}),
		}
	}
	return lengthBoundItems(e, desc, descMinLen, descMaxLen, CodeMetaDescTooShort, CodeMetaDescTooLong)
}

func lengthBoundItems(e *Engine, text string, min, max int, shortCode, longCode string) []qa.ResultItem {
	length := len([]rune(text))
	meta := map[string]any{
		"length":  length,
		"min":     min,
		"max":     max,
		"preview": preview(text),
	}

	var items []qa.ResultItem
	if length < min {
		items = append(items, e.fail(shortCode, meta))
	} else {
		items = append(items, e.pass(shortCode, meta))
	}
	if length > max {
		items = append(items, e.fail(longCode, meta))
	} else {
		items = append(items, e.pass(longCode, meta))
	}
	return items
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLen {
		return text
	}
	return string(runes[:previewLen]) + "…"
}
