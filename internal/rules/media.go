package rules

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/proximodev/releasepass/internal/qa"
)

const emptyAltExampleCap = 10

// checkEmptyAlt flags images whose alt attribute exists but trims to the
// empty string. A missing alt attribute is a different provider's concern.
func (e *Engine) checkEmptyAlt(pc *pageContext) []qa.ResultItem {
	total := 0
	var examples []string
	pc.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		alt, ok := s.Attr("alt")
		if !ok || strings.TrimSpace(alt) != "" {
			return
		}
		total++
		if len(examples) < emptyAltExampleCap {
			src, _ := s.Attr("src")
			if src == "" {
				src = "(no src)"
			}
			examples = append(examples, src)
		}
	})

	if total > 0 {
		return []qa.ResultItem{e.fail(CodeImgAltEmpty, map[string]any{
			"count":    total,
			"examples": examples,
		})}
	}
	return []qa.ResultItem{e.pass(CodeImgAltEmpty, nil)}
}
