package rules

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/proximodev/releasepass/internal/qa"
)

// checkHeadings validates the H1 structure. A page with no H1 at all fails
// hard and short-circuits the multiple/empty sub-checks.
func (e *Engine) checkHeadings(pc *pageContext) []qa.ResultItem {
	var texts []string
	pc.doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(s.Text()))
	})

	if len(texts) == 0 {
		return []qa.ResultItem{
			e.fail(CodeH1Missing, map[string]any{"count": 0}),
		}
	}

	items := []qa.ResultItem{
		e.pass(CodeH1Missing, map[string]any{"count": len(texts)}),
	}

	if len(texts) > 1 {
		items = append(items, e.fail(CodeH1Multiple, map[string]any{
			"count":    len(texts),
			"headings": texts,
		}))
	} else {
		items = append(items, e.pass(CodeH1Multiple, map[string]any{"count": len(texts)}))
	}

	empty := 0
	for _, t := range texts {
		if t == "" {
			empty++
		}
	}
	if empty > 0 {
		items = append(items, e.fail(CodeH1Empty, map[string]any{"emptyCount": empty}))
	} else {
		items = append(items, e.pass(CodeH1Empty, map[string]any{"texts": texts}))
	}
	return items
}
