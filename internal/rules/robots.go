package rules

import (
	"sort"
	"strings"

	"github.com/proximodev/releasepass/internal/qa"
)

// robotsDirectives parses one or more directive strings into a normalized
// lowercase token set.
func robotsDirectives(values []string) map[string]bool {
	tokens := make(map[string]bool)
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok == "" {
				continue
			}
			// Valued directives like "unavailable_after: <date>" keep
			// their key only.
			if i := strings.IndexByte(tok, ':'); i >= 0 {
				tok = strings.TrimSpace(tok[:i])
			}
			tokens[tok] = true
		}
	}
	return tokens
}

// checkRobots evaluates indexing/crawl control from both the X-Robots-Tag
// response header and the robots meta tag. The header wins over the meta tag
// by convention.
func (e *Engine) checkRobots(pc *pageContext) []qa.ResultItem {
	header := robotsDirectives(pc.page.Headers.Values("X-Robots-Tag"))

	var metaValues []string
	if content, ok := metaContent(pc, "name", "robots"); ok {
		metaValues = append(metaValues, content)
	}
	meta := robotsDirectives(metaValues)

	var items []qa.ResultItem

	switch {
	case header["noindex"]:
		items = append(items, e.fail(CodeRobotsNoindex, map[string]any{"source": "header"}))
	case meta["noindex"]:
		items = append(items, e.fail(CodeRobotsNoindex, map[string]any{"source": "meta"}))
	default:
		items = append(items, e.pass(CodeRobotsNoindex, map[string]any{
			"header": tokenList(header),
			"meta":   tokenList(meta),
		}))
	}

	var nofollowSources []string
	if header["nofollow"] {
		nofollowSources = append(nofollowSources, "header")
	}
	if meta["nofollow"] {
		nofollowSources = append(nofollowSources, "meta")
	}
	if len(nofollowSources) > 0 {
		items = append(items, e.fail(CodeRobotsNofollow, map[string]any{"sources": nofollowSources}))
	} else {
		items = append(items, e.pass(CodeRobotsNofollow, nil))
	}

	// Conflicts are only meaningful when both sources state something.
	if len(header) == 0 || len(meta) == 0 {
		items = append(items, e.skip(CodeRobotsConflict, map[string]any{
			"reason": "both sources must carry at least one directive",
		}))
		return items
	}

	var conflicts []string
	if (header["noindex"] && meta["index"]) || (header["index"] && meta["noindex"]) {
		conflicts = append(conflicts, "index")
	}
	if (header["nofollow"] && meta["follow"]) || (header["follow"] && meta["nofollow"]) {
		conflicts = append(conflicts, "follow")
	}
	if len(conflicts) > 0 {
		items = append(items, e.fail(CodeRobotsConflict, map[string]any{
			"directives": conflicts,
			"header":     tokenList(header),
			"meta":       tokenList(meta),
		}))
	} else {
		items = append(items, e.pass(CodeRobotsConflict, map[string]any{
			"header": tokenList(header),
			"meta":   tokenList(meta),
		}))
	}
	return items
}

func tokenList(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for tok := range set {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}
