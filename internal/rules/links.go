package rules

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"github.com/proximodev/releasepass/internal/qa"
)

const placeholderExampleCap = 10

// isNavDropdownTrigger decides whether an href="#" anchor is really a
// navigation dropdown toggle rather than a dead link: it must sit inside a
// nav context and show at least one menu signal.
func isNavDropdownTrigger(s *goquery.Selection) bool {
	inNav := false
	for p := s.Parent(); p.Length() > 0; p = p.Parent() {
		if goquery.NodeName(p) == "nav" {
			inNav = true
			break
		}
		if role, ok := p.Attr("role"); ok && strings.EqualFold(strings.TrimSpace(role), "navigation") {
			inNav = true
			break
		}
	}
	if !inNav {
		return false
	}

	if _, ok := s.Attr("aria-haspopup"); ok {
		return true
	}
	if _, ok := s.Attr("aria-expanded"); ok {
		return true
	}
	parent := s.Parent()
	if goquery.NodeName(parent) == "li" && parent.Find("ul, ol").Length() > 0 {
		return true
	}
	if s.Siblings().Filter("ul, ol, menu").Length() > 0 {
		return true
	}
	return false
}

// checkPlaceholderLinks flags anchors left pointing at "#", excluding
// recognized navigation dropdown triggers.
func (e *Engine) checkPlaceholderLinks(pc *pageContext) []qa.ResultItem {
	total := 0
	excluded := 0
	var examples []string
	pc.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if strings.TrimSpace(href) != "#" {
			return
		}
		if isNavDropdownTrigger(s) {
			excluded++
			return
		}
		total++
		if len(examples) < placeholderExampleCap {
			text := strings.TrimSpace(s.Text())
			if text == "" {
				text = "(no text)"
			}
			examples = append(examples, text)
		}
	})

	if total > 0 {
		return []qa.ResultItem{e.fail(CodePlaceholderLinks, map[string]any{
			"count":                total,
			"examples":             examples,
			"excludedNavDropdowns": excluded,
		})}
	}
	return []qa.ResultItem{e.pass(CodePlaceholderLinks, map[string]any{
		"excludedNavDropdowns": excluded,
	})}
}

// compliantTargets are the target values that keep an external link in the
// same browsing context, i.e. non-compliant for external links.
var sameContextTargets = map[string]bool{
	"":        true,
	"_self":   true,
	"_parent": true,
	"_top":    true,
}

var skippedHrefSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

// rootDomain returns the registrable domain (eTLD+1) of a host, falling back
// to the raw host when the public suffix list cannot resolve it.
func rootDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

// checkExternalLinkTargets is the project-toggled rule requiring external
// links to open outside the current browsing context.
func (e *Engine) checkExternalLinkTargets(pc *pageContext) []qa.ResultItem {
	pageRoot := rootDomain(pc.url.Hostname())

	externalCount := 0
	var offenders []string
	pc.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		for _, scheme := range skippedHrefSchemes {
			if strings.HasPrefix(lower, scheme) {
				return
			}
		}
		if _, ok := s.Attr("download"); ok {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := pc.url.ResolveReference(ref)
		if resolved.Hostname() == "" || rootDomain(resolved.Hostname()) == pageRoot {
			return
		}

		externalCount++
		target, _ := s.Attr("target")
		if sameContextTargets[strings.ToLower(strings.TrimSpace(target))] {
			offenders = append(offenders, resolved.String())
		}
	})

	if len(offenders) > 0 {
		return []qa.ResultItem{e.fail(CodeExternalLinkTarget, map[string]any{
			"links":         offenders,
			"externalCount": externalCount,
		})}
	}
	return []qa.ResultItem{e.pass(CodeExternalLinkTarget, map[string]any{
		"externalCount": externalCount,
	})}
}
