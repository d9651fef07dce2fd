// Package rules implements the structural page checks of the preflight
// pipeline. Evaluation is a pure function of the fetched page and the rule
// catalog: a rule that ran and found a problem is a FAIL finding, never an
// error. Only a page that cannot be parsed (or a favicon probe the engine
// must perform itself) touches the error path.
package rules

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/catalog"
	"github.com/proximodev/releasepass/internal/qa"
)

// ProviderName tags every finding the engine emits.
const ProviderName = "custom_rules"

// Engine evaluates the rule set against one parsed page.
type Engine struct {
	catalog *catalog.Catalog
	fetcher qa.Fetcher
	logger  *zap.Logger
}

// Input carries the externally decided per-run context: which codes the
// project ignores for this URL and which optional rules it enabled.
type Input struct {
	IgnoredCodes  map[string]bool
	OptionalCodes map[string]bool
}

// NewEngine builds an Engine. The fetcher is used only for favicon probes.
func NewEngine(cat *catalog.Catalog, fetcher qa.Fetcher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{catalog: cat, fetcher: fetcher, logger: logger}
}

// Evaluate runs every check against the page and returns the full finding
// list, passes included. A parse failure is an operational error.
func (e *Engine) Evaluate(ctx context.Context, page *qa.FetchedPage, in Input) ([]qa.ResultItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", page.FinalURL, err)
	}
	pageURL, err := url.Parse(page.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url %s: %w", page.FinalURL, err)
	}

	pc := &pageContext{page: page, doc: doc, url: pageURL}

	var items []qa.ResultItem
	items = append(items, e.checkHeadings(pc)...)
	items = append(items, e.checkViewport(pc)...)
	items = append(items, e.checkRobots(pc)...)
	items = append(items, e.checkCanonical(pc)...)
	items = append(items, e.checkSecurity(pc)...)
	items = append(items, e.checkPlaceholderLinks(pc)...)
	items = append(items, e.checkEmptyAlt(pc)...)
	items = append(items, e.checkFavicon(ctx, pc))
	items = append(items, e.checkTitle(pc)...)
	items = append(items, e.checkMetaDescription(pc)...)
	if in.OptionalCodes[CodeExternalLinkTarget] {
		items = append(items, e.checkExternalLinkTargets(pc)...)
	}

	for i := range items {
		if in.IgnoredCodes[items[i].Code] {
			items[i].Ignored = true
		}
	}
	return items, nil
}

// pageContext bundles the parsed artifacts every check reads from.
type pageContext struct {
	page *qa.FetchedPage
	doc  *goquery.Document
	url  *url.URL
}

func (e *Engine) pass(code string, meta map[string]any) qa.ResultItem {
	return qa.ResultItem{
		Provider: ProviderName,
		Code:     code,
		Name:     e.catalog.DisplayName(code, defaultNames[code]),
		Status:   qa.ItemPass,
		Metadata: meta,
	}
}

func (e *Engine) fail(code string, meta map[string]any) qa.ResultItem {
	return qa.ResultItem{
		Provider: ProviderName,
		Code:     code,
		Name:     e.catalog.DisplayName(code, defaultNames[code]),
		Status:   qa.ItemFail,
		Severity: e.catalog.Severity(code, defaultSeverities[code]),
		Metadata: meta,
	}
}

func (e *Engine) skip(code string, meta map[string]any) qa.ResultItem {
	return qa.ResultItem{
		Provider: ProviderName,
		Code:     code,
		Name:     e.catalog.DisplayName(code, defaultNames[code]),
		Status:   qa.ItemSkip,
		Metadata: meta,
	}
}
