package providers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/qa"
	"github.com/proximodev/releasepass/internal/rules"
)

const preflightProviderName = "preflight"

// Preflight is the page-plus-links pipeline: fetch the page once, evaluate
// the structural rule set against it, then run the link checker. A fetch
// failure after retries means the URL could not be checked at all; a link
// checker failure is likewise operational because a partial preflight would
// score misleadingly high.
type Preflight struct {
	fetcher qa.Fetcher
	engine  *rules.Engine
	links   *LinkCheck
	logger  *zap.Logger
}

func NewPreflight(fetcher qa.Fetcher, engine *rules.Engine, links *LinkCheck, logger *zap.Logger) *Preflight {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preflight{fetcher: fetcher, engine: engine, links: links, logger: logger}
}

func (p *Preflight) Name() string { return preflightProviderName }

func (p *Preflight) Check(ctx context.Context, target Target) ([]Report, error) {
	page, err := p.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target.URL, err)
	}

	items, err := p.engine.Evaluate(ctx, page, rules.Input{
		IgnoredCodes:  target.IgnoredCodes,
		OptionalCodes: target.OptionalCodes,
	})
	if err != nil {
		return nil, err
	}

	if p.links != nil {
		linkReports, err := p.links.Check(ctx, target)
		if err != nil {
			return nil, err
		}
		for _, rep := range linkReports {
			items = append(items, rep.Items...)
		}
	}
	return singleReport(items, map[string]any{
		"statusCode": page.StatusCode,
		"finalUrl":   page.FinalURL,
		"fetchMs":    page.Duration.Milliseconds(),
	}), nil
}
