// Package processor orchestrates one claimed test run: resolve the URL list,
// fan the checks out with bounded concurrency, persist findings and scores,
// and finalize the run.
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/proximodev/releasepass/internal/config"
	"github.com/proximodev/releasepass/internal/limiter"
	"github.com/proximodev/releasepass/internal/metrics"
	"github.com/proximodev/releasepass/internal/providers"
	"github.com/proximodev/releasepass/internal/qa"
	"github.com/proximodev/releasepass/internal/scoring"
)

// Processor executes claimed runs. Providers are registered per run type;
// dispatch on an unknown type is a configuration error, not a panic.
type Processor struct {
	providers map[qa.RunType]providers.Provider
	runs      qa.RunStore
	results   qa.ResultStore
	catalog   qa.CatalogStore
	scorer    *scoring.Scorer
	checks    config.ChecksConfig
	notifier  qa.Notifier
	logger    *zap.Logger
}

func New(
	provs map[qa.RunType]providers.Provider,
	runs qa.RunStore,
	results qa.ResultStore,
	catalogStore qa.CatalogStore,
	scorer *scoring.Scorer,
	checks config.ChecksConfig,
	notifier qa.Notifier,
	logger *zap.Logger,
) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Processor{
		providers: provs,
		runs:      runs,
		results:   results,
		catalog:   catalogStore,
		scorer:    scorer,
		checks:    checks,
		notifier:  notifier,
		logger:    logger,
	}
}

// urlOutcome is the per-URL result of a fan-out slot. Exactly one of scores
// and errText is set; performance runs yield one score per viewport.
type urlOutcome struct {
	url     string
	scores  []int
	errText string
}

// Process runs a claimed run to completion and writes its terminal status.
// The returned error reflects only failures to persist the terminal state;
// check failures end up in the run row instead.
func (p *Processor) Process(ctx context.Context, run *qa.TestRun) error {
	started := time.Now()
	log := p.logger.With(zap.String("run_id", run.ID), zap.String("type", string(run.Type)))

	provider, err := p.dispatch(run.Type)
	if err != nil {
		log.Error("dispatch failed", zap.Error(err))
		return p.finish(ctx, run, qa.RunStatusFailed, nil, err.Error(), started)
	}

	urls, err := p.resolveURLs(run)
	if err != nil {
		log.Error("url resolution failed", zap.Error(err))
		return p.finish(ctx, run, qa.RunStatusFailed, nil, err.Error(), started)
	}

	cfg := p.checksFor(run.Type)
	if cfg.MaxURLs > 0 && len(urls) > cfg.MaxURLs {
		log.Warn("url list truncated",
			zap.Int("requested", len(urls)),
			zap.Int("cap", cfg.MaxURLs))
		urls = urls[:cfg.MaxURLs]
	}

	optional, err := p.catalog.EnabledOptionalCodes(ctx, run.ProjectID)
	if err != nil {
		log.Error("loading optional rule toggles failed", zap.Error(err))
		return p.finish(ctx, run, qa.RunStatusFailed, nil,
			fmt.Sprintf("load optional rules: %v", err), started)
	}

	outcomes := p.fanOut(ctx, run, provider, urls, cfg.Concurrency, optional)

	failed := 0
	var scores []int
	var firstErr string
	for _, o := range outcomes {
		if o.errText != "" {
			failed++
			if firstErr == "" {
				firstErr = o.errText
			}
			continue
		}
		scores = append(scores, o.scores...)
	}

	if failed > 0 {
		// The lone error message when every URL failed, a count otherwise.
		errText := firstErr
		if failed < len(outcomes) {
			errText = fmt.Sprintf("%d of %d URLs failed", failed, len(outcomes))
		}
		return p.finish(ctx, run, qa.RunStatusFailed, nil, errText, started)
	}

	score := scoring.Aggregate(scores)
	return p.finish(ctx, run, qa.RunStatusSuccess, &score, "", started)
}

// dispatch maps the closed run-type enum onto a registered provider.
func (p *Processor) dispatch(t qa.RunType) (providers.Provider, error) {
	switch t {
	case qa.RunTypePreflight, qa.RunTypePerformance, qa.RunTypeScreenshots,
		qa.RunTypeSpelling, qa.RunTypeSiteAudit:
		if prov, ok := p.providers[t]; ok {
			return prov, nil
		}
		return nil, &qa.ConfigError{Reason: fmt.Sprintf("no provider registered for run type %s", t)}
	default:
		return nil, &qa.ConfigError{Reason: fmt.Sprintf("unknown run type %q", t)}
	}
}

// resolveURLs picks the first non-empty source: the run's own list, the
// release's list, then the project site URL.
func (p *Processor) resolveURLs(run *qa.TestRun) ([]string, error) {
	if len(run.URLs) > 0 {
		return run.URLs, nil
	}
	if run.Release != nil && len(run.Release.URLs) > 0 {
		return run.Release.URLs, nil
	}
	if run.Project.SiteURL != "" {
		return []string{run.Project.SiteURL}, nil
	}
	return nil, &qa.ConfigError{Reason: "run has no URLs and the project has no site URL"}
}

func (p *Processor) checksFor(t qa.RunType) config.CheckConfig {
	switch t {
	case qa.RunTypePerformance:
		return p.checks.Performance
	case qa.RunTypeScreenshots:
		return p.checks.Screenshots
	case qa.RunTypeSpelling:
		return p.checks.Spelling
	case qa.RunTypeSiteAudit:
		return p.checks.SiteAudit
	default:
		return p.checks.Preflight
	}
}

// fanOut checks every URL under the type's concurrency cap. Each slot records
// its own outcome; a URL's failure never cancels its siblings.
func (p *Processor) fanOut(ctx context.Context, run *qa.TestRun, provider providers.Provider, urls []string, concurrency int, optional map[string]bool) []urlOutcome {
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := limiter.NewGroup(concurrency)
	outcomes := make([]urlOutcome, len(urls))

	var g errgroup.Group
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			if err := sem.Acquire(ctx); err != nil {
				outcomes[i] = urlOutcome{url: u, errText: fmt.Sprintf("check %s: %v", u, err)}
				return nil
			}
			defer sem.Release()
			outcomes[i] = p.checkURL(ctx, run, provider, u, optional)
			return nil
		})
	}
	g.Wait()
	return outcomes
}

// checkURL runs one provider check and persists its outcome, one result row
// per report. Each row carries either a score with findings or an error
// text, never both.
func (p *Processor) checkURL(ctx context.Context, run *qa.TestRun, provider providers.Provider, u string, optional map[string]bool) urlOutcome {
	started := time.Now()
	log := p.logger.With(
		zap.String("run_id", run.ID),
		zap.String("provider", provider.Name()),
		zap.String("url", u))

	ignored, err := p.catalog.IgnoredCodes(ctx, run.ProjectID, u)
	if err != nil {
		return p.failURL(ctx, run, provider, u, fmt.Sprintf("load ignored rules: %v", err), started, log)
	}

	reports, err := provider.Check(ctx, providers.Target{
		RunID:         run.ID,
		ProjectID:     run.ProjectID,
		URL:           u,
		IgnoredCodes:  ignored,
		OptionalCodes: optional,
	})
	if err != nil {
		return p.failURL(ctx, run, provider, u, err.Error(), started, log)
	}
	if len(reports) == 0 {
		return p.failURL(ctx, run, provider, u,
			fmt.Sprintf("provider %s returned no results", provider.Name()), started, log)
	}

	scores := make([]int, 0, len(reports))
	for _, rep := range reports {
		score := p.scorer.Score(rep.Items)
		result := qa.URLResult{
			ID:         uuid.NewString(),
			RunID:      run.ID,
			URL:        u,
			Viewport:   rep.Viewport,
			Score:      &score,
			IssueCount: scoring.IssueCount(rep.Items),
			Metrics:    rep.Metrics,
		}
		if err := p.results.SaveURLResult(ctx, result, rep.Items); err != nil {
			return p.failURL(ctx, run, provider, u, fmt.Sprintf("persist result: %v", err), started, log)
		}
		scores = append(scores, score)
	}

	metrics.ObserveURLCheck(provider.Name(), "success", time.Since(started))
	log.Debug("url checked",
		zap.Ints("scores", scores),
		zap.Int("reports", len(reports)),
		zap.Duration("duration", time.Since(started)))
	return urlOutcome{url: u, scores: scores}
}

func (p *Processor) failURL(ctx context.Context, run *qa.TestRun, provider providers.Provider, u, errText string, started time.Time, log *zap.Logger) urlOutcome {
	result := qa.URLResult{
		ID:        uuid.NewString(),
		RunID:     run.ID,
		URL:       u,
		ErrorText: errText,
	}
	if err := p.results.SaveURLResult(ctx, result, nil); err != nil {
		log.Error("persisting url error failed", zap.Error(err))
	}
	metrics.ObserveURLCheck(provider.Name(), "error", time.Since(started))
	log.Warn("url check failed", zap.String("error", errText))
	return urlOutcome{url: u, errText: errText}
}

// finish writes the terminal state and notifies. A notification failure is
// logged, never fatal: the run row is already authoritative.
func (p *Processor) finish(ctx context.Context, run *qa.TestRun, status qa.RunStatus, score *int, errText string, started time.Time) error {
	if err := p.runs.Complete(ctx, run.ID, status, score, errText); err != nil {
		return fmt.Errorf("complete run %s: %w", run.ID, err)
	}
	metrics.ObserveRun(string(run.Type), string(status), time.Since(started))

	p.logger.Info("run completed",
		zap.String("run_id", run.ID),
		zap.String("type", string(run.Type)),
		zap.String("status", string(status)),
		zap.Duration("duration", time.Since(started)))

	if p.notifier != nil {
		event := qa.RunCompletedEvent{
			RunID:      run.ID,
			ProjectID:  run.ProjectID,
			Type:       run.Type,
			Status:     status,
			Score:      score,
			ErrorText:  errText,
			FinishedAt: time.Now().UTC(),
		}
		if err := p.notifier.RunCompleted(ctx, event); err != nil {
			p.logger.Warn("run completion notification failed",
				zap.String("run_id", run.ID),
				zap.Error(err))
		}
	}
	return nil
}
