package processor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/scoring"
)

// Rescore recomputes every URL score of a run from its persisted findings and
// updates the run aggregate. Used after ignored-flag toggles; URL results
// that ended in an operational error keep their null score.
func (p *Processor) Rescore(ctx context.Context, runID string) (int, error) {
	results, err := p.results.URLResults(ctx, runID)
	if err != nil {
		return 0, fmt.Errorf("load url results for run %s: %w", runID, err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("run %s has no url results", runID)
	}

	var scores []int
	for _, res := range results {
		if res.ErrorText != "" {
			continue
		}
		items, err := p.results.Findings(ctx, res.ID)
		if err != nil {
			return 0, fmt.Errorf("load findings for result %s: %w", res.ID, err)
		}
		score := p.scorer.Score(items)
		if err := p.results.UpdateURLScore(ctx, res.ID, score, scoring.IssueCount(items)); err != nil {
			return 0, fmt.Errorf("update score for result %s: %w", res.ID, err)
		}
		scores = append(scores, score)
	}

	if len(scores) == 0 {
		return 0, fmt.Errorf("run %s has no scored url results to aggregate", runID)
	}

	aggregate := scoring.Aggregate(scores)
	if err := p.results.UpdateRunScore(ctx, runID, aggregate); err != nil {
		return 0, fmt.Errorf("update run score for %s: %w", runID, err)
	}
	p.logger.Info("run rescored",
		zap.String("run_id", runID),
		zap.Int("score", aggregate),
		zap.Int("urls", len(scores)))
	return aggregate, nil
}
