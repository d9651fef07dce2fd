package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/proximodev/releasepass/internal/qa"
)

const insertURLResultQuery = `
	INSERT INTO url_results (id, run_id, url, viewport, score, issue_count, metrics, error_text)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const insertResultItemQuery = `
	INSERT INTO result_items (id, url_result_id, provider, code, name, status, severity, metadata, ignored)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// SaveURLResult inserts the result row and its findings in one transaction,
// so a reader never sees a scored result without its findings.
func (s *Store) SaveURLResult(ctx context.Context, res qa.URLResult, items []qa.ResultItem) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}

	err = func() error {
		metricsJSON, err := json.Marshal(res.Metrics)
		if err != nil {
			return fmt.Errorf("marshal metrics: %w", err)
		}
		if _, err := tx.Exec(ctx, insertURLResultQuery,
			res.ID, res.RunID, res.URL, res.Viewport,
			res.Score, res.IssueCount, metricsJSON, res.ErrorText); err != nil {
			return fmt.Errorf("insert url result for %s: %w", res.URL, err)
		}

		for _, item := range items {
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			metaJSON, err := json.Marshal(item.Metadata)
			if err != nil {
				return fmt.Errorf("marshal metadata for %s: %w", item.Code, err)
			}
			if _, err := tx.Exec(ctx, insertResultItemQuery,
				item.ID, res.ID, item.Provider, item.Code, item.Name,
				item.Status, nullableSeverity(item.Severity), metaJSON, item.Ignored); err != nil {
				return fmt.Errorf("insert finding %s: %w", item.Code, err)
			}
		}
		return nil
	}()
	return finishTx(ctx, tx, err)
}

// URLResults returns every result row of a run, oldest first.
func (s *Store) URLResults(ctx context.Context, runID string) ([]qa.URLResult, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, run_id, url, viewport, score, issue_count, metrics, error_text
		FROM url_results
		WHERE run_id = $1
		ORDER BY created_at`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("query url results for %s: %w", runID, err)
	}
	defer rows.Close()

	var results []qa.URLResult
	for rows.Next() {
		var (
			res         qa.URLResult
			metricsJSON []byte
		)
		if err := rows.Scan(&res.ID, &res.RunID, &res.URL, &res.Viewport,
			&res.Score, &res.IssueCount, &metricsJSON, &res.ErrorText); err != nil {
			return nil, fmt.Errorf("scan url result: %w", err)
		}
		if len(metricsJSON) > 0 {
			if err := json.Unmarshal(metricsJSON, &res.Metrics); err != nil {
				return nil, fmt.Errorf("unmarshal metrics for %s: %w", res.ID, err)
			}
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// Findings returns the findings attached to one url result.
func (s *Store) Findings(ctx context.Context, urlResultID string) ([]qa.ResultItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, url_result_id, provider, code, name, status, COALESCE(severity, ''), metadata, ignored
		FROM result_items
		WHERE url_result_id = $1
		ORDER BY id`,
		urlResultID)
	if err != nil {
		return nil, fmt.Errorf("query findings for %s: %w", urlResultID, err)
	}
	defer rows.Close()

	var items []qa.ResultItem
	for rows.Next() {
		var (
			item     qa.ResultItem
			metaJSON []byte
		)
		if err := rows.Scan(&item.ID, &item.URLResultID, &item.Provider, &item.Code,
			&item.Name, &item.Status, &item.Severity, &metaJSON, &item.Ignored); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &item.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for %s: %w", item.ID, err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateURLScore persists a recomputed per-URL score.
func (s *Store) UpdateURLScore(ctx context.Context, urlResultID string, score, issueCount int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE url_results SET score = $2, issue_count = $3 WHERE id = $1`,
		urlResultID, score, issueCount)
	if err != nil {
		return fmt.Errorf("update score for %s: %w", urlResultID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("url result %s not found", urlResultID)
	}
	return nil
}

// UpdateRunScore persists a recomputed run aggregate.
func (s *Store) UpdateRunScore(ctx context.Context, runID string, score int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE test_runs SET score = $2 WHERE id = $1`,
		runID, score)
	if err != nil {
		return fmt.Errorf("update run score for %s: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// nullableSeverity maps the empty severity of PASS/SKIP findings onto NULL.
func nullableSeverity(sev qa.Severity) *string {
	if sev == "" {
		return nil
	}
	s := string(sev)
	return &s
}
