package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/qa"
)

// reapErrorText is written into every run the reaper fails.
const reapErrorText = "worker timeout: heartbeat expired"

const claimQuery = `
	SELECT r.id, r.project_id, r.type, r.urls, r.created_at, r.release_id,
	       p.name, p.site_url
	FROM test_runs r
	JOIN projects p ON p.id = r.project_id
	WHERE r.status = 'QUEUED'
	ORDER BY r.created_at
	FOR UPDATE OF r SKIP LOCKED
	LIMIT 1`

const markRunningQuery = `
	UPDATE test_runs
	SET status = 'RUNNING', started_at = now(), heartbeat_at = now()
	WHERE id = $1
	RETURNING started_at, heartbeat_at`

const releaseURLsQuery = `SELECT urls FROM release_runs WHERE id = $1`

// ClaimNext locks the oldest queued run and transitions it to RUNNING in one
// transaction, so concurrent workers never hand out the same run twice.
// Returns nil with no error when the queue is empty.
func (s *Store) ClaimNext(ctx context.Context) (*qa.TestRun, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}

	run, err := s.claimInTx(ctx, tx)
	if err := finishTx(ctx, tx, err); err != nil {
		return nil, err
	}
	if run != nil {
		s.logger.Debug("claimed run",
			zap.String("run_id", run.ID),
			zap.String("type", string(run.Type)))
	}
	return run, nil
}

func (s *Store) claimInTx(ctx context.Context, tx pgx.Tx) (*qa.TestRun, error) {
	var (
		run       qa.TestRun
		releaseID *string
	)
	err := tx.QueryRow(ctx, claimQuery).Scan(
		&run.ID, &run.ProjectID, &run.Type, &run.URLs, &run.CreatedAt,
		&releaseID, &run.Project.Name, &run.Project.SiteURL,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select queued run: %w", err)
	}
	run.Project.ID = run.ProjectID
	run.Status = qa.RunStatusRunning

	var startedAt, heartbeatAt time.Time
	if err := tx.QueryRow(ctx, markRunningQuery, run.ID).Scan(&startedAt, &heartbeatAt); err != nil {
		return nil, fmt.Errorf("mark run %s running: %w", run.ID, err)
	}
	run.StartedAt = &startedAt
	run.HeartbeatAt = &heartbeatAt

	if releaseID != nil {
		release := qa.ReleaseRun{ID: *releaseID}
		if err := tx.QueryRow(ctx, releaseURLsQuery, *releaseID).Scan(&release.URLs); err != nil {
			return nil, fmt.Errorf("load release %s: %w", *releaseID, err)
		}
		run.Release = &release
	}
	return &run, nil
}

// RenewHeartbeat bumps the liveness stamp of a RUNNING run.
func (s *Store) RenewHeartbeat(ctx context.Context, runID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE test_runs SET heartbeat_at = now() WHERE id = $1 AND status = 'RUNNING'`,
		runID)
	if err != nil {
		return fmt.Errorf("renew heartbeat for %s: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s is not running", runID)
	}
	return nil
}

// Complete writes the terminal status. The status guard makes the write
// exactly-once: a run already finished (or reaped) is not overwritten.
func (s *Store) Complete(ctx context.Context, runID string, status qa.RunStatus, score *int, errText string) error {
	if !status.Terminal() {
		return fmt.Errorf("status %s is not terminal", status)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE test_runs
		SET status = $2, score = $3, error_text = $4, finished_at = now()
		WHERE id = $1 AND status = 'RUNNING'`,
		runID, status, score, errText)
	if err != nil {
		return fmt.Errorf("complete run %s: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s is not running", runID)
	}
	return nil
}

// ReapStuckRuns fails every RUNNING run whose heartbeat is older than
// staleness. Queued and finished runs are never touched, so repeated calls
// are harmless.
func (s *Store) ReapStuckRuns(ctx context.Context, staleness time.Duration) (int64, error) {
	cutoff := time.Now().Add(-staleness)
	tag, err := s.db.Exec(ctx, `
		UPDATE test_runs
		SET status = 'FAILED', error_text = $2, finished_at = now()
		WHERE status = 'RUNNING' AND heartbeat_at < $1`,
		cutoff, reapErrorText)
	if err != nil {
		return 0, fmt.Errorf("reap stuck runs: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		s.logger.Warn("reaped stuck runs", zap.Int64("count", n))
		return n, nil
	}
	return 0, nil
}
