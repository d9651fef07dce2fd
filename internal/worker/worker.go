// Package worker runs the claim/process loop and the stuck-run reaper.
package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/metrics"
	"github.com/proximodev/releasepass/internal/qa"
)

// RunProcessor executes one claimed run to completion.
type RunProcessor interface {
	Process(ctx context.Context, run *qa.TestRun) error
}

// Worker polls the queue and hands claimed runs to the processor, renewing
// the heartbeat for as long as a run is in flight.
type Worker struct {
	store             qa.RunStore
	processor         RunProcessor
	pollInterval      time.Duration
	heartbeatInterval time.Duration
	logger            *zap.Logger
}

func New(store qa.RunStore, processor RunProcessor, pollInterval, heartbeatInterval time.Duration, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	metrics.Init()
	return &Worker{
		store:             store,
		processor:         processor,
		pollInterval:      pollInterval,
		heartbeatInterval: heartbeatInterval,
		logger:            logger,
	}
}

// Run loops until the context is cancelled. An empty queue or a claim error
// waits one poll interval; after a processed run the next claim is immediate
// so a backlog drains at full speed.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Duration("heartbeat_interval", w.heartbeatInterval))

	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("worker stopping")
			return err
		}

		run, err := w.store.ClaimNext(ctx)
		if err != nil {
			w.logger.Error("claim failed", zap.Error(err))
			w.sleep(ctx)
			continue
		}
		if run == nil {
			w.sleep(ctx)
			continue
		}
		w.processRun(ctx, run)
	}
}

func (w *Worker) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(w.pollInterval):
	}
}

// processRun supervises one run: heartbeat goroutine, panic containment, and
// the processor call. The heartbeat is cancelled on every exit path.
func (w *Worker) processRun(ctx context.Context, run *qa.TestRun) {
	metrics.IncActiveRuns()
	defer metrics.DecActiveRuns()

	hbCtx, cancelHeartbeat := context.WithCancel(ctx)
	defer cancelHeartbeat()
	go w.heartbeatLoop(hbCtx, run.ID)

	defer func() {
		if r := recover(); r != nil {
			cancelHeartbeat()
			w.logger.Error("run panicked",
				zap.String("run_id", run.ID),
				zap.Any("panic", r))
			errText := fmt.Sprintf("panic: %v", r)
			if err := w.store.Complete(ctx, run.ID, qa.RunStatusFailed, nil, errText); err != nil {
				w.logger.Error("failing panicked run failed",
					zap.String("run_id", run.ID),
					zap.Error(err))
			}
		}
	}()

	if err := w.processor.Process(ctx, run); err != nil {
		w.logger.Error("finalizing run failed",
			zap.String("run_id", run.ID),
			zap.Error(err))
	}
}

// heartbeatLoop renews the run's liveness stamp until cancelled. Renewal
// failures are logged and never interrupt the run.
func (w *Worker) heartbeatLoop(ctx context.Context, runID string) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.RenewHeartbeat(ctx, runID); err != nil {
				metrics.ObserveHeartbeatFailure()
				w.logger.Warn("heartbeat renewal failed",
					zap.String("run_id", runID),
					zap.Error(err))
			}
		}
	}
}
