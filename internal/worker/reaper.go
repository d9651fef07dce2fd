package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/metrics"
	"github.com/proximodev/releasepass/internal/qa"
)

// Reaper periodically fails RUNNING runs whose worker stopped heartbeating,
// so a crashed worker's runs become visible instead of hanging forever.
type Reaper struct {
	store     qa.RunStore
	staleness time.Duration
	interval  time.Duration
	logger    *zap.Logger
}

func NewReaper(store qa.RunStore, staleness, interval time.Duration, logger *zap.Logger) *Reaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if staleness <= 0 {
		staleness = time.Hour
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	metrics.Init()
	return &Reaper{store: store, staleness: staleness, interval: interval, logger: logger}
}

// Run sweeps once immediately, then on every tick until cancelled.
func (r *Reaper) Run(ctx context.Context) error {
	r.logger.Info("reaper started",
		zap.Duration("staleness", r.staleness),
		zap.Duration("interval", r.interval))

	r.sweep(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper stopping")
			return ctx.Err()
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	n, err := r.store.ReapStuckRuns(ctx, r.staleness)
	if err != nil {
		r.logger.Error("reap sweep failed", zap.Error(err))
		return
	}
	metrics.ObserveReaped(n)
	if n > 0 {
		r.logger.Warn("reaped stuck runs", zap.Int64("count", n))
	}
}
