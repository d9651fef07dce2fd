package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/proximodev/releasepass/internal/worker"
)

// newReaperCmd creates the 'reaper' subcommand. Run it as a singleton
// alongside the worker fleet.
func newReaperCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reaper",
		Short: "Recovers runs abandoned by crashed workers",
		Long: `Periodically fails RUNNING test runs whose heartbeat has gone stale,
so a worker crash never leaves a run stuck in RUNNING forever.`,
		RunE: runReaperCommand,
	}
}

func runReaperCommand(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	r := worker.NewReaper(app.store, app.cfg.ReapStaleness(), app.cfg.ReapInterval(), app.logger)
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	app.logger.Info("Reaper shut down cleanly")
	return nil
}
