package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/proximodev/releasepass/internal/ops"
	"github.com/proximodev/releasepass/internal/worker"
)

// newWorkerCmd creates the 'worker' subcommand. It runs the claim loop and
// the ops HTTP server until interrupted.
func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Starts the QA run worker",
		Long: `Polls the queue for claimable test runs and processes them one at a
time: resolve the URL list, execute the configured check, persist findings
and scores, and mark the run terminal. Serves /healthz, /readyz, and
/metrics while running.`,
		RunE: runWorkerCommand,
	}
}

func runWorkerCommand(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	proc, err := app.buildProcessor(ctx)
	if err != nil {
		return err
	}

	w := worker.New(
		app.store,
		proc,
		app.cfg.PollInterval(),
		app.cfg.HeartbeatInterval(),
		app.logger,
	)
	srv := ops.NewServer(app.store, app.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx) })
	g.Go(func() error { return srv.ListenAndServe(ctx, app.cfg.Server.Port) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	app.logger.Info("Worker shut down cleanly")
	return nil
}
