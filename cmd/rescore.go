package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newRescoreCmd creates the 'rescore' subcommand. It recomputes the scores
// of a finished run from its persisted findings, typically after a rule's
// ignored flag was toggled.
func newRescoreCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Recomputes scores for a finished run",
		Long: `Reloads the persisted findings of a run, recomputes every URL score
with the current ignored flags and penalty table, and updates the run
aggregate. URL results that ended in an operational error keep their
null score.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			score, err := proc.Rescore(ctx, runID)
			if err != nil {
				return err
			}
			app.logger.Info("Rescored run",
				zap.String("run_id", runID),
				zap.Int("score", score),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "id of the run to rescore")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}
