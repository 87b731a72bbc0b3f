package main

import (
	"context"
	"fmt"

	"github.com/formcollector/api/internal/sweeper"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired events and their submissions once",
	Long: `Run the expiry sweep a single time, outside the scheduler. Events whose
expiresAt is older than SWEEP_GRACE are removed together with their submissions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout*6)
		defer cancel()

		s := sweeper.New(sweeper.Config{
			Events:      backend.Events,
			Submissions: backend.Submissions,
			Grace:       cfg.SweepGrace,
			Logger:      cfg.ServerLog,
		})
		result, err := s.Sweep(ctx)
		fmt.Fprintf(cmd.OutOrStdout(), "swept events=%d submissions=%d\n", result.Events, result.Submissions)
		return err
	},
}
