package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/gridcrawl/internal/engine"
	"github.com/JakeFAU/gridcrawl/internal/recordlog/file"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed URL...",
		Short: "Queue starting URLs in the record log",
		Long: `Appends a Queued record for each URL the log has not seen yet. URLs that
are already known, in any state, are left alone.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}
			logger := env.logger.Named("seed")
			recordLog, err := file.Open(file.Config{Path: env.cfg.Log.Path}, logger)
			if err != nil {
				return err
			}
			defer func() { _ = recordLog.Close() }()

			session, err := engine.Open(cmd.Context(), recordLog)
			if err != nil {
				return err
			}
			added, err := session.Seed(cmd.Context(), args, logger)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "queued %d of %d url(s); %d pending\n",
				added, len(args), session.Pending())
			return nil
		},
	}
}
