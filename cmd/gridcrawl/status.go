package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/gridcrawl/internal/api"
	"github.com/JakeFAU/gridcrawl/internal/index"
	"github.com/JakeFAU/gridcrawl/internal/recordlog/file"
)

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the record log",
		Long: `Replays the record log read-only and reports how many URLs are in each
state. Safe to run while a crawl is appending.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}
			path := env.cfg.Log.Path
			records, err := file.ReadAll(cmd.Context(), path)
			if err != nil {
				return err
			}
			idx := index.Replay(records)
			counts := idx.Counts()
			st := api.Status{
				LogPath: path,
				Records: len(records),
				URLs:    idx.Len(),
				Counts:  counts,
				Pending: counts.Queued,
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			_, _ = fmt.Fprintf(out, "log:     %s\n", st.LogPath)
			_, _ = fmt.Fprintf(out, "records: %d\n", st.Records)
			_, _ = fmt.Fprintf(out, "urls:    %d\n", st.URLs)
			_, _ = fmt.Fprintf(out, "queued=%d page=%d absent=%d error=%d\n",
				counts.Queued, counts.Page, counts.Absent, counts.Error)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}
