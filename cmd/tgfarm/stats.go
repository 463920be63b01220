package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/EgorLis/tgfarm/internal/stats"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var last int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print saved counters and recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.Stats.DBPath == "" {
				return errors.New("stats.db_path is not set")
			}
			store, err := stats.Open(cfg.Stats.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			totals, err := store.Totals(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range stats.Names(totals) {
				fmt.Fprintf(out, "%-10s %d\n", name, totals[name])
			}

			runs, err := store.Runs(ctx, last)
			if err != nil {
				return err
			}
			for _, r := range runs {
				finished := "running"
				if !r.FinishedAt.IsZero() {
					finished = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
				}
				fmt.Fprintf(out, "%s %-4s %s %s %q %s\n",
					r.ID, r.Mode, r.StartedAt.Local().Format(time.DateTime), finished, r.Reason, r.Error)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&last, "last", 10, "How many recent runs to show.")
	return cmd
}
