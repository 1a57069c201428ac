package main

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"digital.vasic.skilleval/pkg/report"
	"digital.vasic.skilleval/pkg/tracker"
)

func newTrendCmd(a *app) *cobra.Command {
	var (
		last   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Summarise the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			t, err := a.newTracker(cmd.Context())
			if err != nil {
				return err
			}
			tr, err := t.TrendSummary(last)
			if errors.Is(err, tracker.ErrNoData) {
				fmt.Fprintln(out, "No results found")
				return nil
			}
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(tr)
			}
			return report.NewConsoleReporter().WriteTrend(out, tr)
		},
	}
	cmd.Flags().IntVarP(&last, "last", "n", 10, "Number of recent runs to summarise")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}
