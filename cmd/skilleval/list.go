package main

import (
	"github.com/spf13/cobra"

	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/report"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all available test cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.loadBank(bank.SuiteAll)
			if err != nil {
				return err
			}
			return report.NewConsoleReporter().WriteList(cmd.OutOrStdout(), b)
		},
	}
}
