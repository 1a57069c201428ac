package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"digital.vasic.skilleval/pkg/logging"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the fixture repository cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached fixture repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader := a.newFixtures()
			if err := loader.ClearCache(); err != nil {
				return err
			}
			a.logger.Info("cache_cleared", logging.String("dir", loader.CacheDir()))
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared repository cache at %s\n", loader.CacheDir())
			return nil
		},
	})
	return cmd
}
