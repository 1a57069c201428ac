package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. The caller closes a once the
// command returns.
func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "skilleval",
		Short:         "Skill evaluation harness for Speakeasy agent skills",
		Long:          `Run test suites against Speakeasy agent skills, grade the answers and workspaces the agent leaves behind, and track pass rates across runs.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("root", "evals", "Directory holding tests/, fixtures/ and results/")
	flags.String("env-file", ".env", "Optional .env file with API keys")
	flags.String("model", "", "Model to evaluate (overrides config)")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")
	flags.Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")

	cmd.AddCommand(
		newRunCmd(a),
		newCompareCmd(a),
		newListCmd(a),
		newTrendCmd(a),
		newAssessCmd(a),
		newCacheCmd(a),
	)
	return cmd
}
