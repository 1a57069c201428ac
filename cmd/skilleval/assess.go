package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"digital.vasic.skilleval/pkg/bank"
)

func newAssessCmd(a *app) *cobra.Command {
	spec := bank.Assessment{}
	cmd := &cobra.Command{
		Use:   "assess <kind> <dir>",
		Short: "Run one assessment against an existing directory",
		Long: `Run one assessment against a directory, outside of any agent run.

Kinds: ` + strings.Join(bank.AssessmentKinds, ", ") + `

Examples:
  skilleval assess generation ./sdk --language go
  skilleval assess overlay . --path overlays/overlay.yaml
  skilleval assess command_success . --command go --args build,./...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.Kind = args[0]
			res, err := a.newEvaluator(cmd.Context(), nil).Assess(cmd.Context(), args[1], spec, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			pass := color.New(color.FgGreen)
			fail := color.New(color.FgRed)
			for _, c := range res.Checks {
				mark := pass.Sprint("✓")
				if !c.Passed {
					mark = fail.Sprint("✗")
				}
				fmt.Fprintf(out, "%s %s: %s\n", mark, c.Name, c.Details)
			}
			if res.Summary != "" {
				fmt.Fprintln(out, res.Summary)
			}
			if !res.Passed {
				return errors.Errorf("%s assessment failed", spec.Kind)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&spec.Path, "path", "", "Document or directory the assessment reads")
	f.StringVar(&spec.Language, "language", "", "SDK language for generation and compilation checks")
	f.StringVar(&spec.Mode, "mode", "", "Compilation mode: quick or full")
	f.StringVar(&spec.Command, "command", "", "Executable for command_success")
	f.StringSliceVar(&spec.Args, "args", nil, "Arguments for command_success")
	f.StringSliceVar(&spec.Methods, "methods", nil, "Expected method names for naming")
	return cmd
}
