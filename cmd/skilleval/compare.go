package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/report"
	"digital.vasic.skilleval/pkg/runner"
)

// CompareConfig holds the flags of the compare command.
type CompareConfig struct {
	Suite       string
	Skill       string
	Concurrency int
	Output      string
	HTML        string
}

func newCompareCmd(a *app) *cobra.Command {
	cc := &CompareConfig{}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare results with and without skills loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.compare(cmd.Context(), cmd.OutOrStdout(), cc)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cc.Suite, "suite", "", "Suite to compare")
	f.StringVar(&cc.Skill, "skill", "", "Compare tests for this skill only")
	f.IntVarP(&cc.Concurrency, "concurrency", "c", 0, "Tests run at once (overrides config)")
	f.StringVarP(&cc.Output, "output", "o", "", "Write the comparison to this JSON file")
	f.StringVar(&cc.HTML, "html", "", "Write an HTML comparison to this file")
	_ = cmd.MarkFlagRequired("suite")
	return cmd
}

func (a *app) compare(ctx context.Context, out io.Writer, cc *CompareConfig) error {
	suite := bank.Suite(cc.Suite)
	b, err := a.loadBank(suite)
	if err != nil {
		return err
	}
	r := a.newRunner(b, a.newEvaluator(ctx, a.newClient()))

	bold := color.New(color.Bold)
	req := runner.Request{Suite: suite, Skill: cc.Skill, Concurrency: cc.Concurrency}

	bold.Fprintln(out, "\nRunning WITHOUT skills...")
	without, err := r.Run(ctx, req)
	if err != nil {
		return err
	}

	bold.Fprintln(out, "\nRunning WITH skills...")
	req.WithSkills = true
	with, err := r.Run(ctx, req)
	if err != nil {
		return err
	}

	c := report.Compare(without, with)
	if err := report.NewConsoleReporter().WriteComparison(out, c); err != nil {
		return err
	}
	if err := writeReports(out, cc.Output, cc.HTML, func(r report.Reporter, w io.Writer) error {
		return r.WriteComparison(w, c)
	}); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return nil
}
