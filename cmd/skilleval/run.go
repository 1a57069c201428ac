package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"digital.vasic.skilleval/pkg/bank"
	"digital.vasic.skilleval/pkg/logging"
	"digital.vasic.skilleval/pkg/metrics"
	"digital.vasic.skilleval/pkg/monitor"
	"digital.vasic.skilleval/pkg/report"
	"digital.vasic.skilleval/pkg/runner"
)

// RunConfig holds the flags of the run command.
type RunConfig struct {
	Suite       string
	Skill       string
	Name        string
	Concurrency int
	NoSkills    bool
	Observe     bool
	Monitor     bool
	Output      string
	HTML        string
	NoTrack     bool
}

// NewRunConfig returns the run defaults.
func NewRunConfig() *RunConfig {
	return &RunConfig{Suite: string(bank.SuiteAll)}
}

func newRunCmd(a *app) *cobra.Command {
	rc := NewRunConfig()
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run skill evaluations",
		Long: `Run the selected suite and print a summary. Results are saved under the
results directory and appended to HISTORY.md unless --no-track is given.

Examples:
  skilleval run --suite overlay
  skilleval run --suite generation --skill speakeasy-generate --observe
  skilleval run --suite correctness --no-skills --output results.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSuite(cmd.Context(), cmd.OutOrStdout(), rc)
		},
	}

	f := cmd.Flags()
	f.StringVar(&rc.Suite, "suite", rc.Suite, "Suite to run (all, activation, correctness, completeness, hallucination, generation, overlay, diagnosis, workflow)")
	f.StringVar(&rc.Skill, "skill", "", "Run tests for this skill only")
	f.StringVar(&rc.Name, "name", "", "Run the test with this name only")
	f.IntVarP(&rc.Concurrency, "concurrency", "c", 0, "Tests run at once (overrides config)")
	f.BoolVar(&rc.NoSkills, "no-skills", false, "Run without skill context")
	f.BoolVar(&rc.Observe, "observe", false, "Stream agent events to the console (runs tests one at a time)")
	f.BoolVar(&rc.Monitor, "monitor", false, "Serve a live dashboard and WebSocket event stream")
	f.StringVarP(&rc.Output, "output", "o", "", "Write results to this JSON file")
	f.StringVar(&rc.HTML, "html", "", "Write an HTML report to this file")
	f.BoolVar(&rc.NoTrack, "no-track", false, "Do not save results or update HISTORY.md")
	return cmd
}

func (a *app) runSuite(ctx context.Context, out io.Writer, rc *RunConfig) error {
	suite := bank.Suite(rc.Suite)
	b, err := a.loadBank(suite)
	if err != nil {
		return err
	}

	m := metrics.NewMemoryMetrics()
	opts := []runner.RunnerOption{runner.WithMetrics(m)}

	req := runner.Request{
		Suite:       suite,
		Skill:       rc.Skill,
		Name:        rc.Name,
		Concurrency: rc.Concurrency,
		WithSkills:  !rc.NoSkills,
	}
	if rc.Observe {
		req.Observer = report.NewConsoleObserver(out)
	}

	if rc.Monitor {
		collector := monitor.NewEventCollector()
		dashboard := monitor.NewDashboardData(uuid.NewString())
		srv := monitor.NewServer(a.cfg.MonitorAddr, collector, dashboard, a.logger)
		opts = append(opts, collector.RunnerOptions()...)

		go func() {
			if err := srv.Start(ctx); err != nil {
				a.logger.Error("monitor_failed", logging.Err(err))
			}
		}()
		fmt.Fprintf(out, "Monitor: http://%s/dashboard (WebSocket /ws)\n", a.cfg.MonitorAddr)
		defer func() {
			dashboard.SetStatus("completed")
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
	}

	r := a.newRunner(b, a.newEvaluator(ctx, a.newClient()), opts...)
	result, err := r.Run(ctx, req)
	if err != nil {
		return err
	}

	a.logger.Info("run_completed",
		logging.String("suite", string(result.Suite)),
		logging.Int("tests", result.Total),
		logging.Int("passed", result.Passed),
		logging.Float("cost_usd", m.TotalCost()),
	)

	if err := report.NewConsoleReporter().WriteReport(out, result); err != nil {
		return err
	}
	if err := writeReports(out, rc.Output, rc.HTML, func(r report.Reporter, w io.Writer) error {
		return r.WriteReport(w, result)
	}); err != nil {
		return err
	}

	if rc.NoTrack {
		return nil
	}
	t, err := a.newTracker(ctx)
	if err != nil {
		return err
	}
	rec, err := t.Save(ctx, result)
	if err != nil {
		return err
	}
	if err := t.UpdateHistory(rec); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResults saved to %s (history: %s)\n", rec.File, t.HistoryPath())
	return nil
}

// writeReports renders to the JSON and HTML paths that are set.
func writeReports(out io.Writer, jsonPath, htmlPath string, render func(report.Reporter, io.Writer) error) error {
	targets := []struct {
		path     string
		reporter report.Reporter
	}{
		{jsonPath, report.NewJSONReporter(true)},
		{htmlPath, report.NewHTMLReporter()},
	}
	for _, target := range targets {
		if target.path == "" {
			continue
		}
		err := report.WriteFile(target.path, func(w io.Writer) error {
			return render(target.reporter, w)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nResults written to %s\n", target.path)
	}
	return nil
}
