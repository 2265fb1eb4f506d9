package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/karminski/shakedown/internal/config"
	"github.com/karminski/shakedown/internal/history"
	"github.com/karminski/shakedown/internal/output"
	"github.com/karminski/shakedown/internal/report"
	"github.com/karminski/shakedown/internal/runner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute the pipeline checks",
		RunE:  runExecute,
	}
}

func runExecute(cmd *cobra.Command, args []string) error {
	summary, err := executeOnce(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	if summary.ExitCode != 0 {
		return fmt.Errorf("one or more checks failed")
	}
	return nil
}

// executeOnce resolves config and pipeline, runs every check, renders the
// report, and records history. Check failures surface via the summary's
// exit code, not the returned error.
func executeOnce(ctx context.Context, cmd *cobra.Command) (report.Summary, error) {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return report.Summary{}, err
	}

	data, err := loadPipeline(root, cfg)
	if err != nil {
		return report.Summary{}, err
	}
	filtered, err := applyFilters(data, cfg)
	if err != nil {
		return report.Summary{}, err
	}

	runOpts := runner.Options{
		Root:      root,
		Stdout:    cmd.OutOrStdout(),
		Stderr:    cmd.ErrOrStderr(),
		Verbose:   cfg.Verbose,
		DryRun:    cfg.DryRun,
		TailLines: cfg.TailLines,
		Logger:    logger,
	}
	execRunner := runner.New(runOpts)

	started := time.Now()
	results, summary, err := execRunner.Run(ctx, filtered.pipeline)
	if err != nil {
		return report.Summary{}, err
	}
	finished := time.Now()

	if summary.TotalChecks == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching checks")
		return summary, nil
	}

	if err := renderRun(cmd, cfg, filtered, results, summary); err != nil {
		return report.Summary{}, err
	}

	if !cfg.DryRun && cfg.HistoryEnabled() {
		recordHistory(cmd, cfg, root, started, finished, results, summary)
	}

	return summary, nil
}

func renderRun(cmd *cobra.Command, cfg config.Config, data pipelineData, results []report.StepResult, summary report.Summary) error {
	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		renderer := output.NewPretty(cmd.OutOrStdout(), colorEnabled(cmd))
		if err := renderer.RenderResults(results, summary); err != nil {
			return err
		}
		if len(data.warnings) > 0 {
			stderr := output.NewPretty(cmd.ErrOrStderr(), false)
			if err := stderr.RenderWarnings(data.warnings); err != nil {
				return err
			}
		}
		return nil
	case config.FormatJSON:
		renderer := output.NewJSON(cmd.OutOrStdout())
		return renderer.Render(output.Report{
			Pipeline: data.pipeline,
			Steps:    results,
			Summary:  summary,
			Warnings: data.warnings,
		})
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
}

// recordHistory persists the run best-effort; storage trouble is worth a
// warning but never changes the run's outcome.
func recordHistory(cmd *cobra.Command, cfg config.Config, root string, started, finished time.Time, results []report.StepResult, summary report.Summary) {
	store, err := history.Open(root)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: open history: %v\n", err)
		return
	}
	defer store.Close()

	uid, err := store.Record(root, started, finished, results, summary)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: record history: %v\n", err)
		return
	}
	logger.Debug("run recorded", zap.String("uid", uid))

	if err := store.Prune(cfg.History.Limit); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: prune history: %v\n", err)
	}
}
