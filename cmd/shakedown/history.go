package main

import (
	"fmt"
	"time"

	"github.com/karminski/shakedown/internal/history"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		RunE:  runHistoryList,
	}
	cmd.Flags().IntP("limit", "n", 20, "maximum number of runs to list")
	cmd.AddCommand(newHistoryShowCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run with its steps",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	_, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("parse --limit: %w", err)
	}

	store, err := history.Open(root)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	for _, run := range runs {
		glyph := "✓"
		if run.ExitCode != 0 {
			glyph = "✗"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %d passed, %d failed, %d skipped  %s\n",
			glyph, run.UID[:8], run.Passed, run.Failed, run.Skipped,
			history.FormatTimeAgo(run.StartedAt))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	_, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := history.Open(root)
	if err != nil {
		return err
	}
	defer store.Close()

	run, steps, err := store.Get(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", run.UID)
	fmt.Fprintf(out, "Root %s\n", run.Root)
	fmt.Fprintf(out, "Started %s\n", run.StartedAt.Format(time.RFC3339))

	titleCase := cases.Title(language.English)
	for _, step := range steps {
		fmt.Fprintf(out, "  %d. %s [%s] %s (%dms)\n",
			step.Position+1, step.Name, titleCase.String(step.Kind), step.Status, step.DurationMS)
		if step.Status == "failed" && step.Detail != "" {
			fmt.Fprintf(out, "     %s\n", step.Detail)
		}
	}

	fmt.Fprintf(out, "SUMMARY: %d passed, %d failed, %d skipped (exit %d)\n",
		run.Passed, run.Failed, run.Skipped, run.ExitCode)
	return nil
}
