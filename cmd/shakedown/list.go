package main

import (
	"fmt"
	"strings"

	"github.com/karminski/shakedown/internal/config"
	"github.com/karminski/shakedown/internal/output"
	"github.com/karminski/shakedown/internal/report"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the resolved pipeline without executing it",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := loadPipeline(root, cfg)
	if err != nil {
		return err
	}
	filtered, err := applyFilters(data, cfg)
	if err != nil {
		return err
	}

	if len(filtered.pipeline.Checks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching checks")
		return nil
	}

	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		renderer := output.NewPretty(cmd.OutOrStdout(), colorEnabled(cmd))
		if err := renderer.RenderList(filtered.pipeline); err != nil {
			return err
		}
		if len(filtered.warnings) > 0 {
			stderr := output.NewPretty(cmd.ErrOrStderr(), false)
			if err := stderr.RenderWarnings(filtered.warnings); err != nil {
				return err
			}
		}
		return nil
	case config.FormatJSON:
		renderer := output.NewJSON(cmd.OutOrStdout())
		return renderer.Render(output.Report{
			Pipeline: filtered.pipeline,
			Summary:  report.Summary{TotalChecks: len(filtered.pipeline.Checks)},
			Warnings: filtered.warnings,
		})
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
}
