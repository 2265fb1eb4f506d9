package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/karminski/shakedown/internal/config"
	"github.com/karminski/shakedown/internal/pipeline"
	"github.com/karminski/shakedown/internal/version"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the local environment for pipeline prerequisites",
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-13s %s\n", "Project root", root)

	configFile := filepath.Join(root, config.FileName)
	if _, statErr := os.Stat(configFile); statErr == nil {
		fmt.Fprintf(out, "%-13s %s\n", "Config", configFile)
	} else {
		fmt.Fprintf(out, "%-13s none (built-in defaults)\n", "Config")
	}

	if pl, plErr := pipeline.FromConfig(root, cfg); plErr == nil {
		fmt.Fprintf(out, "%-13s %d resolved, %d commands\n", "Checks", len(pl.Checks), pl.CommandCount())
	} else {
		fmt.Fprintf(out, "%-13s %v\n", "Checks", plErr)
	}

	titleCase := cases.Title(language.English)
	probes := []struct {
		name   string
		detect func() (version.Info, error)
	}{
		{"node", version.DetectNode},
		{"npm", version.DetectNpm},
		{"git", version.DetectGit},
	}
	for _, probe := range probes {
		info, detectErr := probe.detect()
		label := titleCase.String(probe.name)
		switch {
		case detectErr == nil:
			fmt.Fprintf(out, "%-13s %s\n", label, info.Version)
		case version.Missing(detectErr):
			fmt.Fprintf(out, "%-13s not found\n", label)
		default:
			fmt.Fprintf(out, "%-13s detection failed: %v\n", label, detectErr)
		}
	}

	required, source := nodeVersionRequirement(root)
	if required != "" {
		info, detectErr := version.DetectNode()
		if warn := buildVersionWarning("node", source, required, info.Version, detectErr); warn != "" {
			fmt.Fprintf(out, "WARNING: %s\n", warn)
		} else {
			fmt.Fprintf(out, "%-13s %s satisfied (installed %s)\n", source, required, info.Version)
		}
	}

	return nil
}
