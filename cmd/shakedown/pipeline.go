package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/karminski/shakedown/internal/config"
	"github.com/karminski/shakedown/internal/discovery"
	"github.com/karminski/shakedown/internal/filter"
	"github.com/karminski/shakedown/internal/pipeline"
	"github.com/karminski/shakedown/internal/version"
	"github.com/spf13/cobra"
)

// pipelineData bundles the resolved pipeline with non-fatal warnings.
type pipelineData struct {
	pipeline pipeline.Pipeline
	warnings []string
}

func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return config.Config{}, "", fmt.Errorf("parse --config: %w", err)
	}
	rootFlag, err := flags.GetString("root")
	if err != nil {
		return config.Config{}, "", fmt.Errorf("parse --root: %w", err)
	}

	root, err := resolveRoot(rootFlag, configPath)
	if err != nil {
		return config.Config{}, "", err
	}

	var cfg config.Config
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return config.Config{}, "", err
	}

	// A root set in the config file wins over discovery but not over
	// an explicit --root.
	if cfg.Root != "" && rootFlag == "" {
		base := root
		if configPath != "" {
			base = filepath.Dir(configPath)
		}
		if filepath.IsAbs(cfg.Root) {
			root = filepath.Clean(cfg.Root)
		} else {
			root = filepath.Join(base, cfg.Root)
		}
	}

	flagValues, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flagValues)

	return cfg, root, nil
}

func resolveRoot(rootFlag, configPath string) (string, error) {
	if rootFlag != "" {
		abs, err := filepath.Abs(rootFlag)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project root %q: %w", rootFlag, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project root %q is not a directory", rootFlag)
		}
		return abs, nil
	}

	if configPath != "" {
		return filepath.Abs(filepath.Dir(configPath))
	}

	root, err := discovery.FindRoot()
	if errors.Is(err, discovery.ErrNoProject) {
		return os.Getwd()
	}
	return root, err
}

func loadPipeline(root string, cfg config.Config) (pipelineData, error) {
	pl, err := pipeline.FromConfig(root, cfg)
	if err != nil {
		return pipelineData{}, err
	}
	return pipelineData{pipeline: pl, warnings: detectVersionWarnings(root, cfg)}, nil
}

func applyFilters(data pipelineData, cfg config.Config) (pipelineData, error) {
	onlyPatterns, err := filter.Compile(cfg.Only)
	if err != nil {
		return pipelineData{}, err
	}
	skipPatterns, err := filter.Compile(cfg.Skip)
	if err != nil {
		return pipelineData{}, err
	}

	filtered := data.pipeline
	filtered.Checks = filter.Checks(data.pipeline.Checks, onlyPatterns, skipPatterns)
	return pipelineData{pipeline: filtered, warnings: data.warnings}, nil
}

func detectVersionWarnings(root string, cfg config.Config) []string {
	if !cfg.WarnVersionMismatch() {
		return nil
	}

	required, source := nodeVersionRequirement(root)
	if required == "" {
		return nil
	}

	info, detectErr := version.DetectNode()
	if warn := buildVersionWarning("node", source, required, info.Version, detectErr); warn != "" {
		return []string{warn}
	}
	return nil
}

// nodeVersionRequirement reads the pinned node version from .node-version
// or .nvmrc, whichever exists first.
func nodeVersionRequirement(root string) (required, source string) {
	for _, file := range []string{".node-version", ".nvmrc"} {
		contents, err := os.ReadFile(filepath.Join(root, file))
		if err != nil {
			continue
		}
		if v := strings.TrimSpace(string(contents)); v != "" {
			return v, file
		}
	}
	return "", ""
}

func buildVersionWarning(name, source, required, actual string, detectErr error) string {
	if detectErr != nil {
		if version.Missing(detectErr) {
			return fmt.Sprintf("%s executable not found; required %s", name, required)
		}
		return fmt.Sprintf("unable to detect %s version: %v", name, detectErr)
	}
	if !version.CompareMajorMinor(required, actual) {
		return fmt.Sprintf("%s version mismatch: required %s (from %s) but found %s", name, required, source, actual)
	}
	return ""
}

func colorEnabled(cmd *cobra.Command) bool {
	if noColor, err := cmd.Flags().GetBool("no-color"); err == nil && noColor {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := cmd.OutOrStdout().(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
