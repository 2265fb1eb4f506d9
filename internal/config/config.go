package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up at the project root.
const FileName = ".shakedown.yml"

const (
	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"
)

// Config captures the pipeline definition and CLI options sourced from
// .shakedown.yml or flags.
type Config struct {
	Root      string `yaml:"root"`
	Format    string `yaml:"format"`
	Verbose   bool   `yaml:"verbose"`
	DryRun    bool   `yaml:"dry_run"`
	TailLines int    `yaml:"tail_lines"`

	RequiredFiles []string      `yaml:"required_files"`
	Checks        []CheckConfig `yaml:"checks"`

	Only []string `yaml:"only"`
	Skip []string `yaml:"skip"`

	Warn    WarnConfig    `yaml:"warn"`
	History HistoryConfig `yaml:"history"`
	Watch   WatchConfig   `yaml:"watch"`
}

// CheckConfig describes one pipeline check in the configuration file.
type CheckConfig struct {
	Name     string          `yaml:"name"`
	Kind     string          `yaml:"kind"`
	Run      []string        `yaml:"run"`
	Files    []string        `yaml:"files"`
	Artifact *ArtifactConfig `yaml:"artifact"`
}

// ArtifactConfig names the build output produced by a build check.
type ArtifactConfig struct {
	Path   string `yaml:"path"`
	Marker string `yaml:"marker"`
}

// WarnConfig controls additional warning behaviour.
type WarnConfig struct {
	VersionMismatch *bool `yaml:"version_mismatch"`
}

// HistoryConfig controls the run history store.
type HistoryConfig struct {
	Enabled *bool `yaml:"enabled"`
	Limit   int   `yaml:"limit"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Paths      []string `yaml:"paths"`
	Ignore     []string `yaml:"ignore"`
	DebounceMS int      `yaml:"debounce_ms"`
}

// Default returns the built-in pipeline used when no config file or flags
// specify values. It reproduces the CI script this tool grew out of.
func Default() Config {
	return Config{
		Format:    FormatPretty,
		TailLines: 20,
		RequiredFiles: []string{
			"package.json",
			"src/main.js",
			"build/build.js",
			".github/workflows/build.yml",
		},
		Checks: []CheckConfig{
			{Name: "Install", Kind: "command", Run: []string{"npm install"}},
			{Name: "Lint", Kind: "command", Run: []string{"npm run lint"}},
			{Name: "Format", Kind: "command", Run: []string{"npm run format:check"}},
			{Name: "Test", Kind: "command", Run: []string{"npm test"}},
			{
				Name: "Build",
				Kind: "build",
				Run:  []string{"npm run clean", "npm run build"},
				Artifact: &ArtifactConfig{
					Path:   "dist/scrollbar-control.user.js",
					Marker: "// ==UserScript==",
				},
			},
		},
		History: HistoryConfig{Limit: 50},
		Watch:   WatchConfig{DebounceMS: 400},
	}
}

// WarnVersionMismatch reports whether version mismatch warnings are enabled.
// They default to on when the config file does not say otherwise.
func (c Config) WarnVersionMismatch() bool {
	return c.Warn.VersionMismatch == nil || *c.Warn.VersionMismatch
}

// HistoryEnabled reports whether finished runs should be recorded.
func (c Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}

// Load reads the config file from the project root when present. Missing
// files are ignored; present files are schema-validated before decoding.
func Load(root string) (Config, error) {
	return LoadFile(filepath.Join(root, FileName))
}

// LoadFile reads a specific config file path. A missing file yields the
// defaults without error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := Validate(data); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg)
	return cfg, nil
}

func merge(base, override Config) Config {
	out := base

	if override.Root != "" {
		out.Root = override.Root
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.DryRun {
		out.DryRun = true
	}
	if override.TailLines > 0 {
		out.TailLines = override.TailLines
	}
	if len(override.RequiredFiles) > 0 {
		out.RequiredFiles = append([]string{}, override.RequiredFiles...)
	}
	if len(override.Checks) > 0 {
		out.Checks = append([]CheckConfig{}, override.Checks...)
	}
	if len(override.Only) > 0 {
		out.Only = append([]string{}, override.Only...)
	}
	if len(override.Skip) > 0 {
		out.Skip = append([]string{}, override.Skip...)
	}
	if override.Warn.VersionMismatch != nil {
		out.Warn.VersionMismatch = override.Warn.VersionMismatch
	}
	if override.History.Enabled != nil {
		out.History.Enabled = override.History.Enabled
	}
	if override.History.Limit > 0 {
		out.History.Limit = override.History.Limit
	}
	if len(override.Watch.Paths) > 0 {
		out.Watch.Paths = append([]string{}, override.Watch.Paths...)
	}
	if len(override.Watch.Ignore) > 0 {
		out.Watch.Ignore = append([]string{}, override.Watch.Ignore...)
	}
	if override.Watch.DebounceMS > 0 {
		out.Watch.DebounceMS = override.Watch.DebounceMS
	}

	return out
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if len(flags.Only.Values) > 0 {
		cfg.Only = append([]string{}, flags.Only.Values...)
	}
	if len(flags.Skip.Values) > 0 {
		cfg.Skip = append([]string{}, flags.Skip.Values...)
	}
	if flags.DryRun.Set {
		cfg.DryRun = flags.DryRun.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was
// set explicitly.
type FlagValues struct {
	Format  StringFlag
	Only    SliceFlag
	Skip    SliceFlag
	DryRun  BoolFlag
	Verbose BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
