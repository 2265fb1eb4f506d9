package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPipeline(t *testing.T) {
	cfg := Default()

	if cfg.Format != FormatPretty {
		t.Fatalf("default format: got %q", cfg.Format)
	}
	if cfg.TailLines != 20 {
		t.Fatalf("default tail lines: got %d", cfg.TailLines)
	}

	wantFiles := []string{"package.json", "src/main.js", "build/build.js", ".github/workflows/build.yml"}
	if len(cfg.RequiredFiles) != len(wantFiles) {
		t.Fatalf("expected %d required files, got %d", len(wantFiles), len(cfg.RequiredFiles))
	}
	for i := range wantFiles {
		if cfg.RequiredFiles[i] != wantFiles[i] {
			t.Fatalf("required file %d: want %q, got %q", i, wantFiles[i], cfg.RequiredFiles[i])
		}
	}

	wantChecks := []string{"Install", "Lint", "Format", "Test", "Build"}
	if len(cfg.Checks) != len(wantChecks) {
		t.Fatalf("expected %d checks, got %d", len(wantChecks), len(cfg.Checks))
	}
	for i := range wantChecks {
		if cfg.Checks[i].Name != wantChecks[i] {
			t.Fatalf("check %d: want %q, got %q", i, wantChecks[i], cfg.Checks[i].Name)
		}
	}

	build := cfg.Checks[len(cfg.Checks)-1]
	if build.Kind != "build" {
		t.Fatalf("build check kind: got %q", build.Kind)
	}
	if build.Artifact == nil || build.Artifact.Path != "dist/scrollbar-control.user.js" {
		t.Fatalf("build artifact: got %+v", build.Artifact)
	}
	if build.Artifact.Marker != "// ==UserScript==" {
		t.Fatalf("build marker: got %q", build.Artifact.Marker)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.Checks) != 5 {
		t.Fatalf("expected default checks, got %d", len(cfg.Checks))
	}
	if !cfg.HistoryEnabled() {
		t.Fatalf("history should default to enabled")
	}
	if !cfg.WarnVersionMismatch() {
		t.Fatalf("version warnings should default to on")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
format: json
tail_lines: 5
required_files:
  - go.mod
checks:
  - name: Vet
    run: ["go vet ./..."]
history:
  enabled: false
  limit: 10
watch:
  debounce_ms: 150
`)

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Format != FormatJSON {
		t.Fatalf("format: got %q", cfg.Format)
	}
	if cfg.TailLines != 5 {
		t.Fatalf("tail lines: got %d", cfg.TailLines)
	}
	if len(cfg.RequiredFiles) != 1 || cfg.RequiredFiles[0] != "go.mod" {
		t.Fatalf("required files: got %v", cfg.RequiredFiles)
	}
	if len(cfg.Checks) != 1 || cfg.Checks[0].Name != "Vet" {
		t.Fatalf("checks should be replaced wholesale, got %+v", cfg.Checks)
	}
	if cfg.HistoryEnabled() {
		t.Fatalf("history should be disabled")
	}
	if cfg.History.Limit != 10 {
		t.Fatalf("history limit: got %d", cfg.History.Limit)
	}
	if cfg.Watch.DebounceMS != 150 {
		t.Fatalf("debounce: got %d", cfg.Watch.DebounceMS)
	}
}

func TestLoadPartialOverrideKeepsDefaults(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "verbose: true\n")

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !cfg.Verbose {
		t.Fatalf("verbose should be set")
	}
	if len(cfg.Checks) != 5 {
		t.Fatalf("default checks should survive, got %d", len(cfg.Checks))
	}
	if cfg.Watch.DebounceMS != 400 {
		t.Fatalf("default debounce should survive, got %d", cfg.Watch.DebounceMS)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "steps:\n  - npm test\n")

	_, err := Load(root)
	if err == nil {
		t.Fatalf("expected schema error for unknown key")
	}
	if !strings.Contains(err.Error(), FileName) {
		t.Fatalf("error should name the config file: %v", err)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "checks: [\n")

	if _, err := Load(root); err == nil {
		t.Fatalf("expected parse error for malformed YAML")
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := Default()

	ApplyFlags(&cfg, FlagValues{
		Format:  StringFlag{Value: FormatJSON, Set: true},
		Only:    SliceFlag{Values: []string{"lint"}},
		DryRun:  BoolFlag{Value: true, Set: true},
		Verbose: BoolFlag{Value: true, Set: true},
	})

	if cfg.Format != FormatJSON {
		t.Fatalf("format flag not applied: %q", cfg.Format)
	}
	if len(cfg.Only) != 1 || cfg.Only[0] != "lint" {
		t.Fatalf("only flag not applied: %v", cfg.Only)
	}
	if !cfg.DryRun || !cfg.Verbose {
		t.Fatalf("bool flags not applied: dry-run=%v verbose=%v", cfg.DryRun, cfg.Verbose)
	}
}

func TestApplyFlagsUnsetLeavesConfig(t *testing.T) {
	cfg := Default()
	cfg.Format = FormatJSON
	cfg.Verbose = true

	ApplyFlags(&cfg, FlagValues{})

	if cfg.Format != FormatJSON {
		t.Fatalf("unset format flag should not reset config: %q", cfg.Format)
	}
	if !cfg.Verbose {
		t.Fatalf("unset verbose flag should not reset config")
	}
}

func writeConfig(t *testing.T, root, body string) {
	t.Helper()
	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
