package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestDoctorCommandReportsEnvironment(t *testing.T) {
	project := fixtureRoot(t)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"doctor", "--root", project})

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("command execute: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Project root") {
		t.Fatalf("expected project root line, got %q", output)
	}
	if !strings.Contains(output, "none (built-in defaults)") {
		t.Fatalf("expected config line for fixture without config, got %q", output)
	}
	if !strings.Contains(output, "6 resolved") {
		t.Fatalf("expected resolved check count, got %q", output)
	}
	// Tool versions vary by machine, so only the probe labels are stable.
	for _, label := range []string{"Node", "Npm", "Git"} {
		if !strings.Contains(output, label) {
			t.Fatalf("expected %s probe line, got %q", label, output)
		}
	}
}

func TestDoctorCommandWithConfig(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir, `required_files:
  - package.json
checks:
  - name: Hello
    run: ["echo hi"]
`)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"doctor", "--root", dir})

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("command execute: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, ".shakedown.yml") {
		t.Fatalf("expected config path line, got %q", output)
	}
	if !strings.Contains(output, "2 resolved") {
		t.Fatalf("expected resolved check count, got %q", output)
	}
}
