package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/karminski/shakedown/internal/pipeline"
	"github.com/karminski/shakedown/internal/report"
)

func TestJSONRenderer(t *testing.T) {
	rep := Report{
		Pipeline: pipeline.Pipeline{
			Root: "/tmp/project",
			Checks: []pipeline.Check{
				{Name: "Lint", Kind: pipeline.KindCommand, Run: []string{"npm run lint"}},
			},
		},
		Steps: []report.StepResult{
			{Name: "Lint", Kind: pipeline.KindCommand, Status: "passed", DurationMS: 120},
		},
		Summary:  report.Summary{TotalChecks: 1, Passed: 1, DurationMS: 120},
		Warnings: []string{"node version mismatch"},
	}

	buf := &bytes.Buffer{}
	renderer := NewJSON(buf)
	if err := renderer.Render(rep); err != nil {
		t.Fatalf("render json: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if decoded.Pipeline.Root != rep.Pipeline.Root {
		t.Fatalf("root mismatch: %s vs %s", decoded.Pipeline.Root, rep.Pipeline.Root)
	}
	if len(decoded.Steps) != 1 || decoded.Steps[0].Status != "passed" {
		t.Fatalf("steps mismatch: %+v", decoded.Steps)
	}
	if decoded.Summary.TotalChecks != 1 || decoded.Summary.Passed != 1 {
		t.Fatalf("summary mismatch: %+v", decoded.Summary)
	}
	if len(decoded.Warnings) != 1 {
		t.Fatalf("expected warnings serialized")
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatalf("expected indented output, got %q", buf.String())
	}
}

func TestJSONRendererDurationFieldsOnly(t *testing.T) {
	rep := Report{
		Summary: report.Summary{TotalChecks: 0, DurationMS: 42},
	}

	buf := &bytes.Buffer{}
	if err := NewJSON(buf).Render(rep); err != nil {
		t.Fatalf("render json: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"duration_ms": 42`) {
		t.Fatalf("expected duration_ms field, got %q", out)
	}
	if strings.Contains(out, `"Duration"`) {
		t.Fatalf("raw duration must not serialize, got %q", out)
	}
}
