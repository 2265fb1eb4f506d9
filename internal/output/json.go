package output

import (
	"encoding/json"
	"io"

	"github.com/karminski/shakedown/internal/pipeline"
	"github.com/karminski/shakedown/internal/report"
)

// JSONRenderer emits structured execution data.
type JSONRenderer struct {
	out io.Writer
}

// NewJSON creates a JSON renderer writing to out.
func NewJSON(out io.Writer) *JSONRenderer {
	return &JSONRenderer{out: out}
}

// Report captures the JSON output schema.
type Report struct {
	Pipeline pipeline.Pipeline   `json:"pipeline"`
	Steps    []report.StepResult `json:"steps,omitempty"`
	Summary  report.Summary      `json:"summary"`
	Warnings []string            `json:"warnings,omitempty"`
}

// Render encodes the report as JSON.
func (j *JSONRenderer) Render(rep Report) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
