package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/karminski/shakedown/internal/pipeline"
	"github.com/karminski/shakedown/internal/report"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))  // green
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	skipStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	boldStyle = lipgloss.NewStyle().Bold(true)
)

// PrettyRenderer renders execution results in a human friendly format.
type PrettyRenderer struct {
	out   io.Writer
	color bool
}

// NewPretty creates a PrettyRenderer writing to the provided writer. Styles
// are applied only when color is true.
func NewPretty(out io.Writer, color bool) *PrettyRenderer {
	return &PrettyRenderer{out: out, color: color}
}

// RenderList prints the resolved pipeline without executing it.
func (p *PrettyRenderer) RenderList(pl pipeline.Pipeline) error {
	if _, err := fmt.Fprintf(p.out, "Pipeline for %s\n", pl.Root); err != nil {
		return err
	}
	for _, check := range pl.Checks {
		if _, err := fmt.Fprintf(p.out, "  %s [%s]\n", check.Name, check.Kind); err != nil {
			return err
		}
		for _, file := range check.Files {
			if _, err := fmt.Fprintf(p.out, "    requires %s\n", file); err != nil {
				return err
			}
		}
		for _, run := range check.Run {
			if _, err := fmt.Fprintf(p.out, "    $ %s\n", run); err != nil {
				return err
			}
		}
		if check.Artifact != nil {
			line := fmt.Sprintf("    artifact %s", check.Artifact.Path)
			if check.Artifact.Marker != "" {
				line += fmt.Sprintf(" containing %q", check.Artifact.Marker)
			}
			if _, err := fmt.Fprintln(p.out, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderResults shows execution outcomes for each check with a summary line.
func (p *PrettyRenderer) RenderResults(results []report.StepResult, summary report.Summary) error {
	for _, res := range results {
		glyph := p.paint(statusGlyph(res.Status), res.Status)
		duration := p.dim(fmt.Sprintf("(%s)", formatDuration(res.Duration)))
		if _, err := fmt.Fprintf(p.out, "%s %s %s\n", glyph, res.Name, duration); err != nil {
			return err
		}

		if res.Status == "failed" {
			if res.Detail != "" {
				if _, err := fmt.Fprintf(p.out, "  %s\n", p.paint(res.Detail, "failed")); err != nil {
					return err
				}
			}
			if cleaned := cleanErrorOutput(res.Stderr); cleaned != "" {
				if _, err := fmt.Fprintf(p.out, "%s\n", indent(cleaned, "  ")); err != nil {
					return err
				}
			}
		}
		if res.Status == "skipped" && res.Detail != "" {
			if _, err := fmt.Fprintf(p.out, "  note: %s\n", res.Detail); err != nil {
				return err
			}
		}
	}

	line := fmt.Sprintf("SUMMARY: %d passed, %d failed, %d skipped (%s)",
		summary.Passed, summary.Failed, summary.Skipped, formatDuration(summary.Duration))
	if p.color {
		line = boldStyle.Render(line)
	}
	_, err := fmt.Fprintln(p.out, line)
	return err
}

// RenderWarnings prints environment warnings ahead of the results.
func (p *PrettyRenderer) RenderWarnings(warnings []string) error {
	for _, warning := range warnings {
		line := fmt.Sprintf("WARNING: %s", warning)
		if p.color {
			line = skipStyle.Render(line)
		}
		if _, err := fmt.Fprintln(p.out, line); err != nil {
			return err
		}
	}
	return nil
}

func (p *PrettyRenderer) paint(s, status string) string {
	if !p.color {
		return s
	}
	switch status {
	case "passed":
		return passStyle.Render(s)
	case "failed":
		return failStyle.Render(s)
	case "skipped":
		return skipStyle.Render(s)
	default:
		return s
	}
}

func (p *PrettyRenderer) dim(s string) string {
	if !p.color {
		return s
	}
	return dimStyle.Render(s)
}

// cleanErrorOutput drops npm log noise, keeping the lines a developer acts on.
func cleanErrorOutput(stderr string) string {
	lines := strings.Split(stderr, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if strings.Contains(lower, "npm warn") ||
			strings.Contains(lower, "npm notice") ||
			strings.Contains(lower, "npm fund") ||
			strings.Contains(lower, "a complete log of this run") {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	return strings.Join(cleaned, "\n")
}

func statusGlyph(status string) string {
	switch status {
	case "passed":
		return "✓"
	case "failed":
		return "✗"
	case "skipped":
		return "-"
	default:
		return "?"
	}
}

func indent(s, pad string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
