// Package runner executes pipeline checks sequentially and records one result
// per check.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/karminski/shakedown/internal/artifact"
	"github.com/karminski/shakedown/internal/pipeline"
	"github.com/karminski/shakedown/internal/report"
)

// Options configure how the runner executes checks.
type Options struct {
	Root      string
	Stdout    io.Writer
	Stderr    io.Writer
	Verbose   bool
	DryRun    bool
	TailLines int
	Env       []string
	Now       func() time.Time
	Logger    *zap.Logger
}

// Runner executes pipeline checks sequentially.
type Runner struct {
	opts Options
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Runner{opts: opts}
}

// Run executes the pipeline's checks in order, returning one result per check
// and a summary. A failing check never stops the run; cancellation does.
func (r *Runner) Run(ctx context.Context, p pipeline.Pipeline) ([]report.StepResult, report.Summary, error) {
	summary := report.Summary{TotalChecks: len(p.Checks)}
	results := make([]report.StepResult, 0, len(p.Checks))

	for _, check := range p.Checks {
		if err := ctx.Err(); err != nil {
			return results, summary, err
		}

		result := report.StepResult{
			Name:   check.Name,
			Kind:   check.Kind,
			Run:    append([]string{}, check.Run...),
			DryRun: r.opts.DryRun,
		}

		if r.opts.DryRun {
			result.Status = "skipped"
			result.Detail = dryRunDetail(check)
			summary.Skipped++
			results = append(results, result)
			continue
		}

		r.opts.Logger.Debug("check started",
			zap.String("name", check.Name),
			zap.String("kind", check.Kind))

		start := r.opts.Now()
		err := r.runCheck(ctx, check, &result)
		result.Duration = r.opts.Now().Sub(start)
		result.DurationMS = result.Duration.Milliseconds()

		if err != nil {
			result.Status = "failed"
			result.Stdout = tailLines(result.Stdout, r.opts.TailLines)
			result.Stderr = tailLines(result.Stderr, r.opts.TailLines)
			if result.Detail == "" {
				result.Detail = err.Error()
			}
			summary.Failed++
		} else {
			result.Status = "passed"
			summary.Passed++
		}

		summary.Duration += result.Duration
		if result.Status == "failed" {
			summary.ExitCode = 1
		}

		r.opts.Logger.Debug("check finished",
			zap.String("name", check.Name),
			zap.String("status", result.Status),
			zap.Duration("duration", result.Duration))

		results = append(results, result)
	}

	summary.DurationMS = summary.Duration.Milliseconds()
	return results, summary, nil
}

func (r *Runner) runCheck(ctx context.Context, check pipeline.Check, result *report.StepResult) error {
	switch check.Kind {
	case pipeline.KindFiles:
		return r.runFilesCheck(check, result)
	case pipeline.KindCommand:
		return r.runCommands(ctx, check, result)
	case pipeline.KindBuild:
		if err := r.runCommands(ctx, check, result); err != nil {
			return err
		}
		return r.verifyArtifact(check, result)
	default:
		return fmt.Errorf("unsupported check kind %q", check.Kind)
	}
}

func (r *Runner) runFilesCheck(check pipeline.Check, result *report.StepResult) error {
	missing := make([]string, 0)
	for _, path := range check.Files {
		if _, err := os.Stat(filepath.Join(r.opts.Root, path)); err != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required files: %s", strings.Join(missing, ", "))
	}
	result.Detail = fmt.Sprintf("%d files present", len(check.Files))
	return nil
}

// runCommands executes each command line in order; the first failure fails
// the check and later lines do not run.
func (r *Runner) runCommands(ctx context.Context, check pipeline.Check, result *report.StepResult) error {
	for _, script := range check.Run {
		stdout, stderr, code, err := r.execScript(ctx, script)
		appendOutput(&result.Stdout, stdout)
		appendOutput(&result.Stderr, stderr)
		result.ExitCode = code
		if err != nil {
			return fmt.Errorf("command %q failed with exit code %d", script, code)
		}
	}
	return nil
}

func (r *Runner) verifyArtifact(check pipeline.Check, result *report.StepResult) error {
	if check.Artifact == nil {
		return nil
	}
	info, err := artifact.Inspect(r.opts.Root, check.Artifact.Path, check.Artifact.Marker)
	if err != nil {
		return err
	}
	result.Detail = fmt.Sprintf("artifact %s (%d bytes)", info.Path, info.Size)
	return nil
}

func dryRunDetail(check pipeline.Check) string {
	switch check.Kind {
	case pipeline.KindFiles:
		return fmt.Sprintf("would verify %s", strings.Join(check.Files, ", "))
	case pipeline.KindBuild:
		if check.Artifact != nil {
			return fmt.Sprintf("would run %s and inspect %s", strings.Join(check.Run, "; "), check.Artifact.Path)
		}
		return fmt.Sprintf("would run %s", strings.Join(check.Run, "; "))
	default:
		return fmt.Sprintf("would run %s", strings.Join(check.Run, "; "))
	}
}

func appendOutput(dst *string, chunk string) {
	if chunk == "" {
		return
	}
	if *dst != "" && !strings.HasSuffix(*dst, "\n") {
		*dst += "\n"
	}
	*dst += chunk
}
