package report

import "time"

// StepResult captures the outcome of a single pipeline check.
type StepResult struct {
	Name       string        `json:"name"`
	Kind       string        `json:"kind"`
	Run        []string      `json:"run,omitempty"`
	Status     string        `json:"status"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	Stdout     string        `json:"stdout,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	ExitCode   int           `json:"exit_code"`
	Detail     string        `json:"detail,omitempty"`
	DryRun     bool          `json:"dry_run"`
}

// Summary aggregates pipeline execution results.
type Summary struct {
	TotalChecks int           `json:"total_checks"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	Duration    time.Duration `json:"-"`
	DurationMS  int64         `json:"duration_ms"`
	ExitCode    int           `json:"exit_code"`
}
