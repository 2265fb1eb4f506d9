package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
)

// execScript runs one shell command line in the project root, capturing both
// output streams.
func (r *Runner) execScript(ctx context.Context, script string) (stdout, stderr string, code int, err error) {
	args := commandArgs(script)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = r.opts.Root
	cmd.Env = r.opts.Env

	var stdoutBuf, stderrBuf strings.Builder
	if r.opts.Verbose {
		cmd.Stdout = io.MultiWriter(r.opts.Stdout, &stdoutBuf)
		cmd.Stderr = io.MultiWriter(r.opts.Stderr, &stderrBuf)
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	err = cmd.Run()
	return stdoutBuf.String(), simplifyError(stderrBuf.String()), exitCode(err), err
}

func commandArgs(script string) []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C", script}
	}
	return []string{"sh", "-c", script}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(interface{ ExitStatus() int }); ok {
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return 1
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}

var missingScriptRegex = regexp.MustCompile(`[Mm]issing script:?\s+"?([0-9A-Za-z:_-]+)"?`)

// simplifyError rewrites well-known npm failure noise into a short actionable
// message. Unrecognized stderr passes through untouched.
func simplifyError(stderr string) string {
	lower := strings.ToLower(stderr)
	if strings.Contains(lower, "npm: not found") || strings.Contains(lower, "npm: command not found") {
		return "npm executable not found; install Node.js or add npm to PATH"
	}
	if match := missingScriptRegex.FindStringSubmatch(stderr); len(match) == 2 {
		return fmt.Sprintf("missing npm script %q; add it to the scripts section of package.json", match[1])
	}
	return stderr
}
