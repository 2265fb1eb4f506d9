package version

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Info captures a tool version installed on the system.
type Info struct {
	Name    string
	Version string
}

var (
	numberRegex = regexp.MustCompile(`(?i)v?(\d+\.\d+(?:\.\d+)?)`)
	gitRegex    = regexp.MustCompile(`git version (\d+\.\d+(?:\.\d+)?)`)
)

// DetectNode returns the system Node.js version by calling `node -v`.
func DetectNode() (Info, error) {
	out, err := runCommand("node", "-v")
	if err != nil {
		return Info{}, err
	}
	match := numberRegex.FindStringSubmatch(out)
	if len(match) < 2 {
		return Info{}, fmt.Errorf("unable to parse node version from %q", out)
	}
	return Info{Name: "node", Version: match[1]}, nil
}

// DetectNpm returns the system npm version by calling `npm --version`.
func DetectNpm() (Info, error) {
	out, err := runCommand("npm", "--version")
	if err != nil {
		return Info{}, err
	}
	match := numberRegex.FindStringSubmatch(out)
	if len(match) < 2 {
		return Info{}, fmt.Errorf("unable to parse npm version from %q", out)
	}
	return Info{Name: "npm", Version: match[1]}, nil
}

// DetectGit returns the system git version by calling `git version`.
func DetectGit() (Info, error) {
	out, err := runCommand("git", "version")
	if err != nil {
		return Info{}, err
	}
	match := gitRegex.FindStringSubmatch(out)
	if len(match) < 2 {
		return Info{}, fmt.Errorf("unable to parse git version from %q", out)
	}
	return Info{Name: "git", Version: match[1]}, nil
}

func runCommand(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = nil
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// CompareMajorMinor compares major.minor portions of two semver-like versions.
// Versions that cannot be parsed compare as matching so callers do not warn
// on unknown input.
func CompareMajorMinor(desired, actual string) bool {
	d := semverPrefix(desired)
	a := semverPrefix(actual)
	if d == "" || a == "" {
		return true
	}
	return strings.EqualFold(d, a)
}

func semverPrefix(version string) string {
	// .nvmrc style files often pin "v20.11.1" rather than "20.11.1".
	version = strings.TrimPrefix(strings.TrimPrefix(version, "v"), "V")
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return ""
	}
	return fmt.Sprintf("%s.%s", parts[0], parts[1])
}

// Missing reports whether executing the command returns a not-found error.
func Missing(cmdErr error) bool {
	return errors.Is(cmdErr, exec.ErrNotFound)
}
