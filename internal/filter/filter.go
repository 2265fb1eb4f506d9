package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/karminski/shakedown/internal/pipeline"
)

// Pattern represents a compiled filter condition supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values. Patterns wrapped
// in slashes compile as regular expressions; anything else matches as a
// case-insensitive substring.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// Checks applies only and skip patterns to pipeline checks, returning a new
// slice with the survivors in their original order. A check matches when any
// pattern matches its name or one of its run commands.
func Checks(checks []pipeline.Check, onlyPatterns, skipPatterns []Pattern) []pipeline.Check {
	if len(checks) == 0 {
		return nil
	}
	result := make([]pipeline.Check, 0, len(checks))
	for _, check := range checks {
		if len(onlyPatterns) > 0 && !matchesCheck(check, onlyPatterns) {
			continue
		}
		if len(skipPatterns) > 0 && matchesCheck(check, skipPatterns) {
			continue
		}
		result = append(result, check)
	}
	return result
}

func matchesCheck(check pipeline.Check, patterns []Pattern) bool {
	for _, pattern := range patterns {
		if pattern.Match(check.Name) {
			return true
		}
		for _, run := range check.Run {
			if pattern.Match(run) {
				return true
			}
		}
	}
	return false
}
