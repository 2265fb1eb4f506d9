package pipeline

import (
	"fmt"

	"github.com/karminski/shakedown/internal/config"
)

// Check kinds understood by the runner.
const (
	KindFiles   = "files"
	KindCommand = "command"
	KindBuild   = "build"
)

// Artifact names a build output and the substring it must contain.
type Artifact struct {
	Path   string `json:"path"`
	Marker string `json:"marker,omitempty"`
}

// Check is one named phase of the pipeline.
type Check struct {
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Files    []string  `json:"files,omitempty"`
	Run      []string  `json:"run,omitempty"`
	Artifact *Artifact `json:"artifact,omitempty"`
}

// Pipeline is the ordered set of checks resolved for one project root.
type Pipeline struct {
	Root   string  `json:"root"`
	Checks []Check `json:"checks"`
}

// FromConfig resolves a validated configuration into an executable pipeline.
// The structure check is synthesized first from required_files; the remaining
// checks follow in config order. Checks without a name are labelled by
// position.
func FromConfig(root string, cfg config.Config) (Pipeline, error) {
	p := Pipeline{Root: root}

	if len(cfg.RequiredFiles) > 0 {
		p.Checks = append(p.Checks, Check{
			Name:  "Structure",
			Kind:  KindFiles,
			Files: append([]string{}, cfg.RequiredFiles...),
		})
	}

	for idx, cc := range cfg.Checks {
		check := Check{
			Name:  cc.Name,
			Kind:  cc.Kind,
			Files: append([]string{}, cc.Files...),
			Run:   append([]string{}, cc.Run...),
		}
		if check.Name == "" {
			check.Name = fmt.Sprintf("check %d", idx+1)
		}
		if check.Kind == "" {
			check.Kind = KindCommand
		}
		if cc.Artifact != nil {
			check.Artifact = &Artifact{Path: cc.Artifact.Path, Marker: cc.Artifact.Marker}
		}
		if err := validateCheck(check); err != nil {
			return Pipeline{}, err
		}
		p.Checks = append(p.Checks, check)
	}

	return p, nil
}

func validateCheck(c Check) error {
	switch c.Kind {
	case KindCommand:
		if len(c.Run) == 0 {
			return fmt.Errorf("check %q: command check needs at least one run entry", c.Name)
		}
	case KindBuild:
		if len(c.Run) == 0 {
			return fmt.Errorf("check %q: build check needs at least one run entry", c.Name)
		}
		if c.Artifact == nil || c.Artifact.Path == "" {
			return fmt.Errorf("check %q: build check needs an artifact path", c.Name)
		}
	case KindFiles:
		if len(c.Files) == 0 {
			return fmt.Errorf("check %q: files check needs at least one path", c.Name)
		}
	default:
		return fmt.Errorf("check %q: unsupported kind %q", c.Name, c.Kind)
	}
	return nil
}

// CommandCount reports how many external commands the pipeline will invoke.
func (p Pipeline) CommandCount() int {
	n := 0
	for _, c := range p.Checks {
		n += len(c.Run)
	}
	return n
}
