// Package discovery locates the project root the pipeline runs against.
package discovery

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoProject indicates that no project root was found while walking up.
var ErrNoProject = errors.New("no project found (looked for .shakedown.yml or package.json up to the filesystem root)")

// markerFiles identify a project root, checked in order.
var markerFiles = []string{".shakedown.yml", "package.json"}

// FindRoot walks up from the current working directory until a directory
// contains one of the marker files.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from startDir until a directory contains one of the
// marker files.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range markerFiles {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoProject
		}
		dir = parent
	}
}
