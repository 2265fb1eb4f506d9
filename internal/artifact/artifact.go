// Package artifact inspects build outputs for presence and content markers.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Info describes a verified artifact.
type Info struct {
	Path string
	Size int64
}

// Inspect verifies that the artifact at path, relative to root, exists as a
// regular file and contains the marker substring when one is set.
func Inspect(root, path, marker string) (Info, error) {
	full := filepath.Join(root, path)

	stat, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Info{}, fmt.Errorf("artifact %q not produced", path)
		}
		return Info{}, fmt.Errorf("stat artifact %q: %w", path, err)
	}
	if stat.IsDir() {
		return Info{}, fmt.Errorf("artifact %q is a directory", path)
	}

	info := Info{Path: path, Size: stat.Size()}
	if marker == "" {
		return info, nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return Info{}, fmt.Errorf("read artifact %q: %w", path, err)
	}
	if !strings.Contains(string(data), marker) {
		return Info{}, fmt.Errorf("artifact %q missing marker %q", path, marker)
	}

	return info, nil
}
