package watch

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestIgnoredPath(t *testing.T) {
	ignore := []string{".git", "node_modules", "dist", ".shakedown", "build/tmp"}

	cases := []struct {
		rel  string
		want bool
	}{
		{".git/config", true},
		{"node_modules/lodash/index.js", true},
		{"packages/app/node_modules/x.js", true},
		{"dist", true},
		{"build/tmp/cache.json", true},
		{"build/main.js", false},
		{"src/main.js", false},
		{"distance/far.js", false},
	}
	for _, tc := range cases {
		if got := ignoredPath(tc.rel, ignore); got != tc.want {
			t.Errorf("ignoredPath(%q) = %v, want %v", tc.rel, got, tc.want)
		}
	}
}

func TestCollectDirs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"src/lib", "node_modules/pkg", ".git/objects", "build"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	dirs, err := collectDirs(root, nil, defaultIgnore)
	if err != nil {
		t.Fatalf("collectDirs: %v", err)
	}

	rels := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		rel, err := filepath.Rel(root, dir)
		if err != nil {
			t.Fatal(err)
		}
		rels = append(rels, filepath.ToSlash(rel))
	}

	for _, want := range []string{".", "src", "src/lib", "build"} {
		if !slices.Contains(rels, want) {
			t.Errorf("expected %q in watched dirs, got %v", want, rels)
		}
	}
	for _, banned := range []string{"node_modules", ".git"} {
		for _, rel := range rels {
			if rel == banned || strings.HasPrefix(rel, banned+"/") {
				t.Errorf("ignored dir %q was collected", rel)
			}
		}
	}
}

func TestCollectDirsSubtrees(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"src", "docs", "scripts"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	dirs, err := collectDirs(root, []string{"src", "scripts"}, defaultIgnore)
	if err != nil {
		t.Fatalf("collectDirs: %v", err)
	}
	for _, dir := range dirs {
		if strings.HasSuffix(dir, "docs") {
			t.Errorf("docs should not be watched, got %v", dirs)
		}
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 dirs, got %v", dirs)
	}
}

func TestStartMissingPath(t *testing.T) {
	w, err := New(Options{Root: t.TempDir(), Paths: []string{"nope"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	if err := w.Start(context.Background()); err == nil {
		t.Fatal("expected error for missing watch path")
	}
}

func TestWatcherDeliversSettledBatch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("watcher goroutine accounting is unreliable on windows")
	}
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := New(Options{Root: root, Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, "src", "main.js"), []byte("ok\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	batch := waitForPath(t, w, "src/main.js", 5*time.Second)
	for _, path := range batch {
		if strings.HasPrefix(path, "dist") {
			t.Errorf("unexpected path in batch: %q", path)
		}
	}
}

func TestWatcherSkipsIgnoredWrites(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("watcher goroutine accounting is unreliable on windows")
	}
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	for _, dir := range []string{"src", "dist"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	w, err := New(Options{Root: root, Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, "dist", "bundle.js"), []byte("out\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "app.js"), []byte("in\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	batch := waitForPath(t, w, "src/app.js", 5*time.Second)
	for _, path := range batch {
		if strings.HasPrefix(path, "dist") {
			t.Errorf("ignored write surfaced: %q", path)
		}
	}
}

func TestWatcherStopClosesChannel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("watcher goroutine accounting is unreliable on windows")
	}
	defer goleak.VerifyNone(t)

	w, err := New(Options{Root: t.TempDir(), Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	w.Stop()

	select {
	case _, ok := <-w.Changes():
		if ok {
			t.Fatal("expected closed channel after Stop")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Stop")
	}
}

// waitForPath drains batches until one contains want or the deadline
// passes.
func waitForPath(t *testing.T, w *Watcher, want string, deadline time.Duration) []string {
	t.Helper()
	timeout := time.After(deadline)
	for {
		select {
		case batch, ok := <-w.Changes():
			if !ok {
				t.Fatalf("channel closed before %q was seen", want)
			}
			if slices.Contains(batch, filepath.FromSlash(want)) {
				return batch
			}
		case <-timeout:
			t.Fatalf("no batch containing %q within %s", want, deadline)
		}
	}
}
