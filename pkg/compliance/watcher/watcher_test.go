package watcher_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glassbox-labs/compliance-engine/pkg/compliance/watcher"
)

func writeBundle(t *testing.T, dir, name, id string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := []byte(fmtBundle(id))
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write bundle fixture: %v", err)
	}
	return path
}

func fmtBundle(id string) string {
	return "{" +
		`"version":"1.0","metadata":{"id":"` + id + `","name":"n","description":"d","created":"2024-01-01T00:00:00Z","jurisdiction":"US","domain":"general"},"rules":[],"decisions":[]` +
		"}"
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcher_LoadPopulatesBundles(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, "a.json", "bundle-a")
	writeBundle(t, dir, "b.json", "bundle-b")
	os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("not a bundle"), 0644)

	w, err := watcher.New(watcher.Config{Dir: dir}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	if err := w.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(w.Bundles()) != 2 {
		t.Fatalf("expected 2 bundles loaded, got %d", len(w.Bundles()))
	}
}

func TestWatcher_LoadSkipsInvalidBundle(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, "good.json", "bundle-good")
	os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"version":"1.0"}`), 0644)

	w, err := watcher.New(watcher.Config{Dir: dir, ValidateOnLoad: true}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	if err := w.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(w.Bundles()) != 1 {
		t.Fatalf("expected 1 bundle loaded (bad one skipped), got %d", len(w.Bundles()))
	}
}

func TestWatcher_StartReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeBundle(t, dir, "live.json", "bundle-v1")

	w, err := watcher.New(watcher.Config{Dir: dir, DebounceInterval: 20 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	if err := w.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := os.WriteFile(path, []byte(fmtBundle("bundle-v2")), 0644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		b, ok := w.Bundles()[path]
		return ok && b.Metadata.ID == "bundle-v2"
	})
}

func TestWatcher_StartTwiceErrors(t *testing.T) {
	dir := t.TempDir()
	w, err := watcher.New(watcher.Config{Dir: dir}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if err := w.Start(); err == nil {
		t.Fatal("expected error starting an already-running watcher")
	}
}

func TestWatcher_RemoveDropsBundle(t *testing.T) {
	dir := t.TempDir()
	path := writeBundle(t, dir, "temp.json", "bundle-temp")

	w, err := watcher.New(watcher.Config{Dir: dir, DebounceInterval: 20 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Stop()

	if err := w.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		_, ok := w.Bundles()[path]
		return !ok
	})
}
