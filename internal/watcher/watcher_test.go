package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWatcher_reloadOnChange(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "mission_data.json")
	indexPath := filepath.Join(dir, "missions.index")
	for _, p := range []string{corpusPath, indexPath} {
		if err := os.WriteFile(p, []byte("v1"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	var reloads atomic.Int32
	w := New(corpusPath, indexPath, func() { reloads.Add(1) }, zap.NewNop(), WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Rewrite both artifacts back to back; the debounce collapses them.
	if err := os.WriteFile(corpusPath, []byte("v2"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(indexPath, []byte("v2"), 0600); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for reloads.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("reload callback never fired")
		case <-time.After(10 * time.Millisecond):
		}
	}
	// Allow the debounce window to drain fully, then confirm the callback
	// fired once, not once per file write.
	time.Sleep(150 * time.Millisecond)
	if n := reloads.Load(); n != 1 {
		t.Errorf("expected 1 debounced reload, got %d", n)
	}
}

func TestWatcher_ignoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "mission_data.json")
	indexPath := filepath.Join(dir, "missions.index")

	var reloads atomic.Int32
	w := New(corpusPath, indexPath, func() { reloads.Add(1) }, zap.NewNop(), WithDebounce(30*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Errorf("unrelated file should not trigger reload, got %d", n)
	}
}
