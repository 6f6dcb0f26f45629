package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherBootstrapAndPoll(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(clip, []byte("old"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	w := NewWatcher(clip, time.Second)
	if err := w.Bootstrap(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	now := time.Now()
	ready, err := w.Poll(now)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if ready {
		t.Fatalf("expected no change after bootstrap")
	}

	if err := os.WriteFile(clip, []byte("new content"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	ready, err = w.Poll(now.Add(100 * time.Millisecond))
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if ready {
		t.Fatalf("expected no change before settle")
	}

	ready, err = w.Poll(now.Add(2 * time.Second))
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if !ready {
		t.Fatalf("expected change after settle")
	}

	ready, _ = w.Poll(now.Add(4 * time.Second))
	if ready {
		t.Fatalf("change must be reported once")
	}
}

func TestWatcherDeleteAndRecreate(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(clip, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	w := NewWatcher(clip, 10*time.Millisecond)
	if err := w.Bootstrap(); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	_ = os.Remove(clip)
	if ready, err := w.Poll(now); err != nil || ready {
		t.Fatalf("deleted file must not be reported: %v %v", ready, err)
	}

	if err := os.WriteFile(clip, []byte("b"), 0644); err != nil {
		t.Fatal(err)
	}
	if ready, _ := w.Poll(now.Add(time.Millisecond)); ready {
		t.Fatalf("recreated file must settle first")
	}
	if ready, _ := w.Poll(now.Add(time.Second)); !ready {
		t.Fatalf("expected recreated file to be reported")
	}
}

func TestWatcherRejectsDirectory(t *testing.T) {
	w := NewWatcher(t.TempDir(), 0)
	if err := w.Bootstrap(); err == nil {
		t.Fatalf("expected error for directory path")
	}
}

func TestRunReportsChange(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(clip, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	engine, _ := NewAdaptiveWatcher(clip, 20*time.Millisecond)
	defer engine.Close()
	if err := engine.Bootstrap(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	changed := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = Run(ctx, engine, 10*time.Millisecond, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	if err := os.WriteFile(clip, []byte("changed bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatalf("change not reported (mode=%s)", engine.Mode())
	}
}
