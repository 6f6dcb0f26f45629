package toolchain

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindUsesExplicitOverride(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "my-ffmpeg")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	got, err := FindFFmpeg(fake)
	if err != nil {
		t.Fatalf("FindFFmpeg failed: %v", err)
	}
	if got != fake {
		t.Fatalf("expected override path, got %s", got)
	}
}

func TestFindRejectsMissingOverride(t *testing.T) {
	_, err := FindFFprobe(filepath.Join(t.TempDir(), "yok"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindUsesEnvironment(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "ffprobe-env")
	if err := os.WriteFile(fake, []byte("x"), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FFPROBE_PATH", fake)
	got, err := FindFFprobe("")
	if err != nil || got != fake {
		t.Fatalf("expected env path %s, got %s (%v)", fake, got, err)
	}
}

func TestInstallInfoForFFprobeMatchesFFmpeg(t *testing.T) {
	a := GetInstallInfo("ffmpeg")
	b := GetInstallInfo("FFprobe")
	if a.Description != b.Description || a.ToolName != "FFmpeg" {
		t.Fatalf("ffprobe should install via ffmpeg package: %+v vs %+v", a, b)
	}
	if a.Supported && !strings.Contains(a.Description, "ffmpeg") && !strings.Contains(a.Description, "FFmpeg") {
		t.Fatalf("unexpected install description: %q", a.Description)
	}
}

func TestProbeDurationWithRealFFprobe(t *testing.T) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		t.Skip("ffmpeg yok")
	}
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		t.Skip("ffprobe yok")
	}
	out := filepath.Join(t.TempDir(), "clip.mp4")
	ctx := context.Background()
	gen := exec.CommandContext(ctx, ffmpeg,
		"-y", "-f", "lavfi", "-i", "testsrc=size=160x120:rate=10",
		"-t", "2", "-pix_fmt", "yuv420p", out,
	)
	if msg, err := gen.CombinedOutput(); err != nil {
		t.Skipf("ffmpeg lavfi kullanılamıyor: %v %s", err, msg)
	}
	d, err := ProbeDuration(ctx, ffprobe, out)
	if err != nil {
		t.Fatalf("ProbeDuration failed: %v", err)
	}
	if d < 1.5 || d > 2.5 {
		t.Fatalf("unexpected duration: %v", d)
	}
}
