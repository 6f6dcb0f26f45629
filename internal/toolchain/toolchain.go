// Package toolchain FFmpeg ve FFprobe ikililerini bulur ve çalıştırır.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// ========================================
// Harici Araçlar
// FFmpeg (kırpma + kare yakalama) ve FFprobe (süre ölçümü)
// ========================================

// ErrNotFound istenen araç sistemde bulunamadığında döner.
var ErrNotFound = errors.New("araç bulunamadı")

// ExternalTool harici bir aracın durumunu temsil eder
type ExternalTool struct {
	Name      string
	Available bool
	Path      string
	Version   string
	Hint      string
}

// FindFFmpeg FFmpeg yolunu bulur. Öncelik: override, FFMPEG_PATH, bilinen yollar, PATH.
func FindFFmpeg(override string) (string, error) {
	return find("ffmpeg", "FFMPEG_PATH", override)
}

// FindFFprobe FFprobe yolunu bulur. Öncelik: override, FFPROBE_PATH, bilinen yollar, PATH.
func FindFFprobe(override string) (string, error) {
	return find("ffprobe", "FFPROBE_PATH", override)
}

func find(name, envKey, override string) (string, error) {
	// 1. Açıkça verilen yol
	if override != "" {
		if _, err := os.Stat(override); err == nil {
			return override, nil
		}
		if path, err := exec.LookPath(override); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("%s yolu geçersiz: %s: %w", name, override, ErrNotFound)
	}

	// 2. Çevre değişkeni
	if envPath := os.Getenv(envKey); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	// 3. İşletim sistemine göre bilinen yollar
	for _, path := range candidates(name) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	// 4. PATH
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%s bulunamadı: %w", name, ErrNotFound)
}

func candidates(name string) []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/opt/homebrew/bin/" + name, "/usr/local/bin/" + name}
	case "linux":
		return []string{"/usr/bin/" + name, "/usr/local/bin/" + name, "/snap/bin/" + name}
	case "windows":
		return []string{`C:\ffmpeg\bin\` + name + ".exe"}
	}
	return nil
}

// Version aracın ilk sürüm satırını döner.
func Version(ctx context.Context, path string) string {
	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line)
}

// CheckDependencies FFmpeg ve FFprobe durumunu raporlar.
func CheckDependencies(ctx context.Context, ffmpegOverride, ffprobeOverride string) []ExternalTool {
	tools := make([]ExternalTool, 0, 2)
	for _, spec := range []struct {
		name     string
		override string
		find     func(string) (string, error)
	}{
		{"FFmpeg", ffmpegOverride, FindFFmpeg},
		{"FFprobe", ffprobeOverride, FindFFprobe},
	} {
		tool := ExternalTool{Name: spec.name}
		if path, err := spec.find(spec.override); err == nil {
			tool.Available = true
			tool.Path = path
			tool.Version = Version(ctx, path)
		} else {
			tool.Hint = GetInstallInfo("ffmpeg").Description
		}
		tools = append(tools, tool)
	}
	return tools
}

// ProbeDuration ffprobe ile medya süresini saniye olarak döner.
func ProbeDuration(ctx context.Context, ffprobePath, input string) (float64, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("süre okunamadı: %s\n%s", err.Error(), strings.TrimSpace(string(out)))
	}
	sec, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("süre çözümlenemedi: %q", strings.TrimSpace(string(out)))
	}
	if sec <= 0 {
		return 0, fmt.Errorf("geçersiz süre: %v", sec)
	}
	return sec, nil
}
