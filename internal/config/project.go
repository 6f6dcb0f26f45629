package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const projectConfigFileName = ".cliptrim.toml"

// ProjectConfig proje bazlı CLI varsayılanlarını tutar.
type ProjectConfig struct {
	DefaultOutput string
	TotalFrames   int
	MinGapPercent float64
	SeekTimeout   time.Duration
	ListenAddr    string
	LogLevel      string
	FFmpegPath    string
	FFprobePath   string
	WorkDir       string
	Isolation     *bool
}

// Settings bayraklar, proje dosyası ve varsayılanlar birleştirildikten
// sonraki etkin ayarlardır.
type Settings struct {
	OutputDir     string
	TotalFrames   int
	MinGapPercent float64
	SeekTimeout   time.Duration
	ListenAddr    string
	LogLevel      string
	FFmpegPath    string
	FFprobePath   string
	WorkDir       string
	Isolation     bool
}

// DefaultSettings yerleşik varsayılanları döner.
func DefaultSettings() Settings {
	return Settings{
		TotalFrames:   10,
		MinGapPercent: 1.0,
		SeekTimeout:   5 * time.Second,
		ListenAddr:    "127.0.0.1:8790",
		LogLevel:      "info",
		Isolation:     true,
	}
}

// Merge proje dosyasında verilen değerleri ayarların üzerine yazar.
func (s Settings) Merge(p *ProjectConfig) Settings {
	if p == nil {
		return s
	}
	if p.DefaultOutput != "" {
		s.OutputDir = p.DefaultOutput
	}
	if p.TotalFrames > 0 {
		s.TotalFrames = p.TotalFrames
	}
	if p.MinGapPercent > 0 {
		s.MinGapPercent = p.MinGapPercent
	}
	if p.SeekTimeout != 0 {
		s.SeekTimeout = p.SeekTimeout
	}
	if p.ListenAddr != "" {
		s.ListenAddr = p.ListenAddr
	}
	if p.LogLevel != "" {
		s.LogLevel = p.LogLevel
	}
	if p.FFmpegPath != "" {
		s.FFmpegPath = p.FFmpegPath
	}
	if p.FFprobePath != "" {
		s.FFprobePath = p.FFprobePath
	}
	if p.WorkDir != "" {
		s.WorkDir = p.WorkDir
	}
	if p.Isolation != nil {
		s.Isolation = *p.Isolation
	}
	return s
}

// LoadProjectConfig currentDir'den yukarı doğru .cliptrim.toml arar.
// Dosya yoksa (nil, "", nil) döner.
func LoadProjectConfig(currentDir string) (*ProjectConfig, string, error) {
	path, err := findProjectConfigPath(currentDir)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return nil, "", nil
	}

	cfg, err := parseProjectConfig(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func findProjectConfigPath(startDir string) (string, error) {
	if strings.TrimSpace(startDir) == "" {
		return "", errors.New("gecersiz calisma dizini")
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, projectConfigFileName)
		info, statErr := os.Stat(candidate)
		if statErr == nil && !info.IsDir() {
			return candidate, nil
		}
		if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
			return "", statErr
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

func parseProjectConfig(path string) (*ProjectConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := &ProjectConfig{}
	scanner := bufio.NewScanner(f)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(stripInlineComment(scanner.Text()))
		if line == "" {
			continue
		}
		// Yalnızca top-level key/value desteklenir.
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%s:%d gecersiz satir", path, lineNo)
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			return nil, fmt.Errorf("%s:%d gecersiz key/value", path, lineNo)
		}

		if err := assignProjectConfigValue(cfg, key, value); err != nil {
			return nil, fmt.Errorf("%s:%d %s: %w", path, lineNo, key, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if cfg.TotalFrames < 0 {
		return nil, fmt.Errorf("total_frames 0 veya daha buyuk olmali")
	}
	if cfg.MinGapPercent < 0 || cfg.MinGapPercent >= 100 {
		return nil, fmt.Errorf("min_gap_percent 0-100 araliginda olmali")
	}

	return cfg, nil
}

func assignProjectConfigValue(cfg *ProjectConfig, key, rawValue string) error {
	var err error
	switch key {
	case "default_output":
		cfg.DefaultOutput, err = parseTomlString(rawValue)
	case "total_frames":
		cfg.TotalFrames, err = parseTomlInt(rawValue)
	case "min_gap_percent":
		cfg.MinGapPercent, err = parseTomlFloat(rawValue)
	case "seek_timeout":
		cfg.SeekTimeout, err = parseTomlDuration(rawValue)
	case "listen_addr":
		cfg.ListenAddr, err = parseTomlString(rawValue)
	case "log_level":
		var v string
		v, err = parseTomlString(rawValue)
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	case "ffmpeg_path":
		cfg.FFmpegPath, err = parseTomlString(rawValue)
	case "ffprobe_path":
		cfg.FFprobePath, err = parseTomlString(rawValue)
	case "work_dir":
		cfg.WorkDir, err = parseTomlString(rawValue)
	case "isolation":
		var v bool
		v, err = parseTomlBool(rawValue)
		if err == nil {
			cfg.Isolation = &v
		}
	default:
		// Bilinmeyen anahtarları görmezden gel.
	}
	return err
}

func parseTomlString(v string) (string, error) {
	v = strings.TrimSpace(v)
	if len(v) < 2 {
		return "", fmt.Errorf("gecersiz string deger")
	}
	if (strings.HasPrefix(v, "\"") && strings.HasSuffix(v, "\"")) ||
		(strings.HasPrefix(v, "'") && strings.HasSuffix(v, "'")) {
		return v[1 : len(v)-1], nil
	}
	// Kısa yazım: key = value (tırnaksız)
	return v, nil
}

func parseTomlInt(v string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("gecersiz sayi degeri")
	}
	return parsed, nil
}

func parseTomlFloat(v string) (float64, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("gecersiz ondalik deger")
	}
	return parsed, nil
}

func parseTomlBool(v string) (bool, error) {
	switch strings.TrimSpace(v) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("gecersiz bool degeri")
}

func parseTomlDuration(v string) (time.Duration, error) {
	str, err := parseTomlString(v)
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("gecersiz sure degeri")
	}
	return d, nil
}

func stripInlineComment(line string) string {
	inSingle := false
	inDouble := false

	for i, r := range line {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '#':
			if !inSingle && !inDouble {
				return line[:i]
			}
		}
	}
	return line
}
