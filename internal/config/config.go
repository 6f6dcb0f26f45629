package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const maxRecentClips = 8

// AppConfig uygulama yapılandırmasını tutar
type AppConfig struct {
	FirstRunCompleted bool     `json:"first_run_completed"`
	DefaultOutputDir  string   `json:"default_output_dir,omitempty"`
	RecentClips       []string `json:"recent_clips,omitempty"`
}

// Dir yapılandırma dizinini döner (~/.cliptrim). CLIPTRIM_HOME ile değiştirilebilir.
func Dir() (string, error) {
	if dir := os.Getenv("CLIPTRIM_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cliptrim"), nil
}

// LogPath etkileşimli arayüzün log dosyası yolunu döner.
func LogPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cliptrim.log"), nil
}

// configPath yapılandırma dosya yolunu döner
func configPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadConfig yapılandırmayı dosyadan okur
func LoadConfig() (*AppConfig, error) {
	path, err := configPath()
	if err != nil {
		return &AppConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// Dosya yoksa varsayılan config döndür
		return &AppConfig{}, nil
	}

	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return &AppConfig{}, nil
	}

	return &cfg, nil
}

// SaveConfig yapılandırmayı dosyaya kaydeder
func SaveConfig(cfg *AppConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IsFirstRun uygulamanın ilk kez çalıştırılıp çalıştırılmadığını kontrol eder
func IsFirstRun() bool {
	cfg, _ := LoadConfig()
	return !cfg.FirstRunCompleted
}

// MarkFirstRunDone ilk çalıştırma tamamlandı olarak işaretler
func MarkFirstRunDone() error {
	cfg, _ := LoadConfig()
	cfg.FirstRunCompleted = true
	return SaveConfig(cfg)
}

// GetDefaultOutputDir varsayılan çıktı dizinini döner
func GetDefaultOutputDir() string {
	cfg, _ := LoadConfig()
	return cfg.DefaultOutputDir
}

// SetDefaultOutputDir varsayılan çıktı dizinini kaydeder
func SetDefaultOutputDir(dir string) error {
	cfg, _ := LoadConfig()
	cfg.DefaultOutputDir = dir
	return SaveConfig(cfg)
}

// AddRecentClip klibi son açılanlar listesinin başına ekler.
func AddRecentClip(path string) error {
	cfg, _ := LoadConfig()
	recent := []string{path}
	for _, p := range cfg.RecentClips {
		if p != path {
			recent = append(recent, p)
		}
	}
	if len(recent) > maxRecentClips {
		recent = recent[:maxRecentClips]
	}
	cfg.RecentClips = recent
	return SaveConfig(cfg)
}

// RecentClips hâlâ diskte bulunan son klipleri döner.
func RecentClips() []string {
	cfg, _ := LoadConfig()
	var out []string
	for _, p := range cfg.RecentClips {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
