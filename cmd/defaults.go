package cmd

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlihgenel/cliptrim/internal/config"
)

const (
	envOutput      = "CLIPTRIM_OUTPUT"
	envLogLevel    = "CLIPTRIM_LOG_LEVEL"
	envFrames      = "CLIPTRIM_FRAMES"
	envSeekTimeout = "CLIPTRIM_SEEK_TIMEOUT"
	envListen      = "CLIPTRIM_LISTEN"
)

// resolveSettings öncelik sırası: bayrak > ortam değişkeni > .cliptrim.toml >
// kullanıcı ayarı > yerleşik varsayılan.
func resolveSettings(cmd *cobra.Command) config.Settings {
	s := config.DefaultSettings()
	if dir := config.GetDefaultOutputDir(); dir != "" {
		s.OutputDir = dir
	}
	s = s.Merge(activeProjectConfig)

	if v := strings.TrimSpace(os.Getenv(envOutput)); v != "" {
		s.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		s.LogLevel = strings.ToLower(v)
	}
	if v, ok := readEnvInt(envFrames); ok && v > 0 {
		s.TotalFrames = v
	}
	if v, ok := readEnvDuration(envSeekTimeout); ok {
		s.SeekTimeout = v
	}
	if v := strings.TrimSpace(os.Getenv(envListen)); v != "" {
		s.ListenAddr = v
	}

	if flagChanged(cmd, "output") {
		s.OutputDir = outputDir
	}
	if flagChanged(cmd, "log-level") {
		s.LogLevel = strings.ToLower(strings.TrimSpace(logLevel))
	}
	if flagChanged(cmd, "ffmpeg") {
		s.FFmpegPath = ffmpegPath
	}
	if flagChanged(cmd, "ffprobe") {
		s.FFprobePath = ffprobePath
	}
	return s
}

func applyFramesDefault(cmd *cobra.Command, flagName string, value *int, s config.Settings) {
	if flagChanged(cmd, flagName) {
		return
	}
	*value = s.TotalFrames
}

func applyListenDefault(cmd *cobra.Command, flagName string, value *string, s config.Settings) {
	if flagChanged(cmd, flagName) {
		return
	}
	*value = s.ListenAddr
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Changed
	}
	return false
}

func readEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func readEnvDuration(name string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
