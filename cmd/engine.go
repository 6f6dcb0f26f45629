package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlihgenel/cliptrim/internal/config"
	"github.com/mlihgenel/cliptrim/internal/logging"
	"github.com/mlihgenel/cliptrim/internal/thumbnail"
	"github.com/mlihgenel/cliptrim/internal/toolchain"
	"github.com/mlihgenel/cliptrim/internal/transcode"
)

// resolveAssets FFmpeg ve FFprobe yollarını bulur.
func resolveAssets(s config.Settings) (transcode.Assets, error) {
	ff, err := toolchain.FindFFmpeg(s.FFmpegPath)
	if err != nil {
		return transcode.Assets{}, fmt.Errorf("FFmpeg bulunamadı (%w). Kontrol için: cliptrim doctor", err)
	}
	fp, err := toolchain.FindFFprobe(s.FFprobePath)
	if err != nil {
		return transcode.Assets{}, fmt.Errorf("FFprobe bulunamadı (%w). Kontrol için: cliptrim doctor", err)
	}
	return transcode.Assets{Engine: ff, Core: fp, Worker: s.WorkDir}, nil
}

// newBridge süreç tabanlı motorla bir kırpma köprüsü kurar. Motor henüz yüklenmez.
func newBridge(assets transcode.Assets, baseURL string, logger *slog.Logger) (*transcode.Bridge, *transcode.Downloads) {
	downloads := transcode.NewDownloads(baseURL)
	bridge := transcode.NewBridge(transcode.NewProcessEngine(), assets, downloads, transcode.WithLogger(logger))
	return bridge, downloads
}

// newOpener önizleme kareleri için ffmpeg kaynağı döner. Varlıklar eksikse
// açıcı her çağrıda hatayı döner; örnekleyici bunu MediaLoadError olarak gösterir.
func newOpener(assets transcode.Assets, assetErr error) thumbnail.Opener {
	if assetErr != nil {
		return func(_ context.Context, _ string) (thumbnail.Source, error) {
			return nil, assetErr
		}
	}
	return thumbnail.NewFFmpegOpener(assets.Engine, assets.Core)
}

// newCommandLogger tek seferlik komutlar için stderr'e JSON log yazar.
func newCommandLogger(s config.Settings) *slog.Logger {
	return logging.NewLogger(s.LogLevel, os.Stderr)
}

// newInteractiveLogger TUI stdout'u kullandığı için log dosyasına yazar.
// Dosya açılamazsa loglar atılır.
func newInteractiveLogger(s config.Settings) (*slog.Logger, io.Closer) {
	path, err := config.LogPath()
	if err != nil {
		return logging.Discard(), nopCloser{}
	}
	f, err := logging.OpenFile(path)
	if err != nil {
		return logging.Discard(), nopCloser{}
	}
	return logging.NewLogger(s.LogLevel, f), f
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// isRemoteSource kaynağın http(s) adresi olup olmadığını döner.
func isRemoteSource(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// resolveOutputDir çıktı dizinini seçer; ayar yoksa kaynağın dizini kullanılır.
func resolveOutputDir(input string, s config.Settings) string {
	if dir := strings.TrimSpace(s.OutputDir); dir != "" {
		return dir
	}
	return filepath.Dir(input)
}
