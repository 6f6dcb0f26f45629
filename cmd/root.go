package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlihgenel/cliptrim/internal/config"
	"github.com/mlihgenel/cliptrim/internal/ui"
)

var (
	logLevel    string
	outputDir   string
	ffmpegPath  string
	ffprobePath string

	activeProjectConfig     *config.ProjectConfig
	activeProjectConfigPath string

	appVersion = "dev"
	appDate    = ""
)

// SetVersionInfo build-time version bilgisini ayarlar
func SetVersionInfo(version, date string) {
	if strings.TrimSpace(version) != "" {
		appVersion = version
	}
	appDate = strings.TrimSpace(date)
	if appDate == "" || appDate == "unknown" {
		appDate = time.Now().Format("2006-01-02 15:04:05")
	}
	ui.Version = appVersion
	rootCmd.Version = appVersion
	rootCmd.SetVersionTemplate(versionTemplate())
}

func versionTemplate() string {
	return fmt.Sprintf(
		"ClipTrim v%s\nTarih:  %s\nGo:     %s\nOS:     %s/%s\n",
		appVersion, appDate, runtime.Version(), runtime.GOOS, runtime.GOARCH,
	)
}

var rootCmd = &cobra.Command{
	Use:   "cliptrim",
	Short: "ClipTrim - yerel video kırpma aracı",
	Long: `ClipTrim: Kayıtlı videolarınızı yerel ortamda kırpın.

Zaman çizelgesindeki tutamaçları fareyle sürükleyerek bir aralık seçin,
önizleme karelerini görün ve seçili aralığı FFmpeg ile yeniden kodlamadan
kesin. Hiçbir dosya internete yüklenmez.

Argümansız çalıştırıldığında interaktif arayüz açılır.

Örnekler:
  cliptrim
  cliptrim trim klip.mp4 --start 25% --end 75%
  cliptrim trim klip.mp4 --start 00:00:30 --end 90 -o ./kesitler
  cliptrim thumbs klip.mp4 --frames 12 --pdf kareler.pdf
  cliptrim serve klip.mp4 --addr 127.0.0.1:8790
  cliptrim doctor`,
	Version: appVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadActiveProjectConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Argümansız çalıştırıldığında interaktif mod başlat
		return RunInteractive(resolveSettings(cmd))
	},
}

// Execute CLI'ı çalıştırır
func Execute() error {
	return rootCmd.Execute()
}

func loadActiveProjectConfig() error {
	wd, err := os.Getwd()
	if err != nil {
		return nil
	}
	cfg, path, err := config.LoadProjectConfig(wd)
	if err != nil {
		return fmt.Errorf("proje ayarları okunamadı: %w", err)
	}
	activeProjectConfig = cfg
	activeProjectConfigPath = path
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log seviyesi: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "Çıktı dizini (varsayılan: kaynak dizin)")
	rootCmd.PersistentFlags().StringVar(&ffmpegPath, "ffmpeg", "", "FFmpeg ikili dosyasının yolu")
	rootCmd.PersistentFlags().StringVar(&ffprobePath, "ffprobe", "", "FFprobe ikili dosyasının yolu")

	SetVersionInfo(appVersion, appDate)

	// Hata mesajlarını özelleştir
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintf(os.Stderr, "Hata: %s\n\n", err.Error())
		cmd.Usage()
		return err
	})
}
