package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlihgenel/cliptrim/internal/thumbnail"
	"github.com/mlihgenel/cliptrim/internal/ui"
)

var (
	serveAddr     string
	serveFrames   int
	serveInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve <video>",
	Short: "Önizleme karelerini ve metrikleri HTTP üzerinden sun",
	Long: `Videonun önizleme karelerini çıkarır ve yerel bir HTTP sunucusu üzerinden sunar.
Kaynak dosya değiştiğinde kareler yeniden çıkarılır.

Uç noktalar:
  GET /healthz          Sağlık kontrolü
  GET /status           Örnekleme durumu
  GET /thumbs/{index}   Önizleme karesi (JPEG)
  GET /downloads/{id}   Kırpma çıktısı
  GET /metrics          Prometheus metrikleri

Örnekler:
  cliptrim serve klip.mp4
  cliptrim serve klip.mp4 --addr 127.0.0.1:9000 --frames 16`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		s := resolveSettings(cmd)
		applyFramesDefault(cmd, "frames", &serveFrames, s)
		applyListenDefault(cmd, "addr", &serveAddr, s)
		logger := newCommandLogger(s)

		if _, err := os.Stat(input); err != nil {
			return fmt.Errorf("dosya bulunamadı: %s", input)
		}
		assets, err := resolveAssets(s)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := newPreview(previewConfig{
			Source:   input,
			Addr:     serveAddr,
			Opener:   newOpener(assets, nil),
			Options:  thumbnail.Options{TotalFrames: serveFrames, SeekTimeout: s.SeekTimeout},
			Isolated: s.Isolation,
			Logger:   logger,
		})
		if err := p.Start(ctx); err != nil {
			return err
		}
		defer p.Close()

		ui.PrintInfo(fmt.Sprintf("Önizleme sunucusu: %s (kareler: %s/thumbs/0)", p.BaseURL(), p.BaseURL()))
		ui.PrintInfo(fmt.Sprintf("İzleme modu: %s (durdurmak için Ctrl+C)", p.watcher.Mode()))

		if serveInterval <= 0 {
			serveInterval = 500 * time.Millisecond
		}
		if err := p.Watch(ctx, serveInterval); err != nil {
			logger.Warn("kaynak izleme durdu", "error", err)
		}
		<-ctx.Done()
		ui.PrintInfo("Sunucu kapatılıyor...")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8790", "Dinlenecek adres")
	serveCmd.Flags().IntVar(&serveFrames, "frames", thumbnail.DefaultTotalFrames, "Çıkarılacak kare sayısı")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 500*time.Millisecond, "Kaynak kontrol aralığı")

	rootCmd.AddCommand(serveCmd)
}
