package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlihgenel/cliptrim/internal/logging"
	"github.com/mlihgenel/cliptrim/internal/thumbnail"
	"github.com/mlihgenel/cliptrim/internal/timeline"
	"github.com/mlihgenel/cliptrim/internal/ui"
)

var (
	thumbsFrames int
	thumbsPDF    string
)

var thumbsCmd = &cobra.Command{
	Use:   "thumbs <video>",
	Short: "Zaman çizelgesi önizleme karelerini çıkar",
	Long: `Videodan eşit aralıklı önizleme kareleri (120x90 JPEG) çıkarır.
İstenirse kareleri tek sayfalık bir PDF kontak baskısına yerleştirir.

Örnekler:
  cliptrim thumbs klip.mp4
  cliptrim thumbs klip.mp4 --frames 16 -o ./kareler
  cliptrim thumbs klip.mp4 --pdf kareler.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		s := resolveSettings(cmd)
		applyFramesDefault(cmd, "frames", &thumbsFrames, s)
		if thumbsFrames <= 0 {
			return fmt.Errorf("kare sayısı sıfırdan büyük olmalı")
		}
		logger := logging.WithComponent(newCommandLogger(s), "thumbs")

		if _, err := os.Stat(input); err != nil && !isRemoteSource(input) {
			return fmt.Errorf("dosya bulunamadı: %s", input)
		}
		assets, err := resolveAssets(s)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		outDir := filepath.Join(resolveOutputDir(input, s), thumbsDirName(input))
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("çıktı dizini oluşturulamadı: %w", err)
		}

		started := time.Now()
		opts := thumbnail.Options{TotalFrames: thumbsFrames, SeekTimeout: s.SeekTimeout}
		frames, err := extractThumbnails(ctx, newOpener(assets, nil), input, opts, outDir)
		if err != nil {
			logger.Error("önizleme kareleri çıkarılamadı", "error", err, "source", logging.SanitizePath(input))
			ui.PrintError(err.Error())
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("%d kare yazıldı: %s", len(frames), outDir))

		if strings.TrimSpace(thumbsPDF) != "" {
			title := filepath.Base(input)
			if err := thumbnail.WriteContactSheet(thumbsPDF, title, frames, timeline.FormatDisplay); err != nil {
				return err
			}
			ui.PrintSuccess(fmt.Sprintf("Kontak baskısı: %s", thumbsPDF))
		}
		ui.PrintDuration(time.Since(started))
		return nil
	},
}

// extractThumbnails kareleri sırayla çıkarır ve her birini outDir altına yazar.
// Herhangi bir kare başarısız olursa yazılan kareler silinir ve hata döner.
func extractThumbnails(ctx context.Context, opener thumbnail.Opener, input string, opts thumbnail.Options, outDir string) ([]thumbnail.Frame, error) {
	src, err := opener(ctx, input)
	if err != nil {
		return nil, &thumbnail.MediaLoadError{Source: input, Err: err}
	}
	defer src.Close()

	duration, err := src.LoadMetadata(ctx)
	if err != nil {
		return nil, &thumbnail.MediaLoadError{Source: input, Err: err}
	}

	bar := ui.NewProgressBar(opts.TotalFrames, "Kareler")
	var frames []thumbnail.Frame
	var written []string
	discard := func() {
		for _, p := range written {
			_ = os.Remove(p)
		}
	}
	for frame, err := range thumbnail.Frames(ctx, src, duration, opts) {
		if err != nil {
			discard()
			return nil, err
		}
		path := filepath.Join(outDir, thumbnailFileName(frame))
		if err := os.WriteFile(path, frame.Image, 0644); err != nil {
			discard()
			return nil, fmt.Errorf("kare yazılamadı: %w", err)
		}
		written = append(written, path)
		frames = append(frames, frame)
		bar.Update(len(frames))
	}
	return frames, nil
}

func thumbnailFileName(f thumbnail.Frame) string {
	return fmt.Sprintf("thumb_%02d_%06.2fs.jpg", f.Index, f.Timestamp)
}

func thumbsDirName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_thumbs"
}

func init() {
	thumbsCmd.Flags().IntVar(&thumbsFrames, "frames", thumbnail.DefaultTotalFrames, "Çıkarılacak kare sayısı")
	thumbsCmd.Flags().StringVar(&thumbsPDF, "pdf", "", "Kareleri PDF kontak baskısına yaz")

	rootCmd.AddCommand(thumbsCmd)
}
