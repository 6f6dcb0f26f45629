package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mlihgenel/cliptrim/internal/config"
	"github.com/mlihgenel/cliptrim/internal/logging"
	"github.com/mlihgenel/cliptrim/internal/timeline"
	"github.com/mlihgenel/cliptrim/internal/toolchain"
	"github.com/mlihgenel/cliptrim/internal/transcode"
	"github.com/mlihgenel/cliptrim/internal/ui"
)

var (
	trimStart string
	trimEnd   string
	trimGap   float64
)

var trimCmd = &cobra.Command{
	Use:   "trim <video>",
	Short: "Videodan seçili aralığı kes",
	Long: `Videonun seçili aralığını yeniden kodlamadan (-c copy) keser.

Konumlar yüzde (25%), saniye (90) veya zaman damgası (00:01:30) olarak verilebilir.
Kesimler anahtar karelere hizalandığı için birkaç kare kayabilir.

Örnekler:
  cliptrim trim klip.mp4 --start 25% --end 75%
  cliptrim trim klip.mp4 --start 00:00:30 --end 00:01:10 -o ./kesitler
  cliptrim trim https://ornek.com/klip.mp4 --start 10 --end 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]
		s := resolveSettings(cmd)
		if flagChanged(cmd, "min-gap") {
			s.MinGapPercent = trimGap
		}
		logger := logging.WithComponent(newCommandLogger(s), "trim")

		if !isRemoteSource(input) {
			if _, err := os.Stat(input); err != nil {
				return fmt.Errorf("dosya bulunamadı: %s", input)
			}
		}

		assets, err := resolveAssets(s)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		duration, err := toolchain.ProbeDuration(ctx, assets.Core, input)
		if err != nil {
			return fmt.Errorf("video süresi okunamadı: %w", err)
		}

		rng, err := resolveTrimRange(trimStart, trimEnd, duration, s.MinGapPercent)
		if err != nil {
			return err
		}
		startSec, endSec := rng.Seconds(duration)

		outDir := resolveOutputDir(input, s)
		if isRemoteSource(input) && s.OutputDir == "" {
			outDir = "."
		}

		ui.PrintTrim(filepath.Base(input), transcode.OutputName(input),
			fmt.Sprintf("%s - %s", timeline.FormatDisplay(startSec), timeline.FormatDisplay(endSec)))

		started := time.Now()
		saved, err := runTrim(ctx, assets, input, startSec, endSec, outDir, logger)
		if err != nil {
			ui.PrintError(err.Error())
			return err
		}
		if !isRemoteSource(input) {
			_ = config.AddRecentClip(input)
		}

		ui.PrintSuccess(fmt.Sprintf("Kırpıldı: %s", saved))
		ui.PrintDuration(time.Since(started))
		return nil
	},
}

// resolveTrimRange başlangıç ve bitiş konumlarını doğrulanmış bir yüzde aralığına çevirir.
func resolveTrimRange(startRaw, endRaw string, duration, minGap float64) (timeline.Range, error) {
	start, err := timeline.ParsePosition(startRaw, duration)
	if err != nil {
		return timeline.Range{}, fmt.Errorf("başlangıç: %w", err)
	}
	end := 100.0
	if endRaw != "" {
		end, err = timeline.ParsePosition(endRaw, duration)
		if err != nil {
			return timeline.Range{}, fmt.Errorf("bitiş: %w", err)
		}
	}
	if minGap <= 0 {
		minGap = timeline.DefaultMinGap
	}
	rng := timeline.Range{Start: start, End: end}
	if !rng.Valid(minGap) {
		return timeline.Range{}, fmt.Errorf("aralık geçersiz: bitiş başlangıçtan en az %%%.1f sonra olmalı", minGap)
	}
	return rng, nil
}

// runTrim motoru yükler, kırpmayı çalıştırır ve çıktıyı diske yazar.
func runTrim(ctx context.Context, assets transcode.Assets, input string, startSec, endSec float64, outDir string, logger *slog.Logger) (string, error) {
	bridge, downloads := newBridge(assets, "", logger)
	defer bridge.Close()

	if err := bridge.Load(ctx); err != nil {
		return "", err
	}
	ref, err := bridge.Trim(ctx, input, startSec, endSec)
	if err != nil {
		return "", err
	}
	return downloads.Save(ref.ID, outDir)
}

func init() {
	trimCmd.Flags().StringVar(&trimStart, "start", "0%", "Başlangıç konumu (örn: 25%, 30, 00:00:30)")
	trimCmd.Flags().StringVar(&trimEnd, "end", "100%", "Bitiş konumu (örn: 75%, 90, 00:01:30)")
	trimCmd.Flags().Float64Var(&trimGap, "min-gap", timeline.DefaultMinGap, "Başlangıç ile bitiş arasındaki en küçük yüzde")

	rootCmd.AddCommand(trimCmd)
}
