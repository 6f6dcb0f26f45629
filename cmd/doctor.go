package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlihgenel/cliptrim/internal/config"
	"github.com/mlihgenel/cliptrim/internal/logging"
	"github.com/mlihgenel/cliptrim/internal/toolchain"
	"github.com/mlihgenel/cliptrim/internal/ui"
)

var doctorInstall bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Kırpma motoru varlıklarını kontrol et",
	Long: `FFmpeg ve FFprobe ikililerinin yollarını ve sürümlerini gösterir.
Eksik araçlar --install ile paket yöneticisi üzerinden kurulabilir.

Örnekler:
  cliptrim doctor
  cliptrim doctor --install`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := resolveSettings(cmd)
		ui.PrintBanner()

		tools := toolchain.CheckDependencies(cmd.Context(), s.FFmpegPath, s.FFprobePath)
		ui.PrintTable([]string{"Araç", "Durum", "Yol", "Sürüm"}, doctorRows(tools))
		fmt.Fprintln(ui.Out)

		if activeProjectConfigPath != "" {
			ui.PrintInfo(fmt.Sprintf("Proje ayarları: %s", logging.SanitizePath(activeProjectConfigPath)))
		}
		if path, err := config.LogPath(); err == nil {
			ui.PrintInfo(fmt.Sprintf("Log dosyası: %s", logging.SanitizePath(path)))
		}

		missing := missingTools(tools)
		if len(missing) == 0 {
			ui.PrintSuccess("Tüm araçlar hazır. Kırpma etkin.")
			return nil
		}

		if !doctorInstall {
			info := toolchain.GetInstallInfo("ffmpeg")
			ui.PrintWarning("Eksik araç var; kırpma ve önizleme devre dışı kalacak.")
			if info.Supported {
				ui.PrintInfo(fmt.Sprintf("Kurulum: %s (veya cliptrim doctor --install)", info.Description))
			} else {
				ui.PrintInfo(fmt.Sprintf("Manuel kurulum: %s", info.ManualURL))
			}
			return fmt.Errorf("eksik araç: %v", missing)
		}

		// FFprobe FFmpeg paketiyle gelir; tek kurulum yeterli.
		ui.PrintInfo("FFmpeg kuruluyor...")
		if _, err := toolchain.InstallTool("ffmpeg"); err != nil {
			ui.PrintError(err.Error())
			return err
		}
		ui.PrintSuccess("FFmpeg kuruldu.")
		return nil
	},
}

func doctorRows(tools []toolchain.ExternalTool) [][]string {
	rows := make([][]string, 0, len(tools))
	for _, t := range tools {
		status := "✅ Kurulu"
		path := t.Path
		version := t.Version
		if !t.Available {
			status = "❌ Eksik"
			path = "-"
			version = "-"
		}
		if version == "" {
			version = "?"
		}
		rows = append(rows, []string{t.Name, status, logging.SanitizePath(path), version})
	}
	return rows
}

func missingTools(tools []toolchain.ExternalTool) []string {
	var missing []string
	for _, t := range tools {
		if !t.Available {
			missing = append(missing, t.Name)
		}
	}
	return missing
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorInstall, "install", false, "Eksik araçları paket yöneticisiyle kur")

	rootCmd.AddCommand(doctorCmd)
}
