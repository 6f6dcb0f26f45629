package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Color ANSI renk kodları
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
)

// Icons kullanıcı dostu ikonlar
const (
	IconSuccess = "✅"
	IconError   = "❌"
	IconWarning = "⚠️ "
	IconInfo    = "ℹ️ "
	IconTrim    = "✂️ "
	IconVideo   = "🎬"
	IconFrame   = "🖼️ "
	IconDone    = "🎉"
	IconTime    = "⏱️ "
	IconFolder  = "📁"
)

// Out mesajların yazıldığı hedef. Testlerde değiştirilebilir.
var Out io.Writer = os.Stdout

// Version banner'da gösterilen sürüm.
var Version = "0.1.0"

// PrintBanner uygulama başlığını yazdırır
func PrintBanner() {
	title := fmt.Sprintf("ClipTrim  v%s", Version)
	banner := `
` + Cyan + Bold + `
  ╔═══════════════════════════════════════════════╗
  ║        ` + fmt.Sprintf("%-39s", title) + `║
  ║   Yerel video kırpma ve önizleme aracı        ║
  ╚═══════════════════════════════════════════════╝` + Reset + `
`
	fmt.Fprintln(Out, banner)
}

// PrintSuccess başarılı mesaj
func PrintSuccess(msg string) {
	fmt.Fprintf(Out, "%s %s%s%s\n", IconSuccess, Green, msg, Reset)
}

// PrintError hata mesajı
func PrintError(msg string) {
	fmt.Fprintf(Out, "%s %s%s%s\n", IconError, Red, msg, Reset)
}

// PrintWarning uyarı mesajı
func PrintWarning(msg string) {
	fmt.Fprintf(Out, "%s %s%s%s\n", IconWarning, Yellow, msg, Reset)
}

// PrintInfo bilgi mesajı
func PrintInfo(msg string) {
	fmt.Fprintf(Out, "%s %s%s%s\n", IconInfo, Blue, msg, Reset)
}

// PrintTrim kırpma işlemi mesajı
func PrintTrim(input, output, window string) {
	fmt.Fprintf(Out, "%s %s%s%s → %s%s%s  %s[%s]%s\n",
		IconTrim, Dim, input, Reset, Green, output, Reset, Cyan, window, Reset)
}

// PrintDuration süre bilgisi
func PrintDuration(d time.Duration) {
	fmt.Fprintf(Out, "%s  Süre: %s%s%s\n", IconTime, Cyan, FormatDuration(d), Reset)
}

// ProgressBar ilerleme çubuğu gösterir
type ProgressBar struct {
	Total   int
	Current int
	Width   int
	Label   string
}

// NewProgressBar yeni bir progress bar oluşturur
func NewProgressBar(total int, label string) *ProgressBar {
	return &ProgressBar{
		Total: total,
		Width: 40,
		Label: label,
	}
}

// Render çubuğun metnini döner
func (pb *ProgressBar) Render() string {
	total := pb.Total
	if total <= 0 {
		total = 1
	}
	current := min(max(pb.Current, 0), total)
	percentage := float64(current) / float64(total) * 100
	filled := pb.Width * current / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", pb.Width-filled)

	return fmt.Sprintf("  %s%s%s [%s%s%s] %s%.0f%%%s (%d/%d)",
		Bold, pb.Label, Reset,
		Green, bar, Reset,
		Cyan, percentage, Reset,
		current, pb.Total)
}

// Update ilerlemeyi günceller
func (pb *ProgressBar) Update(current int) {
	pb.Current = current
	fmt.Fprintf(Out, "\r%s", pb.Render())
	if current >= pb.Total {
		fmt.Fprintln(Out) // Son satırda yeni satıra geç
	}
}

// PrintTable basit bir tablo yazdırır
func PrintTable(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	// Sütun genişliklerini hesapla
	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len([]rune(h))
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && len([]rune(cell)) > colWidths[i] {
				colWidths[i] = len([]rune(cell))
			}
		}
	}

	line := func(left, mid, right string) string {
		parts := make([]string, len(colWidths))
		for i, w := range colWidths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return "  " + left + strings.Join(parts, mid) + right
	}
	row := func(cells []string, style string) string {
		var b strings.Builder
		b.WriteString("  │")
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := colWidths[i] - len([]rune(cell))
			b.WriteString(" " + style + cell + Reset + strings.Repeat(" ", pad) + " │")
		}
		return b.String()
	}

	fmt.Fprintln(Out, line("┌", "┬", "┐"))
	fmt.Fprintln(Out, row(headers, Bold))
	fmt.Fprintln(Out, line("├", "┼", "┤"))
	for _, r := range rows {
		fmt.Fprintln(Out, row(r, ""))
	}
	fmt.Fprintln(Out, line("└", "┴", "┘"))
}

// FormatDuration süreyi okunabilir formata çevirir
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fµs", float64(d.Microseconds()))
	}
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Milliseconds()))
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".mkv": true, ".avi": true, ".webm": true,
	".m4v": true, ".wmv": true, ".flv": true,
}

// IsVideoFile uzantıya göre video dosyası olup olmadığını döner
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}
