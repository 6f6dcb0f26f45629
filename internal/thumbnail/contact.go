package thumbnail

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// ========================================
// Kontak Sayfası
// Örneklenen kareleri tek bir PDF sayfasında ızgara olarak dizer
// ========================================

const (
	sheetColumns = 4
	sheetMargin  = 15.0
	sheetGap     = 4.0
)

// WriteContactSheet kareleri A4 bir PDF'e yazar. Her karenin altında
// zaman damgası yer alır.
func WriteContactSheet(output, title string, frames []Frame, label func(float64) string) error {
	if len(frames) == 0 {
		return fmt.Errorf("kontak sayfası için kare yok")
	}
	if label == nil {
		label = func(ts float64) string { return fmt.Sprintf("%.2fs", ts) }
	}

	p := gofpdf.New("P", "mm", "A4", "")
	p.SetMargins(sheetMargin, sheetMargin, sheetMargin)
	p.SetAutoPageBreak(false, sheetMargin)
	tr := p.UnicodeTranslatorFromDescriptor("")
	p.AddPage()

	p.SetFont("Helvetica", "B", 14)
	p.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	p.Ln(2)

	pageW, pageH := p.GetPageSize()
	cellW := (pageW - 2*sheetMargin - float64(sheetColumns-1)*sheetGap) / sheetColumns
	cellH := cellW * FrameHeight / FrameWidth
	rowH := cellH + 8

	p.SetFont("Helvetica", "", 9)
	top := p.GetY()
	for i, f := range frames {
		col := i % sheetColumns
		if col == 0 && i > 0 {
			top += rowH
			if top+rowH > pageH-sheetMargin {
				p.AddPage()
				top = sheetMargin
			}
		}
		x := sheetMargin + float64(col)*(cellW+sheetGap)

		name := fmt.Sprintf("frame_%03d", f.Index)
		opts := gofpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
		p.RegisterImageOptionsReader(name, opts, bytes.NewReader(f.Image))
		p.ImageOptions(name, x, top, cellW, cellH, false, opts, 0, "")

		p.SetXY(x, top+cellH+1)
		p.CellFormat(cellW, 5, label(f.Timestamp), "", 0, "C", false, 0, "")
	}

	if err := p.Error(); err != nil {
		return fmt.Errorf("PDF oluşturulamadı: %w", err)
	}
	return p.OutputFileAndClose(filepath.Clean(output))
}
