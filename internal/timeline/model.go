package timeline

import (
	"fmt"
	"math"
)

// ========================================
// Zaman / Yüzde Eşlemesi
// ========================================

// DefaultMinGap iki tutamaç arasındaki varsayılan en küçük aralık (yüzde).
const DefaultMinGap = 1.0

// Handle sürüklenebilir tutamaçları temsil eder.
type Handle int

const (
	HandleNone Handle = iota
	HandleStart
	HandleEnd
)

func (h Handle) String() string {
	switch h {
	case HandleStart:
		return "start"
	case HandleEnd:
		return "end"
	default:
		return "none"
	}
}

// Range yüzde cinsinden seçili kırpma aralığıdır. Start ve End [0,100] içindedir.
type Range struct {
	Start float64
	End   float64
}

// FullRange klip yüklendiğinde oluşturulan {0,100} aralığını döner.
func FullRange() Range {
	return Range{Start: 0, End: 100}
}

// Valid aralığın sınırlar içinde ve en az minGap genişliğinde olup olmadığını kontrol eder.
func (r Range) Valid(minGap float64) bool {
	if r.Start < 0 || r.End > 100 {
		return false
	}
	return r.End-r.Start >= minGap-1e-9
}

// Identical iki aralığın bit düzeyinde aynı olup olmadığını kontrol eder.
func (r Range) Identical(other Range) bool {
	return math.Float64bits(r.Start) == math.Float64bits(other.Start) &&
		math.Float64bits(r.End) == math.Float64bits(other.End)
}

// Seconds aralığı verilen süreye göre mutlak saniyelere çevirir.
func (r Range) Seconds(duration float64) (float64, float64) {
	return PercentToSeconds(r.Start, duration), PercentToSeconds(r.End, duration)
}

func (r Range) String() string {
	return fmt.Sprintf("[%.2f%%, %.2f%%]", r.Start, r.End)
}

// PercentToSeconds yüzdeyi saniyeye çevirir. Geçersiz süre için 0 döner.
func PercentToSeconds(p, duration float64) float64 {
	if !validDuration(duration) || math.IsNaN(p) {
		return 0
	}
	return p / 100 * duration
}

// SecondsToPercent saniyeyi [0,100] aralığına sıkıştırılmış yüzdeye çevirir.
func SecondsToPercent(s, duration float64) float64 {
	if !validDuration(duration) || math.IsNaN(s) {
		return 0
	}
	return Clamp(s/duration*100, 0, 100)
}

// Clamp v değerini [lo, hi] aralığına sıkıştırır.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FormatDisplay saniyeyi ekranda gösterilecek "MM:SS" biçimine çevirir.
func FormatDisplay(seconds float64) string {
	if !validTimestamp(seconds) {
		return "00:00"
	}
	total := int64(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatTranscodeTimestamp saniyeyi ffmpeg'in kabul ettiği "HH:MM:SS.mmm" biçimine çevirir.
func FormatTranscodeTimestamp(seconds float64) string {
	if !validTimestamp(seconds) {
		return "00:00:00.000"
	}
	millis := int64(seconds*1000 + 0.5)
	hours := millis / 3600000
	minutes := (millis % 3600000) / 60000
	secs := (millis % 60000) / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, secs, ms)
}

func validDuration(d float64) bool {
	return d > 0 && !math.IsNaN(d) && !math.IsInf(d, 0)
}

func validTimestamp(s float64) bool {
	return s > 0 && !math.IsNaN(s) && !math.IsInf(s, 0)
}
