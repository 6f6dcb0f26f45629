// Package timeline kırpma aralığının zaman/yüzde modelini ve sürükleme
// durum makinesini içerir.
package timeline

import (
	"math"
	"sync"
)

// Model bir klibin kırpma aralığını ve süresini tutar. Her değişiklik
// Notifier üzerinden debounce edilerek gözlemcilere iletilir.
type Model struct {
	mu       sync.RWMutex
	duration float64
	minGap   float64
	rng      Range
	custom   bool
	notifier *Notifier
}

// NewModel {0,100} aralığıyla yeni bir model oluşturur.
func NewModel(duration, minGap float64, notifier *Notifier) *Model {
	if minGap <= 0 || minGap > 100 {
		minGap = DefaultMinGap
	}
	if notifier == nil {
		notifier = NewNotifier(DefaultDebounce)
	}
	return &Model{
		duration: duration,
		minGap:   minGap,
		rng:      FullRange(),
		notifier: notifier,
	}
}

// Notifier modelin bildirim kanalını döner.
func (m *Model) Notifier() *Notifier { return m.notifier }

func (m *Model) Range() Range {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rng
}

func (m *Model) MinGap() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.minGap
}

func (m *Model) Duration() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.duration
}

// Custom aralık kullanıcı tarafından değiştirildiyse true döner.
func (m *Model) Custom() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.custom
}

// SetDuration klip süresini günceller. Aralık yüzde olarak tutulduğu için değişmez.
func (m *Model) SetDuration(d float64) {
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

// MoveHandle tutamacı p yüzdesine taşır ve aralık kısıtlarını uygular:
// başlangıç [0, end-minGap], bitiş [start+minGap, 100] içinde kalır.
func (m *Model) MoveHandle(h Handle, p float64) Range {
	m.mu.Lock()
	next := m.rng
	switch h {
	case HandleStart:
		next.Start = Clamp(p, 0, next.End-m.minGap)
		// Çıkarma yuvarlaması aralığı minGap'in altına düşürebilir.
		for next.Start > 0 && next.End-next.Start < m.minGap {
			next.Start = math.Max(math.Nextafter(next.Start, math.Inf(-1)), 0)
		}
	case HandleEnd:
		next.End = Clamp(p, next.Start+m.minGap, 100)
		for next.End < 100 && next.End-next.Start < m.minGap {
			next.End = math.Min(math.Nextafter(next.End, math.Inf(1)), 100)
		}
	default:
		m.mu.Unlock()
		return next
	}
	m.rng = next
	m.custom = true
	m.mu.Unlock()

	m.notifier.Publish(next)
	return next
}

// Reset aralığı {0,100} değerine döndürür.
func (m *Model) Reset() Range {
	m.mu.Lock()
	m.rng = FullRange()
	m.custom = false
	m.mu.Unlock()

	m.notifier.Publish(FullRange())
	return FullRange()
}

// Seconds aralığı mutlak saniyeler olarak döner.
func (m *Model) Seconds() (float64, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rng.Seconds(m.duration)
}

// Display başlangıç ve bitişi "MM:SS" olarak döner.
func (m *Model) Display() (string, string) {
	start, end := m.Seconds()
	return FormatDisplay(start), FormatDisplay(end)
}
