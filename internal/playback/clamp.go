package playback

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mlihgenel/cliptrim/internal/timeline"
)

const (
	// DefaultEpsilon sınır karşılaştırmalarında kullanılan tolerans (saniye).
	DefaultEpsilon = 0.1
	// DefaultSeekSettle seeked olayından sonra düzeltmelerin bastırıldığı süre.
	DefaultSeekSettle = 50 * time.Millisecond
)

// Clamp medya konumunu aktif aralığın içinde tutar.
//
// Durumlar {Playing, Paused} x {endReached}. Kullanıcı sararken (seeking)
// sınır düzeltmesi yapılmaz; bayrak seeked olayından DefaultSeekSettle
// sonra düşer ve geç gelen timeupdate olayları da bastırılır.
type Clamp struct {
	mu       sync.Mutex
	media    Media
	rng      timeline.Range
	state    State
	seeking  bool
	seekedAt time.Time

	epsilon float64
	settle  time.Duration
	now     func() time.Time
	logger  *slog.Logger

	unsubscribe func()
}

// ClampOption Clamp yapılandırma seçeneği.
type ClampOption func(*Clamp)

// WithClock test için zaman kaynağını değiştirir.
func WithClock(now func() time.Time) ClampOption {
	return func(c *Clamp) { c.now = now }
}

// WithLogger Clamp'e logger bağlar.
func WithLogger(logger *slog.Logger) ClampOption {
	return func(c *Clamp) { c.logger = logger }
}

// NewClamp verilen medya ve aralık için yeni bir Clamp oluşturur.
func NewClamp(media Media, rng timeline.Range, opts ...ClampOption) *Clamp {
	c := &Clamp{
		media:   media,
		rng:     rng,
		epsilon: DefaultEpsilon,
		settle:  DefaultSeekSettle,
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Duration = media.Duration()
	c.state.CurrentTime = media.CurrentTime()
	c.state.Playing = !media.Paused()
	return c
}

// Attach medya olaylarını dinlemeye başlar.
func (c *Clamp) Attach() {
	unsubscribe := c.media.Subscribe(c.HandleEvent)
	c.mu.Lock()
	prev := c.unsubscribe
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// Detach medya dinleyicilerini kaldırır.
func (c *Clamp) Detach() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Clamp) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Clamp) Range() timeline.Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng
}

// SetRange aralık değiştiğinde çağrılır: oynatma sürüyorsa önce durdurulur,
// medya yeni başlangıca sarılır ve endReached temizlenir.
func (c *Clamp) SetRange(r timeline.Range) {
	c.mu.Lock()
	c.rng = r
	c.state.EndReached = false
	wasPlaying := c.state.Playing || !c.media.Paused()
	c.state.Playing = false
	startSec := timeline.PercentToSeconds(r.Start, c.durationLocked())
	c.mu.Unlock()

	if wasPlaying {
		c.media.Pause()
	}
	c.media.Seek(startSec)
	c.logger.Debug("aralık değişti, başlangıca sarıldı", "range", r.String(), "start_sec", startSec, "interrupted", wasPlaying)
}

// HandleEvent tek bir medya olayını işler.
func (c *Clamp) HandleEvent(ev Event) {
	var (
		doPause bool
		seekTo  = -1.0
	)

	c.mu.Lock()
	now := c.now()
	switch ev.Type {
	case EventLoadedMetadata:
		c.state.Duration = c.media.Duration()
		c.updateTimeLocked(ev.CurrentTime)

	case EventSeeking:
		c.seeking = true

	case EventSeeked:
		c.seeking = false
		c.seekedAt = now
		c.updateTimeLocked(ev.CurrentTime)
		startSec, endSec := c.boundsLocked()
		if ev.CurrentTime >= startSec && ev.CurrentTime < endSec-c.epsilon {
			c.state.EndReached = false
		}

	case EventPlay:
		c.state.Playing = true
		startSec, endSec := c.boundsLocked()
		if c.durationLocked() > 0 && (c.state.EndReached || ev.CurrentTime >= endSec-c.epsilon) {
			// Sona ulaşılmışsa oynatma aralığın başından yeniden başlar.
			c.state.EndReached = false
			seekTo = startSec
		}

	case EventPause:
		c.state.Playing = false

	case EventTimeUpdate:
		c.updateTimeLocked(ev.CurrentTime)
		if c.durationLocked() <= 0 {
			break
		}
		startSec, endSec := c.boundsLocked()
		switch {
		case ev.CurrentTime >= endSec-c.epsilon:
			if !c.state.EndReached {
				c.state.EndReached = true
				c.state.Playing = false
				doPause = true
			}
		case ev.CurrentTime < startSec-c.epsilon && !c.isSeekingLocked(now):
			seekTo = startSec
		}
	}
	c.mu.Unlock()

	if doPause {
		c.media.Pause()
		c.logger.Debug("aralık sonuna ulaşıldı", "current_time", ev.CurrentTime)
	}
	if seekTo >= 0 {
		c.media.Seek(seekTo)
		c.logger.Debug("başlangıca sarıldı", "from", ev.CurrentTime, "to", seekTo)
	}
}

func (c *Clamp) isSeekingLocked(now time.Time) bool {
	if c.seeking {
		return true
	}
	return !c.seekedAt.IsZero() && now.Sub(c.seekedAt) < c.settle
}

func (c *Clamp) updateTimeLocked(t float64) {
	c.state.CurrentTime = t
	d := c.durationLocked()
	if d > 0 {
		c.state.Progress = t / d * 100
	} else {
		c.state.Progress = 0
	}
}

func (c *Clamp) durationLocked() float64 {
	if c.state.Duration <= 0 {
		c.state.Duration = c.media.Duration()
	}
	return c.state.Duration
}

func (c *Clamp) boundsLocked() (float64, float64) {
	return c.rng.Seconds(c.durationLocked())
}
