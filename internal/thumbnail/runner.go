package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/mlihgenel/cliptrim/internal/logging"
	"github.com/mlihgenel/cliptrim/internal/metrics"
)

// Snapshot örnekleyicinin anlık görüntüsüdür.
type Snapshot struct {
	Frames     []Frame
	Err        error
	Running    bool
	Generation uint64
}

// Sampler kaynak veya süre değiştiğinde örneklemeyi iptal edip yeniden başlatır.
// Kareler yalnızca tüm dizi başarıyla bittiğinde yayımlanır.
type Sampler struct {
	opener Opener
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	done     chan struct{}
	source   string
	duration float64
	started  bool
	snap     Snapshot
	onUpdate func(Snapshot)
}

// SamplerOption Sampler yapılandırma seçeneği.
type SamplerOption func(*Sampler)

// WithLogger Sampler'a logger bağlar.
func WithLogger(logger *slog.Logger) SamplerOption {
	return func(s *Sampler) { s.logger = logger }
}

// WithUpdateFunc her durum değişiminde çağrılacak fonksiyonu ayarlar.
// Fonksiyon örnekleme goroutine'inden çağrılır.
func WithUpdateFunc(fn func(Snapshot)) SamplerOption {
	return func(s *Sampler) { s.onUpdate = fn }
}

// NewSampler yeni bir örnekleyici oluşturur.
func NewSampler(opener Opener, opts Options, options ...SamplerOption) *Sampler {
	s := &Sampler{
		opener: opener,
		opts:   opts.withDefaults(),
		logger: logging.Discard(),
	}
	for _, o := range options {
		o(s)
	}
	s.logger = logging.WithComponent(s.logger, "thumbnail")
	return s
}

// Start kaynak veya süre öncekinden farklıysa örneklemeyi (yeniden) başlatır.
// duration <= 0 ise süre kaynağın metaverisinden okunur.
func (s *Sampler) Start(source string, duration float64) bool {
	s.mu.Lock()
	if s.started && s.source == source && s.duration == duration {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	s.launch(source, duration)
	return true
}

// Restart mevcut kaynak için örneklemeyi koşulsuz yeniden başlatır.
func (s *Sampler) Restart() {
	s.mu.Lock()
	source, duration, started := s.source, s.duration, s.started
	s.mu.Unlock()
	if started {
		s.launch(source, duration)
	}
}

// Stop çalışan örneklemeyi iptal eder ve bitmesini bekler.
func (s *Sampler) Stop() {
	s.mu.Lock()
	s.gen++
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.started = false
	s.snap.Running = false
	s.snap.Generation = s.gen
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Wait çalışan örneklemenin bitmesini bekler.
func (s *Sampler) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Sampler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snap
	snap.Frames = append([]Frame(nil), s.snap.Frames...)
	return snap
}

func (s *Sampler) launch(source string, duration float64) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	prevCancel, prevDone := s.cancel, s.done
	s.gen++
	gen := s.gen
	s.cancel, s.done = cancel, done
	s.source, s.duration, s.started = source, duration, true
	s.snap = Snapshot{Running: true, Generation: gen}
	s.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}
	s.notify()

	go func() {
		defer close(done)
		if prevDone != nil {
			<-prevDone
		}
		frames, err := s.run(ctx, source, duration)
		s.finish(gen, frames, err)
	}()
}

func (s *Sampler) run(ctx context.Context, source string, duration float64) ([]Frame, error) {
	src, err := s.opener(ctx, source)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCanceled
		}
		return nil, &MediaLoadError{Source: logging.SanitizePath(source), Err: err}
	}
	defer src.Close()

	meta, err := src.LoadMetadata(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCanceled
		}
		return nil, &MediaLoadError{Source: logging.SanitizePath(source), Err: err}
	}
	if duration <= 0 {
		duration = meta
	}
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, &MediaLoadError{Source: logging.SanitizePath(source), Err: fmt.Errorf("geçersiz süre: %v", duration)}
	}

	collected := make([]Frame, 0, s.opts.TotalFrames)
	for frame, err := range Frames(ctx, src, duration, s.opts) {
		if err != nil {
			return nil, err
		}
		collected = append(collected, frame)
		metrics.ThumbnailFramesTotal.Inc()
	}
	return collected, nil
}

func (s *Sampler) finish(gen uint64, frames []Frame, err error) {
	s.mu.Lock()
	if gen != s.gen {
		// Yerine yenisi başlatıldı; sonuç atılır.
		s.mu.Unlock()
		metrics.ThumbnailRunsTotal.WithLabelValues("canceled").Inc()
		return
	}
	s.snap.Running = false
	switch {
	case errors.Is(err, ErrCanceled):
		s.snap.Frames = nil
		s.snap.Err = nil
	case err != nil:
		s.snap.Frames = nil
		s.snap.Err = err
	default:
		s.snap.Frames = frames
		s.snap.Err = nil
	}
	s.mu.Unlock()

	switch {
	case errors.Is(err, ErrCanceled):
		metrics.ThumbnailRunsTotal.WithLabelValues("canceled").Inc()
	case err != nil:
		metrics.ThumbnailRunsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("önizleme kareleri çıkarılamadı", "error", err)
	default:
		metrics.ThumbnailRunsTotal.WithLabelValues("done").Inc()
		s.logger.Debug("önizleme kareleri hazır", "frames", len(frames))
	}
	s.notify()
}

func (s *Sampler) notify() {
	if s.onUpdate == nil {
		return
	}
	s.onUpdate(s.Snapshot())
}
