// Package session tek bir klip için zaman çizelgesi, oynatma, önizleme ve
// kırpma bileşenlerini birbirine bağlar.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mlihgenel/cliptrim/internal/logging"
	"github.com/mlihgenel/cliptrim/internal/playback"
	"github.com/mlihgenel/cliptrim/internal/thumbnail"
	"github.com/mlihgenel/cliptrim/internal/timeline"
	"github.com/mlihgenel/cliptrim/internal/transcode"
)

// ErrRangeNotSelected kullanıcı henüz bir aralık seçmeden kırpma istendiğinde döner.
var ErrRangeNotSelected = errors.New("önce zaman çizelgesinde bir aralık seçin")

// Config oturum yapılandırması.
type Config struct {
	Source        string
	Duration      float64
	OnRangeChange func(timeline.Range)
	TotalFrames   int
	MinGapPercent float64
	SeekTimeout   time.Duration
	Debounce      time.Duration
}

// Deps oturumun dış bağımlılıkları.
type Deps struct {
	Media   playback.Media
	Pointer timeline.PointerSource
	Cursor  timeline.Cursor
	Opener  thumbnail.Opener
	Bridge  *transcode.Bridge
	Logger  *slog.Logger
	// OnUpdate durum değiştiğinde çağrılır; başka bir goroutine'den gelebilir.
	OnUpdate func()
}

// State arayüze sunulan oturum durumudur.
type State struct {
	TrimRange         timeline.Range
	TrimStartDisplay  string
	TrimEndDisplay    string
	RangeIsCustom     bool
	TrimEnabled       bool
	EngineLoading     bool
	EngineError       string
	ProcessingTrim    bool
	TrimError         string
	DownloadRef       *transcode.DownloadRef
	Frames            []thumbnail.Frame
	ThumbnailsLoading bool
	ThumbnailError    string
	Playback          playback.State
}

// Session tek bir klibin yaşam döngüsüdür. Klip değişince yeni bir Session kurulur.
type Session struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger

	model   *timeline.Model
	drag    *timeline.DragController
	clamp   *playback.Clamp
	sampler *thumbnail.Sampler
	bridge  *transcode.Bridge

	mu         sync.Mutex
	mounted    bool
	closed     bool
	processing bool
	trimErr    error
	cancel     context.CancelFunc
	unsub      func()
}

// New bileşenleri kurar; Mount çağrılana kadar hiçbir şey çalışmaz.
func New(cfg Config, deps Deps) *Session {
	base := deps.Logger
	if base == nil {
		base = logging.Discard()
	}
	logger := logging.WithComponent(base, "session")

	s := &Session{cfg: cfg, deps: deps, logger: logger, bridge: deps.Bridge}
	s.model = timeline.NewModel(cfg.Duration, cfg.MinGapPercent, timeline.NewNotifier(cfg.Debounce))
	s.drag = timeline.NewDragController(s.model, deps.Pointer, deps.Cursor, timeline.Geometry{})
	if deps.Media != nil {
		s.clamp = playback.NewClamp(deps.Media, s.model.Range(), playback.WithLogger(logging.WithComponent(base, "playback")))
	}
	if deps.Opener != nil {
		s.sampler = thumbnail.NewSampler(deps.Opener,
			thumbnail.Options{TotalFrames: cfg.TotalFrames, SeekTimeout: cfg.SeekTimeout},
			thumbnail.WithLogger(base),
			thumbnail.WithUpdateFunc(func(thumbnail.Snapshot) { s.changed() }),
		)
	}
	return s
}

func (s *Session) Model() *timeline.Model { return s.model }
func (s *Session) Drag() *timeline.DragController { return s.drag }
func (s *Session) Clamp() *playback.Clamp { return s.clamp }
func (s *Session) Sampler() *thumbnail.Sampler { return s.sampler }
func (s *Session) Bridge() *transcode.Bridge { return s.bridge }
func (s *Session) Source() string { return s.cfg.Source }

// Mount aralık bildirimlerine abone olur, oynatıcıyı bağlar, önizleme
// örneklemesini ve motor yüklemesini başlatır.
func (s *Session) Mount(ctx context.Context) {
	s.mu.Lock()
	if s.mounted || s.closed {
		s.mu.Unlock()
		return
	}
	s.mounted = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.unsub = s.model.Notifier().Subscribe(s.onRange)
	s.mu.Unlock()

	if s.clamp != nil {
		s.clamp.Attach()
	}
	if s.sampler != nil && s.cfg.Source != "" {
		s.sampler.Start(s.cfg.Source, s.cfg.Duration)
	}
	if s.bridge != nil {
		go func() {
			if err := s.bridge.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("kırpma devre dışı", "error", err)
			}
			s.changed()
		}()
	}
	s.changed()
}

// onRange debounce edilmiş aralık değişimini işler.
func (s *Session) onRange(r timeline.Range) {
	if s.clamp != nil {
		s.clamp.SetRange(r)
	}
	if s.bridge != nil {
		s.bridge.Invalidate()
	}
	s.mu.Lock()
	s.trimErr = nil
	s.mu.Unlock()
	if s.cfg.OnRangeChange != nil {
		s.cfg.OnRangeChange(r)
	}
	s.changed()
}

// SetDuration kaynak süresi değiştiğinde çağrılır; önizleme yeniden başlar.
func (s *Session) SetDuration(d float64) {
	s.mu.Lock()
	if s.cfg.Duration == d {
		s.mu.Unlock()
		return
	}
	s.cfg.Duration = d
	mounted := s.mounted && !s.closed
	s.mu.Unlock()

	s.model.SetDuration(d)
	if mounted && s.sampler != nil {
		s.sampler.Start(s.cfg.Source, d)
	}
	s.changed()
}

// RefreshThumbnails kaynak dosya değiştiğinde kareleri yeniden çıkarır.
func (s *Session) RefreshThumbnails() {
	if s.sampler != nil {
		s.sampler.Restart()
	}
}

// ResetRange aralığı {0,100} değerine döndürür.
func (s *Session) ResetRange() timeline.Range {
	return s.model.Reset()
}

// CommitRange bekleyen aralık bildirimini hemen gönderir.
func (s *Session) CommitRange() {
	s.model.Notifier().Flush()
}

// Trim aktif aralığı kırpar. Hatalar State üzerinden de görünür.
func (s *Session) Trim(ctx context.Context) (transcode.DownloadRef, error) {
	if s.bridge == nil || !s.bridge.Enabled() {
		return transcode.DownloadRef{}, transcode.ErrEngineUnavailable
	}
	if !s.model.Custom() {
		return transcode.DownloadRef{}, ErrRangeNotSelected
	}
	// Sürükleme sonrası bekleyen aralık önce uygulanır.
	s.CommitRange()
	startSec, endSec := s.model.Seconds()

	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return transcode.DownloadRef{}, transcode.ErrJobRunning
	}
	s.processing = true
	s.trimErr = nil
	s.mu.Unlock()
	s.changed()

	ref, err := s.bridge.Trim(ctx, s.cfg.Source, startSec, endSec)

	s.mu.Lock()
	s.processing = false
	// Geçersiz kılınan çıktı hata değildir; iş Idle'a dönmüştür.
	if err != nil && !errors.Is(err, transcode.ErrJobRunning) && !errors.Is(err, transcode.ErrOutputInvalidated) {
		s.trimErr = err
	}
	s.mu.Unlock()
	s.changed()
	return ref, err
}

// State anlık oturum durumunu döner.
func (s *Session) State() State {
	r := s.model.Range()
	startDisp, endDisp := s.model.Display()
	st := State{
		TrimRange:        r,
		TrimStartDisplay: startDisp,
		TrimEndDisplay:   endDisp,
		RangeIsCustom:    s.model.Custom(),
	}

	s.mu.Lock()
	processing := s.processing
	if s.trimErr != nil {
		st.TrimError = s.trimErr.Error()
	}
	s.mu.Unlock()

	if s.bridge != nil {
		bs := s.bridge.State()
		st.EngineLoading = bs == transcode.StateUnloaded || bs == transcode.StateLoading
		if err := s.bridge.LoadError(); err != nil {
			st.EngineError = err.Error()
		}
		job := s.bridge.Job()
		st.ProcessingTrim = processing || job.Status == transcode.JobRunning
		st.TrimEnabled = bs == transcode.StateLoaded && st.RangeIsCustom && !st.ProcessingTrim
		if job.Status == transcode.JobDone {
			st.DownloadRef = job.Output
		}
	}
	if s.sampler != nil {
		snap := s.sampler.Snapshot()
		st.Frames = snap.Frames
		st.ThumbnailsLoading = snap.Running
		if snap.Err != nil {
			st.ThumbnailError = snap.Err.Error()
		}
	}
	if s.clamp != nil {
		st.Playback = s.clamp.State()
	}
	return st
}

// Close oturumu kapatır: sürükleme ve örnekleme iptal edilir, indirmeler
// iptal edilir ve motor sonlandırılır.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel, unsub := s.cancel, s.unsub
	s.mu.Unlock()

	s.drag.Close()
	s.model.Notifier().Stop()
	if unsub != nil {
		unsub()
	}
	if s.clamp != nil {
		s.clamp.Detach()
	}
	if s.sampler != nil {
		s.sampler.Stop()
	}
	if cancel != nil {
		cancel()
	}
	var err error
	if s.bridge != nil {
		err = s.bridge.Close()
	}
	s.logger.Debug("oturum kapatıldı", "source", logging.SanitizePath(s.cfg.Source))
	return err
}

func (s *Session) changed() {
	if s.deps.OnUpdate != nil {
		s.deps.OnUpdate()
	}
}
