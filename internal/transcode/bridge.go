package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mlihgenel/cliptrim/internal/logging"
	"github.com/mlihgenel/cliptrim/internal/metrics"
	"github.com/mlihgenel/cliptrim/internal/timeline"
)

var (
	// ErrJobRunning bir kırpma sürerken ikinci istek geldiğinde döner.
	ErrJobRunning = errors.New("kırpma işlemi zaten sürüyor")
	// ErrEngineUnavailable motor yüklenmemiş veya kalıcı olarak devre dışıysa döner.
	ErrEngineUnavailable = errors.New("dönüştürme motoru kullanılamıyor")
	// ErrClosed köprü kapatıldıktan sonra döner.
	ErrClosed = errors.New("köprü kapatıldı")
	// ErrOutputInvalidated iş sürerken aralık değiştiğinde döner; çıktı atılmıştır.
	ErrOutputInvalidated = errors.New("aralık değişti, kırpma çıktısı geçersiz")
)

// EngineLoadError motor yüklenemediğinde döner; oturum boyunca kalıcıdır.
type EngineLoadError struct {
	Err error
}

func (e *EngineLoadError) Error() string { return "motor yüklenemedi: " + e.Err.Error() }
func (e *EngineLoadError) Unwrap() error { return e.Err }

// TranscodeError kırpma adımlarından birinde oluşan hatadır.
type TranscodeError struct {
	Stage string // fetch, write, exec, read
	Err   error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("kırpma başarısız (%s): %v", e.Stage, e.Err)
}
func (e *TranscodeError) Unwrap() error { return e.Err }

// BridgeState motor yükleme durumu.
type BridgeState int

const (
	StateUnloaded BridgeState = iota
	StateLoading
	StateLoaded
	StateFailed
	StateClosed
)

func (s BridgeState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// JobStatus kırpma işinin durumu.
type JobStatus int

const (
	JobIdle JobStatus = iota
	JobLoading
	JobRunning
	JobDone
	JobError
)

func (s JobStatus) String() string {
	switch s {
	case JobIdle:
		return "idle"
	case JobLoading:
		return "loading"
	case JobRunning:
		return "running"
	case JobDone:
		return "done"
	case JobError:
		return "error"
	default:
		return "unknown"
	}
}

// Job tek bir kırpma işidir.
type Job struct {
	ID            string
	Status        JobStatus
	InputRef      string
	RangeStartSec float64
	RangeEndSec   float64
	Output        *DownloadRef
	ErrorMessage  string
}

// Bridge motoru bir kez yükler ve kırpma işlerini sırayla yürütür.
// Aynı anda en fazla bir iş çalışır.
type Bridge struct {
	engine    Engine
	assets    Assets
	downloads *Downloads
	fetch     Fetcher
	logger    *slog.Logger

	mu          sync.Mutex
	state       BridgeState
	loadErr     error
	loadDone    chan struct{}
	job         Job
	invalidated bool
	stopLogs    chan struct{}
}

// BridgeOption Bridge yapılandırma seçeneği.
type BridgeOption func(*Bridge)

// WithFetcher kaynak getirme fonksiyonunu değiştirir.
func WithFetcher(f Fetcher) BridgeOption {
	return func(b *Bridge) { b.fetch = f }
}

// WithLogger Bridge'e logger bağlar.
func WithLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) { b.logger = logger }
}

func NewBridge(engine Engine, assets Assets, downloads *Downloads, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		engine:    engine,
		assets:    assets,
		downloads: downloads,
		fetch:     FetchSource,
		logger:    logging.Discard(),
	}
	for _, o := range opts {
		o(b)
	}
	b.logger = logging.WithComponent(b.logger, "transcode")
	return b
}

// Load motoru yükler. Oturum başına bir kez yüklenir; eşzamanlı çağıranlar
// aynı sonucu bekler ve bir yükleme hatası kalıcıdır.
func (b *Bridge) Load(ctx context.Context) error {
	b.mu.Lock()
	switch b.state {
	case StateLoaded:
		b.mu.Unlock()
		return nil
	case StateFailed:
		err := b.loadErr
		b.mu.Unlock()
		return err
	case StateClosed:
		b.mu.Unlock()
		return ErrClosed
	case StateLoading:
		done := b.loadDone
		b.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.state == StateLoaded {
			return nil
		}
		if b.loadErr != nil {
			return b.loadErr
		}
		return ErrEngineUnavailable
	}
	b.state = StateLoading
	b.job.Status = JobLoading
	b.loadDone = make(chan struct{})
	done := b.loadDone
	b.mu.Unlock()

	err := b.engine.Load(ctx, b.assets)

	b.mu.Lock()
	defer close(done)
	defer b.mu.Unlock()
	if b.state == StateClosed {
		if err == nil {
			_ = b.engine.Terminate()
		}
		return ErrClosed
	}
	if err != nil {
		b.state = StateFailed
		b.loadErr = &EngineLoadError{Err: err}
		b.job.Status = JobError
		b.job.ErrorMessage = b.loadErr.Error()
		metrics.EngineLoadsTotal.WithLabelValues("error").Inc()
		b.logger.Error("motor yüklenemedi", "error", err)
		return b.loadErr
	}
	b.state = StateLoaded
	b.job.Status = JobIdle
	b.stopLogs = make(chan struct{})
	go b.drainLogs(b.engine.Logs(), b.stopLogs)
	metrics.EngineLoadsTotal.WithLabelValues("ok").Inc()
	b.logger.Info("motor yüklendi", "worker", logging.SanitizePath(b.assets.Worker))
	return nil
}

func (b *Bridge) drainLogs(logs <-chan string, stop <-chan struct{}) {
	if logs == nil {
		return
	}
	for {
		select {
		case line, ok := <-logs:
			if !ok {
				return
			}
			b.logger.Debug("motor", "line", line)
		case <-stop:
			return
		}
	}
}

func (b *Bridge) State() BridgeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Enabled kırpmanın kullanılabilir olup olmadığını döner.
func (b *Bridge) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == StateLoaded
}

func (b *Bridge) LoadError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadErr
}

// Job mevcut işin kopyasını döner.
func (b *Bridge) Job() Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	job := b.job
	if job.Output != nil {
		out := *job.Output
		job.Output = &out
	}
	return job
}

// Trim kaynağı [startSec, endSec] aralığına kırpar ve çıktıyı indirilebilir
// hale getirir. Bir iş sürerken çağrılırsa ErrJobRunning döner ve iş
// durumu değişmez.
func (b *Bridge) Trim(ctx context.Context, source string, startSec, endSec float64) (DownloadRef, error) {
	b.mu.Lock()
	if b.job.Status == JobRunning {
		b.mu.Unlock()
		metrics.TrimJobsTotal.WithLabelValues("rejected").Inc()
		return DownloadRef{}, ErrJobRunning
	}
	switch b.state {
	case StateClosed:
		b.mu.Unlock()
		return DownloadRef{}, ErrClosed
	case StateFailed:
		err := b.loadErr
		b.mu.Unlock()
		return DownloadRef{}, fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	case StateLoaded:
	default:
		b.mu.Unlock()
		return DownloadRef{}, ErrEngineUnavailable
	}
	if endSec <= startSec {
		b.mu.Unlock()
		return DownloadRef{}, fmt.Errorf("geçersiz aralık: %.3f-%.3f", startSec, endSec)
	}

	prevOutput := b.job.Output
	b.job = Job{
		ID:            uuid.NewString(),
		Status:        JobRunning,
		InputRef:      source,
		RangeStartSec: startSec,
		RangeEndSec:   endSec,
	}
	b.invalidated = false
	jobID := b.job.ID
	b.mu.Unlock()

	if prevOutput != nil {
		b.downloads.Revoke(prevOutput.ID)
	}

	log := logging.WithJobID(b.logger, jobID)
	log.Info("kırpma başladı",
		"source", logging.SanitizePath(source),
		"start", timeline.FormatTranscodeTimestamp(startSec),
		"end", timeline.FormatTranscodeTimestamp(endSec),
	)

	started := time.Now()
	ref, err := b.run(ctx, source, startSec, endSec)
	metrics.TrimDuration.Observe(time.Since(started).Seconds())

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed || b.job.ID != jobID {
		if err == nil {
			b.downloads.Revoke(ref.ID)
		}
		return DownloadRef{}, ErrClosed
	}
	if err != nil {
		b.job.Status = JobError
		b.job.ErrorMessage = err.Error()
		metrics.TrimJobsTotal.WithLabelValues("error").Inc()
		log.Warn("kırpma başarısız", "error", err)
		return DownloadRef{}, err
	}
	if b.invalidated {
		// Aralık iş sürerken değişti; çıktı artık geçerli değil.
		b.downloads.Revoke(ref.ID)
		b.job = Job{Status: JobIdle}
		b.invalidated = false
		metrics.TrimJobsTotal.WithLabelValues("invalidated").Inc()
		log.Info("kırpma çıktısı aralık değiştiği için atıldı")
		return DownloadRef{}, ErrOutputInvalidated
	}
	b.job.Status = JobDone
	b.job.Output = &ref
	metrics.TrimJobsTotal.WithLabelValues("done").Inc()
	log.Info("kırpma tamamlandı", "output", ref.Name, "bytes", ref.Size)
	return ref, nil
}

// run kırpmanın motor adımlarını yürütür. Girdi ve çıktı her çıkış yolunda silinir.
func (b *Bridge) run(ctx context.Context, source string, startSec, endSec float64) (DownloadRef, error) {
	ext := strings.ToLower(filepath.Ext(OutputName(source)))
	inputName := "input" + ext
	outputName := "output" + ext

	data, err := b.fetch(ctx, source)
	if err != nil {
		return DownloadRef{}, &TranscodeError{Stage: "fetch", Err: err}
	}

	defer func() {
		if err := b.engine.DeleteFile(inputName); err != nil {
			b.logger.Debug("girdi silinemedi", "error", err)
		}
		if err := b.engine.DeleteFile(outputName); err != nil {
			b.logger.Debug("çıktı silinemedi", "error", err)
		}
	}()

	if err := b.engine.WriteFile(inputName, data); err != nil {
		return DownloadRef{}, &TranscodeError{Stage: "write", Err: err}
	}
	if err := b.engine.Exec(ctx, TrimArgs(inputName, outputName, startSec, endSec)); err != nil {
		return DownloadRef{}, &TranscodeError{Stage: "exec", Err: err}
	}
	out, err := b.engine.ReadFile(outputName)
	if err != nil {
		return DownloadRef{}, &TranscodeError{Stage: "read", Err: err}
	}
	if len(out) == 0 {
		return DownloadRef{}, &TranscodeError{Stage: "read", Err: errors.New("çıktı boş")}
	}
	return b.downloads.Add(OutputName(source), out), nil
}

// TrimArgs kırpma komutunun argümanlarını üretir.
func TrimArgs(input, output string, startSec, endSec float64) []string {
	return []string{
		"-ss", timeline.FormatTranscodeTimestamp(startSec),
		"-to", timeline.FormatTranscodeTimestamp(endSec),
		"-i", input,
		"-c", "copy",
		output,
	}
}

// Invalidate aralık yeniden ayarlandığında çağrılır: önceki çıktı iptal
// edilir ve iş Idle'a döner. Sürmekte olan işin çıktısı tamamlandığında atılır.
func (b *Bridge) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.job.Status {
	case JobRunning:
		b.invalidated = true
	case JobDone, JobError:
		if b.job.Output != nil {
			b.downloads.Revoke(b.job.Output.ID)
		}
		b.job = Job{Status: JobIdle}
	}
}

// Close motoru sonlandırır ve bekleyen indirmeleri iptal eder.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.state == StateClosed {
		b.mu.Unlock()
		return nil
	}
	wasLoaded := b.state == StateLoaded
	b.state = StateClosed
	if b.stopLogs != nil {
		close(b.stopLogs)
		b.stopLogs = nil
	}
	b.job = Job{Status: JobIdle}
	b.mu.Unlock()

	revoked := b.downloads.RevokeAll()
	b.logger.Debug("köprü kapatıldı", "revoked", revoked)
	if wasLoaded {
		return b.engine.Terminate()
	}
	return nil
}
