// Package thumbnail bir videodan zaman çizelgesi önizleme kareleri çıkarır.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"iter"
	"time"

	"github.com/disintegration/imaging"
)

const (
	// DefaultTotalFrames varsayılan kare sayısı.
	DefaultTotalFrames = 10
	// DefaultSeekTimeout tek bir sarmanın tamamlanması için beklenen üst süre.
	DefaultSeekTimeout = 5 * time.Second

	FrameWidth  = 120
	FrameHeight = 90
	jpegQuality = 80
)

var (
	// ErrSeekTimeout sarma zamanında tamamlanmadığında döner.
	ErrSeekTimeout = errors.New("sarma zaman aşımına uğradı")
	// ErrCanceled örnekleme iptal edildiğinde döner.
	ErrCanceled = errors.New("örnekleme iptal edildi")
)

// MediaLoadError kaynak açılamadığında veya metaveri okunamadığında döner.
type MediaLoadError struct {
	Source string
	Err    error
}

func (e *MediaLoadError) Error() string {
	return fmt.Sprintf("medya yüklenemedi (%s): %v", e.Source, e.Err)
}

func (e *MediaLoadError) Unwrap() error { return e.Err }

// CaptureError tek bir karenin sarma/yakalama/kodlama adımında oluşan hatadır.
type CaptureError struct {
	Index     int
	Timestamp float64
	Err       error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("kare %d (%.3fs) yakalanamadı: %v", e.Index, e.Timestamp, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Frame tek bir önizleme karesidir; Image JPEG baytlarıdır.
type Frame struct {
	Index     int
	Timestamp float64
	Image     []byte
}

// Source ekrandaki oynatıcıdan ayrı, örneklemeye özel medya kaynağıdır.
type Source interface {
	// LoadMetadata kaynağın süresini döner.
	LoadMetadata(ctx context.Context) (float64, error)
	// Seek sarmayı başlatır; dönen kanal sarma tamamlanınca bir kez değer
	// üretir (nil = başarılı) ve kapanır.
	Seek(seconds float64) <-chan error
	// Capture son sarılan konumdaki kareyi döner.
	Capture(ctx context.Context) (image.Image, error)
	Close() error
}

// Opener verilen kaynak adresi için yeni bir Source açar.
type Opener func(ctx context.Context, source string) (Source, error)

// Options örnekleme ayarları.
type Options struct {
	TotalFrames int
	SeekTimeout time.Duration // <= 0 ise sınırsız bekler
}

func (o Options) withDefaults() Options {
	if o.TotalFrames <= 0 {
		o.TotalFrames = DefaultTotalFrames
	}
	return o
}

// Timestamps N kare için örnekleme anlarını döner: i*d/(N+1), i=1..N.
func Timestamps(duration float64, n int) []float64 {
	if duration <= 0 || n <= 0 {
		return nil
	}
	interval := duration / float64(n+1)
	out := make([]float64, n)
	for i := 1; i <= n; i++ {
		out[i-1] = float64(i) * interval
	}
	return out
}

// Frames kaynaktan sırayla kare üretir. Her kare için önce sarma tamamlanır,
// sonra yakalama yapılır; hata veya iptalde dizi hata ile biter.
func Frames(ctx context.Context, src Source, duration float64, opts Options) iter.Seq2[Frame, error] {
	opts = opts.withDefaults()
	return func(yield func(Frame, error) bool) {
		for i, ts := range Timestamps(duration, opts.TotalFrames) {
			if ctx.Err() != nil {
				yield(Frame{}, ErrCanceled)
				return
			}
			frame, err := captureAt(ctx, src, i, ts, opts.SeekTimeout)
			if err != nil {
				yield(Frame{}, err)
				return
			}
			if ctx.Err() != nil {
				yield(Frame{}, ErrCanceled)
				return
			}
			if !yield(frame, nil) {
				return
			}
		}
	}
}

func captureAt(ctx context.Context, src Source, index int, ts float64, timeout time.Duration) (Frame, error) {
	if err := awaitSeek(ctx, src.Seek(ts), timeout); err != nil {
		if errors.Is(err, ErrCanceled) {
			return Frame{}, err
		}
		return Frame{}, &CaptureError{Index: index, Timestamp: ts, Err: err}
	}

	img, err := src.Capture(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Frame{}, ErrCanceled
		}
		return Frame{}, &CaptureError{Index: index, Timestamp: ts, Err: err}
	}

	data, err := Encode(img)
	if err != nil {
		return Frame{}, &CaptureError{Index: index, Timestamp: ts, Err: err}
	}
	return Frame{Index: index, Timestamp: ts, Image: data}, nil
}

func awaitSeek(ctx context.Context, done <-chan error, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case err, ok := <-done:
		if !ok {
			return nil
		}
		return err
	case <-expired:
		return ErrSeekTimeout
	case <-ctx.Done():
		return ErrCanceled
	}
}

// Encode kareyi sabit 120x90 boyuta getirir ve JPEG olarak kodlar.
func Encode(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, errors.New("boş kare")
	}
	resized := imaging.Resize(img, FrameWidth, FrameHeight, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("JPEG kodlanamadı: %w", err)
	}
	return buf.Bytes(), nil
}
