package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/bmp"

	"github.com/mlihgenel/cliptrim/internal/toolchain"
)

// FFmpegSource her kareyi ayrı bir ffmpeg çağrısıyla yakalar.
// Kareler sıkıştırmasız BMP olarak borudan okunur.
type FFmpegSource struct {
	ffmpeg  string
	ffprobe string
	input   string

	mu       sync.Mutex
	position float64
	duration float64
}

// NewFFmpegOpener verilen ikililerle FFmpegSource açan bir Opener döner.
func NewFFmpegOpener(ffmpegPath, ffprobePath string) Opener {
	return func(ctx context.Context, source string) (Source, error) {
		input := strings.TrimPrefix(source, "file://")
		if input == "" {
			return nil, fmt.Errorf("kaynak boş")
		}
		return &FFmpegSource{ffmpeg: ffmpegPath, ffprobe: ffprobePath, input: input}, nil
	}
}

func (s *FFmpegSource) LoadMetadata(ctx context.Context) (float64, error) {
	d, err := toolchain.ProbeDuration(ctx, s.ffprobe, s.input)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.duration = d
	s.mu.Unlock()
	return d, nil
}

// Seek konumu kaydeder; ffmpeg her yakalamada kendi sarmasını yaptığı için
// gelecek hemen çözülür.
func (s *FFmpegSource) Seek(seconds float64) <-chan error {
	done := make(chan error, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds < 0 || (s.duration > 0 && seconds > s.duration) {
		done <- fmt.Errorf("konum aralık dışında: %.3fs", seconds)
	} else {
		s.position = seconds
	}
	close(done)
	return done
}

func (s *FFmpegSource) Capture(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	pos := s.position
	s.mu.Unlock()

	cmd := exec.CommandContext(ctx, s.ffmpeg,
		"-v", "error",
		"-ss", strconv.FormatFloat(pos, 'f', 3, 64),
		"-i", s.input,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "bmp",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg kare yakalayamadı: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg çıktı üretmedi (%.3fs)", pos)
	}
	img, err := bmp.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("BMP çözümlenemedi: %w", err)
	}
	return img, nil
}

func (s *FFmpegSource) Close() error { return nil }
