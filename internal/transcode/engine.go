// Package transcode gömülü dönüştürme motorunu yükler ve kırpma işlerini yürütür.
package transcode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Assets motorun yüklenmesi için gereken üç varlıktır.
type Assets struct {
	Engine string // ffmpeg ikilisi
	Core   string // ffprobe ikilisi
	Worker string // sanal dosya sisteminin oluşturulacağı üst dizin
}

// Engine dönüştürme motoru arayüzüdür. Dosya adları motorun sanal dosya
// sistemindeki düz adlardır.
type Engine interface {
	Load(ctx context.Context, assets Assets) error
	WriteFile(name string, data []byte) error
	Exec(ctx context.Context, args []string) error
	ReadFile(name string) ([]byte, error)
	DeleteFile(name string) error
	Terminate() error
	Logs() <-chan string
}

var errInvalidName = errors.New("geçersiz dosya adı")

// ProcessEngine Engine arayüzünü ffmpeg süreçleriyle uygular.
// Sanal dosya sistemi özel bir geçici dizindir.
type ProcessEngine struct {
	mu      sync.Mutex
	assets  Assets
	fsDir   string
	loaded  bool
	running map[*exec.Cmd]struct{}
	logs    chan string
}

func NewProcessEngine() *ProcessEngine {
	return &ProcessEngine{
		running: make(map[*exec.Cmd]struct{}),
		logs:    make(chan string, 256),
	}
}

// Load varlıkları doğrular ve sanal dosya sistemini oluşturur.
func (e *ProcessEngine) Load(ctx context.Context, assets Assets) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loaded {
		return nil
	}
	for _, bin := range []string{assets.Engine, assets.Core} {
		if bin == "" {
			return errors.New("motor varlığı eksik")
		}
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("motor varlığı bulunamadı: %s: %w", bin, err)
		}
	}
	if err := exec.CommandContext(ctx, assets.Engine, "-hide_banner", "-version").Run(); err != nil {
		return fmt.Errorf("motor başlatılamadı: %w", err)
	}

	dir, err := os.MkdirTemp(assets.Worker, "cliptrim-fs-")
	if err != nil {
		return fmt.Errorf("sanal dosya sistemi oluşturulamadı: %w", err)
	}
	e.assets = assets
	e.fsDir = dir
	e.loaded = true
	return nil
}

func (e *ProcessEngine) path(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return "", ErrEngineUnavailable
	}
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", errInvalidName, name)
	}
	return filepath.Join(e.fsDir, name), nil
}

func (e *ProcessEngine) WriteFile(name string, data []byte) error {
	p, err := e.path(name)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0600)
}

func (e *ProcessEngine) ReadFile(name string) ([]byte, error) {
	p, err := e.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (e *ProcessEngine) DeleteFile(name string) error {
	p, err := e.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Exec ffmpeg'i sanal dosya sisteminde çalıştırır; stderr satırları Logs'a akar.
func (e *ProcessEngine) Exec(ctx context.Context, args []string) error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return ErrEngineUnavailable
	}
	full := append([]string{"-hide_banner", "-nostdin", "-y"}, args...)
	cmd := exec.CommandContext(ctx, e.assets.Engine, full...)
	cmd.Dir = e.fsDir
	stderr, err := cmd.StderrPipe()
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if err := cmd.Start(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("ffmpeg başlatılamadı: %w", err)
	}
	e.running[cmd] = struct{}{}
	e.mu.Unlock()

	var tail []string
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		tail = append(tail, line)
		if len(tail) > 8 {
			tail = tail[1:]
		}
		e.emit(line)
	}
	_, _ = io.Copy(io.Discard, stderr)
	err = cmd.Wait()

	e.mu.Lock()
	delete(e.running, cmd)
	e.mu.Unlock()

	if err != nil {
		return fmt.Errorf("ffmpeg hatası: %v\n%s", err, strings.Join(tail, "\n"))
	}
	return nil
}

func (e *ProcessEngine) emit(line string) {
	select {
	case e.logs <- line:
	default:
		// Okuyan yoksa satır düşürülür.
	}
}

func (e *ProcessEngine) Logs() <-chan string { return e.logs }

// Terminate çalışan süreçleri öldürür ve sanal dosya sistemini siler.
func (e *ProcessEngine) Terminate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for cmd := range e.running {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
	e.running = make(map[*exec.Cmd]struct{})
	if !e.loaded {
		return nil
	}
	e.loaded = false
	dir := e.fsDir
	e.fsDir = ""
	return os.RemoveAll(dir)
}
