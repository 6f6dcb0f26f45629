// Package watch kaynak video dosyasındaki değişiklikleri izler.
package watch

import (
	"context"
	"fmt"
	"os"
	"time"
)

// DefaultSettle bir değişikliğin tamamlanmış sayılması için beklenen süre.
const DefaultSettle = 1500 * time.Millisecond

// Engine izleme arka ucu arayüzüdür.
type Engine interface {
	Bootstrap() error
	// Poll dosya değişip stabilize olduysa true döner.
	Poll(now time.Time) (bool, error)
	// Events olay tabanlı arka uçta değişiklik sinyali verir; polling'de nil'dir.
	Events() <-chan struct{}
	Close() error
	Mode() string
}

type fileState struct {
	Exists     bool
	Size       int64
	ModTime    time.Time
	LastChange time.Time
	Processed  bool
}

// Watcher tek bir dosya için polling tabanlı izleyicidir.
type Watcher struct {
	Path      string
	SettleFor time.Duration

	state fileState
}

// NewWatcher yeni bir watcher oluşturur.
func NewWatcher(path string, settleFor time.Duration) *Watcher {
	if settleFor <= 0 {
		settleFor = DefaultSettle
	}
	return &Watcher{Path: path, SettleFor: settleFor}
}

// Bootstrap mevcut durumu "zaten işlenmiş" olarak kaydeder.
func (w *Watcher) Bootstrap() error {
	info, err := os.Stat(w.Path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("izlenen yol dosya olmalidir: %s", w.Path)
	}
	w.state = fileState{
		Exists:     true,
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		LastChange: time.Now(),
		Processed:  true,
	}
	return nil
}

// Poll dosya değiştiyse ve SettleFor boyunca sabit kaldıysa bir kez true döner.
// Silinen dosya değişiklik sayılmaz; yeniden oluşturulunca değişiklik olarak görülür.
func (w *Watcher) Poll(now time.Time) (bool, error) {
	info, err := os.Stat(w.Path)
	if err != nil {
		if os.IsNotExist(err) {
			w.state = fileState{LastChange: now}
			return false, nil
		}
		return false, err
	}

	state := w.state
	if !state.Exists || state.Size != info.Size() || !state.ModTime.Equal(info.ModTime()) {
		w.state = fileState{
			Exists:     true,
			Size:       info.Size(),
			ModTime:    info.ModTime(),
			LastChange: now,
		}
		return false, nil
	}

	if !state.Processed && now.Sub(state.LastChange) >= w.SettleFor {
		state.Processed = true
		w.state = state
		return true, nil
	}
	return false, nil
}

func (w *Watcher) Events() <-chan struct{} { return nil }
func (w *Watcher) Close() error { return nil }
func (w *Watcher) Mode() string { return "polling" }

// Run ctx bitene kadar izler ve her stabil değişiklikte onChange çağırır.
func Run(ctx context.Context, engine Engine, interval time.Duration, onChange func()) error {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() error {
		ready, err := engine.Poll(time.Now())
		if err != nil {
			return err
		}
		if ready {
			onChange()
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := check(); err != nil {
				return err
			}
		case <-engine.Events():
			if err := check(); err != nil {
				return err
			}
		}
	}
}
