package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mlihgenel/cliptrim/internal/isolation"
	"github.com/mlihgenel/cliptrim/internal/logging"
	"github.com/mlihgenel/cliptrim/internal/server"
	"github.com/mlihgenel/cliptrim/internal/thumbnail"
	"github.com/mlihgenel/cliptrim/internal/transcode"
	"github.com/mlihgenel/cliptrim/internal/watch"
)

type previewConfig struct {
	Source  string
	Addr    string
	Opener  thumbnail.Opener
	Options thumbnail.Options
	// Sampler ve Downloads verilirse yenileri oluşturulmaz; TUI oturumunkileri paylaşır.
	Sampler   *thumbnail.Sampler
	Downloads *transcode.Downloads
	// Gate verilirse izolasyon başlıkları dışarıdan yönetilir.
	Gate *isolation.HeaderGate
	// Isolated başlangıçta kırpma rotası için izolasyon başlıklarını açar.
	Isolated bool
	// OnChange kaynak değiştiğinde çağrılır; boşsa örnekleyici yeniden başlatılır.
	OnChange func()
	Logger   *slog.Logger
}

// preview tek bir kaynak için örnekleyici, izleyici ve HTTP sunucusunu bir arada tutar.
type preview struct {
	cfg       previewConfig
	logger    *slog.Logger
	sampler   *thumbnail.Sampler
	ownSample bool
	gate      *isolation.HeaderGate
	downloads *transcode.Downloads
	srv       *server.Server
	watcher   watch.Engine
	served    chan error
}

func newPreview(cfg previewConfig) *preview {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	p := &preview{
		cfg:       cfg,
		logger:    logging.WithComponent(cfg.Logger, "preview"),
		gate:      cfg.Gate,
		sampler:   cfg.Sampler,
		downloads: cfg.Downloads,
		served:    make(chan error, 1),
	}
	if p.gate == nil {
		p.gate = isolation.NewHeaderGate()
	}
	if p.sampler == nil {
		p.sampler = thumbnail.NewSampler(cfg.Opener, cfg.Options, thumbnail.WithLogger(cfg.Logger))
		p.ownSample = true
	}
	if p.downloads == nil {
		p.downloads = transcode.NewDownloads("")
	}
	p.srv = server.New(server.Config{
		Addr:      cfg.Addr,
		Downloads: p.downloads,
		Frames:    func() []thumbnail.Frame { return p.sampler.Snapshot().Frames },
		Status:    p.status,
		Gate:      p.gate,
		Logger:    cfg.Logger,
	})
	return p
}

// Start sunucuyu dinlemeye başlatır, kaynak izleyiciyi kurar ve kendi
// örnekleyicisi varsa örneklemeyi başlatır.
func (p *preview) Start(ctx context.Context) error {
	ln, err := p.srv.Listen()
	if err != nil {
		return err
	}
	p.downloads.SetBaseURL(p.srv.BaseURL())
	go func() { p.served <- p.srv.Serve(ln) }()

	if p.cfg.Isolated {
		mgr := isolation.NewManager(p.gate, nil, false, p.cfg.Logger)
		if _, err := mgr.Sync(isolation.TrimRoute); err != nil {
			p.logger.Warn("izolasyon başlıkları etkinleştirilemedi", "error", err)
		}
	}

	engine, err := watch.NewAdaptiveWatcher(p.cfg.Source, watch.DefaultSettle)
	if err != nil {
		p.logger.Debug("olay tabanlı izleme kullanılamıyor, polling'e geçildi", "error", err)
	}
	if err := engine.Bootstrap(); err != nil {
		_ = engine.Close()
		_ = p.srv.Shutdown(ctx)
		return fmt.Errorf("kaynak izlenemiyor: %w", err)
	}
	p.watcher = engine

	if p.ownSample {
		p.sampler.Start(p.cfg.Source, 0)
	}
	return nil
}

// Watch ctx bitene kadar kaynağı izler.
func (p *preview) Watch(ctx context.Context, interval time.Duration) error {
	onChange := p.cfg.OnChange
	if onChange == nil {
		onChange = p.sampler.Restart
	}
	return watch.Run(ctx, p.watcher, interval, func() {
		p.logger.Info("kaynak değişti, kareler yenileniyor", "source", logging.SanitizePath(p.cfg.Source))
		onChange()
	})
}

func (p *preview) BaseURL() string { return p.srv.BaseURL() }

func (p *preview) status() any {
	snap := p.sampler.Snapshot()
	st := map[string]any{
		"source":     filepath.Base(p.cfg.Source),
		"frames":     len(snap.Frames),
		"running":    snap.Running,
		"generation": snap.Generation,
		"isolated":   p.gate.Registered(),
		"downloads":  p.downloads.Len(),
	}
	if p.watcher != nil {
		st["watch_mode"] = p.watcher.Mode()
	}
	if snap.Err != nil {
		st["error"] = snap.Err.Error()
	}
	return st
}

// Close kendi örnekleyicisini durdurur ve sunucuyu kapatır.
func (p *preview) Close() error {
	if p.ownSample {
		p.sampler.Stop()
	}
	if p.watcher != nil {
		_ = p.watcher.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.srv.Shutdown(ctx)
}
