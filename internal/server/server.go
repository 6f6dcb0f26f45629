// Package server önizleme karelerini, kırpma çıktılarını ve metrikleri
// yerel HTTP üzerinden sunar.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mlihgenel/cliptrim/internal/isolation"
	"github.com/mlihgenel/cliptrim/internal/logging"
	"github.com/mlihgenel/cliptrim/internal/thumbnail"
	"github.com/mlihgenel/cliptrim/internal/transcode"
)

// Config sunucu bağımlılıkları. Frames ve Status nil olabilir.
type Config struct {
	Addr      string
	Downloads *transcode.Downloads
	Frames    func() []thumbnail.Frame
	Status    func() any
	Gate      *isolation.HeaderGate
	Logger    *slog.Logger
	StartTime time.Time
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	addr       string
}

// New yönlendiriciyi kurar.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	cfg.Logger = logging.WithComponent(cfg.Logger, "server")
	if cfg.StartTime.IsZero() {
		cfg.StartTime = time.Now()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: cfg.Logger,
		addr:   cfg.Addr,
	}
}

// NewRouter tüm rotaları içeren chi yönlendiricisini döner.
func NewRouter(cfg Config) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	if cfg.Gate != nil {
		r.Use(cfg.Gate.Middleware)
	}

	r.Get("/healthz", healthHandler(cfg))
	r.Get("/status", statusHandler(cfg))
	r.Get("/downloads/{id}", downloadHandler(cfg))
	r.Get("/thumbs/{index}", thumbHandler(cfg))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func healthHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{
			"status":         "ok",
			"uptime_seconds": int(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func statusHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Status == nil {
			WriteError(w, http.StatusNotFound, "aktif oturum yok", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Status())
	}
}

func downloadHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Downloads == nil {
			WriteError(w, http.StatusNotFound, "indirme bulunamadı", "NOT_FOUND")
			return
		}
		ref, data, err := cfg.Downloads.Get(chi.URLParam(r, "id"))
		if errors.Is(err, transcode.ErrDownloadNotFound) {
			WriteError(w, http.StatusNotFound, "indirme bulunamadı", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		ctype := mime.TypeByExtension(filepath.Ext(ref.Name))
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ctype)
		w.Header().Set("Content-Length", strconv.FormatInt(ref.Size, 10))
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": ref.Name}))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func thumbHandler(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil || index < 0 {
			WriteError(w, http.StatusBadRequest, "geçersiz kare numarası", "BAD_REQUEST")
			return
		}
		var frames []thumbnail.Frame
		if cfg.Frames != nil {
			frames = cfg.Frames()
		}
		if index >= len(frames) {
			WriteError(w, http.StatusNotFound, "kare bulunamadı", "NOT_FOUND")
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(frames[index].Image)
	}
}

// Listen adrese bağlanır ve gerçek adresi döner; ":0" ile boş bir port seçilir.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, fmt.Errorf("sunucu başlatılamadı: %w", err)
	}
	s.addr = ln.Addr().String()
	return ln, nil
}

// Serve dinleyici kapanana kadar istekleri sunar.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("HTTP sunucusu başladı", "addr", s.addr)
	err := s.httpServer.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP sunucusu kapatılıyor")
	return s.httpServer.Shutdown(ctx)
}

// Addr Listen sonrası gerçek adresi döner.
func (s *Server) Addr() string { return s.addr }

// BaseURL indirme bağlantıları için kök adres.
func (s *Server) BaseURL() string { return "http://" + s.addr }
