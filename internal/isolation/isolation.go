// Package isolation dönüştürme motorunun ihtiyaç duyduğu cross-origin
// izolasyon başlıklarını aktif ekrana göre açar ve kapatır.
package isolation

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/mlihgenel/cliptrim/internal/logging"
	"github.com/mlihgenel/cliptrim/internal/metrics"
)

// TrimRoute kırpma ekranının rotasıdır.
const TrimRoute = "/video-trim"

// State izolasyon aracısının bilinen durumudur.
type State struct {
	Registered      bool
	LastKnownNeeded bool
}

// Action bir geçişin sonucunda yapılacak iştir.
type Action int

const (
	ActionNone Action = iota
	ActionRegister
	ActionUnregister
)

func (a Action) String() string {
	switch a {
	case ActionRegister:
		return "register"
	case ActionUnregister:
		return "unregister"
	default:
		return "none"
	}
}

// Decide mevcut durum ve ihtiyaca göre yeni durumu ve yapılacak işi döner.
// Yan etkisizdir. ActionNone dışındaki her iş tam olarak bir yeniden yükleme gerektirir.
func Decide(current State, needed bool) (State, Action) {
	next := State{Registered: current.Registered, LastKnownNeeded: needed}
	switch {
	case needed && !current.Registered:
		next.Registered = true
		return next, ActionRegister
	case !needed && current.Registered:
		next.Registered = false
		return next, ActionUnregister
	default:
		return next, ActionNone
	}
}

// NeedsIsolation yalnızca kırpma ekranı için true döner.
func NeedsIsolation(route string) bool {
	route = strings.TrimRight(route, "/")
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	return route == TrimRoute || strings.HasPrefix(route, TrimRoute+"/")
}

// Registrar izolasyon aracısıdır.
type Registrar interface {
	Register() error
	Unregister() error
}

// Reloader aktif ekranı yeniden kurar.
type Reloader interface {
	Reload()
}

// ReloadFunc düz bir fonksiyonu Reloader olarak kullanır.
type ReloadFunc func()

func (f ReloadFunc) Reload() { f() }

// Manager rota değişimlerini izleyip Decide sonucunu uygular.
type Manager struct {
	mu        sync.Mutex
	state     State
	registrar Registrar
	reloader  Reloader
	logger    *slog.Logger
}

// NewManager başlangıç durumuyla bir Manager oluşturur; registered aracının
// gerçek durumudur.
func NewManager(registrar Registrar, reloader Reloader, registered bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		state:     State{Registered: registered},
		registrar: registrar,
		reloader:  reloader,
		logger:    logging.WithComponent(logger, "isolation"),
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Sync rotaya göre geçişi uygular ve yapılan işi döner. Aracı hata verirse
// durum değişmez ve yeniden yükleme yapılmaz.
func (m *Manager) Sync(route string) (Action, error) {
	needed := NeedsIsolation(route)

	m.mu.Lock()
	next, action := Decide(m.state, needed)
	var err error
	switch action {
	case ActionRegister:
		err = m.registrar.Register()
	case ActionUnregister:
		err = m.registrar.Unregister()
	}
	if err != nil {
		m.state.LastKnownNeeded = needed
		m.mu.Unlock()
		m.logger.Warn("izolasyon geçişi başarısız", "action", action.String(), "route", route, "error", err)
		return ActionNone, err
	}
	m.state = next
	m.mu.Unlock()

	if action != ActionNone {
		metrics.IsolationTransitionsTotal.WithLabelValues(action.String()).Inc()
		m.logger.Info("izolasyon durumu değişti", "action", action.String(), "route", route)
		if m.reloader != nil {
			m.reloader.Reload()
		}
	}
	return action, nil
}

// Follow rota kanalını kapanana veya ctx bitene kadar izler.
func (m *Manager) Follow(ctx context.Context, routes <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case route, ok := <-routes:
			if !ok {
				return
			}
			_, _ = m.Sync(route)
		}
	}
}
