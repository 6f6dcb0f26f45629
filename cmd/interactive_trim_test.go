package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlihgenel/cliptrim/internal/config"
	"github.com/mlihgenel/cliptrim/internal/isolation"
	"github.com/mlihgenel/cliptrim/internal/logging"
	"github.com/mlihgenel/cliptrim/internal/playback"
	"github.com/mlihgenel/cliptrim/internal/session"
	"github.com/mlihgenel/cliptrim/internal/timeline"
	"github.com/mlihgenel/cliptrim/internal/transcode"
)

type memEngine struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (e *memEngine) Load(context.Context, transcode.Assets) error { return nil }

func (e *memEngine) WriteFile(name string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.files[name] = data
	return nil
}

func (e *memEngine) Exec(_ context.Context, args []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.files[args[len(args)-1]] = []byte("trimmed")
	return nil
}

func (e *memEngine) ReadFile(name string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	data, ok := e.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (e *memEngine) DeleteFile(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.files, name)
	return nil
}

func (e *memEngine) Terminate() error    { return nil }
func (e *memEngine) Logs() <-chan string { return nil }

// 45 sütun genişliğinde çubuk 41 hücredir; Geometry genişliği 40 olur,
// böylece her sütun 2.5 yüzdeye karşılık gelir.
const testWidth = 45

func newTestTrimScreen(t *testing.T, bridge *transcode.Bridge, downloads *transcode.Downloads) (*trimScreen, *playback.Player) {
	t.Helper()
	source := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(source, []byte("src"), 0644); err != nil {
		t.Fatal(err)
	}
	player := playback.NewPlayer(120)
	bus := timeline.NewPointerBus()
	cursor := &tuiCursor{}
	sess := session.New(session.Config{
		Source:   source,
		Duration: 120,
		Debounce: 5 * time.Millisecond,
	}, session.Deps{
		Media:   player,
		Pointer: bus,
		Cursor:  cursor,
		Bridge:  bridge,
	})
	sess.Mount(context.Background())
	screen := newTrimScreenWith(sess, player, bus, cursor, testWidth)
	screen.downloads = downloads
	t.Cleanup(screen.Close)
	return screen, player
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestTrimScreenMouseDragMovesStartHandle(t *testing.T) {
	screen, _ := newTestTrimScreen(t, nil, nil)

	screen.Update(mouse(tea.MouseActionPress, trimBarLeft, trimBarRow))
	if !screen.sess.Drag().Dragging() {
		t.Fatalf("expected drag to start on start handle")
	}
	if screen.cursor.Style() != timeline.CursorResize {
		t.Fatalf("expected resize cursor during drag")
	}
	if screen.bus.Len() != 1 {
		t.Fatalf("expected one pointer listener, got %d", screen.bus.Len())
	}

	// Hareket satırdan bağımsızdır; bırakma çubuk dışında da sürüklemeyi bitirir.
	screen.Update(mouse(tea.MouseActionMotion, trimBarLeft+10, trimBarRow+3))
	if got := screen.sess.Model().Range().Start; got != 25 {
		t.Fatalf("expected start 25%%, got %.2f", got)
	}
	screen.Update(mouse(tea.MouseActionRelease, trimBarLeft+10, 0))

	if screen.sess.Drag().Dragging() || screen.bus.Len() != 0 {
		t.Fatalf("expected drag to end and listener removed")
	}
	if screen.cursor.Style() != timeline.CursorDefault {
		t.Fatalf("expected default cursor after release")
	}

	st := screen.sess.State()
	if st.TrimStartDisplay != "00:30" || st.TrimEndDisplay != "02:00" {
		t.Fatalf("unexpected display: %s - %s", st.TrimStartDisplay, st.TrimEndDisplay)
	}
}

func TestTrimScreenDragRespectsMinGap(t *testing.T) {
	screen, _ := newTestTrimScreen(t, nil, nil)

	endX := trimBarLeft + 40
	screen.Update(mouse(tea.MouseActionPress, endX, trimBarRow))
	if screen.sess.Drag().Session().Active != timeline.HandleEnd {
		t.Fatalf("expected end handle to be active")
	}
	screen.Update(mouse(tea.MouseActionMotion, 0, trimBarRow))
	screen.Update(mouse(tea.MouseActionRelease, 0, trimBarRow))

	if got := screen.sess.Model().Range(); got.End != timeline.DefaultMinGap || got.Start != 0 {
		t.Fatalf("expected end clamped to min gap, got %v", got)
	}
}

func TestTrimScreenIgnoresPressOutsideBar(t *testing.T) {
	screen, _ := newTestTrimScreen(t, nil, nil)

	screen.Update(mouse(tea.MouseActionPress, trimBarLeft, trimBarRow-1))
	if screen.sess.Drag().Dragging() {
		t.Fatalf("press outside the bar must not start a drag")
	}
}

func TestTrimScreenTrackClickSeeksPlayer(t *testing.T) {
	screen, player := newTestTrimScreen(t, nil, nil)

	screen.Update(mouse(tea.MouseActionPress, trimBarLeft+20, trimBarRow))
	if screen.sess.Drag().Dragging() {
		t.Fatalf("track click must not start a drag")
	}
	if !player.Seeking() {
		t.Fatalf("expected seek request")
	}
	player.Advance(time.Now())
	if got := player.CurrentTime(); got != 60 {
		t.Fatalf("expected playhead at 60s, got %.2f", got)
	}
}

func TestTrimScreenKeyboardNudgeAndReset(t *testing.T) {
	screen, _ := newTestTrimScreen(t, nil, nil)

	screen.Update(tea.KeyMsg{Type: tea.KeyRight})
	screen.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := screen.sess.Model().Range().Start; got != 2 {
		t.Fatalf("expected start 2%%, got %.2f", got)
	}

	screen.Update(runeKey(']'))
	screen.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if got := screen.sess.Model().Range().End; got != 99 {
		t.Fatalf("expected end 99%%, got %.2f", got)
	}

	screen.Update(runeKey('r'))
	if got := screen.sess.Model().Range(); got != timeline.FullRange() || screen.sess.Model().Custom() {
		t.Fatalf("expected full range after reset, got %v", got)
	}
}

func TestTrimScreenViewPlacesBarOnMouseRow(t *testing.T) {
	screen, _ := newTestTrimScreen(t, nil, nil)
	screen.sess.Model().MoveHandle(timeline.HandleStart, 25)

	lines := strings.Split(screen.View(), "\n")
	if len(lines) <= trimBarRow {
		t.Fatalf("view too short: %d lines", len(lines))
	}
	bar := lines[trimBarRow]
	if strings.Count(bar, "◆") != 2 {
		t.Fatalf("expected two handles on bar row, got %q", bar)
	}
	if !strings.Contains(bar, "━") || !strings.Contains(bar, "─") {
		t.Fatalf("expected selected and unselected track segments: %q", bar)
	}
	if !strings.Contains(screen.View(), "Başlangıç 00:30") {
		t.Fatalf("expected start label in view")
	}
}

func TestTrimScreenTrimAndSave(t *testing.T) {
	engine := &memEngine{files: make(map[string][]byte)}
	downloads := transcode.NewDownloads("")
	bridge := transcode.NewBridge(engine, transcode.Assets{}, downloads,
		transcode.WithFetcher(func(context.Context, string) ([]byte, error) { return []byte("src"), nil }))
	screen, _ := newTestTrimScreen(t, bridge, downloads)

	deadline := time.Now().Add(2 * time.Second)
	for !screen.sess.Bridge().Enabled() {
		if time.Now().After(deadline) {
			t.Fatalf("engine did not load")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if cmd := screen.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil || !screen.msgErr {
		t.Fatalf("trim must be refused before a range is selected")
	}
	screen.Update(tea.KeyMsg{Type: tea.KeyRight})

	for !screen.sess.State().TrimEnabled {
		if time.Now().After(deadline) {
			t.Fatalf("engine did not load")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cmd := screen.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected trim command")
	}
	done, ok := cmd().(trimDoneMsg)
	if !ok || done.err != nil {
		t.Fatalf("unexpected trim result: %#v", done)
	}
	screen.Update(done)
	if screen.msgErr || !strings.Contains(screen.message, "clip_trim.mp4") {
		t.Fatalf("unexpected message: %q", screen.message)
	}

	save := screen.Update(runeKey('s'))
	if save == nil {
		t.Fatalf("expected save command")
	}
	saved, ok := save().(saveDoneMsg)
	if !ok || saved.err != nil {
		t.Fatalf("unexpected save result: %#v", saved)
	}
	data, err := os.ReadFile(saved.path)
	if err != nil || string(data) != "trimmed" {
		t.Fatalf("unexpected saved output: %q %v", data, err)
	}

	// Başka bir ekrana ait sonuç yok sayılır.
	screen.Update(trimDoneMsg{screen: &trimScreen{}, err: os.ErrClosed})
	if screen.msgErr {
		t.Fatalf("stale result must be ignored")
	}
}

func TestTrimScreenSaveWithoutOutput(t *testing.T) {
	screen, _ := newTestTrimScreen(t, nil, nil)
	if cmd := screen.Update(runeKey('s')); cmd != nil {
		t.Fatalf("expected no save command without output")
	}
	if !screen.msgErr {
		t.Fatalf("expected error message")
	}
}

func TestReloadReleasesDrag(t *testing.T) {
	screen, _ := newTestTrimScreen(t, nil, nil)
	screen.Update(mouse(tea.MouseActionPress, trimBarLeft, trimBarRow))

	m := interactiveModel{state: stateTrim, trim: screen, rt: &tuiRuntime{}}
	next, _ := m.Update(reloadMsg{})
	if next.(interactiveModel).trim.reloads != 1 {
		t.Fatalf("expected one reload")
	}
	if screen.sess.Drag().Dragging() || screen.bus.Len() != 0 {
		t.Fatalf("reload must release a pending drag")
	}
}

func TestScreenRoutes(t *testing.T) {
	if stateTrim.route() != isolation.TrimRoute {
		t.Fatalf("trim screen must map to the trim route")
	}
	for _, s := range []screenState{stateMainMenu, stateFileBrowser, stateRecent, stateDependencies} {
		if s.route() != "/" {
			t.Fatalf("state %d must map to root route", s)
		}
	}
}

func TestNavigateDrivesIsolationManager(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	settings := config.DefaultSettings()
	rt := &tuiRuntime{ctx: ctx, settings: settings, gate: isolation.NewHeaderGate(), routes: make(chan string)}

	var mu sync.Mutex
	reloads := 0
	mgr := isolation.NewManager(rt.gate, isolation.ReloadFunc(func() {
		mu.Lock()
		reloads++
		mu.Unlock()
	}), false, nil)
	go mgr.Follow(ctx, rt.routes)

	rt.navigate(isolation.TrimRoute)()
	rt.navigate(isolation.TrimRoute)()
	rt.navigate("/")()

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := reloads
		mu.Unlock()
		if n == 2 && !rt.gate.Registered() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 2 reloads and unregistered gate, got %d reloads registered=%v", n, rt.gate.Registered())
		}
		time.Sleep(5 * time.Millisecond)
	}

	rt.settings.Isolation = false
	if rt.navigate(isolation.TrimRoute) != nil {
		t.Fatalf("navigate must be a no-op when isolation is disabled")
	}
}

func TestStartIsolationSyncsInitialRoute(t *testing.T) {
	newRuntime := func() *tuiRuntime {
		return &tuiRuntime{
			ctx:      context.Background(),
			settings: config.DefaultSettings(),
			logger:   logging.Discard(),
			gate:     isolation.NewHeaderGate(),
			routes:   make(chan string),
		}
	}

	// Aracı önceden kayıtlıysa ana menüde başlamak kaydı kaldırır.
	rt := newRuntime()
	_ = rt.gate.Register()
	mgr := rt.startIsolation(stateMainMenu)
	if mgr == nil {
		t.Fatalf("expected a manager when isolation is enabled")
	}
	if rt.gate.Registered() || mgr.State().Registered || mgr.State().LastKnownNeeded {
		t.Fatalf("main menu start must leave isolation off: %+v", mgr.State())
	}

	rt = newRuntime()
	mgr = rt.startIsolation(stateTrim)
	if !rt.gate.Registered() || !mgr.State().Registered || !mgr.State().LastKnownNeeded {
		t.Fatalf("trim screen start must register isolation: %+v", mgr.State())
	}

	rt = newRuntime()
	rt.settings.Isolation = false
	if rt.startIsolation(stateTrim) != nil || rt.gate.Registered() {
		t.Fatalf("disabled isolation must not create a manager")
	}
}

func TestMouseIgnoredOutsideTrimScreen(t *testing.T) {
	m := interactiveModel{state: stateMainMenu, rt: &tuiRuntime{}}
	next, cmd := m.Update(mouse(tea.MouseActionPress, 3, trimBarRow))
	if cmd != nil || next.(interactiveModel).state != stateMainMenu {
		t.Fatalf("mouse must be ignored outside the trim screen")
	}
}

func TestBrowserListsOnlyVideos(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp4", "b.txt", ".hidden.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	m := interactiveModel{browserDir: dir}
	m.loadBrowserItems()
	var names []string
	for _, it := range m.browserItems {
		names = append(names, it.name)
	}
	got := strings.Join(names, ",")
	if got != ".. (üst dizin),sub,a.mp4" {
		t.Fatalf("unexpected browser items: %s", got)
	}
}
