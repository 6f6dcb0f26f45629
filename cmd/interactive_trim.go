package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mlihgenel/cliptrim/internal/logging"
	"github.com/mlihgenel/cliptrim/internal/playback"
	"github.com/mlihgenel/cliptrim/internal/session"
	"github.com/mlihgenel/cliptrim/internal/timeline"
	"github.com/mlihgenel/cliptrim/internal/toolchain"
	"github.com/mlihgenel/cliptrim/internal/transcode"
)

const (
	// trimBarRow zaman çizelgesi çubuğunun ekrandaki satırı (0 tabanlı).
	trimBarRow = 7
	// trimBarLeft çubuğun başladığı sütun.
	trimBarLeft = 2
	// handleTolerance bir tıklamanın tutamaca ait sayılacağı sütun mesafesi.
	handleTolerance = 1.5
	minBarWidth     = 20
)

var (
	trackStyle    = lipgloss.NewStyle().Foreground(dimTextColor)
	selectedStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	handleStyle   = lipgloss.NewStyle().Foreground(secondaryColor).Bold(true)
	activeStyle   = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
)

type trimDoneMsg struct {
	screen *trimScreen
	ref    transcode.DownloadRef
	err    error
}

type saveDoneMsg struct {
	screen *trimScreen
	path   string
	err    error
}

// tuiCursor sürükleme sırasında imleç biçimini tutar; görünümde gösterilir.
type tuiCursor struct {
	style atomic.Int32
}

func (c *tuiCursor) SetCursor(s timeline.CursorStyle) { c.style.Store(int32(s)) }

func (c *tuiCursor) Style() timeline.CursorStyle { return timeline.CursorStyle(c.style.Load()) }

// trimScreen tek bir klibin kırpma ekranıdır. Ekran kapanınca oturum da kapanır.
type trimScreen struct {
	rt        *tuiRuntime
	source    string
	sess      *session.Session
	player    *playback.Player
	bus       *timeline.PointerBus
	cursor    *tuiCursor
	downloads *transcode.Downloads
	preview   *preview
	ctx       context.Context
	cancel    context.CancelFunc

	width    int
	barWidth int
	selected timeline.Handle
	message  string
	msgErr   bool
	reloads  int
}

func newTrimScreen(rt *tuiRuntime, source string, duration float64, width int) *trimScreen {
	ctx, cancel := context.WithCancel(rt.ctx)
	logger := logging.WithComponent(rt.logger, "tui")

	t := &trimScreen{
		rt:       rt,
		source:   source,
		player:   playback.NewPlayer(duration),
		bus:      timeline.NewPointerBus(),
		cursor:   &tuiCursor{},
		ctx:      ctx,
		cancel:   cancel,
		selected: timeline.HandleStart,
	}

	bridge, downloads := newBridge(rt.assets, "", rt.logger)
	t.downloads = downloads
	t.sess = session.New(session.Config{
		Source:        source,
		Duration:      duration,
		TotalFrames:   rt.settings.TotalFrames,
		MinGapPercent: rt.settings.MinGapPercent,
		SeekTimeout:   rt.settings.SeekTimeout,
		OnRangeChange: func(r timeline.Range) {
			logger.Debug("aralık değişti", "range", r.String())
		},
	}, session.Deps{
		Media:    t.player,
		Pointer:  t.bus,
		Cursor:   t.cursor,
		Opener:   newOpener(rt.assets, rt.assetErr),
		Bridge:   bridge,
		Logger:   rt.logger,
		OnUpdate: rt.notify,
	})
	t.resize(width)
	t.sess.Mount(ctx)

	t.preview = newPreview(previewConfig{
		Source:    source,
		Addr:      rt.settings.ListenAddr,
		Sampler:   t.sess.Sampler(),
		Downloads: downloads,
		Gate:      rt.gate,
		OnChange:  t.sourceChanged,
		Logger:    rt.logger,
	})
	if err := t.preview.Start(ctx); err != nil {
		logger.Warn("önizleme sunucusu başlatılamadı", "error", err)
		t.preview = nil
	} else {
		go func() {
			if err := t.preview.Watch(ctx, 500*time.Millisecond); err != nil {
				logger.Warn("kaynak izleme durdu", "error", err)
			}
		}()
	}
	return t
}

// newTrimScreenWith testler ve önceden kurulmuş oturumlar için kullanılır.
func newTrimScreenWith(sess *session.Session, player *playback.Player, bus *timeline.PointerBus, cursor *tuiCursor, width int) *trimScreen {
	t := &trimScreen{
		source:   sess.Source(),
		sess:     sess,
		player:   player,
		bus:      bus,
		cursor:   cursor,
		ctx:      context.Background(),
		cancel:   func() {},
		selected: timeline.HandleStart,
	}
	t.resize(width)
	return t
}

// sourceChanged kaynak dosya diskte değiştiğinde süreyi yeniden okur.
func (t *trimScreen) sourceChanged() {
	if t.rt == nil || t.rt.assetErr != nil {
		t.sess.RefreshThumbnails()
		return
	}
	ctx, cancel := context.WithTimeout(t.rt.ctx, 15*time.Second)
	defer cancel()
	d, err := toolchain.ProbeDuration(ctx, t.rt.assets.Core, t.source)
	if err != nil || d == t.sess.Model().Duration() {
		t.sess.RefreshThumbnails()
		return
	}
	t.player.Load(d)
	t.sess.SetDuration(d)
}

func (t *trimScreen) resize(width int) {
	t.width = width
	t.barWidth = max(width-2*trimBarLeft, minBarWidth)
	t.sess.Drag().SetGeometry(timeline.Geometry{Left: trimBarLeft, Width: float64(t.barWidth - 1)})
}

// reload izolasyon geçişinden sonra ekranı yeniden kurar: yarım kalan
// sürükleme bırakılır ve yerleşim yeniden hesaplanır.
func (t *trimScreen) reload() {
	t.reloads++
	t.sess.Drag().Release()
	t.resize(t.width)
}

func (t *trimScreen) Close() {
	t.cancel()
	if t.preview != nil {
		_ = t.preview.Close()
	}
	_ = t.sess.Close()
}

func (t *trimScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		t.handleMouse(msg)

	case tea.KeyMsg:
		return t.handleKey(msg)

	case trimDoneMsg:
		if msg.screen != t {
			return nil
		}
		if msg.err != nil {
			t.setMessage(msg.err.Error(), true)
		} else {
			t.setMessage(fmt.Sprintf("Kırpma hazır: %s (s ile kaydet)", msg.ref.Name), false)
		}

	case saveDoneMsg:
		if msg.screen != t {
			return nil
		}
		if msg.err != nil {
			t.setMessage(msg.err.Error(), true)
		} else {
			t.setMessage("Kaydedildi: "+shortenPath(msg.path), false)
		}
	}
	return nil
}

func (t *trimScreen) handleMouse(msg tea.MouseMsg) {
	x := float64(msg.X)
	drag := t.sess.Drag()

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || msg.Y != trimBarRow {
			return
		}
		h := drag.HandleAt(x, handleTolerance)
		if h == timeline.HandleNone {
			// Tutamaç dışındaki tıklama oynatma konumunu değiştirir.
			p := drag.Geometry().Percent(x)
			t.player.Seek(timeline.PercentToSeconds(p, t.sess.Model().Duration()))
			return
		}
		if drag.Press(h, x) {
			t.selected = h
		}

	case tea.MouseActionMotion:
		if drag.Dragging() {
			t.bus.Dispatch(timeline.PointerEvent{Kind: timeline.PointerMove, X: x})
		}

	case tea.MouseActionRelease:
		t.bus.Dispatch(timeline.PointerEvent{Kind: timeline.PointerUp, X: x})
	}
}

func (t *trimScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	model := t.sess.Model()
	step := 1.0
	switch msg.String() {
	case "tab":
		if t.selected == timeline.HandleStart {
			t.selected = timeline.HandleEnd
		} else {
			t.selected = timeline.HandleStart
		}
	case "[":
		t.selected = timeline.HandleStart
	case "]":
		t.selected = timeline.HandleEnd
	case "left", "h", "shift+left":
		if msg.String() == "shift+left" {
			step = 5
		}
		t.nudge(model, -step)
	case "right", "l", "shift+right":
		if msg.String() == "shift+right" {
			step = 5
		}
		t.nudge(model, step)
	case " ":
		if t.player.Paused() {
			if err := t.player.Play(); err != nil {
				t.setMessage(err.Error(), true)
			}
		} else {
			t.player.Pause()
		}
	case "r":
		t.sess.ResetRange()
		t.setMessage("Aralık sıfırlandı", false)
	case "enter", "t":
		return t.trimCmd()
	case "s":
		return t.saveCmd()
	}
	return nil
}

func (t *trimScreen) nudge(model *timeline.Model, delta float64) {
	r := model.Range()
	switch t.selected {
	case timeline.HandleStart:
		model.MoveHandle(timeline.HandleStart, r.Start+delta)
	case timeline.HandleEnd:
		model.MoveHandle(timeline.HandleEnd, r.End+delta)
	}
}

func (t *trimScreen) trimCmd() tea.Cmd {
	st := t.sess.State()
	if !st.TrimEnabled {
		switch {
		case st.EngineError != "":
			t.setMessage("Kırpma devre dışı: "+st.EngineError, true)
		case !st.RangeIsCustom:
			t.setMessage(session.ErrRangeNotSelected.Error(), true)
		}
		return nil
	}
	t.setMessage("", false)
	sess, ctx := t.sess, t.ctx
	return func() tea.Msg {
		ref, err := sess.Trim(ctx)
		return trimDoneMsg{screen: t, ref: ref, err: err}
	}
}

func (t *trimScreen) saveCmd() tea.Cmd {
	st := t.sess.State()
	if st.DownloadRef == nil || t.downloads == nil {
		t.setMessage("Kaydedilecek kırpma çıktısı yok", true)
		return nil
	}
	ref := *st.DownloadRef
	dir := filepath.Dir(t.source)
	if t.rt != nil {
		dir = resolveOutputDir(t.source, t.rt.settings)
	}
	downloads := t.downloads
	return func() tea.Msg {
		path, err := downloads.Save(ref.ID, dir)
		return saveDoneMsg{screen: t, path: path, err: err}
	}
}

func (t *trimScreen) setMessage(msg string, isErr bool) {
	t.message = msg
	t.msgErr = isErr
}

// ========================================
// Görünüm
// ========================================

func (t *trimScreen) View() string {
	st := t.sess.State()
	duration := t.sess.Model().Duration()

	lines := make([]string, 0, 20)
	lines = append(lines,
		"",
		menuTitleStyle.Render(" ✂️  Video Kırp "),
		"",
		"  🎬 "+pathStyle.Render(filepath.Base(t.source)),
		"  "+t.statusLine(st, duration),
		"",
		t.renderFilmstrip(st, duration),
		t.renderBar(st.TrimRange),
		t.renderPlayhead(st.Playback, duration),
		t.renderLabels(st),
		"",
	)

	lines = append(lines, t.renderJob(st)...)
	if t.message != "" {
		style := successStyle
		if t.msgErr {
			style = errorStyle
		}
		lines = append(lines, "  "+style.Render(t.message))
	}
	lines = append(lines,
		"",
		dimStyle.Render("  Fare: tutamaçları sürükle, çubuğa tıklayıp konum seç"),
		dimStyle.Render("  ←→ Tutamacı kaydır  •  Tab/[ ] Tutamaç seç  •  Boşluk Oynat/Duraklat"),
		dimStyle.Render("  r Sıfırla  •  Enter Kırp  •  s Kaydet  •  Esc Geri"),
	)
	return strings.Join(lines, "\n") + "\n"
}

func (t *trimScreen) statusLine(st session.State, duration float64) string {
	parts := []string{fmt.Sprintf("⏱  %s", timeline.FormatDisplay(duration))}
	if st.Playback.Playing {
		parts = append(parts, successStyle.Render("▶ oynatılıyor"))
	} else {
		parts = append(parts, dimStyle.Render("⏸ duraklatıldı"))
	}
	switch {
	case st.EngineError != "":
		parts = append(parts, errorStyle.Render("motor: devre dışı"))
	case st.EngineLoading:
		parts = append(parts, infoStyle.Render("motor: yükleniyor..."))
	default:
		parts = append(parts, successStyle.Render("motor: hazır"))
	}
	if t.rt != nil && t.rt.gate.Registered() {
		parts = append(parts, dimStyle.Render("izole"))
	}
	if t.cursor.Style() == timeline.CursorResize {
		parts = append(parts, activeStyle.Render("↔"))
	}
	return strings.Join(parts, "  •  ")
}

// cellFor yüzdeyi çubuk hücresine çevirir; Geometry ile aynı ölçeği kullanır.
func (t *trimScreen) cellFor(p float64) int {
	if t.barWidth <= 1 {
		return 0
	}
	cell := int(timeline.Clamp(p, 0, 100)/100*float64(t.barWidth-1) + 0.5)
	return min(max(cell, 0), t.barWidth-1)
}

func (t *trimScreen) renderBar(r timeline.Range) string {
	startCell, endCell := t.cellFor(r.Start), t.cellFor(r.End)
	active := t.sess.Drag().Session().Active

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", trimBarLeft))
	for i := 0; i < t.barWidth; i++ {
		switch {
		case i == startCell && (active == timeline.HandleStart || (active == timeline.HandleNone && t.selected == timeline.HandleStart)):
			b.WriteString(activeStyle.Render("◆"))
		case i == endCell && (active == timeline.HandleEnd || (active == timeline.HandleNone && t.selected == timeline.HandleEnd)):
			b.WriteString(activeStyle.Render("◆"))
		case i == startCell || i == endCell:
			b.WriteString(handleStyle.Render("◆"))
		case i > startCell && i < endCell:
			b.WriteString(selectedStyle.Render("━"))
		default:
			b.WriteString(trackStyle.Render("─"))
		}
	}
	return b.String()
}

func (t *trimScreen) renderFilmstrip(st session.State, duration float64) string {
	row := []rune(strings.Repeat(" ", t.barWidth))
	for _, f := range st.Frames {
		row[t.cellFor(timeline.SecondsToPercent(f.Timestamp, duration))] = '▮'
	}
	label := ""
	switch {
	case st.ThumbnailError != "":
		label = errorStyle.Render("önizleme yok")
	case st.ThumbnailsLoading:
		label = infoStyle.Render("kareler çıkarılıyor...")
	}
	return strings.Repeat(" ", trimBarLeft) + dimStyle.Render(string(row)) + " " + label
}

func (t *trimScreen) renderPlayhead(pb playback.State, duration float64) string {
	row := []rune(strings.Repeat(" ", t.barWidth))
	row[t.cellFor(timeline.SecondsToPercent(pb.CurrentTime, duration))] = '▲'
	return strings.Repeat(" ", trimBarLeft) + infoStyle.Render(string(row))
}

func (t *trimScreen) renderLabels(st session.State) string {
	left := fmt.Sprintf("Başlangıç %s", st.TrimStartDisplay)
	right := fmt.Sprintf("Bitiş %s", st.TrimEndDisplay)
	gap := max(t.barWidth-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return strings.Repeat(" ", trimBarLeft) + left + strings.Repeat(" ", gap) + right
}

func (t *trimScreen) renderJob(st session.State) []string {
	var lines []string
	switch {
	case st.ProcessingTrim:
		lines = append(lines, "  "+infoStyle.Render("Kırpılıyor..."))
	case st.TrimError != "":
		lines = append(lines, "  "+errorStyle.Render("❌ "+st.TrimError))
	case st.DownloadRef != nil:
		lines = append(lines, "  "+successStyle.Render(fmt.Sprintf("⬇ %s (%s)", st.DownloadRef.Name, humanSize(st.DownloadRef.Size))))
		if strings.HasPrefix(st.DownloadRef.URL, "http") {
			lines = append(lines, "  "+dimStyle.Render(st.DownloadRef.URL))
		}
	}
	if st.EngineError != "" {
		lines = append(lines, "  "+errorStyle.Render("Kırpma devre dışı: "+st.EngineError))
	}
	if st.ThumbnailError != "" {
		lines = append(lines, "  "+dimStyle.Render("Önizleme: "+st.ThumbnailError))
	}
	return lines
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
