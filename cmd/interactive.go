package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mlihgenel/cliptrim/internal/config"
	"github.com/mlihgenel/cliptrim/internal/isolation"
	"github.com/mlihgenel/cliptrim/internal/toolchain"
	"github.com/mlihgenel/cliptrim/internal/transcode"
	"github.com/mlihgenel/cliptrim/internal/ui"
)

// ========================================
// Renk Paleti ve Stiller
// ========================================

var (
	primaryColor   = lipgloss.Color("#7C3AED") // Mor
	secondaryColor = lipgloss.Color("#06B6D4") // Cyan
	accentColor    = lipgloss.Color("#10B981") // Yeşil
	warningColor   = lipgloss.Color("#F59E0B") // Sarı
	dangerColor    = lipgloss.Color("#EF4444") // Kırmızı
	textColor      = lipgloss.Color("#E2E8F0") // Açık gri
	dimTextColor   = lipgloss.Color("#64748B") // Koyu gri

	gradientColors = []lipgloss.Color{
		"#818CF8", "#A78BFA", "#C084FC", "#E879F9", "#F472B6",
	}

	menuTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 2)

	selectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(secondaryColor).
				PaddingLeft(2)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(textColor).
			PaddingLeft(4)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimTextColor)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(dangerColor)

	infoStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	pathStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	folderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warningColor)

	spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
)

// ========================================
// State Machine
// ========================================

type screenState int

const (
	stateMainMenu screenState = iota
	stateFileBrowser
	stateRecent
	stateLoadingClip
	stateTrim
	stateDependencies
)

// route ekranın adres karşılığıdır; izolasyon kararı buna göre verilir.
func (s screenState) route() string {
	if s == stateTrim {
		return isolation.TrimRoute
	}
	return "/"
}

// ========================================
// Çalışma zamanı
// ========================================

// tuiRuntime model kopyaları arasında paylaşılan uzun ömürlü bağımlılıklardır.
type tuiRuntime struct {
	ctx      context.Context
	settings config.Settings
	assets   transcode.Assets
	assetErr error
	logger   *slog.Logger
	gate     *isolation.HeaderGate
	routes   chan string
	updates  chan struct{}

	mu      sync.Mutex
	program *tea.Program
}

func newTUIRuntime(ctx context.Context, s config.Settings, logger *slog.Logger) *tuiRuntime {
	assets, err := resolveAssets(s)
	return &tuiRuntime{
		ctx:      ctx,
		settings: s,
		assets:   assets,
		assetErr: err,
		logger:   logger,
		gate:     isolation.NewHeaderGate(),
		routes:   make(chan string),
		updates:  make(chan struct{}, 1),
	}
}

// send başka goroutine'lerden gelen bildirimleri programa iletir.
func (rt *tuiRuntime) send(msg tea.Msg) {
	rt.mu.Lock()
	p := rt.program
	rt.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// notify oturum güncellemesini bildirir. Update içinden de çağrılabilir;
// bekleyen bir bildirim varsa yenisi birleştirilir.
func (rt *tuiRuntime) notify() {
	select {
	case rt.updates <- struct{}{}:
	default:
	}
}

func (rt *tuiRuntime) attach(p *tea.Program) {
	rt.mu.Lock()
	rt.program = p
	rt.mu.Unlock()

	go func() {
		for {
			select {
			case <-rt.ctx.Done():
				return
			case <-rt.updates:
				p.Send(sessionUpdateMsg{})
			}
		}
	}()
}

// startIsolation izolasyon yöneticisini aracının gerçek durumuyla kurar ve
// başlangıç ekranının rotasına göre eşitler. İzolasyon kapalıysa nil döner.
func (rt *tuiRuntime) startIsolation(initial screenState) *isolation.Manager {
	if !rt.settings.Isolation {
		return nil
	}
	mgr := isolation.NewManager(rt.gate, isolation.ReloadFunc(func() { rt.send(reloadMsg{}) }), rt.gate.Registered(), rt.logger)
	if _, err := mgr.Sync(initial.route()); err != nil {
		rt.logger.Warn("başlangıç izolasyon durumu uygulanamadı", "error", err)
	}
	return mgr
}

// navigate rota değişimini izolasyon yöneticisine iletir.
func (rt *tuiRuntime) navigate(route string) tea.Cmd {
	if !rt.settings.Isolation {
		return nil
	}
	return func() tea.Msg {
		select {
		case rt.routes <- route:
		case <-rt.ctx.Done():
		}
		return nil
	}
}

// ========================================
// Model
// ========================================

type interactiveModel struct {
	rt     *tuiRuntime
	state  screenState
	cursor int

	choices     []string
	choiceIcons []string
	choiceDescs []string

	browserDir   string
	browserItems []browserEntry
	recent       []string

	dependencies []toolchain.ExternalTool

	trim        *trimScreen
	loadingPath string
	resultMsg   string
	resultErr   bool

	spinnerIdx  int
	spinnerTick int

	width  int
	height int

	quitting bool
}

type browserEntry struct {
	name  string
	path  string
	isDir bool
}

// Mesajlar
type clipLoadedMsg struct {
	path     string
	duration float64
	err      error
}

type tickMsg time.Time

// reloadMsg izolasyon durumu değişince aktif ekranın yeniden kurulmasını ister.
type reloadMsg struct{}

// sessionUpdateMsg oturum durumu arka planda değiştiğinde gelir.
type sessionUpdateMsg struct{}

func newInteractiveModel(rt *tuiRuntime) interactiveModel {
	dir := strings.TrimSpace(rt.settings.OutputDir)
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		} else {
			dir = getHomeDir()
		}
	}

	return interactiveModel{
		rt:    rt,
		state: stateMainMenu,
		choices: []string{
			"Video Kırp",
			"Son Klipler",
			"Sistem Kontrolü",
			"Çıkış",
		},
		choiceIcons: []string{"✂️", "🕘", "🔧", "👋"},
		choiceDescs: []string{
			"Bir video seç, aralığı fareyle sürükleyerek belirle ve kes",
			"Son açılan kliplere hızlıca dön",
			"FFmpeg ve FFprobe durumunu gör",
			"Uygulamadan çık",
		},
		browserDir: dir,
		width:      80,
		height:     24,
	}
}

// ========================================
// bubbletea Interface
// ========================================

func (m interactiveModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.trim != nil {
			m.trim.resize(msg.Width)
		}
		return m, nil

	case tickMsg:
		m.spinnerTick++
		m.spinnerIdx = m.spinnerTick % len(spinnerFrames)
		if m.trim != nil {
			m.trim.player.Advance(time.Time(msg))
		}
		return m, tickCmd()

	case clipLoadedMsg:
		if m.state != stateLoadingClip || msg.path != m.loadingPath {
			return m, nil
		}
		if msg.err != nil {
			m.resultMsg = msg.err.Error()
			m.resultErr = true
			m.state = stateFileBrowser
			m.loadBrowserItems()
			return m, nil
		}
		m.trim = newTrimScreen(m.rt, msg.path, msg.duration, m.width)
		_ = config.AddRecentClip(msg.path)
		m.state = stateTrim
		return m, m.rt.navigate(m.state.route())

	case reloadMsg:
		if m.trim != nil {
			m.trim.reload()
		}
		return m, nil

	case sessionUpdateMsg, trimDoneMsg, saveDoneMsg:
		if m.trim != nil {
			return m, m.trim.Update(msg)
		}
		return m, nil

	case tea.MouseMsg:
		if m.state == stateTrim && m.trim != nil {
			return m, m.trim.Update(msg)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			m.closeTrim()
			return m, tea.Quit
		}

		if m.state == stateTrim && m.trim != nil {
			switch msg.String() {
			case "esc", "q":
				m.closeTrim()
				m.state = stateFileBrowser
				m.cursor = 0
				m.loadBrowserItems()
				return m, m.rt.navigate(m.state.route())
			}
			return m, m.trim.Update(msg)
		}

		switch msg.String() {
		case "q":
			if m.state == stateMainMenu {
				m.quitting = true
				return m, tea.Quit
			}
			return m.goToMainMenu(), nil

		case "esc":
			return m.goBack(), nil

		case "backspace":
			if m.state == stateFileBrowser {
				if parent := filepath.Dir(m.browserDir); parent != m.browserDir {
					m.browserDir = parent
					m.cursor = 0
					m.loadBrowserItems()
				}
			}

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if max := m.getMaxCursor(); m.cursor < max {
				m.cursor++
			}

		case "enter":
			return m.handleEnter()
		}
	}

	return m, nil
}

func (m interactiveModel) getMaxCursor() int {
	switch m.state {
	case stateMainMenu:
		return len(m.choices) - 1
	case stateFileBrowser:
		return len(m.browserItems) - 1
	case stateRecent:
		return len(m.recent) - 1
	}
	return 0
}

func (m interactiveModel) View() string {
	if m.quitting {
		return gradientText("  Görüşmek üzere!", gradientColors) + "\n\n"
	}

	switch m.state {
	case stateMainMenu:
		return m.viewMainMenu()
	case stateFileBrowser:
		return m.viewFileBrowser()
	case stateRecent:
		return m.viewRecent()
	case stateLoadingClip:
		return m.viewLoading()
	case stateTrim:
		if m.trim != nil {
			return m.trim.View()
		}
	case stateDependencies:
		return m.viewDependencies()
	}
	return ""
}

func (m interactiveModel) viewMainMenu() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + gradientText("ClipTrim", gradientColors))
	b.WriteString("\n")
	b.WriteString(dimStyle.Italic(true).Render(fmt.Sprintf("  v%s  •  yerel video kırpma", appVersion)))
	b.WriteString("\n\n")

	for i, choice := range m.choices {
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render(fmt.Sprintf("▸ %s  %s", m.choiceIcons[i], choice)))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().PaddingLeft(7).Foreground(dimTextColor).Italic(true).Render(m.choiceDescs[i]))
		} else {
			b.WriteString(normalItemStyle.Render(fmt.Sprintf("  %s  %s", m.choiceIcons[i], choice)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  ↑↓ Gezin  •  Enter Seç  •  q Çıkış"))
	b.WriteString("\n")
	return b.String()
}

func (m interactiveModel) viewFileBrowser() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(menuTitleStyle.Render(" ✂️  Video Seçin "))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("  📁 " + shortenPath(m.browserDir)))
	b.WriteString("\n\n")

	if m.resultMsg != "" && m.resultErr {
		b.WriteString(errorStyle.Render("  ❌ " + m.resultMsg))
		b.WriteString("\n\n")
	}

	if len(m.browserItems) == 0 {
		b.WriteString(dimStyle.Render("  Bu dizinde video dosyası yok"))
		b.WriteString("\n")
	}

	start, end := visibleWindow(m.cursor, len(m.browserItems), m.height-10)
	for i := start; i < end; i++ {
		item := m.browserItems[i]
		label := "🎬 " + item.name
		if item.isDir {
			label = folderStyle.Render("📁 " + item.name)
		}
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render("▸ " + label))
		} else {
			b.WriteString(normalItemStyle.Render("  " + label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  ↑↓ Gezin  •  Enter Aç  •  ⌫ Üst dizin  •  Esc Geri"))
	b.WriteString("\n")
	return b.String()
}

func (m interactiveModel) viewRecent() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(menuTitleStyle.Render(" 🕘 Son Klipler "))
	b.WriteString("\n\n")
	if len(m.recent) == 0 {
		b.WriteString(dimStyle.Render("  Henüz açılmış klip yok"))
		b.WriteString("\n")
	}
	for i, path := range m.recent {
		line := fmt.Sprintf("%s  %s", filepath.Base(path), dimStyle.Render(shortenPath(filepath.Dir(path))))
		if i == m.cursor {
			b.WriteString(selectedItemStyle.Render("▸ " + line))
		} else {
			b.WriteString(normalItemStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Enter Aç  •  Esc Geri"))
	b.WriteString("\n")
	return b.String()
}

func (m interactiveModel) viewLoading() string {
	spinner := lipgloss.NewStyle().Bold(true).Foreground(secondaryColor).Render(spinnerFrames[m.spinnerIdx])
	return fmt.Sprintf("\n  %s %s %s\n", spinner, infoStyle.Render("Video açılıyor:"), pathStyle.Render(filepath.Base(m.loadingPath)))
}

func (m interactiveModel) viewDependencies() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(menuTitleStyle.Render(" 🔧 Sistem Kontrolü "))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("  %-10s %-10s %-40s %s", "ARAÇ", "DURUM", "YOL", "SÜRÜM")))
	b.WriteString("\n")
	for _, row := range doctorRows(m.dependencies) {
		style := successStyle
		if strings.Contains(row[1], "Eksik") {
			style = errorStyle
		}
		b.WriteString(fmt.Sprintf("  %-10s %s %-40s %s\n", row[0], style.Render(fmt.Sprintf("%-10s", row[1])), row[2], dimStyle.Render(row[3])))
	}
	b.WriteString("\n")
	if missing := missingTools(m.dependencies); len(missing) > 0 {
		info := toolchain.GetInstallInfo("ffmpeg")
		b.WriteString(errorStyle.Render("  Kırpma ve önizleme devre dışı kalacak."))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  Kurulum: " + info.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Esc Geri"))
	b.WriteString("\n")
	return b.String()
}

// ========================================
// Geçişler
// ========================================

func (m interactiveModel) handleEnter() (tea.Model, tea.Cmd) {
	switch m.state {
	case stateMainMenu:
		switch m.cursor {
		case 0:
			m.state = stateFileBrowser
			m.cursor = 0
			m.resultMsg = ""
			m.loadBrowserItems()
		case 1:
			m.recent = config.RecentClips()
			m.state = stateRecent
			m.cursor = 0
		case 2:
			m.dependencies = toolchain.CheckDependencies(m.rt.ctx, m.rt.settings.FFmpegPath, m.rt.settings.FFprobePath)
			m.state = stateDependencies
			m.cursor = 0
		case 3:
			m.quitting = true
			return m, tea.Quit
		}

	case stateFileBrowser:
		if m.cursor < 0 || m.cursor >= len(m.browserItems) {
			return m, nil
		}
		item := m.browserItems[m.cursor]
		if item.isDir {
			m.browserDir = item.path
			m.cursor = 0
			m.loadBrowserItems()
			return m, nil
		}
		return m.openClip(item.path)

	case stateRecent:
		if m.cursor < 0 || m.cursor >= len(m.recent) {
			return m, nil
		}
		return m.openClip(m.recent[m.cursor])
	}
	return m, nil
}

func (m interactiveModel) openClip(path string) (tea.Model, tea.Cmd) {
	m.state = stateLoadingClip
	m.loadingPath = path
	m.resultMsg = ""
	return m, probeClipCmd(m.rt, path)
}

// probeClipCmd klibin süresini arka planda okur.
func probeClipCmd(rt *tuiRuntime, path string) tea.Cmd {
	return func() tea.Msg {
		if rt.assetErr != nil {
			return clipLoadedMsg{path: path, err: rt.assetErr}
		}
		ctx, cancel := context.WithTimeout(rt.ctx, 15*time.Second)
		defer cancel()
		d, err := toolchain.ProbeDuration(ctx, rt.assets.Core, path)
		if err != nil {
			return clipLoadedMsg{path: path, err: fmt.Errorf("video süresi okunamadı: %w", err)}
		}
		return clipLoadedMsg{path: path, duration: d}
	}
}

func (m *interactiveModel) closeTrim() {
	if m.trim != nil {
		m.trim.Close()
		m.trim = nil
	}
}

func (m interactiveModel) goToMainMenu() interactiveModel {
	m.closeTrim()
	m.state = stateMainMenu
	m.cursor = 0
	m.resultMsg = ""
	m.resultErr = false
	return m
}

// goBack bir önceki ekrana döner. Tarayıcıda "backspace" üst dizine çıkar.
func (m interactiveModel) goBack() interactiveModel {
	return m.goToMainMenu()
}

func (m *interactiveModel) loadBrowserItems() {
	m.browserItems = nil

	entries, err := os.ReadDir(m.browserDir)
	if err != nil {
		return
	}

	parent := filepath.Dir(m.browserDir)
	if parent != m.browserDir {
		m.browserItems = append(m.browserItems, browserEntry{
			name:  ".. (üst dizin)",
			path:  parent,
			isDir: true,
		})
	}

	var dirs, files []browserEntry
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue // Gizli dosyaları atla
		}
		fullPath := filepath.Join(m.browserDir, e.Name())
		if e.IsDir() {
			dirs = append(dirs, browserEntry{name: e.Name(), path: fullPath, isDir: true})
		} else if ui.IsVideoFile(e.Name()) {
			files = append(files, browserEntry{name: e.Name(), path: fullPath})
		}
	}

	// Önce klasörler, sonra dosyalar
	m.browserItems = append(m.browserItems, dirs...)
	m.browserItems = append(m.browserItems, files...)
}

// ========================================
// Yardımcı fonksiyonlar
// ========================================

func visibleWindow(cursor, total, size int) (int, int) {
	if size < 5 {
		size = 5
	}
	if total <= size {
		return 0, total
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	end := start + size
	if end > total {
		end = total
		start = end - size
	}
	return start, end
}

func getHomeDir() string {
	u, err := user.Current()
	if err != nil {
		return "/"
	}
	return u.HomeDir
}

func shortenPath(path string) string {
	home := getHomeDir()
	if home != "/" && strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}

func gradientText(text string, colors []lipgloss.Color) string {
	if len(colors) == 0 {
		return text
	}
	runes := []rune(text)
	var result strings.Builder
	for i, r := range runes {
		style := lipgloss.NewStyle().Bold(true).Foreground(colors[i%len(colors)])
		result.WriteString(style.Render(string(r)))
	}
	return result.String()
}

// RunInteractive interaktif arayüzü başlatır. Loglar dosyaya yazılır.
func RunInteractive(s config.Settings) error {
	logger, closer := newInteractiveLogger(s)
	defer closer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := newTUIRuntime(ctx, s, logger)
	if rt.assetErr != nil {
		logger.Warn("motor varlıkları eksik", "error", rt.assetErr)
	}
	model := newInteractiveModel(rt)
	if mgr := rt.startIsolation(model.state); mgr != nil {
		go mgr.Follow(ctx, rt.routes)
	}

	if config.IsFirstRun() {
		_ = config.MarkFirstRunDone()
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	rt.attach(p)
	final, err := p.Run()
	if fm, ok := final.(interactiveModel); ok {
		fm.closeTrim()
	}
	return err
}
