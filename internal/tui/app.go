// Package tui provides the interactive Bubble Tea dashboard for azcost.
package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/azcost/internal/cli"
	"github.com/theirongolddev/azcost/internal/model"
	"github.com/theirongolddev/azcost/internal/pipeline"
	"github.com/theirongolddev/azcost/internal/source"
	"github.com/theirongolddev/azcost/internal/tui/components"
	"github.com/theirongolddev/azcost/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DataLoadedMsg is sent when the data pipeline finishes, successfully or not.
type DataLoadedMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports bytes parsed so far.
type ProgressMsg struct {
	Current int64
	Total   int64
}

type appState int

const (
	stateFilePrompt appState = iota
	stateLoading
	stateReady
	stateError
)

// Options configures the dashboard.
type Options struct {
	// File is loaded at startup. When empty the dashboard asks for one.
	File         string
	ParseOptions source.ParseOptions
	Pipeline     pipeline.Options
	// TopN limits the overview's service and group lists.
	TopN int
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	state    appState
	file     string
	summary  model.DashboardSummary
	loaded   bool // a summary has been shown at least once
	loadErr  error
	loadTime time.Duration

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	scroll    int

	// File prompt (huh form). filePath is heap-allocated because the
	// form keeps the pointer across App copies.
	fileForm  *huh.Form
	filePath  *string
	lastState appState

	// Loading: channel-based progress subscription
	spinner     spinner.Model
	progress    int64
	progressMax int64
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	defaultTopN      = 5
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		opts:     opts,
		spinner:  sp,
		loadSub:  make(chan tea.Msg, 1),
		filePath: new(string),
	}

	if opts.File != "" {
		a.state = stateLoading
		a.file = opts.File
	} else {
		a.openFilePrompt()
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion}
	switch a.state {
	case stateLoading:
		cmds = append(cmds, loadDataCmd(a.file, a.opts, a.loadSub), a.spinner.Tick)
	case stateFilePrompt:
		cmds = append(cmds, a.fileForm.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.fileForm != nil {
			a.fileForm = a.fileForm.WithWidth(formWidth(msg.Width))
		}
		return a, nil

	case tea.MouseMsg:
		if a.state != stateReady || a.showHelp {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.scrollBy(-1)
		case tea.MouseButtonWheelDown:
			a.scrollBy(1)
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.switchTab(tab)
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.state == stateFilePrompt {
			return a.updateFileForm(msg)
		}
		return a.updateKeys(msg)

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case DataLoadedMsg:
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			a.state = stateError
			a.loadErr = msg.Err
			return a, nil
		}
		a.state = stateReady
		a.loadErr = nil
		a.summary = msg.Result.Summary
		a.loaded = true
		a.scroll = 0
		return a, nil

	case spinner.TickMsg:
		if a.state == stateLoading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the file prompt (cursor blinks, etc.)
	if a.state == stateFilePrompt && a.fileForm != nil {
		return a.updateFileForm(msg)
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.state == stateLoading {
		if key == "q" {
			return a, tea.Quit
		}
		return a, nil
	}

	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "?":
		a.showHelp = true
		return a, nil
	case "u":
		a.openFilePrompt()
		return a, a.fileForm.Init()
	case "r":
		if a.file != "" {
			return a.startLoad(a.file)
		}
		return a, nil
	}

	if a.state != stateReady {
		return a, nil
	}

	switch key {
	case "left", "shift+tab":
		a.switchTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
	case "right", "tab":
		a.switchTab((a.activeTab + 1) % len(components.Tabs))
	case "j", "down":
		a.scrollBy(1)
	case "k", "up":
		a.scrollBy(-1)
	case "pgdown", "ctrl+d":
		a.scrollBy(a.halfPage())
	case "pgup", "ctrl+u":
		a.scrollBy(-a.halfPage())
	case "home":
		a.scroll = 0
	default:
		if len(key) == 1 {
			if tab := components.TabIdxByKey(rune(key[0])); tab >= 0 {
				a.switchTab(tab)
			}
		}
	}
	return a, nil
}

func (a *App) switchTab(tab int) {
	if tab != a.activeTab {
		a.activeTab = tab
		a.scroll = 0
	}
}

func (a *App) scrollBy(n int) {
	a.scroll += n
	if a.scroll < 0 {
		a.scroll = 0
	}
	if limit := a.scrollLimit(); a.scroll > limit {
		a.scroll = limit
	}
}

// scrollLimit is the largest useful offset for the active tab's list.
func (a App) scrollLimit() int {
	var n int
	switch a.activeTab {
	case 1:
		n = len(a.summary.ServiceBreakdown)
	case 2:
		n = len(a.summary.ResourceGroupCosts)
	case 3:
		n = len(a.summary.Recommendations)
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

func (a App) halfPage() int {
	h := (a.height - 6) / 2
	if h < 1 {
		h = 1
	}
	return h
}

func (a *App) openFilePrompt() {
	a.lastState = a.state
	a.state = stateFilePrompt
	*a.filePath = a.file
	a.fileForm = newFileForm(a.filePath)
	if a.width > 0 {
		a.fileForm = a.fileForm.WithWidth(formWidth(a.width))
	}
}

func (a App) updateFileForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" && a.loaded {
		a.fileForm = nil
		a.state = a.lastState
		return a, nil
	}

	form, cmd := a.fileForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.fileForm = f
	}

	switch a.fileForm.State {
	case huh.StateCompleted:
		a.fileForm = nil
		return a.startLoad(strings.TrimSpace(*a.filePath))
	case huh.StateAborted:
		a.fileForm = nil
		if !a.loaded && a.lastState != stateError {
			return a, tea.Quit
		}
		a.state = a.lastState
		return a, nil
	}
	return a, cmd
}

func (a App) startLoad(path string) (tea.Model, tea.Cmd) {
	a.file = path
	a.state = stateLoading
	a.progress = 0
	a.progressMax = 0
	a.loadSub = make(chan tea.Msg, 1)
	return a, tea.Batch(loadDataCmd(path, a.opts, a.loadSub), a.spinner.Tick)
}

func newFileForm(path *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Azure cost export").
				Description("Path to a billing CSV file").
				Placeholder("costs.csv").
				Value(path).
				Validate(validateCSVPath),
		),
	).WithShowHelp(true)
}

func validateCSVPath(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("enter a file path")
	}
	info, err := os.Stat(s)
	if err != nil {
		return fmt.Errorf("cannot open %s", s)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", s)
	}
	return nil
}

func formWidth(termWidth int) int {
	w := termWidth - 10
	if w > 70 {
		w = 70
	}
	if w < 30 {
		w = 30
	}
	return w
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	switch a.state {
	case stateFilePrompt:
		return a.viewFilePrompt()
	case stateLoading:
		return a.viewLoading()
	case stateError:
		return a.viewError()
	}

	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  azcost needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) centeredCard(body string, accent lipgloss.Color) string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Background(t.Surface).
		Padding(1, 3).
		Render(body)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) logo() string {
	t := theme.Active
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	return logoStyle.Render("◈ azcost") + subStyle.Render(" · Azure Cost Dashboard")
}

func (a App) viewFilePrompt() string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(a.logo())
	b.WriteString("\n\n")
	b.WriteString(a.fileForm.View())
	if a.loaded {
		b.WriteString("\n")
		b.WriteString(dim.Render("esc to return to the dashboard"))
	}
	return a.centeredCard(b.String(), t.BorderAccent)
}

func (a App) viewLoading() string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	count := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(a.logo())
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(muted.Render(" Parsing " + filepath.Base(a.file)))

	if a.progressMax > 0 {
		barW := 40
		if barW > a.width-30 {
			barW = a.width - 30
		}
		if barW < 20 {
			barW = 20
		}
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString("\n\n")
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(count.Render(cli.FormatBytes(a.progress)))
		b.WriteString(muted.Render(" / "))
		b.WriteString(count.Render(cli.FormatBytes(a.progressMax)))
	}

	return a.centeredCard(b.String(), t.BorderAccent)
}

func (a App) viewError() string {
	t := theme.Active
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	msgStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(formWidth(a.width))
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dim := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(a.logo())
	b.WriteString("\n\n")
	b.WriteString(errStyle.Render("Could not load " + filepath.Base(a.file)))
	b.WriteString("\n\n")
	b.WriteString(msgStyle.Render(pipeline.UserMessage(a.loadErr)))
	b.WriteString("\n\n")
	b.WriteString(keyStyle.Render("u") + dim.Render(" choose another file  "))
	b.WriteString(keyStyle.Render("r") + dim.Render(" retry  "))
	b.WriteString(keyStyle.Render("q") + dim.Render(" quit"))

	return a.centeredCard(b.String(), t.Red)
}

func (a App) viewHelp() string {
	t := theme.Active
	title := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	section := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	desc := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(title.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	groups := []struct {
		name     string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o s g a", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Scroll lists"},
			{"^d ^u", "Half-page scroll"},
		}},
		{"Actions", [][2]string{
			{"u", "Load another CSV file"},
			{"r", "Reload the current file"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(section.Render(g.name))
		b.WriteString("\n")
		for _, bind := range g.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-8s", bind[0])),
				desc.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("Press any key to close"))

	return a.centeredCard(b.String(), t.BorderAccent)
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w) + "\n" + a.renderFilterLine(w)

	statusBar := components.RenderStatusBar(w, filepath.Base(a.file), fmt.Sprintf("%.1fs", a.loadTime.Seconds()))

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case 0:
		content = a.renderOverviewTab(cw)
	case 1:
		content = a.renderShareTab("Cost by Service", "Service", a.summary.ServiceBreakdown, cw, contentH)
	case 2:
		content = a.renderShareTab("Cost by Resource Group", "Resource Group", a.summary.ResourceGroupCosts, cw, contentH)
	case 3:
		content = a.renderAdviceTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderFilterLine shows the period and any active filters.
func (a App) renderFilterLine(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	k := a.summary.KPIs
	line := dim.Render(" ")
	if k.PeriodStart != "" {
		line += accent.Render(k.PeriodStart + " → " + k.PeriodEnd)
	} else {
		line += dim.Render("no dated records")
	}

	o := a.opts.Pipeline
	add := func(label, v string) {
		if v != "" {
			line += dim.Render(" │ "+label+" ") + accent.Render(v)
		}
	}
	if !o.Since.IsZero() {
		add("since", o.Since.Format(model.DayLayout))
	}
	if !o.Until.IsZero() {
		add("until", o.Until.Format(model.DayLayout))
	}
	add("service", o.Service)
	add("group", o.ResourceGroup)

	return lipgloss.NewStyle().Background(t.Surface).Width(w).Render(line)
}

// loadDataCmd starts the pipeline in a background goroutine. It streams
// ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(path string, opts Options, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking send: a full channel drops the update and the
			// next one catches up.
			progressFn := func(current, total int64) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			res, err := pipeline.Load(path, opts.ParseOptions, opts.Pipeline, progressFn)
			sub <- DataLoadedMsg{Result: res, Err: err, LoadTime: time.Since(start)}
		}()

		// Block until the first message (either ProgressMsg or DataLoadedMsg)
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
