// Package tui provides the terminal interface for the focus countdown.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jmylchreest/focusdesk/internal/countdown"
	"github.com/jmylchreest/focusdesk/internal/history"
	"github.com/jmylchreest/focusdesk/internal/output"
	"github.com/jmylchreest/focusdesk/internal/timer"
)

const (
	maxMinutes     = 999
	statusTimeout  = 3 * time.Second
	frameInterval  = time.Second
	historyDelay   = 500 * time.Millisecond
	maxProgressBar = 40
)

// PhaseSource reports the orchestrator phase.
type PhaseSource interface {
	Phase() timer.Phase
}

// AmbientPlayer is the part of the audio engine the ambient cue keys drive.
type AmbientPlayer interface {
	Toggle(cue string)
	IsPlaying() bool
	CurrentCue() (string, bool)
	IsLoaded(cue string) bool
}

// SessionSource lists completed sessions.
type SessionSource interface {
	Load() ([]history.Session, error)
}

// Options configures a Model. Only Store is required.
type Options struct {
	Store   *countdown.Store
	Phases  PhaseSource
	Ambient AmbientPlayer
	Cues    []string
	History SessionSource
	Logger  *slog.Logger
}

// Model is the bubbletea model for the countdown screen.
type Model struct {
	store   *countdown.Store
	phases  PhaseSource
	ambient AmbientPlayer
	history SessionSource
	logger  *slog.Logger

	cues        []string
	cueIdx      int
	lastSession *history.Session

	changes <-chan countdown.ChangeEvent

	keys     KeyMap
	help     help.Model
	showHelp bool

	width  int
	height int
	ready  bool

	statusMsg string
	statusErr bool
}

// New creates a new TUI model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := Model{
		store:   opts.Store,
		phases:  opts.Phases,
		ambient: opts.Ambient,
		history: opts.History,
		logger:  logger,
		cues:    opts.Cues,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}

	if opts.Store != nil {
		m.changes = opts.Store.Subscribe()
	}

	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.watchForChanges,
		m.loadHistory,
		frame(),
	)
}

type changeMsg struct {
	event countdown.ChangeEvent
}

// watchForChanges waits for the next store change.
func (m Model) watchForChanges() tea.Msg {
	if m.changes == nil {
		return nil
	}
	ev, ok := <-m.changes
	if !ok {
		return nil
	}
	return changeMsg{event: ev}
}

type historyMsg struct {
	sessions []history.Session
	err      error
}

func (m Model) loadHistory() tea.Msg {
	if m.history == nil {
		return nil
	}
	sessions, err := m.history.Load()
	return historyMsg{sessions: sessions, err: err}
}

// frameMsg redraws phases that change without a store event, such as the
// end of the completion cue.
type frameMsg struct{}

func frame() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		return m, nil

	case changeMsg:
		cmds := []tea.Cmd{m.watchForChanges}
		if msg.event.Type == countdown.ChangeTypeCompleted {
			cmds = append(cmds,
				status(fmt.Sprintf("%d minute session complete", msg.event.State.SelectedMinutes), false),
				// The session is recorded right after the completing tick
				tea.Tick(historyDelay, func(time.Time) tea.Msg { return m.loadHistory() }),
			)
		}
		return m, tea.Batch(cmds...)

	case historyMsg:
		if msg.err != nil {
			m.logger.Warn("failed to load session history", "error", msg.err)
			return m, nil
		}
		m.lastSession = latest(msg.sessions)
		return m, nil

	case frameMsg:
		return m, frame()

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(statusTimeout, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	return m, nil
}

func latest(sessions []history.Session) *history.Session {
	if len(sessions) == 0 {
		return nil
	}
	sorted := append([]history.Session(nil), sessions...)
	history.SortNewestFirst(sorted)
	return &sorted[0]
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.NextCue):
		return m.nextCue()

	case key.Matches(msg, m.keys.PlayCue):
		return m.toggleCue()
	}

	if m.store == nil {
		return m, nil
	}
	st := m.store.State()
	if !st.IsHydrated {
		return m, status("Still loading the saved countdown", true)
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if st.RemainingSeconds == 0 {
			if st.SelectedMinutes == 0 {
				return m, status("Select a duration first", true)
			}
			// Start a finished countdown over
			m.store.Reset()
		}
		m.store.TogglePause()
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		st = m.store.Reset()
		return m, status(fmt.Sprintf("Reset to %s", output.Clock(st.Projection())), false)

	case key.Matches(msg, m.keys.Increase):
		return m.setDuration(st, min(st.SelectedMinutes+1, maxMinutes))

	case key.Matches(msg, m.keys.Decrease):
		return m.setDuration(st, max(st.SelectedMinutes-1, 1))

	case key.Matches(msg, m.keys.Preset):
		idx := int(msg.String()[0] - '1')
		if idx < 0 || idx >= len(st.AllowedDurations) {
			return m, status(fmt.Sprintf("No preset on %s", msg.String()), true)
		}
		return m.setDuration(st, st.AllowedDurations[idx])

	case key.Matches(msg, m.keys.AddPreset):
		switch {
		case st.SelectedMinutes <= 0:
			return m, status("Select a duration first", true)
		case st.HasPreset(st.SelectedMinutes):
			return m, status(fmt.Sprintf("%d min is already a preset", st.SelectedMinutes), true)
		}
		m.store.AddAllowedDuration(st.SelectedMinutes)
		return m, status(fmt.Sprintf("Added %d min preset", st.SelectedMinutes), false)

	case key.Matches(msg, m.keys.RemovePreset):
		switch {
		case !st.CanChangeDuration():
			return m, status("Pause the countdown to change the presets", true)
		case !st.HasPreset(st.SelectedMinutes):
			return m, status(fmt.Sprintf("%d min is not a preset", st.SelectedMinutes), true)
		}
		m.store.RemoveAllowedDuration(st.SelectedMinutes)
		return m, status(fmt.Sprintf("Removed %d min preset", st.SelectedMinutes), false)
	}

	return m, nil
}

func (m Model) setDuration(st countdown.State, minutes int) (tea.Model, tea.Cmd) {
	if !st.CanChangeDuration() {
		return m, status("Pause the countdown to change the duration", true)
	}
	m.store.SetDuration(minutes)
	return m, nil
}

func (m Model) selectedCue() (string, bool) {
	if len(m.cues) == 0 {
		return "", false
	}
	return m.cues[m.cueIdx], true
}

func (m Model) nextCue() (tea.Model, tea.Cmd) {
	if len(m.cues) == 0 || m.ambient == nil {
		return m, status("No ambient cues configured", true)
	}

	m.cueIdx = (m.cueIdx + 1) % len(m.cues)
	cue := m.cues[m.cueIdx]

	// Switch over if something is already playing
	if m.ambient.IsPlaying() {
		if current, _ := m.ambient.CurrentCue(); current != cue {
			m.ambient.Toggle(cue)
		}
	}
	return m, status("Ambient: "+cue, false)
}

func (m Model) toggleCue() (tea.Model, tea.Cmd) {
	cue, ok := m.selectedCue()
	if !ok || m.ambient == nil {
		return m, status("No ambient cues configured", true)
	}
	if !m.ambient.IsLoaded(cue) {
		return m, status(cue+" is not loaded", true)
	}
	m.ambient.Toggle(cue)
	return m, nil
}

// phase returns the orchestrator phase, or one derived from the store when
// no orchestrator is attached.
func (m Model) phase(st countdown.State) timer.Phase {
	if m.phases != nil {
		return m.phases.Phase()
	}
	switch {
	case !st.IsHydrated:
		return timer.PhaseHydrating
	case st.Running():
		return timer.PhaseRunning
	default:
		return timer.PhaseIdle
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	clockStyle   = lipgloss.NewStyle().Bold(true).Padding(1, 2)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	filledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	doneStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.store == nil {
		return "No countdown store"
	}

	st := m.store.State()
	p := st.Projection()

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("focusdesk") + "\n")

	if p.IsLoading {
		sb.WriteString(clockStyle.Render("--:--") + "\n")
		sb.WriteString(labelStyle.Render("Loading saved countdown...") + "\n")
	} else {
		sb.WriteString(clockStyle.Render(output.Clock(p)) + "\n")
		sb.WriteString(m.renderPhase(st) + "\n")
		sb.WriteString(m.renderProgress(st) + "\n")
		sb.WriteString(renderPresets(st) + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderAmbient() + "\n")
	sb.WriteString(m.renderLastSession() + "\n")
	sb.WriteString("\n")

	switch {
	case m.showHelp:
		m.help.ShowAll = true
		sb.WriteString(m.help.View(m.keys))
	case m.statusMsg != "":
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		sb.WriteString(statusStyle.Render(m.statusMsg))
	default:
		sb.WriteString(m.buildKeybindBar(m.width))
	}

	return sb.String()
}

func (m Model) renderPhase(st countdown.State) string {
	minutes := fmt.Sprintf(" · %d min", st.SelectedMinutes)
	switch m.phase(st) {
	case timer.PhaseCompleted:
		return doneStyle.Render("Time is up") + labelStyle.Render(minutes)
	case timer.PhaseRunning:
		return runningStyle.Render("Running") + labelStyle.Render(minutes)
	case timer.PhaseHydrating:
		return labelStyle.Render("Loading")
	}

	switch {
	case st.RemainingSeconds == 0 && st.SelectedMinutes > 0:
		return labelStyle.Render("Finished" + minutes)
	case st.RemainingSeconds == 0:
		return labelStyle.Render("No duration selected")
	default:
		return pausedStyle.Render("Paused") + labelStyle.Render(minutes)
	}
}

// renderProgress draws the elapsed share of the selected duration.
func (m Model) renderProgress(st countdown.State) string {
	width := maxProgressBar
	if m.width > 0 {
		width = min(width, m.width-8)
	}
	if width <= 0 {
		return ""
	}

	pct := output.Progress(st)
	filled := pct * width / 100
	bar := filledStyle.Render(strings.Repeat("█", filled)) +
		labelStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// renderPresets lists the number-key presets, marking the selected one.
func renderPresets(st countdown.State) string {
	if len(st.AllowedDurations) == 0 {
		return labelStyle.Render("No presets")
	}

	items := make([]string, 0, min(len(st.AllowedDurations), 9))
	for i, d := range st.AllowedDurations {
		if i == 9 {
			break
		}
		item := fmt.Sprintf("%d:%d", i+1, d)
		if d == st.SelectedMinutes {
			items = append(items, runningStyle.Render("["+item+"]"))
			continue
		}
		items = append(items, labelStyle.Render(item))
	}
	return labelStyle.Render("Presets: ") + strings.Join(items, " ")
}

func (m Model) renderAmbient() string {
	cue, ok := m.selectedCue()
	if !ok || m.ambient == nil {
		return labelStyle.Render("Ambient: none")
	}

	state := "stopped"
	switch current, _ := m.ambient.CurrentCue(); {
	case !m.ambient.IsLoaded(cue):
		state = "loading"
	case current == cue && m.ambient.IsPlaying():
		state = "playing"
	}
	return labelStyle.Render("Ambient: ") + cue + labelStyle.Render(" ("+state+")")
}

func (m Model) renderLastSession() string {
	if m.lastSession == nil {
		return labelStyle.Render("No completed sessions yet")
	}
	return labelStyle.Render(fmt.Sprintf("Last session: %d min, %s",
		m.lastSession.Minutes, m.lastSession.RelativeTime()))
}

// keybind represents a single keybind with priority for the status bar.
type keybind struct {
	key      string
	desc     string
	priority int // lower = more important (shown first)
}

// buildKeybindBar builds a keybind bar that fits within the given width,
// measured in terminal cells.
func (m Model) buildKeybindBar(width int) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	binds := []keybind{
		{"space", "start/pause", 1},
		{"q", "quit", 2},
		{"r", "reset", 3},
		{"+/-", "minutes", 4},
		{"↑/↓", "minutes", 4},
		{"?", "help", 5},
		{"1-9", "presets", 6},
		{"m", "ambient", 7},
		{"n", "next cue", 8},
		{"a/x", "edit presets", 9},
	}

	const separator = "  "
	result := ""
	for _, b := range binds {
		item := keyStyle.Render(b.key) + " " + b.desc
		plainItem := b.key + " " + b.desc
		testLen := runewidth.StringWidth(stripANSI(result)) + len(separator) + runewidth.StringWidth(plainItem)

		if width > 0 && testLen > width {
			break
		}
		if result != "" {
			result += separator
		}
		result += item
	}

	return style.Render(result)
}

// stripANSI removes ANSI escape codes for length calculation.
func stripANSI(s string) string {
	result := make([]byte, 0, len(s))
	inEscape := false
	for i := 0; i < len(s); i++ {
		if s[i] == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if s[i] == 'm' {
				inEscape = false
			}
			continue
		}
		result = append(result, s[i])
	}
	return string(result)
}

// RunOptions configures the TUI.
type RunOptions struct {
	Options
}

// Run starts the TUI and blocks until it exits or ctx is done.
func Run(ctx context.Context, opts RunOptions) error {
	m := New(opts.Options)
	defer func() {
		if m.changes != nil {
			opts.Store.Unsubscribe(m.changes)
		}
	}()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
