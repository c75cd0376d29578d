// Package tui provides the BubbleTea-based countdown interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jmylchreest/tim/internal/config"
	"github.com/jmylchreest/tim/internal/history"
	"github.com/jmylchreest/tim/internal/notify"
	"github.com/jmylchreest/tim/internal/timer"
)

const (
	statusTimeout = 3 * time.Second
	notifyTimeout = 5 * time.Second

	fallbackDuration = 10 * time.Minute
	fallbackStep     = 5 * time.Second
)

// Audio is the sound side of a countdown: background noise while running and
// a chime on completion.
type Audio interface {
	StartNoise() error
	StopNoise()
	NoiseRunning() bool
	PlayChime() error
	HasChime() bool
	UpdateConfig(cfg *config.Config)
}

// Recorder stores completed sessions.
type Recorder interface {
	Append(s history.Session) error
}

// Options configures a Model.
type Options struct {
	Config   *config.Config
	Audio    Audio         // nil runs silently
	Notifier notify.Sender // nil disables notifications
	History  Recorder      // nil disables history
	Logger   *slog.Logger
	Duration time.Duration // Overrides the configured default when > 0
	Now      func() time.Time
}

// Model is the main TUI model.
type Model struct {
	cfg      *config.Config
	audio    Audio
	notifier notify.Sender
	history  Recorder
	logger   *slog.Logger
	now      func() time.Time

	help help.Model
	keys KeyMap

	countdown   timer.Countdown
	step        time.Duration
	showSeconds bool
	noiseWanted bool

	// Session in progress; zero when idle
	startedAt time.Time
	length    time.Duration

	width  int
	height int

	statusMsg string
	statusErr bool
}

type tickMsg time.Time

// ConfigReloadMsg carries a configuration reloaded from disk.
type ConfigReloadMsg struct {
	Config *config.Config
}

type completedMsg struct {
	err error
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

// silent stands in when no audio output could be opened.
type silent struct{}

func (silent) StartNoise() error             { return nil }
func (silent) StopNoise()                    {}
func (silent) NoiseRunning() bool            { return false }
func (silent) PlayChime() error              { return nil }
func (silent) HasChime() bool                { return false }
func (silent) UpdateConfig(_ *config.Config) {}

// New creates a new TUI model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := opts.Audio
	if a == nil {
		a = silent{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	d := opts.Duration
	if d <= 0 {
		var err error
		if d, err = cfg.Timer.DefaultDuration(); err != nil {
			d = fallbackDuration
		}
	}

	m := Model{
		cfg:         cfg,
		audio:       a,
		notifier:    opts.Notifier,
		history:     opts.History,
		logger:      logger,
		now:         now,
		help:        help.New(),
		keys:        DefaultKeyMap(),
		showSeconds: cfg.Timer.ShowSeconds,
		noiseWanted: cfg.Noise.Enabled,
	}
	m.countdown.Set(d)
	m.step = stepFor(cfg)

	return m
}

func stepFor(cfg *config.Config) time.Duration {
	step, err := cfg.Timer.StepDuration()
	if err != nil || step <= 0 {
		return fallbackStep
	}
	return step
}

// Init starts the tick loop and sets the window title.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.title())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) title() tea.Cmd {
	return tea.SetWindowTitle(m.countdown.Label())
}

func setStatus(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Countdown returns the current countdown state.
func (m Model) Countdown() timer.Countdown {
	return m.countdown
}

// Status returns the status line text and whether it reports an error.
func (m Model) Status() (string, bool) {
	return m.statusMsg, m.statusErr
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if m.countdown.Tick() {
			return m.complete()
		}
		if m.countdown.Running {
			return m, tea.Batch(tick(), m.title())
		}
		return m, tick()

	case completedMsg:
		if msg.err != nil {
			m.logger.Warn("completion side effects failed", "error", msg.err)
			return m, setStatus("Timer complete: "+msg.err.Error(), true)
		}
		return m, setStatus("Timer complete", false)

	case ConfigReloadMsg:
		if msg.Config == nil {
			return m, nil
		}
		m.cfg = msg.Config
		m.audio.UpdateConfig(msg.Config)
		m.step = stepFor(msg.Config)
		m.showSeconds = msg.Config.Timer.ShowSeconds
		m.noiseWanted = msg.Config.Noise.Enabled
		m.logger.Debug("config reloaded")
		return m, setStatus("Config reloaded", false)

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

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.audio.StopNoise()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		m.countdown.Toggle()
		if !m.countdown.Running {
			m.audio.StopNoise()
			return m, m.title()
		}
		if m.startedAt.IsZero() {
			m.startedAt = m.now()
			m.length = m.countdown.Remaining()
		}
		return m, tea.Batch(m.title(), m.startNoise())

	case key.Matches(msg, m.keys.Reset):
		m.countdown.Reset()
		m.audio.StopNoise()
		m.startedAt = time.Time{}
		m.length = 0
		return m, m.title()

	case key.Matches(msg, m.keys.Digit):
		if len(msg.Runes) == 1 {
			m.countdown.Input(msg.Runes[0])
		}
		return m, m.title()

	case key.Matches(msg, m.keys.Up):
		return m.adjust(m.step)

	case key.Matches(msg, m.keys.Down):
		return m.adjust(-m.step)

	case key.Matches(msg, m.keys.ShowSeconds):
		m.showSeconds = !m.showSeconds
		return m, nil

	case key.Matches(msg, m.keys.Noise):
		m.noiseWanted = !m.noiseWanted
		if !m.countdown.Running {
			return m, nil
		}
		if !m.noiseWanted {
			m.audio.StopNoise()
			return m, nil
		}
		return m, m.startNoise()
	}

	return m, nil
}

func (m Model) adjust(delta time.Duration) (tea.Model, tea.Cmd) {
	m.countdown.Adjust(delta)
	if !m.startedAt.IsZero() {
		m.length = max(m.length+delta, 0)
	}
	return m, m.title()
}

// startNoise starts background noise. Failure is reported on the status line
// and never stops the countdown.
func (m Model) startNoise() tea.Cmd {
	if !m.noiseWanted {
		return nil
	}
	if err := m.audio.StartNoise(); err != nil {
		m.logger.Warn("noise unavailable", "error", err)
		return setStatus("Noise unavailable: "+err.Error(), true)
	}
	return nil
}

// complete ends the session and runs the completion side effects off the
// update loop.
func (m Model) complete() (tea.Model, tea.Cmd) {
	noise := m.audio.NoiseRunning()
	m.audio.StopNoise()

	startedAt, length := m.startedAt, m.length
	if startedAt.IsZero() {
		startedAt = m.now()
	}
	m.startedAt = time.Time{}
	m.length = 0

	return m, tea.Batch(tick(), m.title(), m.finish(startedAt, length, noise))
}

func (m Model) finish(startedAt time.Time, length time.Duration, noise bool) tea.Cmd {
	cfg := m.cfg
	a, notifier, rec, now := m.audio, m.notifier, m.history, m.now

	return func() tea.Msg {
		var errs []error

		chime := a.HasChime()
		if chime {
			if err := a.PlayChime(); err != nil {
				errs = append(errs, fmt.Errorf("chime: %w", err))
			}
		}

		if cfg.Notification.Enabled && notifier != nil {
			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			_, err := notifier.Notify(ctx, notify.Completion(cfg.Notification, chime))
			cancel()
			if err != nil {
				errs = append(errs, fmt.Errorf("notification: %w", err))
			}
		}

		if cfg.History.Enabled && rec != nil {
			s, err := history.NewSession(length, startedAt, now(), noise)
			if err == nil {
				err = rec.Append(*s)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("history: %w", err))
			}
		}

		return completedMsg{err: errors.Join(errs...)}
	}
}

// clockText renders the countdown, with or without the seconds column.
func (m Model) clockText() string {
	if m.showSeconds {
		return m.countdown.Label()
	}
	if m.countdown.Hours > 0 {
		return fmt.Sprintf("%dh %02dm", m.countdown.Hours, m.countdown.Minutes)
	}
	return fmt.Sprintf("%02dm", m.countdown.Minutes)
}

// View renders the TUI.
func (m Model) View() string {
	clockStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(1, 4).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Foreground(lipgloss.Color("7"))
	if m.countdown.Running {
		clockStyle = clockStyle.
			BorderForeground(lipgloss.Color("12")).
			Foreground(lipgloss.Color("10"))
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	state := "paused"
	switch {
	case m.countdown.Running:
		state = "running"
	case m.countdown.Buffer() != "":
		state = "set " + m.countdown.Buffer()
	}
	if m.noiseWanted {
		if m.audio.NoiseRunning() {
			state += "  ♪ brown noise"
		} else {
			state += "  ♪ off"
		}
	}

	var footer string
	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		footer = statusStyle.Render(m.statusMsg)
	} else {
		footer = m.help.View(m.keys)
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		clockStyle.Render(m.clockText()),
		dimStyle.Render(state),
		"",
		footer,
	)

	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// RunOptions configures the TUI.
type RunOptions struct {
	Options
	ConfigPath string // Path to watch for changes (empty = no watching)
}

// Run starts the TUI with the given options and blocks until it exits.
func Run(opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := New(opts.Options)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if opts.ConfigPath != "" {
		w, err := config.NewWatcher(opts.ConfigPath, func(cfg *config.Config) {
			p.Send(ConfigReloadMsg{Config: cfg})
		}, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else if err := w.Start(); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		} else {
			defer func() { _ = w.Stop() }()
		}
	}

	_, err := p.Run()

	// Quit already stops noise; this covers signals and program errors.
	m.audio.StopNoise()

	return err
}
