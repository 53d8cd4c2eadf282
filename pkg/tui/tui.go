// Package tui provides a terminal monitor for a connected Launchkey
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/launchkeyctl/pkg/history"
	"github.com/james-see/launchkeyctl/pkg/layout"
	"github.com/james-see/launchkeyctl/pkg/message"
	"github.com/james-see/launchkeyctl/pkg/state"
	"github.com/james-see/launchkeyctl/pkg/surface"
)

// Acid-inspired color scheme
var (
	acidGreen  = lipgloss.Color("#39FF14")
	acidYellow = lipgloss.Color("#FFFF00")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#333333")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(acidGreen).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(silverGray)

	activeStyle = lipgloss.NewStyle().
			Foreground(acidGreen).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	statusStyle = lipgloss.NewStyle().
			Foreground(acidYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(acidGreen).
			Padding(0, 1)
)

const (
	historyRows = 10
	eventBuffer = 256
)

type stateMsg state.Snapshot

type historyMsg history.Entry

// resultMsg reports the outcome of a device action
type resultMsg struct {
	text string
	err  error
}

// feed carries surface events into the program. It outlives Model copies.
type feed struct {
	events chan tea.Msg
	unsub  []func()
}

func (f *feed) push(msg tea.Msg) {
	select {
	case f.events <- msg:
	default:
	}
}

func (f *feed) close() {
	for _, fn := range f.unsub {
		fn()
	}
	f.unsub = nil
}

// Model represents the monitor
type Model struct {
	surface *surface.Surface
	feed    *feed
	spinner spinner.Model

	snap    state.Snapshot
	status  surface.Status
	entries []history.Entry
	busy    bool
	notice  string
	err     error
	width   int
	height  int
}

// New creates a monitor subscribed to s. Call Close when done.
func New(s *surface.Surface) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(acidGreen)

	f := &feed{events: make(chan tea.Msg, eventBuffer)}
	f.unsub = append(f.unsub,
		s.SubscribeState(func(snap state.Snapshot) { f.push(stateMsg(snap)) }),
		s.History().Subscribe(func(e history.Entry) { f.push(historyMsg(e)) }),
	)

	return Model{
		surface: s,
		feed:    f,
		spinner: sp,
		snap:    s.State().Snapshot(),
		status:  s.Status(),
		entries: s.History().Entries(historyRows),
	}
}

// Close detaches the monitor from the surface
func (m Model) Close() {
	m.feed.close()
}

// Init starts the spinner and the event pump
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait())
}

func (m Model) wait() tea.Cmd {
	events := m.feed.events
	return func() tea.Msg {
		return <-events
	}
}

// Update handles monitor updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case stateMsg:
		m.snap = state.Snapshot(msg)
		m.status = m.surface.Status()
		return m, m.wait()

	case historyMsg:
		m.entries = append([]history.Entry{history.Entry(msg)}, m.entries...)
		if len(m.entries) > historyRows {
			m.entries = m.entries[:historyRows]
		}
		return m, m.wait()

	case resultMsg:
		m.busy = false
		m.notice = msg.text
		m.err = msg.err
		m.status = m.surface.Status()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "q" || msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.busy {
		return m, nil
	}

	var cmd tea.Cmd
	switch msg.String() {
	case "c":
		cmd = m.toggleConnection()
	case "m":
		cmd = m.nextMode()
	case "s":
		cmd = m.run(func(ctx context.Context) (string, error) {
			n, err := m.surface.Sync(ctx)
			return fmt.Sprintf("synced %d messages", n), err
		})
	case "p":
		cmd = m.toggleClock()
	case "l":
		enabled := !m.surface.History().Enabled()
		m.surface.SetLogging(enabled)
		m.status = m.surface.Status()
		m.notice = fmt.Sprintf("logging %s", onOff(enabled))
		return m, nil
	case "t":
		enabled := !m.surface.Throttling()
		m.surface.SetThrottling(enabled)
		m.status = m.surface.Status()
		m.notice = fmt.Sprintf("throttling %s", onOff(enabled))
		return m, nil
	case "x":
		m.surface.History().Clear()
		m.entries = nil
		return m, nil
	}
	if cmd == nil {
		return m, nil
	}
	m.busy = true
	m.err = nil
	return m, cmd
}

func (m Model) run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	return func() tea.Msg {
		text, err := fn(context.Background())
		return resultMsg{text: text, err: err}
	}
}

func (m Model) toggleConnection() tea.Cmd {
	if m.surface.Connected() {
		return m.run(func(ctx context.Context) (string, error) {
			_, err := m.surface.Disconnect(ctx)
			return "disconnected", err
		})
	}
	return m.run(func(ctx context.Context) (string, error) {
		n, err := m.surface.Connect(ctx)
		return fmt.Sprintf("connected, %d messages sent", n), err
	})
}

func (m Model) nextMode() tea.Cmd {
	next := layout.Modes[0]
	for i, mode := range layout.Modes {
		if mode == m.snap.Mode {
			next = layout.Modes[(i+1)%len(layout.Modes)]
		}
	}
	return m.run(func(ctx context.Context) (string, error) {
		_, err := m.surface.SetMode(ctx, next)
		return fmt.Sprintf("mode %s", next), err
	})
}

func (m Model) toggleClock() tea.Cmd {
	if m.surface.Clock().Running() {
		return m.run(func(context.Context) (string, error) {
			return "clock stopped", m.surface.StopClock()
		})
	}
	return m.run(func(context.Context) (string, error) {
		err := m.surface.StartClock(0)
		return fmt.Sprintf("clock started at %d BPM", m.surface.Clock().BPM()), err
	})
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// View renders the monitor
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" LAUNCHKEY MONITOR "))
	s.WriteString("\n")
	s.WriteString(m.viewStatus())
	s.WriteString("\n")
	s.WriteString(boxStyle.Render(m.viewDevice()))
	s.WriteString("\n")
	s.WriteString(boxStyle.Render(m.viewHistory()))
	s.WriteString("\n")

	switch {
	case m.busy:
		s.WriteString(fmt.Sprintf("%s working...", m.spinner.View()))
	case m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s", m.err)))
	case m.notice != "":
		s.WriteString(statusStyle.Render(m.notice))
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("c: connect • m: mode • s: sync • p: clock • l: logging • t: throttle • x: clear • q: quit"))

	return s.String()
}

func (m Model) viewStatus() string {
	st := m.status
	link := idleStyle.Render("disconnected")
	if st.Connected {
		link = activeStyle.Render("connected")
	}
	if !st.Available {
		link = errorStyle.Render("MIDI unavailable")
	}
	clk := idleStyle.Render(fmt.Sprintf("clock stopped (%d BPM)", st.Clock.BPM))
	if st.Clock.Running {
		clk = activeStyle.Render(fmt.Sprintf("%s clock %d BPM", m.spinner.View(), st.Clock.RunningBPM))
	}
	return fmt.Sprintf("%s  %s  %s  %s\n%s",
		link,
		labelStyle.Render("mode "+m.snap.Mode.String()),
		labelStyle.Render("out "+orNone(st.Selection.Output)),
		clk,
		labelStyle.Render(fmt.Sprintf("in %s  daw %s", orNone(st.Selection.Input), orNone(st.Selection.DAWInput))),
	)
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (m Model) viewDevice() string {
	var s strings.Builder
	snap := m.snap

	s.WriteString(labelStyle.Render("pads"))
	s.WriteString("\n")
	for row := 0; row < layout.Rows; row++ {
		for col := 0; col < layout.Cols; col++ {
			p := snap.Pads[row*layout.Cols+col]
			cell := fmt.Sprintf("[%3d]", p.Velocity)
			if p.Pressed {
				s.WriteString(activeStyle.Render(cell))
			} else {
				s.WriteString(idleStyle.Render(cell))
			}
		}
		s.WriteString("\n")
	}

	s.WriteString(labelStyle.Render("knobs "))
	for _, v := range snap.Knobs {
		s.WriteString(fmt.Sprintf("%4d", v))
	}
	s.WriteString("\n")
	s.WriteString(labelStyle.Render(fmt.Sprintf("pitch %3d  mod %3d", snap.Pitch, snap.Modulation)))
	s.WriteString("\n")

	notes := make([]string, len(snap.ActiveNotes))
	for i, n := range snap.ActiveNotes {
		notes[i] = fmt.Sprint(n)
	}
	s.WriteString(labelStyle.Render("notes "))
	s.WriteString(activeStyle.Render(strings.Join(notes, " ")))
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("controls "))
	for _, c := range layout.Controls {
		if snap.Controls[c] {
			s.WriteString(activeStyle.Render(string(c)))
		} else {
			s.WriteString(idleStyle.Render(string(c)))
		}
		s.WriteString(" ")
	}
	return s.String()
}

func (m Model) viewHistory() string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("history"))
	if !m.status.Logging {
		s.WriteString(idleStyle.Render(" (paused)"))
	}
	for _, e := range m.entries {
		arrow := "→"
		if e.Direction == history.In {
			arrow = "←"
		}
		s.WriteString("\n")
		s.WriteString(fmt.Sprintf("%s %s %-8s %-10s %s",
			e.Timestamp.Format("15:04:05.000"), arrow, e.Source, message.FormatBytes(e.Message, message.BaseHex), e.Description))
	}
	return s.String()
}

// Run starts the monitor for s
func Run(s *surface.Surface) error {
	m := New(s)
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
