// Package surface is the application root. It owns the settings store,
// device state, history and clock, and routes traffic between them and the
// MIDI ports.
package surface

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/james-see/launchkeyctl/pkg/clock"
	"github.com/james-see/launchkeyctl/pkg/config"
	"github.com/james-see/launchkeyctl/pkg/history"
	"github.com/james-see/launchkeyctl/pkg/input"
	"github.com/james-see/launchkeyctl/pkg/port"
	"github.com/james-see/launchkeyctl/pkg/settings"
	"github.com/james-see/launchkeyctl/pkg/state"
)

var log = logrus.WithField("component", "surface")

var (
	ErrNoOutput       = errors.New("no output port selected")
	ErrUnknownMessage = errors.New("unknown message")
)

// Ports is the MIDI capability the surface drives
type Ports interface {
	Available() bool
	Inputs() ([]string, error)
	Outputs() ([]string, error)
	Output(name string) (port.Sender, error)
	Listen(name string, fn port.Handler) (stop func(), err error)
}

// Selection names the ports in use
type Selection struct {
	Input    string `json:"input"`
	DAWInput string `json:"dawInput"`
	Output   string `json:"output"`
}

// Options configures a Surface. Only Ports is required.
type Options struct {
	Ports    Ports
	Config   *config.Config
	Settings *settings.Store
	Window   time.Duration
}

// Surface ties every component together
type Surface struct {
	ports    Ports
	cfg      *config.Config
	settings *settings.Store
	state    *state.State
	history  *history.Log
	throttle *input.Throttle
	clock    *clock.Driver

	mu        sync.Mutex
	sel       Selection
	connected bool
	stops     map[history.Source]func()

	sendMu sync.Mutex

	subMu        sync.Mutex
	nextSub      int
	stateSubs    map[int]func(state.Snapshot)
	settingsSubs map[int]func(settings.Map)
}

// New builds a surface from opts. Selection, mode and toggles are taken
// from opts.Config when present.
func New(opts Options) *Surface {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	store := opts.Settings
	if store == nil {
		store = settings.NewStore(settings.NewMap(), nil)
	}

	s := &Surface{
		ports:        opts.Ports,
		cfg:          cfg,
		settings:     store,
		state:        state.New(),
		history:      history.New(),
		stops:        make(map[history.Source]func()),
		stateSubs:    make(map[int]func(state.Snapshot)),
		settingsSubs: make(map[int]func(settings.Map)),
		sel: Selection{
			Input:    cfg.Input,
			DAWInput: cfg.DAWInput,
			Output:   cfg.Output,
		},
	}
	s.throttle = input.NewThrottle(opts.Window, s.apply)
	s.throttle.SetEnabled(cfg.ThrottlingEnabled)
	s.history.SetEnabled(cfg.LoggingEnabled)
	s.state.SetMode(cfg.Mode)
	s.clock = clock.New(s.clockOutput, s.history)
	s.clock.SetBPM(cfg.BPM)

	store.OnChange(s.settingsChanged)
	return s
}

func (s *Surface) State() *state.State       { return s.state }
func (s *Surface) History() *history.Log     { return s.history }
func (s *Surface) Settings() *settings.Store { return s.settings }
func (s *Surface) Clock() *clock.Driver      { return s.clock }

// Available reports whether MIDI access could be obtained
func (s *Surface) Available() bool {
	return s.ports != nil && s.ports.Available()
}

// Ports lists input and output port names
func (s *Surface) Ports() (inputs, outputs []string, err error) {
	if s.ports == nil {
		return nil, nil, port.ErrUnavailable
	}
	if inputs, err = s.ports.Inputs(); err != nil {
		return nil, nil, err
	}
	if outputs, err = s.ports.Outputs(); err != nil {
		return nil, nil, err
	}
	return inputs, outputs, nil
}

func (s *Surface) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

func (s *Surface) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Open attaches listeners to the selected inputs
func (s *Surface) Open() {
	s.mu.Lock()
	sel := s.sel
	s.mu.Unlock()
	s.listen(history.General, sel.Input)
	s.listen(history.DAW, sel.DAWInput)
}

// Select changes the port selection. Listeners move to the new inputs and
// the selection is saved.
func (s *Surface) Select(sel Selection) {
	s.mu.Lock()
	prev := s.sel
	s.sel = sel
	s.cfg.Input, s.cfg.DAWInput, s.cfg.Output = sel.Input, sel.DAWInput, sel.Output
	s.mu.Unlock()

	if prev.Input != sel.Input {
		s.listen(history.General, sel.Input)
	}
	if prev.DAWInput != sel.DAWInput {
		s.listen(history.DAW, sel.DAWInput)
	}
	s.saveConfig()
}

func (s *Surface) listen(src history.Source, name string) {
	s.mu.Lock()
	if stop, ok := s.stops[src]; ok {
		stop()
		delete(s.stops, src)
	}
	s.mu.Unlock()

	if name == "" || !s.Available() {
		return
	}
	handle := s.HandleGeneral
	if src == history.DAW {
		handle = s.HandleDAW
	}
	stop, err := s.ports.Listen(name, func(raw []byte, _ int32) { handle(raw) })
	if err != nil {
		log.WithError(err).WithField("source", src).Warn("input not attached")
		return
	}
	s.mu.Lock()
	s.stops[src] = stop
	s.mu.Unlock()
}

// Close detaches listeners and stops the clock
func (s *Surface) Close() {
	if err := s.clock.Stop(); err != nil {
		log.WithError(err).Warn("clock stop failed")
	}
	s.throttle.Flush()
	s.mu.Lock()
	for src, stop := range s.stops {
		stop()
		delete(s.stops, src)
	}
	s.mu.Unlock()
}

func (s *Surface) saveConfig() {
	if s.cfg.File() == "" {
		return
	}
	s.mu.Lock()
	err := s.cfg.Save()
	s.mu.Unlock()
	if err != nil {
		log.WithError(err).Warn("failed to save config")
	}
}

// SetLogging toggles history recording
func (s *Surface) SetLogging(enabled bool) {
	s.history.SetEnabled(enabled)
	s.mu.Lock()
	s.cfg.LoggingEnabled = enabled
	s.mu.Unlock()
	s.saveConfig()
}

// SetThrottling toggles rate limiting of continuous controls
func (s *Surface) SetThrottling(enabled bool) {
	s.throttle.SetEnabled(enabled)
	s.mu.Lock()
	s.cfg.ThrottlingEnabled = enabled
	s.mu.Unlock()
	s.saveConfig()
}

func (s *Surface) Throttling() bool {
	return s.throttle.Enabled()
}

// Status summarises the surface for clients
type Status struct {
	Available  bool           `json:"available"`
	Connected  bool           `json:"connected"`
	Selection  Selection      `json:"selection"`
	Logging    bool           `json:"logging"`
	Throttling bool           `json:"throttling"`
	Clock      clock.Status   `json:"clock"`
	Device     state.Snapshot `json:"device"`
}

func (s *Surface) Status() Status {
	s.mu.Lock()
	sel, connected := s.sel, s.connected
	s.mu.Unlock()
	return Status{
		Available:  s.Available(),
		Connected:  connected,
		Selection:  sel,
		Logging:    s.history.Enabled(),
		Throttling: s.throttle.Enabled(),
		Clock:      s.clock.Status(),
		Device:     s.state.Snapshot(),
	}
}

// StartClock starts the clock at bpm, or the configured rate when bpm is 0
func (s *Surface) StartClock(bpm int) error {
	if bpm > 0 {
		s.clock.SetBPM(bpm)
		s.mu.Lock()
		s.cfg.BPM = s.clock.BPM()
		s.mu.Unlock()
		s.saveConfig()
	}
	return s.clock.Start()
}

func (s *Surface) StopClock() error {
	return s.clock.Stop()
}

func (s *Surface) clockOutput() (clock.Output, error) {
	s.mu.Lock()
	name := s.sel.Output
	s.mu.Unlock()
	if name == "" {
		return nil, ErrNoOutput
	}
	if s.ports == nil {
		return nil, port.ErrUnavailable
	}
	out, err := s.ports.Output(name)
	if err != nil {
		return nil, fmt.Errorf("clock output: %w", err)
	}
	return out, nil
}
