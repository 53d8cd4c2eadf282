package surface

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/james-see/launchkeyctl/pkg/config"
	"github.com/james-see/launchkeyctl/pkg/history"
	"github.com/james-see/launchkeyctl/pkg/layout"
	"github.com/james-see/launchkeyctl/pkg/message"
	"github.com/james-see/launchkeyctl/pkg/port"
	"github.com/james-see/launchkeyctl/pkg/settings"
	"github.com/james-see/launchkeyctl/pkg/state"
)

const (
	outName = "Launchkey MIDI"
	dawName = "Launchkey DAW"
	keyName = "Launchkey Keys"
)

// mockSender records every message sent to it
type mockSender struct {
	mu   sync.Mutex
	sent [][]byte
}

func (m *mockSender) Send(msg message.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, append([]byte(nil), msg.Wire...))
	return nil
}

func (m *mockSender) messages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.sent...)
}

// mockPorts exposes one output and two inputs
type mockPorts struct {
	mu       sync.Mutex
	out      *mockSender
	outputs  []string
	handlers map[string]port.Handler
}

func newMockPorts() *mockPorts {
	return &mockPorts{
		out:      &mockSender{},
		outputs:  []string{outName},
		handlers: map[string]port.Handler{},
	}
}

func (p *mockPorts) Available() bool            { return true }
func (p *mockPorts) Inputs() ([]string, error)  { return []string{dawName, keyName}, nil }
func (p *mockPorts) Outputs() ([]string, error) { return p.outputs, nil }

func (p *mockPorts) Output(name string) (port.Sender, error) {
	for _, o := range p.outputs {
		if o == name {
			return p.out, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", port.ErrPortNotFound, name)
}

func (p *mockPorts) Listen(name string, fn port.Handler) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[name] = fn
	return func() {
		p.mu.Lock()
		delete(p.handlers, name)
		p.mu.Unlock()
	}, nil
}

func (p *mockPorts) feed(name string, raw ...byte) {
	p.mu.Lock()
	fn := p.handlers[name]
	p.mu.Unlock()
	if fn != nil {
		fn(raw, 0)
	}
}

func newSurface(t *testing.T) (*Surface, *mockPorts) {
	t.Helper()
	ports := newMockPorts()
	cfg := config.Default()
	cfg.Output = outName
	cfg.LoggingEnabled = true
	cfg.ThrottlingEnabled = true
	s := New(Options{Ports: ports, Config: cfg})
	t.Cleanup(s.Close)
	return s, ports
}

func TestConnect(t *testing.T) {
	s, ports := newSurface(t)
	n, err := s.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if n != 40 {
		t.Errorf("Connect() sent %d, want 40", n)
	}
	sent := ports.out.messages()
	if !bytes.Equal(sent[0], []byte{0x9F, 0x0C, 0x7F}) {
		t.Errorf("first message = % X, want DAW mode on", sent[0])
	}
	if !bytes.Equal(sent[1], []byte{0xBF, 0x03, 0x01}) {
		t.Errorf("second message = % X, want pad mode DRUM", sent[1])
	}
	if !s.Connected() {
		t.Error("Connected() = false")
	}
	if got := s.History().Len(); got != 40 {
		t.Errorf("history has %d entries, want 40", got)
	}

	if _, err := s.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	sent = ports.out.messages()
	if !bytes.Equal(sent[len(sent)-1], []byte{0x9F, 0x0C, 0x00}) {
		t.Errorf("last message = % X, want DAW mode off", sent[len(sent)-1])
	}
	if s.Connected() {
		t.Error("Connected() = true after Disconnect()")
	}
}

func TestConnectNoOutput(t *testing.T) {
	s := New(Options{Ports: newMockPorts()})
	defer s.Close()
	if _, err := s.Connect(context.Background()); !errors.Is(err, ErrNoOutput) {
		t.Errorf("Connect() error = %v, want ErrNoOutput", err)
	}
}

func TestConnectMissingPortIsSilent(t *testing.T) {
	s, ports := newSurface(t)
	ports.outputs = nil
	n, err := s.Connect(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Connect() = %d, %v, want 0, nil", n, err)
	}
}

func TestSettingsPartialSync(t *testing.T) {
	s, ports := newSurface(t)
	b := settings.ButtonSettings{ColorMode: layout.Solid, ColorValue: 90}

	// not connected: nothing sent
	if err := s.Settings().SetPad(layout.Session, 0, &b); err != nil {
		t.Fatalf("SetPad() error = %v", err)
	}
	if got := len(ports.out.messages()); got != 0 {
		t.Fatalf("sent %d messages while disconnected", got)
	}

	_, _ = s.Connect(context.Background())
	before := len(ports.out.messages())

	flash := uint8(10)
	b.FlashEnabled = true
	b.FlashValue = &flash
	if err := s.Settings().SetPad(layout.Session, 0, &b); err != nil {
		t.Fatalf("SetPad() error = %v", err)
	}
	sent := ports.out.messages()[before:]
	if len(sent) != 2 || !bytes.Equal(sent[0], []byte{0x90, 96, 90}) || !bytes.Equal(sent[1], []byte{0x91, 96, 10}) {
		t.Errorf("partial sync sent % X", sent)
	}

	before = len(ports.out.messages())
	if err := s.Settings().SetControl(115, &settings.ButtonSettings{ColorMode: layout.Pulse, ColorValue: 5}); err != nil {
		t.Fatalf("SetControl() error = %v", err)
	}
	sent = ports.out.messages()[before:]
	if len(sent) != 1 || !bytes.Equal(sent[0], []byte{0xB2, 115, 5}) {
		t.Errorf("control sync sent % X", sent)
	}

	before = len(ports.out.messages())
	if err := s.Settings().ReplaceAll(settings.NewMap()); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	if got := len(ports.out.messages()) - before; got != 38 {
		t.Errorf("ReplaceAll() synced %d messages, want 38", got)
	}
}

func TestSettingsSubscription(t *testing.T) {
	s, _ := newSurface(t)
	var got []settings.Map
	unsub := s.SubscribeSettings(func(m settings.Map) { got = append(got, m) })
	_ = s.Settings().SetPad(layout.Drum, 1, &settings.ButtonSettings{ColorMode: layout.Solid, ColorValue: 3})
	unsub()
	_ = s.Settings().SetPad(layout.Drum, 2, &settings.ButtonSettings{ColorMode: layout.Solid, ColorValue: 3})
	if len(got) != 1 || got[0].Drum[1].ColorValue != 3 {
		t.Errorf("settings notifications = %+v", got)
	}
}

func TestSendRaw(t *testing.T) {
	s, ports := newSurface(t)
	if _, _, err := s.SendRaw(context.Background(), []string{"0x90", "0x100", "1"}, message.BaseHex); !errors.Is(err, message.ErrInvalidByte) {
		t.Errorf("SendRaw() error = %v, want ErrInvalidByte", err)
	}
	if len(ports.out.messages()) != 0 {
		t.Fatal("invalid raw message was sent")
	}

	m, n, err := s.SendRaw(context.Background(), []string{"176", "200", "255"}, message.BaseDec)
	if err != nil || n != 1 {
		t.Fatalf("SendRaw() = %d, %v", n, err)
	}
	if !bytes.Equal(ports.out.messages()[0], []byte{176, 200, 255}) {
		t.Errorf("sent % X", ports.out.messages()[0])
	}
	if m.Params.Channel != 0 || m.Params.Status != message.CC {
		t.Errorf("params = %+v", m.Params)
	}
	e := s.History().Entries(1)[0]
	if e.Direction != history.Out || e.Source != history.Manual {
		t.Errorf("history entry = %+v", e)
	}
}

func TestSendNamed(t *testing.T) {
	s, ports := newSurface(t)
	v := uint8(0x30)
	if _, _, err := s.SendNamed(context.Background(), "PadBrightness", &v); err != nil {
		t.Fatalf("SendNamed() error = %v", err)
	}
	if !bytes.Equal(ports.out.messages()[0], []byte{0xBF, 0x00, 0x30}) {
		t.Errorf("sent % X", ports.out.messages()[0])
	}
	if _, _, err := s.SendNamed(context.Background(), "Bogus", nil); !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("SendNamed() error = %v, want ErrUnknownMessage", err)
	}
}

func TestSetMode(t *testing.T) {
	s, ports := newSurface(t)
	if _, err := s.SetMode(context.Background(), layout.Session); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	if !bytes.Equal(ports.out.messages()[0], []byte{0xBF, 0x03, 0x02}) {
		t.Errorf("sent % X", ports.out.messages()[0])
	}
	if s.State().Mode() != layout.Session {
		t.Errorf("Mode() = %v", s.State().Mode())
	}
	if _, err := s.SetMode(context.Background(), layout.Mode(4)); !errors.Is(err, settings.ErrInvalidMode) {
		t.Errorf("SetMode(4) error = %v, want ErrInvalidMode", err)
	}
}

func TestInputStreams(t *testing.T) {
	s, ports := newSurface(t)
	s.Select(Selection{Input: keyName, DAWInput: dawName, Output: outName})

	ports.feed(dawName, 0xBF, 0x03, 0x02)
	ports.feed(dawName, 0xF8)
	ports.feed(dawName, 0xB0, 22, 99)
	ports.feed(keyName, 0x90, 48, 100)
	ports.feed(keyName, 0xFE)

	snap := s.State().Snapshot()
	if snap.Mode != layout.Session {
		t.Errorf("Mode = %v, want SESSION", snap.Mode)
	}
	if snap.Knobs[1] != 99 {
		t.Errorf("Knobs[1] = %d, want 99", snap.Knobs[1])
	}
	if !snap.Keys[12].Pressed || snap.Keys[12].Velocity != 100 {
		t.Errorf("Keys[12] = %+v", snap.Keys[12])
	}

	entries := s.History().Entries(0)
	if len(entries) != 3 {
		t.Fatalf("history has %d entries, want 3 (realtime bytes are not logged)", len(entries))
	}
	if entries[0].Source != history.General || entries[2].Source != history.DAW {
		t.Errorf("sources = %v, %v", entries[0].Source, entries[2].Source)
	}
}

func TestLoggingToggle(t *testing.T) {
	s, _ := newSurface(t)
	s.SetLogging(false)
	s.HandleDAW([]byte{0xB0, 21, 1})
	if s.History().Len() != 0 {
		t.Error("input logged while logging disabled")
	}
	if s.State().Snapshot().Knobs[0] != 1 {
		t.Error("input not applied while logging disabled")
	}
}

func TestStateSubscription(t *testing.T) {
	s, _ := newSurface(t)
	s.SetThrottling(false)
	var got []int
	unsub := s.SubscribeState(func(snap state.Snapshot) { got = append(got, snap.Pitch) })
	defer unsub()

	s.HandleGeneral([]byte{0xE0, 0x00, 0x10})
	s.HandleGeneral([]byte{0xE0, 0x00, 0x20})
	if len(got) != 2 || got[1] != 0x20 {
		t.Errorf("pitch notifications = %v", got)
	}
}

func TestClock(t *testing.T) {
	s, ports := newSurface(t)
	if err := s.StartClock(150); err != nil {
		t.Fatalf("StartClock() error = %v", err)
	}
	if err := s.StartClock(150); err != nil {
		t.Fatalf("second StartClock() error = %v", err)
	}
	if err := s.StopClock(); err != nil {
		t.Fatalf("StopClock() error = %v", err)
	}
	starts, stops := 0, 0
	for _, m := range ports.out.messages() {
		switch m[0] {
		case 0xFA:
			starts++
		case 0xFC:
			stops++
		}
	}
	if starts != 1 || stops != 1 {
		t.Errorf("starts = %d stops = %d, want 1 and 1", starts, stops)
	}
	if s.Clock().BPM() != 150 {
		t.Errorf("BPM() = %d, want 150", s.Clock().BPM())
	}
}
