package ledsync

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/james-see/launchkeyctl/pkg/history"
	"github.com/james-see/launchkeyctl/pkg/layout"
	"github.com/james-see/launchkeyctl/pkg/message"
	"github.com/james-see/launchkeyctl/pkg/settings"
)

// mockOutput records sends and fails after failAfter messages when set
type mockOutput struct {
	sent      [][]byte
	failAfter int
}

func (o *mockOutput) Send(m message.Message) error {
	if o.failAfter > 0 && len(o.sent) == o.failAfter {
		return errors.New("port closed")
	}
	o.sent = append(o.sent, append([]byte(nil), m.Wire...))
	return nil
}

func u8(v uint8) *uint8 { return &v }

func TestSyncEmptyMap(t *testing.T) {
	out := &mockOutput{}
	n, err := Sync(context.Background(), out, settings.NewMap())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if n != 38 || len(out.sent) != 38 {
		t.Fatalf("Sync() sent %d (%d recorded), want 38", n, len(out.sent))
	}

	for i, cc := range []byte{102, 103, 104, 105, 115, 117} {
		want := []byte{0xB0, cc, 0}
		if !bytes.Equal(out.sent[i], want) {
			t.Errorf("message %d = % X, want % X", i, out.sent[i], want)
		}
	}
	// first drum pad
	if want := []byte{0x99, 40, 0}; !bytes.Equal(out.sent[6], want) {
		t.Errorf("message 6 = % X, want % X", out.sent[6], want)
	}
	// first pad of the drum bottom row
	if want := []byte{0x99, 36, 0}; !bytes.Equal(out.sent[14], want) {
		t.Errorf("message 14 = % X, want % X", out.sent[14], want)
	}
	// first session pad
	if want := []byte{0x90, 96, 0}; !bytes.Equal(out.sent[22], want) {
		t.Errorf("message 22 = % X, want % X", out.sent[22], want)
	}
	if want := []byte{0x90, 119, 0}; !bytes.Equal(out.sent[37], want) {
		t.Errorf("message 37 = % X, want % X", out.sent[37], want)
	}
}

func TestSyncSessionFlash(t *testing.T) {
	m := settings.NewMap()
	m.Session[0] = settings.ButtonSettings{
		ColorMode:    layout.Solid,
		ColorValue:   5,
		FlashEnabled: true,
		FlashValue:   u8(9),
	}
	out := &mockOutput{}
	n, err := Sync(context.Background(), out, m)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if n != 39 {
		t.Fatalf("Sync() sent %d, want 39", n)
	}
	if !bytes.Equal(out.sent[22], []byte{0x90, 96, 5}) || !bytes.Equal(out.sent[23], []byte{0x91, 96, 9}) {
		t.Errorf("session pad 0 = % X, % X", out.sent[22], out.sent[23])
	}
}

func TestPlanPulseAndControls(t *testing.T) {
	m := settings.NewMap()
	m.Drum[15] = settings.ButtonSettings{ColorMode: layout.Pulse, ColorValue: 45, FlashEnabled: true, FlashValue: u8(1)}
	m.Controls[117] = settings.ButtonSettings{ColorMode: layout.Pulse, ColorValue: 72}
	m.Controls[104] = settings.ButtonSettings{ColorMode: layout.Solid, ColorValue: 3, FlashEnabled: true, FlashValue: u8(4)}
	m.Controls[layout.ShiftCC] = settings.ButtonSettings{ColorMode: layout.Solid, ColorValue: 10}

	plan := Plan(m)
	got := make([][]byte, len(plan))
	for i, msg := range plan {
		got[i] = msg.Wire
	}

	want := [][]byte{
		{0xB0, 102, 0},
		{0xB0, 103, 0},
		{0xB0, 105, 0},
		{0xB0, 115, 0},
		{0xB0, 104, 3},
		{0xB1, 104, 4},
		{0xB2, 117, 72},
	}
	for i, w := range want {
		if !bytes.Equal(got[i], w) {
			t.Errorf("plan[%d] = % X, want % X", i, got[i], w)
		}
	}
	// drum pad 15 is the last drum message, pulse has no flash companion
	last := got[len(want)+15]
	if !bytes.Equal(last, []byte{0x9B, 47, 45}) {
		t.Errorf("drum pad 15 = % X, want 9B 2F 2D", last)
	}
	if len(plan) != len(want)+32 {
		t.Errorf("len(plan) = %d, want %d", len(plan), len(want)+32)
	}
}

func TestPlanSkipsCustom(t *testing.T) {
	m := settings.NewMap()
	m.Custom[0] = settings.ButtonSettings{ColorMode: layout.Solid, ColorValue: 100}
	if got := len(Plan(m)); got != 38 {
		t.Errorf("len(Plan()) = %d, want 38", got)
	}
	if got := PlanPad(layout.Custom, 0, m); got != nil {
		t.Errorf("PlanPad(CUSTOM) = %v, want nil", got)
	}
}

func TestSyncAbortsOnError(t *testing.T) {
	out := &mockOutput{failAfter: 3}
	n, err := Sync(context.Background(), out, settings.NewMap())
	if err == nil {
		t.Fatal("Sync() error = nil, want failure")
	}
	if n != 3 || len(out.sent) != 3 {
		t.Errorf("Sync() sent %d (%d recorded), want 3", n, len(out.sent))
	}
}

func TestSyncCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := &mockOutput{}
	if _, err := Sync(ctx, out, settings.NewMap()); !errors.Is(err, context.Canceled) {
		t.Errorf("Sync() error = %v, want context.Canceled", err)
	}
	if len(out.sent) != 0 {
		t.Errorf("sent %d messages after cancel", len(out.sent))
	}
}

func TestPartialSyncMatchesFullSync(t *testing.T) {
	m := settings.NewMap()
	m.Drum[9] = settings.ButtonSettings{ColorMode: layout.Solid, ColorValue: 13, FlashEnabled: true, FlashValue: u8(2)}
	m.Controls[102] = settings.ButtonSettings{ColorMode: layout.Flash, ColorValue: 50}

	out := &mockOutput{}
	if _, err := SyncPad(context.Background(), out, layout.Drum, 9, m); err != nil {
		t.Fatalf("SyncPad() error = %v", err)
	}
	if len(out.sent) != 2 || !bytes.Equal(out.sent[0], []byte{0x99, 37, 13}) || !bytes.Equal(out.sent[1], []byte{0x9A, 37, 2}) {
		t.Errorf("SyncPad() sent % X", out.sent)
	}

	out = &mockOutput{}
	if _, err := SyncControl(context.Background(), out, 102, m); err != nil {
		t.Fatalf("SyncControl() error = %v", err)
	}
	if len(out.sent) != 1 || !bytes.Equal(out.sent[0], []byte{0xB0, 102, 50}) {
		t.Errorf("SyncControl(102) sent % X", out.sent)
	}

	out = &mockOutput{}
	_, _ = SyncControl(context.Background(), out, 103, m)
	if len(out.sent) != 1 || !bytes.Equal(out.sent[0], []byte{0xB0, 103, 0}) {
		t.Errorf("SyncControl(103) sent % X, want default", out.sent)
	}

	if got := PlanControl(layout.ShiftCC, m); got != nil {
		t.Errorf("PlanControl(shift) = %v, want nil", got)
	}
}

func TestLogging(t *testing.T) {
	log := history.New()
	log.SetEnabled(true)
	out := &mockOutput{failAfter: 2}
	_, err := Sync(context.Background(), Logging(out, log), settings.NewMap())
	if err == nil {
		t.Fatal("Sync() error = nil")
	}
	entries := log.Entries(0)
	if len(entries) != 2 {
		t.Fatalf("logged %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Direction != history.Out || e.Source != history.Manual {
			t.Errorf("entry = %+v", e)
		}
	}
	if !bytes.Equal(entries[0].Message, []byte{0xB0, 103, 0}) {
		t.Errorf("newest entry = % X", entries[0].Message)
	}
}
