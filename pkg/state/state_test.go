package state

import (
	"reflect"
	"testing"

	"github.com/james-see/launchkeyctl/pkg/input"
	"github.com/james-see/launchkeyctl/pkg/layout"
)

func TestRest(t *testing.T) {
	s := New().Snapshot()
	if s.Pitch != 64 {
		t.Errorf("Pitch = %d, want 64", s.Pitch)
	}
	if s.Mode != layout.Drum {
		t.Errorf("Mode = %v, want DRUM", s.Mode)
	}
	if len(s.Controls) != 7 {
		t.Errorf("len(Controls) = %d, want 7", len(s.Controls))
	}
	if s.ActiveNotes == nil || len(s.ActiveNotes) != 0 {
		t.Errorf("ActiveNotes = %v, want empty", s.ActiveNotes)
	}
}

func TestApplyKeys(t *testing.T) {
	st := New()
	st.Apply(input.KeyEvent{Index: 0, Note: 36, Pressed: true, Velocity: 80})
	st.Apply(input.KeyEvent{Index: 4, Note: 40, Pressed: true, Velocity: 90})
	st.Apply(input.KeyEvent{Index: 0, Note: 36, Pressed: true, Velocity: 70})

	s := st.Snapshot()
	if s.Keys[0] != (Button{Pressed: true, Velocity: 70}) {
		t.Errorf("Keys[0] = %+v", s.Keys[0])
	}
	if !reflect.DeepEqual(s.ActiveNotes, []int{36, 40}) {
		t.Errorf("ActiveNotes = %v, want [36 40]", s.ActiveNotes)
	}

	st.Apply(input.KeyEvent{Index: 0, Note: 36})
	s = st.Snapshot()
	if s.Keys[0].Pressed {
		t.Error("Keys[0] still pressed")
	}
	if !reflect.DeepEqual(s.ActiveNotes, []int{40}) {
		t.Errorf("ActiveNotes = %v, want [40]", s.ActiveNotes)
	}
}

func TestApplyOutOfRange(t *testing.T) {
	st := New()
	before := st.Snapshot()
	st.Apply(input.KeyEvent{Index: -6, Note: 30, Pressed: true, Velocity: 1})
	st.Apply(input.KeyEvent{Index: 96, Note: 132, Pressed: true, Velocity: 1})
	st.Apply(input.KnobEvent{Index: 8, Value: 1})
	st.Apply(input.PadEvent{Index: 16, Pressed: true})
	if !reflect.DeepEqual(before, st.Snapshot()) {
		t.Error("out of range events changed the state")
	}
}

func TestApplyContinuousAndControls(t *testing.T) {
	st := New()
	events := []input.Event{
		input.PitchEvent{Value: 100},
		input.ModulationEvent{Value: 12},
		input.KnobEvent{Index: 7, Value: 127},
		input.ControlEvent{Control: layout.Record, Pressed: true},
		input.PadEvent{Mode: layout.Session, Index: 3, Pressed: true, Velocity: 44},
		input.ModeEvent{Mode: layout.Session},
	}
	for _, e := range events {
		st.Apply(e)
	}
	s := st.Snapshot()
	if s.Pitch != 100 || s.Modulation != 12 || s.Knobs[7] != 127 {
		t.Errorf("continuous = %d %d %d", s.Pitch, s.Modulation, s.Knobs[7])
	}
	if !s.Controls[layout.Record] || s.Controls[layout.Play] {
		t.Errorf("Controls = %v", s.Controls)
	}
	if s.Pads[3] != (Button{Pressed: true, Velocity: 44}) {
		t.Errorf("Pads[3] = %+v", s.Pads[3])
	}
	if st.Mode() != layout.Session {
		t.Errorf("Mode() = %v, want SESSION", st.Mode())
	}
}

func TestSnapshotIsolation(t *testing.T) {
	st := New()
	st.Apply(input.KeyEvent{Index: 1, Note: 37, Pressed: true, Velocity: 1})
	s := st.Snapshot()
	s.ActiveNotes[0] = 99
	s.Controls[layout.Up] = true
	again := st.Snapshot()
	if again.ActiveNotes[0] != 37 || again.Controls[layout.Up] {
		t.Error("Snapshot() shares memory with the state")
	}
}

func TestReset(t *testing.T) {
	st := New()
	st.SetMode(layout.Custom)
	st.Apply(input.PitchEvent{Value: 3})
	st.Reset()
	s := st.Snapshot()
	if s.Pitch != 64 || s.Mode != layout.Custom {
		t.Errorf("after Reset() pitch = %d mode = %v", s.Pitch, s.Mode)
	}
}
