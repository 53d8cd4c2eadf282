// Package state tracks the live device state built from decoded input
package state

import (
	"sync"

	"github.com/james-see/launchkeyctl/pkg/input"
	"github.com/james-see/launchkeyctl/pkg/layout"
)

const (
	NumKeys   = 96
	PitchRest = 64
)

// Button is a pressed flag with the velocity of the last press
type Button struct {
	Pressed  bool  `json:"pressed"`
	Velocity uint8 `json:"velocity"`
}

// Snapshot is a copy of the device state for rendering
type Snapshot struct {
	Pitch       int                     `json:"pitch"`
	Modulation  uint8                   `json:"modulation"`
	Knobs       [layout.NumKnobs]uint8  `json:"knobs"`
	Pads        [layout.NumPads]Button  `json:"pads"`
	Keys        [NumKeys]Button         `json:"keys"`
	ActiveNotes []int                   `json:"activeNotes"`
	Controls    map[layout.Control]bool `json:"controls"`
	Mode        layout.Mode             `json:"mode"`
}

// State is the mutable device state. It is changed only by Apply and
// SetMode.
type State struct {
	mu sync.RWMutex
	s  Snapshot
}

func New() *State {
	st := &State{}
	st.s = rest()
	return st
}

func rest() Snapshot {
	s := Snapshot{
		Pitch:       PitchRest,
		ActiveNotes: []int{},
		Controls:    make(map[layout.Control]bool, len(layout.Controls)),
		Mode:        layout.Drum,
	}
	for _, c := range layout.Controls {
		s.Controls[c] = false
	}
	return s
}

// Reset returns every value to rest, keeping the mode
func (st *State) Reset() {
	st.mu.Lock()
	mode := st.s.Mode
	st.s = rest()
	st.s.Mode = mode
	st.mu.Unlock()
}

// Apply folds one event into the state. Events addressing keys, knobs or
// pads outside the device are ignored.
func (st *State) Apply(e input.Event) {
	st.mu.Lock()
	defer st.mu.Unlock()

	switch ev := e.(type) {
	case input.KeyEvent:
		if ev.Index < 0 || ev.Index >= NumKeys {
			return
		}
		st.s.Keys[ev.Index] = Button{Pressed: ev.Pressed, Velocity: ev.Velocity}
		st.setActive(ev.Note, ev.Pressed)
	case input.PitchEvent:
		st.s.Pitch = ev.Value
	case input.ModulationEvent:
		st.s.Modulation = ev.Value
	case input.ModeEvent:
		st.s.Mode = ev.Mode
	case input.KnobEvent:
		if ev.Index < 0 || ev.Index >= layout.NumKnobs {
			return
		}
		st.s.Knobs[ev.Index] = ev.Value
	case input.ControlEvent:
		st.s.Controls[ev.Control] = ev.Pressed
	case input.PadEvent:
		if ev.Index < 0 || ev.Index >= layout.NumPads {
			return
		}
		st.s.Pads[ev.Index] = Button{Pressed: ev.Pressed, Velocity: ev.Velocity}
	}
}

func (st *State) setActive(note uint8, active bool) {
	for i, n := range st.s.ActiveNotes {
		if n == int(note) {
			if !active {
				st.s.ActiveNotes = append(st.s.ActiveNotes[:i], st.s.ActiveNotes[i+1:]...)
			}
			return
		}
	}
	if active {
		st.s.ActiveNotes = append(st.s.ActiveNotes, int(note))
	}
}

// SetMode records a mode chosen locally rather than reported by the device
func (st *State) SetMode(m layout.Mode) {
	st.Apply(input.ModeEvent{Mode: m})
}

func (st *State) Mode() layout.Mode {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Mode
}

// Snapshot returns a copy safe to hold after the state moves on
func (st *State) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s := st.s
	s.ActiveNotes = append([]int{}, st.s.ActiveNotes...)
	s.Controls = make(map[layout.Control]bool, len(st.s.Controls))
	for c, v := range st.s.Controls {
		s.Controls[c] = v
	}
	return s
}
