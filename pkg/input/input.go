// Package input decodes raw bytes from the two device input streams into
// semantic events
package input

import (
	"github.com/james-see/launchkeyctl/pkg/layout"
	"github.com/james-see/launchkeyctl/pkg/message"
)

// FirstKeyNote is the note of key index 0
const FirstKeyNote = 36

// ModeCC reports the active pad mode. The device sends it on channel 16;
// channel 1 is accepted as well.
const ModeCC = 0x03

// Event is a decoded state change
type Event interface {
	isEvent()
}

type KeyEvent struct {
	Index    int
	Note     uint8
	Pressed  bool
	Velocity uint8
}

type PitchEvent struct {
	Value int
}

type ModulationEvent struct {
	Value uint8
}

type ModeEvent struct {
	Mode layout.Mode
}

type KnobEvent struct {
	Index int
	Value uint8
}

type ControlEvent struct {
	Control layout.Control
	Pressed bool
}

type PadEvent struct {
	Mode     layout.Mode
	Index    int
	Pressed  bool
	Velocity uint8
}

func (KeyEvent) isEvent()        {}
func (PitchEvent) isEvent()      {}
func (ModulationEvent) isEvent() {}
func (ModeEvent) isEvent()       {}
func (KnobEvent) isEvent()       {}
func (ControlEvent) isEvent()    {}
func (PadEvent) isEvent()        {}

// Ignored reports whether raw must be dropped before logging or decoding
func Ignored(raw []byte) bool {
	return len(raw) == 0 || message.IsRealtime(raw[0])
}

func isNote(status message.Status) bool {
	return status == message.NON || status == message.NOF
}

// DecodeGeneral decodes keyboard input. Only channel 1 is interpreted.
func DecodeGeneral(raw []byte) []Event {
	if Ignored(raw) {
		return nil
	}
	p := message.Decode(raw)
	if p.Channel != message.CH1 {
		return nil
	}
	switch {
	case isNote(p.Status):
		on := p.Status == message.NON && p.Data2 > 0
		var vel uint8
		if on {
			vel = p.Data2
		}
		return []Event{KeyEvent{
			Index:    int(p.Data1) - FirstKeyNote,
			Note:     p.Data1,
			Pressed:  on,
			Velocity: vel,
		}}
	case p.Status == message.PB:
		return []Event{PitchEvent{Value: ((int(p.Data2) << 7) + int(p.Data1)) >> 7}}
	case p.Status == message.CC && p.Data1 == 1:
		return []Event{ModulationEvent{Value: p.Data2}}
	}
	return nil
}

// DecodeDAW decodes the DAW stream: pad mode reports, knobs, control
// buttons and pads
func DecodeDAW(raw []byte) []Event {
	if Ignored(raw) {
		return nil
	}
	p := message.Decode(raw)

	var events []Event
	switch {
	case p.Status == message.CC:
		if p.Data1 == ModeCC && (p.Channel == message.CH16 || p.Channel == message.CH1) {
			events = append(events, ModeEvent{Mode: layout.Mode(p.Data2)})
		}
		if i, ok := layout.KnobIndex(p.Data1); ok {
			events = append(events, KnobEvent{Index: i, Value: p.Data2})
		}
		if c, ok := layout.ControlByInput(p.Channel, p.Data1); ok {
			events = append(events, ControlEvent{Control: c, Pressed: p.Data2 == 127})
		}
	case isNote(p.Status):
		if p.Channel != message.CH1 && p.Channel != message.CH10 {
			return nil
		}
		on := p.Status == message.NON && p.Data2 > 0
		for _, cell := range layout.Lookup(p.Data1) {
			events = append(events, PadEvent{
				Mode:     cell.Mode,
				Index:    cell.Index,
				Pressed:  on,
				Velocity: p.Data2,
			})
		}
	}
	return events
}
