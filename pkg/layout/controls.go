package layout

import "sort"

const (
	NumKnobs  = 8
	FirstKnob = 21
	LastKnob  = FirstKnob + NumKnobs - 1
)

// KnobCC returns the CC number of knob i
func KnobCC(i int) uint8 {
	return uint8(FirstKnob + i)
}

// KnobIndex maps a CC number to a knob index
func KnobIndex(cc uint8) (int, bool) {
	if cc < FirstKnob || cc > LastKnob {
		return 0, false
	}
	return int(cc - FirstKnob), true
}

// Control names a transport or navigation button
type Control string

const (
	Up     Control = "up"
	Down   Control = "down"
	Left   Control = "left"
	Right  Control = "right"
	Shift  Control = "shift"
	Play   Control = "play"
	Record Control = "record"
)

// ControlDef binds a control to the channel and CC it transmits on
type ControlDef struct {
	Control Control `json:"control"`
	Channel uint8   `json:"channel"`
	CC      uint8   `json:"cc"`
}

const ShiftCC uint8 = 108

// ControlDefs lists the controls in input-table order
var ControlDefs = []ControlDef{
	{Up, 0, 104},
	{Down, 0, 105},
	{Shift, 0, ShiftCC},
	{Left, 15, 103},
	{Right, 15, 102},
	{Play, 15, 115},
	{Record, 15, 117},
}

// Controls is every control in declaration order
var Controls = []Control{Up, Down, Left, Right, Shift, Play, Record}

// ColorControlCCs are the controls with LEDs, in the order defaults are sent
var ColorControlCCs = []uint8{102, 103, 104, 105, 115, 117}

// ControlByInput resolves the control transmitting on (channel, cc)
func ControlByInput(channel, cc uint8) (Control, bool) {
	for _, d := range ControlDefs {
		if d.Channel == channel && d.CC == cc {
			return d.Control, true
		}
	}
	return "", false
}

// ControlByCC resolves a control by CC number regardless of channel
func ControlByCC(cc uint8) (ControlDef, bool) {
	for _, d := range ControlDefs {
		if d.CC == cc {
			return d, true
		}
	}
	return ControlDef{}, false
}

// HasColor reports whether cc is a control with a configurable LED
func HasColor(cc uint8) bool {
	for _, c := range ColorControlCCs {
		if c == cc {
			return true
		}
	}
	return false
}

// SortedCCs returns the keys of m in ascending order
func SortedCCs[V any](m map[uint8]V) []uint8 {
	ccs := make([]uint8, 0, len(m))
	for cc := range m {
		ccs = append(ccs, cc)
	}
	sort.Slice(ccs, func(i, j int) bool { return ccs[i] < ccs[j] })
	return ccs
}
