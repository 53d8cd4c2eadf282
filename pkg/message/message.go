// Package message provides the MIDI message codec and the registry of
// canonical Launchkey messages
package message

import (
	"encoding/json"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// Status is a MIDI status byte. Channel voice statuses are pre-shifted
// multiples of 16 so that status + channel yields the wire byte.
type Status = uint8

const (
	NOF     Status = 0x80 // Note Off
	NON     Status = 0x90 // Note On
	PKP     Status = 0xA0 // Polyphonic Key Pressure
	CC      Status = 0xB0 // Control Change
	PC      Status = 0xC0 // Program Change
	CP      Status = 0xD0 // Channel Pressure
	PB      Status = 0xE0 // Pitch Bend
	CLK     Status = 0xF8 // Timing Clock
	START   Status = 0xFA
	CONT    Status = 0xFB
	STOP    Status = 0xFC
	ACTSENS Status = 0xFE
	SYSRES  Status = 0xFF
)

// Channel numbers, zero based
const (
	CH1 uint8 = iota
	CH2
	CH3
	CH4
	CH5
	CH6
	CH7
	CH8
	CH9
	CH10
	CH11
	CH12
	CH13
	CH14
	CH15
	CH16
)

// Params holds the semantic fields of a message
type Params struct {
	Channel uint8  `json:"channel"`
	Status  Status `json:"status"`
	Data1   uint8  `json:"data1"`
	Data2   uint8  `json:"data2"`
}

// Message pairs the semantic params with their wire bytes
type Message struct {
	Params Params `json:"params"`
	Wire   Bytes  `json:"midi"`
}

// Bytes encodes as a JSON array of numbers rather than base64
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make(Bytes, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("%w: %d", ErrInvalidByte, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// Override names the fields to replace in a template. Nil fields are kept.
type Override struct {
	Channel *uint8
	Status  *Status
	Data1   *uint8
	Data2   *uint8
}

// New encodes params into a 3-byte message. No validation is performed.
func New(p Params) Message {
	return Message{
		Params: p,
		Wire:   []byte{p.Status + p.Channel, p.Data1, p.Data2},
	}
}

// With merges the override into base and re-encodes
func With(base Message, o Override) Message {
	p := base.Params
	if o.Channel != nil {
		p.Channel = *o.Channel
	}
	if o.Status != nil {
		p.Status = *o.Status
	}
	if o.Data1 != nil {
		p.Data1 = *o.Data1
	}
	if o.Data2 != nil {
		p.Data2 = *o.Data2
	}
	return New(p)
}

// WithData2 is shorthand for With(base, Override{Data2: &v})
func WithData2(base Message, v uint8) Message {
	return With(base, Override{Data2: &v})
}

// Realtime builds a single byte system realtime message
func Realtime(status Status) Message {
	return Message{
		Params: Params{Status: status},
		Wire:   []byte{status},
	}
}

// Decode splits raw bytes into params. Missing data bytes read as zero.
// System bytes (0xF0 and above) keep the whole byte as status.
func Decode(raw []byte) Params {
	var p Params
	if len(raw) == 0 {
		return p
	}
	if raw[0] >= 0xF0 {
		p.Status = raw[0]
	} else {
		p.Channel = raw[0] & 0x0F
		p.Status = raw[0] & 0xF0
	}
	if len(raw) > 1 {
		p.Data1 = raw[1]
	}
	if len(raw) > 2 {
		p.Data2 = raw[2]
	}
	return p
}

// FromRaw wraps raw bytes without altering them. The params are derived
// from the first byte only for logging and display.
func FromRaw(raw []byte) Message {
	wire := make([]byte, len(raw))
	copy(wire, raw)
	return Message{Params: Decode(raw), Wire: wire}
}

// IsRealtime reports whether b is a system realtime status byte
func IsRealtime(b byte) bool {
	return b >= CLK
}

// MIDI returns the wire bytes as a gomidi message
func (m Message) MIDI() midi.Message {
	return midi.Message(m.Wire)
}

// String formats the wire bytes as hex
func (m Message) String() string {
	return FormatBytes(m.Wire, BaseHex)
}

var descriptions = map[Status]string{
	NOF: "Note Off",
	NON: "Note On",
	PKP: "Poly Pressure",
	CC:  "Control Change",
	PC:  "Program Change",
	CP:  "Channel Pressure",
	PB:  "Pitch Bend",
}

var realtimeNames = map[Status]string{
	CLK:     "Timing Clock",
	START:   "Start",
	CONT:    "Continue",
	STOP:    "Stop",
	ACTSENS: "Active Sensing",
	SYSRES:  "System Reset",
}

// Describe returns a human readable description of params
func Describe(p Params) string {
	if name, ok := realtimeNames[p.Status]; ok {
		return name
	}
	kind := p.Status & 0xF0
	name, ok := descriptions[kind]
	if !ok {
		name = "Unknown"
	}
	d := fmt.Sprintf("%s (Ch %d)", name, p.Channel+1)
	switch kind {
	case CC:
		d += fmt.Sprintf(" CC#%d=%d", p.Data1, p.Data2)
	case NON, NOF:
		d += fmt.Sprintf(" Note=%d Vel=%d", p.Data1, p.Data2)
	}
	return d
}
