package layout

import "fmt"

// ColorMode selects how an LED renders its color
type ColorMode string

const (
	Solid ColorMode = "SOLID"
	Flash ColorMode = "FLASH"
	Pulse ColorMode = "PULSE"
)

// Valid reports whether c is a known color mode
func (c ColorMode) Valid() bool {
	return c == Solid || c == Flash || c == Pulse
}

func (c ColorMode) offset() uint8 {
	switch c {
	case Flash:
		return 1
	case Pulse:
		return 2
	}
	return 0
}

// Base color channels, zero based
const (
	SessionColorChannel uint8 = 0
	DrumColorChannel    uint8 = 9
	ControlColorBase    uint8 = 0
)

// ColorChannel returns the channel a pad color is sent on. Modes other than
// SESSION use the DRUM channels.
func ColorChannel(m Mode, c ColorMode) uint8 {
	base := DrumColorChannel
	if m == Session {
		base = SessionColorChannel
	}
	return base + c.offset()
}

// ControlColorChannel returns the channel a control button color is sent on
func ControlColorChannel(c ColorMode) uint8 {
	return ControlColorBase + c.offset()
}

// Brightness is a pad brightness level
type Brightness uint8

const (
	P0   Brightness = 0x00
	P25  Brightness = 0x20
	P50  Brightness = 0x30
	P75  Brightness = 0x40
	P100 Brightness = 0x60
)

// Brightnesses in ascending order
var Brightnesses = []Brightness{P0, P25, P50, P75, P100}

func (b Brightness) String() string {
	switch b {
	case P0:
		return "P0"
	case P25:
		return "P25"
	case P50:
		return "P50"
	case P75:
		return "P75"
	case P100:
		return "P100"
	}
	return fmt.Sprintf("0x%02X", uint8(b))
}

// KnobMode selects what the knobs control on the device
type KnobMode uint8

const (
	KnobVolume KnobMode = iota + 1
	KnobDevice
	KnobPan
	KnobSendsA
	KnobSendsB
	KnobCustom
)
