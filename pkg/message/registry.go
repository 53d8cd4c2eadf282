package message

import "sort"

// Canonical messages. Pad color templates carry note 0 and color 0 and are
// specialised per send with With.
var (
	DAWModeOn  = New(Params{Channel: CH16, Status: NON, Data1: 0x0C, Data2: 0x7F})
	DAWModeOff = New(Params{Channel: CH16, Status: NON, Data1: 0x0C, Data2: 0x00})

	SessionPadColor      = New(Params{Channel: CH1, Status: NON})
	SessionPadColorFlash = New(Params{Channel: CH2, Status: NON})
	SessionPadColorPulse = New(Params{Channel: CH3, Status: NON})
	DrumPadColor         = New(Params{Channel: CH10, Status: NON})
	DrumPadColorFlash    = New(Params{Channel: CH11, Status: NON})
	DrumPadColorPulse    = New(Params{Channel: CH12, Status: NON})

	PadBrightness = New(Params{Channel: CH16, Status: CC, Data1: 0x00, Data2: 0x60})
	PadMode       = New(Params{Channel: CH16, Status: CC, Data1: 0x03, Data2: 0x00})

	KnobModeVolume = New(Params{Channel: CH16, Status: CC, Data1: 0x09, Data2: 0x01})
	KnobModeDevice = New(Params{Channel: CH16, Status: CC, Data1: 0x09, Data2: 0x02})
	KnobModePan    = New(Params{Channel: CH16, Status: CC, Data1: 0x09, Data2: 0x03})
	KnobModeSendsA = New(Params{Channel: CH16, Status: CC, Data1: 0x09, Data2: 0x04})
	KnobModeSendsB = New(Params{Channel: CH16, Status: CC, Data1: 0x09, Data2: 0x05})
	KnobModeCustom = New(Params{Channel: CH16, Status: CC, Data1: 0x09, Data2: 0x06})

	ArrUp    = New(Params{Channel: CH1, Status: CC, Data1: 0x68, Data2: 0x7F})
	ArrDown  = New(Params{Channel: CH1, Status: CC, Data1: 0x69, Data2: 0x7F})
	ArrLeft  = New(Params{Channel: CH16, Status: CC, Data1: 0x67, Data2: 0x7F})
	ArrRight = New(Params{Channel: CH16, Status: CC, Data1: 0x66, Data2: 0x7F})
	Shift    = New(Params{Channel: CH1, Status: CC, Data1: 0x6C, Data2: 0x7F})
	Play     = New(Params{Channel: CH16, Status: CC, Data1: 0x73, Data2: 0x7F})
	Record   = New(Params{Channel: CH16, Status: CC, Data1: 0x75, Data2: 0x7F})

	Clock    = Realtime(CLK)
	Start    = Realtime(START)
	Continue = Realtime(CONT)
	Stop     = Realtime(STOP)
)

var registry = map[string]Message{
	"DAWModeOn":            DAWModeOn,
	"DAWModeOff":           DAWModeOff,
	"SessionPadColor":      SessionPadColor,
	"SessionPadColorFlash": SessionPadColorFlash,
	"SessionPadColorPulse": SessionPadColorPulse,
	"DrumPadColor":         DrumPadColor,
	"DrumPadColorFlash":    DrumPadColorFlash,
	"DrumPadColorPulse":    DrumPadColorPulse,
	"PadBrightness":        PadBrightness,
	"PadMode":              PadMode,
	"KnobModeVolume":       KnobModeVolume,
	"KnobModeDevice":       KnobModeDevice,
	"KnobModePan":          KnobModePan,
	"KnobModeSendsA":       KnobModeSendsA,
	"KnobModeSendsB":       KnobModeSendsB,
	"KnobModeCustom":       KnobModeCustom,
	"ArrUp":                ArrUp,
	"ArrDown":              ArrDown,
	"ArrLeft":              ArrLeft,
	"ArrRight":             ArrRight,
	"Shift":                Shift,
	"Play":                 Play,
	"Record":               Record,
	"Clock":                Clock,
	"Start":                Start,
	"Continue":             Continue,
	"Stop":                 Stop,
}

// Lookup returns the canonical message registered under name
func Lookup(name string) (Message, bool) {
	m, ok := registry[name]
	if !ok {
		return Message{}, false
	}
	return clone(m), true
}

// Names returns the registered message names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func clone(m Message) Message {
	wire := make([]byte, len(m.Wire))
	copy(wire, m.Wire)
	return Message{Params: m.Params, Wire: wire}
}
