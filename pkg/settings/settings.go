// Package settings holds the per-pad and per-control LED configuration
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/james-see/launchkeyctl/pkg/layout"
)

var (
	ErrInvalidMode          = errors.New("invalid pad mode")
	ErrInvalidIndex         = errors.New("invalid pad index")
	ErrInvalidControl       = errors.New("invalid control number")
	ErrInvalidColor         = errors.New("invalid color")
	ErrShiftNotConfigurable = errors.New("shift button color is not configurable")
	ErrInvalidDocument      = errors.New("invalid settings document")
)

// ButtonSettings is the LED configuration of one pad or control
type ButtonSettings struct {
	ColorMode    layout.ColorMode `json:"colorMode"`
	ColorValue   uint8            `json:"colorValue"`
	FlashEnabled bool             `json:"flashEnabled,omitempty"`
	FlashValue   *uint8           `json:"flashValue,omitempty"`
}

// Default is what the hardware shows for an unconfigured button
var Default = ButtonSettings{ColorMode: layout.Solid, ColorValue: 0}

// FlashEffective reports whether a secondary flash color should be sent,
// and the value to send
func (b ButtonSettings) FlashEffective() (uint8, bool) {
	if b.ColorMode == layout.Solid && b.FlashEnabled && b.FlashValue != nil {
		return *b.FlashValue, true
	}
	return 0, false
}

// Validate checks color mode and value ranges
func (b ButtonSettings) Validate() error {
	if !b.ColorMode.Valid() {
		return fmt.Errorf("%w: unknown color mode %q", ErrInvalidColor, b.ColorMode)
	}
	if b.ColorValue > 127 {
		return fmt.Errorf("%w: color value %d out of range", ErrInvalidColor, b.ColorValue)
	}
	if b.FlashValue != nil && *b.FlashValue > 127 {
		return fmt.Errorf("%w: flash value %d out of range", ErrInvalidColor, *b.FlashValue)
	}
	return nil
}

func (b ButtonSettings) clone() ButtonSettings {
	if b.FlashValue != nil {
		v := *b.FlashValue
		b.FlashValue = &v
	}
	return b
}

// Pads maps a pad index to its settings
type Pads map[int]ButtonSettings

// Map is the complete settings document. Every field is non-nil once built
// by NewMap or decoded from JSON.
type Map struct {
	Drum     Pads
	Session  Pads
	Custom   Pads
	Controls map[uint8]ButtonSettings
}

// NewMap returns an empty document
func NewMap() Map {
	return Map{
		Drum:     Pads{},
		Session:  Pads{},
		Custom:   Pads{},
		Controls: map[uint8]ButtonSettings{},
	}
}

// Pads returns the pad table of a mode
func (m Map) Pads(mode layout.Mode) (Pads, bool) {
	switch mode {
	case layout.Drum:
		return m.Drum, true
	case layout.Session:
		return m.Session, true
	case layout.Custom:
		return m.Custom, true
	}
	return nil, false
}

// Pad returns the stored settings of a pad
func (m Map) Pad(mode layout.Mode, index int) (ButtonSettings, bool) {
	pads, ok := m.Pads(mode)
	if !ok {
		return ButtonSettings{}, false
	}
	b, ok := pads[index]
	return b, ok
}

// EffectivePad returns the stored settings or the hardware default
func (m Map) EffectivePad(mode layout.Mode, index int) ButtonSettings {
	if b, ok := m.Pad(mode, index); ok {
		return b
	}
	return Default
}

// Clone deep copies the document
func (m Map) Clone() Map {
	out := NewMap()
	for _, mode := range layout.Modes {
		src, _ := m.Pads(mode)
		dst, _ := out.Pads(mode)
		for i, b := range src {
			dst[i] = b.clone()
		}
	}
	for cc, b := range m.Controls {
		out.Controls[cc] = b.clone()
	}
	return out
}

// Validate checks every index, control number and color in the document
func (m Map) Validate() error {
	for _, mode := range layout.Modes {
		pads, _ := m.Pads(mode)
		for i, b := range pads {
			if err := validIndex(i); err != nil {
				return fmt.Errorf("mode %d: %w", mode, err)
			}
			if err := b.Validate(); err != nil {
				return fmt.Errorf("mode %d pad %d: %w", mode, i, err)
			}
		}
	}
	for cc, b := range m.Controls {
		if cc > 127 {
			return fmt.Errorf("%w: %d", ErrInvalidControl, cc)
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("control %d: %w", cc, err)
		}
	}
	return nil
}

func validIndex(i int) error {
	if i < 0 || i >= layout.NumPads {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, i)
	}
	return nil
}

const controlsKey = "controls"

// MarshalJSON writes {"1":{...},"2":{...},"5":{...},"controls":{...}}
func (m Map) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, 4)
	for _, mode := range layout.Modes {
		pads, _ := m.Pads(mode)
		if pads == nil {
			pads = Pads{}
		}
		doc[strconv.Itoa(int(mode))] = pads
	}
	controls := m.Controls
	if controls == nil {
		controls = map[uint8]ButtonSettings{}
	}
	doc[controlsKey] = controls
	return json.Marshal(doc)
}

// UnmarshalJSON accepts the persisted document. Missing top-level keys are
// filled in empty; unknown keys, bad indices and bad colors reject the
// whole document.
func (m *Map) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc == nil {
		return fmt.Errorf("%w: must be an object", ErrInvalidDocument)
	}

	out := NewMap()
	for key, raw := range doc {
		if key == controlsKey {
			controls, err := decodeControls(raw)
			if err != nil {
				return err
			}
			out.Controls = controls
			continue
		}
		mode, err := strconv.Atoi(key)
		if err != nil || !layout.Mode(mode).Valid() {
			return fmt.Errorf("%w: %w %q", ErrInvalidDocument, ErrInvalidMode, key)
		}
		pads, err := decodePads(raw)
		if err != nil {
			return fmt.Errorf("mode %d: %w", mode, err)
		}
		switch layout.Mode(mode) {
		case layout.Drum:
			out.Drum = pads
		case layout.Session:
			out.Session = pads
		case layout.Custom:
			out.Custom = pads
		}
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	*m = out
	return nil
}

func decodePads(raw json.RawMessage) (Pads, error) {
	var entries map[string]ButtonSettings
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	pads := make(Pads, len(entries))
	for key, b := range entries {
		i, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %w %q", ErrInvalidDocument, ErrInvalidIndex, key)
		}
		if err := validIndex(i); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
		pads[i] = b
	}
	return pads, nil
}

func decodeControls(raw json.RawMessage) (map[uint8]ButtonSettings, error) {
	var entries map[string]ButtonSettings
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	controls := make(map[uint8]ButtonSettings, len(entries))
	for key, b := range entries {
		cc, err := strconv.Atoi(key)
		if err != nil || cc < 0 || cc > 127 {
			return nil, fmt.Errorf("%w: %w %q", ErrInvalidDocument, ErrInvalidControl, key)
		}
		controls[uint8(cc)] = b
	}
	return controls, nil
}

// ParseMap decodes and validates a settings document
func ParseMap(data []byte) (Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		if errors.Is(err, ErrInvalidDocument) {
			return Map{}, err
		}
		return Map{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return m, nil
}
