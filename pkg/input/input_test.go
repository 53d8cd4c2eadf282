package input

import (
	"reflect"
	"testing"

	"github.com/james-see/launchkeyctl/pkg/layout"
)

func TestDecodeGeneral(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want []Event
	}{
		{"note on", []byte{0x90, 60, 100}, []Event{KeyEvent{Index: 24, Note: 60, Pressed: true, Velocity: 100}}},
		{"note on zero velocity", []byte{0x90, 60, 0}, []Event{KeyEvent{Index: 24, Note: 60}}},
		{"note off", []byte{0x80, 36, 64}, []Event{KeyEvent{Index: 0, Note: 36}}},
		{"below range", []byte{0x90, 30, 10}, []Event{KeyEvent{Index: -6, Note: 30, Pressed: true, Velocity: 10}}},
		{"pitch center", []byte{0xE0, 0x00, 0x40}, []Event{PitchEvent{Value: 64}}},
		{"pitch max", []byte{0xE0, 0x7F, 0x7F}, []Event{PitchEvent{Value: 127}}},
		{"pitch coarse only", []byte{0xE0, 0x00, 0x7F}, []Event{PitchEvent{Value: 127}}},
		{"key 12", []byte{0x90, 48, 100}, []Event{KeyEvent{Index: 12, Note: 48, Pressed: true, Velocity: 100}}},
		{"pitch min", []byte{0xE0, 0x00, 0x00}, []Event{PitchEvent{Value: 0}}},
		{"modulation", []byte{0xB0, 0x01, 33}, []Event{ModulationEvent{Value: 33}}},
		{"other cc", []byte{0xB0, 0x07, 33}, nil},
		{"channel 2 note", []byte{0x91, 60, 100}, nil},
		{"clock", []byte{0xF8}, nil},
		{"active sensing", []byte{0xFE}, nil},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeGeneral(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeGeneral(% X) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeDAW(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want []Event
	}{
		{"mode report", []byte{0xBF, 0x03, 0x02}, []Event{ModeEvent{Mode: layout.Session}}},
		{"mode report channel 1", []byte{0xB0, 0x03, 0x02}, []Event{ModeEvent{Mode: layout.Session}}},
		{"mode on other channel", []byte{0xB5, 0x03, 0x02}, nil},
		{"knob 1 center", []byte{0xB0, 0x15, 64}, []Event{KnobEvent{Index: 0, Value: 64}}},
		{"knob 1", []byte{0xB0, 21, 99}, []Event{KnobEvent{Index: 0, Value: 99}}},
		{"knob 8 any channel", []byte{0xB5, 28, 1}, []Event{KnobEvent{Index: 7, Value: 1}}},
		{"play pressed", []byte{0xBF, 115, 127}, []Event{ControlEvent{Control: layout.Play, Pressed: true}}},
		{"play released", []byte{0xBF, 115, 0}, []Event{ControlEvent{Control: layout.Play}}},
		{"up pressed", []byte{0xB0, 104, 127}, []Event{ControlEvent{Control: layout.Up, Pressed: true}}},
		{"up half", []byte{0xB0, 104, 100}, []Event{ControlEvent{Control: layout.Up}}},
		{"up on wrong channel", []byte{0xBF, 104, 127}, nil},
		{"shift", []byte{0xB0, 108, 127}, []Event{ControlEvent{Control: layout.Shift, Pressed: true}}},
		{"drum pad", []byte{0x99, 40, 90}, []Event{PadEvent{Mode: layout.Drum, Index: 0, Pressed: true, Velocity: 90}}},
		{"drum pad off", []byte{0x89, 47, 0}, []Event{PadEvent{Mode: layout.Drum, Index: 15}}},
		{"session pad via channel 1", []byte{0x90, 112, 5}, []Event{PadEvent{Mode: layout.Session, Index: 8, Pressed: true, Velocity: 5}}},
		{"pad off keeps velocity", []byte{0x80, 96, 64}, []Event{PadEvent{Mode: layout.Session, Index: 0, Velocity: 64}}},
		{"pad on other channel", []byte{0x92, 40, 90}, nil},
		{"unmapped note", []byte{0x99, 60, 90}, nil},
		{"start", []byte{0xFA}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeDAW(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeDAW(% X) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIgnored(t *testing.T) {
	for b := 0xF8; b <= 0xFF; b++ {
		if !Ignored([]byte{byte(b)}) {
			t.Errorf("Ignored(%X) = false", b)
		}
	}
	if Ignored([]byte{0xF0, 0x00}) {
		t.Error("Ignored(F0) = true, want false")
	}
}
