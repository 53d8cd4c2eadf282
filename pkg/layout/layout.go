// Package layout describes the physical geometry of the controller: pad
// grids per mode, knob and control button numbering, and LED color channels.
package layout

import (
	"fmt"
	"strings"
)

// Mode is a pad mode as reported and accepted by the device
type Mode uint8

const (
	Drum    Mode = 1
	Session Mode = 2
	Custom  Mode = 5
)

// Modes lists every recognised pad mode in display order
var Modes = []Mode{Drum, Session, Custom}

func (m Mode) String() string {
	switch m {
	case Drum:
		return "DRUM"
	case Session:
		return "SESSION"
	case Custom:
		return "CUSTOM"
	default:
		return fmt.Sprintf("MODE(%d)", uint8(m))
	}
}

// Valid reports whether m is a recognised pad mode
func (m Mode) Valid() bool {
	return m == Drum || m == Session || m == Custom
}

// ParseMode accepts either the numeric value or the label
func ParseMode(s string) (Mode, bool) {
	for _, m := range Modes {
		if strings.EqualFold(s, m.String()) || s == fmt.Sprint(uint8(m)) {
			return m, true
		}
	}
	return 0, false
}

const (
	Rows    = 2
	Cols    = 8
	NumPads = Rows * Cols
)

// NoteGrid holds the note number of each pad, row-major
type NoteGrid [Rows][Cols]uint8

// Note returns the note for a pad index
func (g NoteGrid) Note(index int) uint8 {
	return g[index/Cols][index%Cols]
}

var (
	DrumGrid = NoteGrid{
		{40, 41, 42, 43, 48, 49, 50, 51},
		{36, 37, 38, 39, 44, 45, 46, 47},
	}
	SessionGrid = NoteGrid{
		{96, 97, 98, 99, 100, 101, 102, 103},
		{112, 113, 114, 115, 116, 117, 118, 119},
	}
)

// GridModes lists the modes that have a grid, in sync order
var GridModes = []Mode{Drum, Session}

// Grid returns the note grid for a mode. CUSTOM has none.
func Grid(m Mode) (NoteGrid, bool) {
	switch m {
	case Drum:
		return DrumGrid, true
	case Session:
		return SessionGrid, true
	}
	return NoteGrid{}, false
}

// Cell locates one pad on one grid
type Cell struct {
	Mode  Mode
	Row   int
	Col   int
	Index int
}

// Lookup returns every cell, across all grids, that carries note
func Lookup(note uint8) []Cell {
	var cells []Cell
	for _, m := range GridModes {
		g, _ := Grid(m)
		for r := 0; r < Rows; r++ {
			for c := 0; c < Cols; c++ {
				if g[r][c] == note {
					cells = append(cells, Cell{Mode: m, Row: r, Col: c, Index: r*Cols + c})
				}
			}
		}
	}
	return cells
}

// PadModeOption is a selectable pad mode with its UI label
type PadModeOption struct {
	Mode  Mode   `json:"mode"`
	Label string `json:"label"`
}

// PadModeOptions returns the modes offered to the user
func PadModeOptions() []PadModeOption {
	opts := make([]PadModeOption, len(Modes))
	for i, m := range Modes {
		opts[i] = PadModeOption{Mode: m, Label: m.String()}
	}
	return opts
}
