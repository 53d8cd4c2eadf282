package settings

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/james-see/launchkeyctl/pkg/layout"
)

var log = logrus.WithField("component", "settings")

// ChangeKind tells listeners how much of the document changed
type ChangeKind int

const (
	ChangePad ChangeKind = iota
	ChangeControl
	ChangeAll
)

func (k ChangeKind) String() string {
	switch k {
	case ChangePad:
		return "pad"
	case ChangeControl:
		return "control"
	default:
		return "all"
	}
}

// Change describes one successful mutation
type Change struct {
	Kind    ChangeKind
	Mode    layout.Mode
	Indices []int
	CC      uint8
}

// Store guards the settings document and persists it on every change
type Store struct {
	mu        sync.RWMutex
	m         Map
	persister Persister
	listeners []func(Change, Map)

	// held from mutation through listener dispatch so listeners see
	// changes in the order they were applied
	writeMu sync.Mutex
}

// NewStore wraps m. A nil persister disables persistence.
func NewStore(m Map, p Persister) *Store {
	if m.Drum == nil || m.Session == nil || m.Custom == nil || m.Controls == nil {
		m = fill(m)
	}
	return &Store{m: m.Clone(), persister: p}
}

func fill(m Map) Map {
	if m.Drum == nil {
		m.Drum = Pads{}
	}
	if m.Session == nil {
		m.Session = Pads{}
	}
	if m.Custom == nil {
		m.Custom = Pads{}
	}
	if m.Controls == nil {
		m.Controls = map[uint8]ButtonSettings{}
	}
	return m
}

// OnChange registers fn to run after each mutation with the new document.
// fn must not modify the store.
func (s *Store) OnChange(fn func(Change, Map)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Pad returns the stored settings of a pad; absence means the default
func (s *Store) Pad(mode layout.Mode, index int) (ButtonSettings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.m.Pad(mode, index)
	return b.clone(), ok
}

// Control returns the stored settings of a control button
func (s *Store) Control(cc uint8) (ButtonSettings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.m.Controls[cc]
	return b.clone(), ok
}

// Snapshot returns a deep copy of the document
func (s *Store) Snapshot() Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Clone()
}

// SetPad replaces a pad's settings. Nil removes them.
func (s *Store) SetPad(mode layout.Mode, index int, b *ButtonSettings) error {
	return s.SetPads(mode, []int{index}, b)
}

// SetPads applies one setting to several pads of a mode at once
func (s *Store) SetPads(mode layout.Mode, indices []int, b *ButtonSettings) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, mode)
	}
	for _, i := range indices {
		if err := validIndex(i); err != nil {
			return err
		}
	}
	if b != nil {
		if err := b.Validate(); err != nil {
			return err
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	pads, _ := s.m.Pads(mode)
	for _, i := range indices {
		if b == nil {
			delete(pads, i)
		} else {
			pads[i] = b.clone()
		}
	}
	snap := s.m.Clone()
	s.mu.Unlock()

	s.changed(Change{Kind: ChangePad, Mode: mode, Indices: append([]int(nil), indices...)}, snap)
	return nil
}

// SetControl replaces a control button's settings. Nil removes them.
func (s *Store) SetControl(cc uint8, b *ButtonSettings) error {
	if cc == layout.ShiftCC {
		return ErrShiftNotConfigurable
	}
	if cc > 127 {
		return fmt.Errorf("%w: %d", ErrInvalidControl, cc)
	}
	if b != nil {
		if err := b.Validate(); err != nil {
			return err
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if b == nil {
		delete(s.m.Controls, cc)
	} else {
		s.m.Controls[cc] = b.clone()
	}
	snap := s.m.Clone()
	s.mu.Unlock()

	s.changed(Change{Kind: ChangeControl, CC: cc}, snap)
	return nil
}

// ReplaceAll validates m and swaps it in. On error the store is untouched.
func (s *Store) ReplaceAll(m Map) error {
	m = fill(m)
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	s.m = m.Clone()
	snap := s.m.Clone()
	s.mu.Unlock()

	s.changed(Change{Kind: ChangeAll}, snap)
	return nil
}

func (s *Store) changed(c Change, snap Map) {
	if s.persister != nil {
		if err := s.persister.Save(snap); err != nil {
			log.WithError(err).Warn("failed to persist settings")
		}
	}
	s.mu.RLock()
	listeners := make([]func(Change, Map), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(c, snap)
	}
}
