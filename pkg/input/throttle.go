package input

import (
	"fmt"
	"sync"
	"time"
)

// DefaultWindow is the throttle window for continuous controls
const DefaultWindow = 10 * time.Millisecond

// Throttle rate-limits continuous events (pitch, modulation, knobs) per
// source. The first event of a window is emitted at once and the latest
// event seen during the window is emitted when it closes. Other events
// pass straight through.
type Throttle struct {
	mu      sync.Mutex
	window  time.Duration
	enabled bool
	emit    func(Event)
	slots   map[string]*slot
}

type slot struct {
	timer   *time.Timer
	pending Event
}

// NewThrottle returns an enabled throttle calling emit
func NewThrottle(window time.Duration, emit func(Event)) *Throttle {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Throttle{
		window:  window,
		enabled: true,
		emit:    emit,
		slots:   make(map[string]*slot),
	}
}

func throttleKey(e Event) (string, bool) {
	switch ev := e.(type) {
	case PitchEvent:
		return "pitch", true
	case ModulationEvent:
		return "modulation", true
	case KnobEvent:
		return fmt.Sprintf("knob:%d", ev.Index), true
	}
	return "", false
}

// Push submits one event
func (t *Throttle) Push(e Event) {
	key, continuous := throttleKey(e)

	t.mu.Lock()
	if !t.enabled || !continuous {
		t.mu.Unlock()
		t.emit(e)
		return
	}
	if s, ok := t.slots[key]; ok {
		s.pending = e
		t.mu.Unlock()
		return
	}
	s := &slot{}
	t.slots[key] = s
	s.timer = time.AfterFunc(t.window, func() { t.close(key, s) })
	t.mu.Unlock()

	t.emit(e)
}

func (t *Throttle) close(key string, s *slot) {
	t.mu.Lock()
	if t.slots[key] != s {
		t.mu.Unlock()
		return
	}
	e := s.pending
	if e == nil {
		delete(t.slots, key)
		t.mu.Unlock()
		return
	}
	s.pending = nil
	s.timer = time.AfterFunc(t.window, func() { t.close(key, s) })
	t.mu.Unlock()

	t.emit(e)
}

// Flush emits every pending trailing event now and resets all windows
func (t *Throttle) Flush() {
	t.mu.Lock()
	var pending []Event
	for key, s := range t.slots {
		s.timer.Stop()
		if s.pending != nil {
			pending = append(pending, s.pending)
		}
		delete(t.slots, key)
	}
	t.mu.Unlock()

	for _, e := range pending {
		t.emit(e)
	}
}

func (t *Throttle) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SetEnabled toggles throttling. Disabling flushes pending events.
func (t *Throttle) SetEnabled(enabled bool) {
	t.mu.Lock()
	t.enabled = enabled
	t.mu.Unlock()
	if !enabled {
		t.Flush()
	}
}
