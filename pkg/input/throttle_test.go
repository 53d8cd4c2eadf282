package input

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestThrottleLeadingAndTrailing(t *testing.T) {
	r := &recorder{}
	th := NewThrottle(time.Hour, r.emit)

	th.Push(PitchEvent{Value: 1})
	th.Push(PitchEvent{Value: 2})
	th.Push(PitchEvent{Value: 3})

	got := r.snapshot()
	if len(got) != 1 || got[0] != (PitchEvent{Value: 1}) {
		t.Fatalf("leading events = %v, want [pitch 1]", got)
	}

	th.Flush()
	got = r.snapshot()
	if len(got) != 2 || got[1] != (PitchEvent{Value: 3}) {
		t.Errorf("after Flush() events = %v, want trailing pitch 3", got)
	}
}

func TestThrottleKeys(t *testing.T) {
	r := &recorder{}
	th := NewThrottle(time.Hour, r.emit)

	th.Push(KnobEvent{Index: 0, Value: 1})
	th.Push(KnobEvent{Index: 1, Value: 1})
	th.Push(ModulationEvent{Value: 1})
	th.Push(KnobEvent{Index: 0, Value: 2})

	if got := len(r.snapshot()); got != 3 {
		t.Errorf("emitted %d events, want 3 leading edges", got)
	}
}

func TestThrottlePassThrough(t *testing.T) {
	r := &recorder{}
	th := NewThrottle(time.Hour, r.emit)

	th.Push(KeyEvent{Index: 1, Pressed: true})
	th.Push(KeyEvent{Index: 1})
	th.Push(PadEvent{Index: 2, Pressed: true})
	if got := len(r.snapshot()); got != 3 {
		t.Errorf("emitted %d discrete events, want 3", got)
	}
}

func TestThrottleDisabled(t *testing.T) {
	r := &recorder{}
	th := NewThrottle(time.Hour, r.emit)
	th.SetEnabled(false)

	for i := 0; i < 5; i++ {
		th.Push(PitchEvent{Value: i})
	}
	if got := len(r.snapshot()); got != 5 {
		t.Errorf("emitted %d events while disabled, want 5", got)
	}
}

func TestThrottleWindowExpires(t *testing.T) {
	r := &recorder{}
	th := NewThrottle(5*time.Millisecond, r.emit)

	th.Push(PitchEvent{Value: 1})
	th.Push(PitchEvent{Value: 2})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(r.snapshot()) == 2 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	got := r.snapshot()
	if len(got) != 2 || got[1] != (PitchEvent{Value: 2}) {
		t.Errorf("events = %v, want trailing pitch 2", got)
	}
}
