package surface

import (
	"github.com/james-see/launchkeyctl/pkg/history"
	"github.com/james-see/launchkeyctl/pkg/input"
	"github.com/james-see/launchkeyctl/pkg/settings"
	"github.com/james-see/launchkeyctl/pkg/state"
)

// HandleGeneral processes bytes from the keyboard input
func (s *Surface) HandleGeneral(raw []byte) {
	if input.Ignored(raw) {
		return
	}
	s.logIn(history.General, raw)
	for _, e := range input.DecodeGeneral(raw) {
		s.throttle.Push(e)
	}
}

// HandleDAW processes bytes from the DAW input
func (s *Surface) HandleDAW(raw []byte) {
	if input.Ignored(raw) {
		return
	}
	s.logIn(history.DAW, raw)
	for _, e := range input.DecodeDAW(raw) {
		s.throttle.Push(e)
	}
}

func (s *Surface) apply(e input.Event) {
	s.state.Apply(e)
	s.notifyState()
}

// SubscribeState calls fn with a snapshot after every state change
func (s *Surface) SubscribeState(fn func(state.Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.stateSubs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.stateSubs, id)
		s.subMu.Unlock()
	}
}

// SubscribeSettings calls fn with the new document after every change
func (s *Surface) SubscribeSettings(fn func(settings.Map)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.settingsSubs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.settingsSubs, id)
		s.subMu.Unlock()
	}
}

func (s *Surface) notifyState() {
	s.subMu.Lock()
	if len(s.stateSubs) == 0 {
		s.subMu.Unlock()
		return
	}
	fns := make([]func(state.Snapshot), 0, len(s.stateSubs))
	for _, fn := range s.stateSubs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	snap := s.state.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Surface) notifySettings(m settings.Map) {
	s.subMu.Lock()
	fns := make([]func(settings.Map), 0, len(s.settingsSubs))
	for _, fn := range s.settingsSubs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(m.Clone())
	}
}
