package surface

import (
	"context"
	"errors"
	"fmt"

	"github.com/james-see/launchkeyctl/pkg/history"
	"github.com/james-see/launchkeyctl/pkg/layout"
	"github.com/james-see/launchkeyctl/pkg/ledsync"
	"github.com/james-see/launchkeyctl/pkg/message"
	"github.com/james-see/launchkeyctl/pkg/port"
	"github.com/james-see/launchkeyctl/pkg/settings"
)

// withOutput runs fn against the selected output with every send logged.
// A missing port or driver skips fn and reports nothing sent.
func (s *Surface) withOutput(fn func(out ledsync.Output) (int, error)) (int, error) {
	s.mu.Lock()
	name := s.sel.Output
	s.mu.Unlock()

	if s.ports == nil {
		log.Debug("send skipped: MIDI unavailable")
		return 0, nil
	}
	out, err := s.ports.Output(name)
	if errors.Is(err, port.ErrPortNotFound) || errors.Is(err, port.ErrUnavailable) {
		log.WithError(err).Debug("send skipped")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return fn(ledsync.Logging(out, s.history))
}

func (s *Surface) sendAll(ctx context.Context, msgs ...message.Message) (int, error) {
	return s.withOutput(func(out ledsync.Output) (int, error) {
		for i, m := range msgs {
			if err := ctx.Err(); err != nil {
				return i, err
			}
			if err := out.Send(m); err != nil {
				return i, err
			}
		}
		return len(msgs), nil
	})
}

// Connect puts the device in DAW mode, selects the current pad mode and
// pushes every LED color
func (s *Surface) Connect(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.sel.Output == "" {
		s.mu.Unlock()
		return 0, ErrNoOutput
	}
	s.connected = true
	s.mu.Unlock()

	mode := s.state.Mode()
	snap := s.settings.Snapshot()
	n, err := s.withOutput(func(out ledsync.Output) (int, error) {
		if err := out.Send(message.DAWModeOn); err != nil {
			return 0, err
		}
		if err := out.Send(message.WithData2(message.PadMode, uint8(mode))); err != nil {
			return 1, err
		}
		n, err := ledsync.Sync(ctx, out, snap)
		return n + 2, err
	})
	if err != nil {
		s.mu.Lock()
		s.connected = false
		s.mu.Unlock()
		return n, fmt.Errorf("failed to connect: %w", err)
	}
	log.WithField("sent", n).Info("connected")
	return n, nil
}

// Disconnect leaves DAW mode
func (s *Surface) Disconnect(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.sel.Output == "" {
		s.mu.Unlock()
		return 0, ErrNoOutput
	}
	s.connected = false
	s.mu.Unlock()

	n, err := s.sendAll(ctx, message.DAWModeOff)
	if err != nil {
		return n, fmt.Errorf("failed to disconnect: %w", err)
	}
	log.Info("disconnected")
	return n, nil
}

// SetMode switches the pad mode on the device and in the local state
func (s *Surface) SetMode(ctx context.Context, mode layout.Mode) (int, error) {
	if !mode.Valid() {
		return 0, fmt.Errorf("%w: %d", settings.ErrInvalidMode, mode)
	}
	s.state.SetMode(mode)
	s.mu.Lock()
	s.cfg.Mode = mode
	s.mu.Unlock()
	s.saveConfig()
	s.notifyState()

	return s.sendAll(ctx, message.WithData2(message.PadMode, uint8(mode)))
}

// Sync pushes the full LED plan
func (s *Surface) Sync(ctx context.Context) (int, error) {
	snap := s.settings.Snapshot()
	return s.withOutput(func(out ledsync.Output) (int, error) {
		return ledsync.Sync(ctx, out, snap)
	})
}

// Plan returns what Sync would send
func (s *Surface) Plan() []message.Message {
	return ledsync.Plan(s.settings.Snapshot())
}

// SendRaw parses and sends a manually entered triplet unmodified
func (s *Surface) SendRaw(ctx context.Context, values []string, base message.Base) (message.Message, int, error) {
	m, err := message.ParseRaw(values, base)
	if err != nil {
		return message.Message{}, 0, err
	}
	n, err := s.sendAll(ctx, m)
	return m, n, err
}

// SendNamed sends a registry message, optionally replacing its last data
// byte
func (s *Surface) SendNamed(ctx context.Context, name string, data2 *uint8) (message.Message, int, error) {
	m, ok := message.Lookup(name)
	if !ok {
		return message.Message{}, 0, fmt.Errorf("%w: %q", ErrUnknownMessage, name)
	}
	if data2 != nil && len(m.Wire) == 3 {
		m = message.WithData2(m, *data2)
	}
	n, err := s.sendAll(ctx, m)
	return m, n, err
}

func (s *Surface) settingsChanged(c settings.Change, snap settings.Map) {
	s.notifySettings(snap)
	if !s.Connected() {
		return
	}

	ctx := context.Background()
	n, err := s.withOutput(func(out ledsync.Output) (int, error) {
		switch c.Kind {
		case settings.ChangePad:
			total := 0
			for _, i := range c.Indices {
				n, err := ledsync.SyncPad(ctx, out, c.Mode, i, snap)
				total += n
				if err != nil {
					return total, err
				}
			}
			return total, nil
		case settings.ChangeControl:
			return ledsync.SyncControl(ctx, out, c.CC, snap)
		default:
			return ledsync.Sync(ctx, out, snap)
		}
	})
	entry := log.WithField("change", c.Kind.String()).WithField("sent", n)
	if err != nil {
		entry.WithError(err).Warn("settings sync failed")
		return
	}
	entry.Debug("settings synced")
}

// logIn records incoming traffic
func (s *Surface) logIn(src history.Source, raw []byte) {
	s.history.Add(history.In, src, message.FromRaw(raw))
}
