// Package ledsync turns a settings document into the ordered message
// sequence that brings the controller LEDs in line with it
package ledsync

import (
	"context"
	"fmt"

	"github.com/james-see/launchkeyctl/pkg/history"
	"github.com/james-see/launchkeyctl/pkg/layout"
	"github.com/james-see/launchkeyctl/pkg/message"
	"github.com/james-see/launchkeyctl/pkg/settings"
)

// Output receives each message of a sync run
type Output interface {
	Send(m message.Message) error
}

// OutputFunc adapts a function to Output
type OutputFunc func(message.Message) error

func (f OutputFunc) Send(m message.Message) error { return f(m) }

// Recorder is the part of history.Log used for outgoing traffic
type Recorder interface {
	Add(dir history.Direction, src history.Source, m message.Message) (history.Entry, bool)
}

// Logging records every successful send as outgoing manual traffic
func Logging(out Output, rec Recorder) Output {
	return OutputFunc(func(m message.Message) error {
		if err := out.Send(m); err != nil {
			return err
		}
		rec.Add(history.Out, history.Manual, m)
		return nil
	})
}

// Plan returns the full sync sequence for m without sending it.
//
// Order: default colors for unconfigured LED controls, configured controls
// by ascending CC, then every DRUM and SESSION pad row-major.
func Plan(m settings.Map) []message.Message {
	var plan []message.Message
	for _, cc := range layout.ColorControlCCs {
		if _, ok := m.Controls[cc]; !ok {
			plan = append(plan, controlDefault(cc))
		}
	}
	for _, cc := range layout.SortedCCs(m.Controls) {
		if cc == layout.ShiftCC {
			continue
		}
		plan = append(plan, controlMessages(cc, m.Controls[cc])...)
	}
	for _, mode := range layout.GridModes {
		for i := 0; i < layout.NumPads; i++ {
			plan = append(plan, padMessages(mode, i, m)...)
		}
	}
	return plan
}

// PlanPad returns the messages a full sync would send for one pad
func PlanPad(mode layout.Mode, index int, m settings.Map) []message.Message {
	if _, ok := layout.Grid(mode); !ok || index < 0 || index >= layout.NumPads {
		return nil
	}
	return padMessages(mode, index, m)
}

// PlanControl returns the messages a full sync would send for one control
func PlanControl(cc uint8, m settings.Map) []message.Message {
	if cc == layout.ShiftCC {
		return nil
	}
	if b, ok := m.Controls[cc]; ok {
		return controlMessages(cc, b)
	}
	if layout.HasColor(cc) {
		return []message.Message{controlDefault(cc)}
	}
	return nil
}

// Sync sends the full plan for m. The first failed send aborts the run;
// messages already sent stay sent.
func Sync(ctx context.Context, out Output, m settings.Map) (int, error) {
	return send(ctx, out, Plan(m))
}

// SyncPad re-sends the colors of one pad
func SyncPad(ctx context.Context, out Output, mode layout.Mode, index int, m settings.Map) (int, error) {
	return send(ctx, out, PlanPad(mode, index, m))
}

// SyncControl re-sends the colors of one control button
func SyncControl(ctx context.Context, out Output, cc uint8, m settings.Map) (int, error) {
	return send(ctx, out, PlanControl(cc, m))
}

func send(ctx context.Context, out Output, plan []message.Message) (int, error) {
	for i, msg := range plan {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := out.Send(msg); err != nil {
			return i, fmt.Errorf("failed to send %s (%d of %d): %w", msg, i+1, len(plan), err)
		}
	}
	return len(plan), nil
}

func controlDefault(cc uint8) message.Message {
	return message.New(message.Params{
		Channel: layout.ControlColorChannel(layout.Solid),
		Status:  message.CC,
		Data1:   cc,
	})
}

func controlMessages(cc uint8, b settings.ButtonSettings) []message.Message {
	ch := layout.ControlColorChannel(layout.Solid)
	if b.ColorMode == layout.Pulse {
		ch = layout.ControlColorChannel(layout.Pulse)
	}
	msgs := []message.Message{message.New(message.Params{
		Channel: ch,
		Status:  message.CC,
		Data1:   cc,
		Data2:   b.ColorValue,
	})}
	if v, ok := b.FlashEffective(); ok {
		msgs = append(msgs, message.New(message.Params{
			Channel: layout.ControlColorChannel(layout.Flash),
			Status:  message.CC,
			Data1:   cc,
			Data2:   v,
		}))
	}
	return msgs
}

func padMessages(mode layout.Mode, index int, m settings.Map) []message.Message {
	grid, _ := layout.Grid(mode)
	note := grid.Note(index)
	b := m.EffectivePad(mode, index)

	ch := layout.ColorChannel(mode, layout.Solid)
	if b.ColorMode == layout.Pulse {
		ch = layout.ColorChannel(mode, layout.Pulse)
	}
	msgs := []message.Message{message.New(message.Params{
		Channel: ch,
		Status:  message.NON,
		Data1:   note,
		Data2:   b.ColorValue,
	})}
	if v, ok := b.FlashEffective(); ok {
		msgs = append(msgs, message.New(message.Params{
			Channel: layout.ColorChannel(mode, layout.Flash),
			Status:  message.NON,
			Data1:   note,
			Data2:   v,
		}))
	}
	return msgs
}
