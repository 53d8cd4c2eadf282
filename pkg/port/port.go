// Package port wraps the gomidi driver: it enumerates ports, resolves
// them by name and attaches listeners
package port

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/james-see/launchkeyctl/pkg/message"
)

var log = logrus.WithField("component", "port")

var (
	ErrUnavailable  = errors.New("MIDI driver unavailable")
	ErrPortNotFound = errors.New("MIDI port not found")
)

// Driver is the part of a gomidi driver used here
type Driver interface {
	Ins() ([]drivers.In, error)
	Outs() ([]drivers.Out, error)
	Close() error
}

// OpenFunc creates the driver
type OpenFunc func() (Driver, error)

// RtMidi opens the rtmidi driver
func RtMidi() (Driver, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, err
	}
	return drv, nil
}

// Sender writes one message to an output port
type Sender interface {
	Send(m message.Message) error
}

// Handler receives raw incoming bytes
type Handler func(raw []byte, timestampms int32)

// Access is the cached MIDI capability. The driver is opened on first use
// and reused for the life of the process; a failed open is reported once
// and not retried.
type Access struct {
	open OpenFunc
	once sync.Once
	drv  Driver
	err  error

	mu sync.Mutex
}

// NewAccess returns an Access using open. A nil open uses RtMidi.
func NewAccess(open OpenFunc) *Access {
	if open == nil {
		open = RtMidi
	}
	return &Access{open: open}
}

func (a *Access) driver() (Driver, error) {
	a.once.Do(func() {
		drv, err := a.open()
		if err == nil && drv == nil {
			err = errors.New("no driver")
		}
		if err != nil {
			a.err = fmt.Errorf("%w: %v", ErrUnavailable, err)
			log.WithError(err).Error("MIDI access unavailable")
			return
		}
		a.drv = drv
	})
	return a.drv, a.err
}

// Available reports whether the driver could be opened
func (a *Access) Available() bool {
	_, err := a.driver()
	return err == nil
}

// Inputs lists the input port names
func (a *Access) Inputs() ([]string, error) {
	drv, err := a.driver()
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to list inputs: %w", err)
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names, nil
}

// Outputs lists the output port names
func (a *Access) Outputs() ([]string, error) {
	drv, err := a.driver()
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("failed to list outputs: %w", err)
	}
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names, nil
}

func (a *Access) findOut(name string) (drivers.Out, error) {
	drv, err := a.driver()
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("failed to list outputs: %w", err)
	}
	for _, out := range outs {
		if out.String() == name {
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: output %q", ErrPortNotFound, name)
}

func (a *Access) findIn(name string) (drivers.In, error) {
	drv, err := a.driver()
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("failed to list inputs: %w", err)
	}
	for _, in := range ins {
		if in.String() == name {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: input %q", ErrPortNotFound, name)
}

type output struct {
	name string
	send func(midi.Message) error
}

func (o *output) Send(m message.Message) error {
	if err := o.send(m.MIDI()); err != nil {
		return fmt.Errorf("failed to send to %q: %w", o.name, err)
	}
	return nil
}

// Output resolves an output port by name
func (a *Access) Output(name string) (Sender, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: no output selected", ErrPortNotFound)
	}
	out, err := a.findOut(name)
	if err != nil {
		return nil, err
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to open output %q: %w", name, err)
	}
	return &output{name: name, send: send}, nil
}

// Listen attaches fn to an input port until stop is called
func (a *Access) Listen(name string, fn Handler) (stop func(), err error) {
	if name == "" {
		return nil, fmt.Errorf("%w: no input selected", ErrPortNotFound)
	}
	in, err := a.findIn(name)
	if err != nil {
		return nil, err
	}
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("failed to open input %q: %w", name, err)
	}
	stop, err = midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		fn([]byte(msg), timestampms)
	}, midi.HandleError(func(err error) {
		log.WithError(err).WithField("port", name).Warn("listener error")
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %q: %w", name, err)
	}
	log.WithField("port", name).Info("listening")
	return stop, nil
}

// Close releases the driver if it was opened. A driver that was never
// opened stays closed.
func (a *Access) Close() error {
	a.once.Do(func() {
		a.err = fmt.Errorf("%w: closed", ErrUnavailable)
	})
	if a.drv == nil {
		return nil
	}
	return a.drv.Close()
}
