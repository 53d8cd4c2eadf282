// Package clock transmits MIDI start, stop and timing clock messages at a
// BPM-derived rate
package clock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/james-see/launchkeyctl/pkg/history"
	"github.com/james-see/launchkeyctl/pkg/message"
)

var log = logrus.WithField("component", "clock")

const (
	MinBPM           = 20
	MaxBPM           = 300
	DefaultBPM       = 120
	PulsesPerQuarter = 24
)

var ErrNoOutput = errors.New("no clock output")

// Output is where clock messages are written
type Output interface {
	Send(m message.Message) error
}

// Resolver returns the output to use for the next transmission
type Resolver func() (Output, error)

// Recorder logs the Start and Stop messages
type Recorder interface {
	Add(dir history.Direction, src history.Source, m message.Message) (history.Entry, bool)
}

// ClampBPM limits bpm to the supported range
func ClampBPM(bpm int) int {
	if bpm < MinBPM {
		return MinBPM
	}
	if bpm > MaxBPM {
		return MaxBPM
	}
	return bpm
}

// Interval returns the pulse interval for bpm after clamping
func Interval(bpm int) time.Duration {
	bpm = ClampBPM(bpm)
	return time.Duration(float64(time.Minute) / float64(bpm*PulsesPerQuarter))
}

// IntervalMillis is Interval expressed in milliseconds
func IntervalMillis(bpm int) float64 {
	bpm = ClampBPM(bpm)
	return 60000 / float64(bpm*PulsesPerQuarter)
}

// Status is a snapshot of the driver
type Status struct {
	Running    bool    `json:"running"`
	BPM        int     `json:"bpm"`
	RunningBPM int     `json:"runningBpm,omitempty"`
	IntervalMS float64 `json:"intervalMs"`
}

// Driver is a STOPPED/RUNNING clock transmitter
type Driver struct {
	mu         sync.Mutex
	resolve    Resolver
	rec        Recorder
	bpm        int
	running    bool
	runningBPM int
	stop       chan struct{}
	done       chan struct{}
}

// New creates a stopped driver. rec may be nil.
func New(resolve Resolver, rec Recorder) *Driver {
	return &Driver{resolve: resolve, rec: rec, bpm: DefaultBPM}
}

// SetBPM changes the rate used by the next Start. A running clock keeps
// its current rate.
func (d *Driver) SetBPM(bpm int) {
	d.mu.Lock()
	d.bpm = ClampBPM(bpm)
	d.mu.Unlock()
}

func (d *Driver) BPM() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bpm
}

func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := Status{Running: d.running, BPM: d.bpm, IntervalMS: IntervalMillis(d.bpm)}
	if d.running {
		s.RunningBPM = d.runningBPM
		s.IntervalMS = IntervalMillis(d.runningBPM)
	}
	return s
}

// Start sends Start and begins pulsing. Starting a running clock does
// nothing.
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}

	out, err := d.output()
	if err != nil {
		return err
	}
	if err := out.Send(message.Start); err != nil {
		return fmt.Errorf("failed to send start: %w", err)
	}
	d.record(message.Start)

	d.running = true
	d.runningBPM = d.bpm
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go d.pulse(out, Interval(d.bpm), d.stop, d.done)

	log.WithField("bpm", d.bpm).Info("clock started")
	return nil
}

// Stop halts pulsing and sends Stop. Stopping a stopped clock does nothing.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return nil
	}
	// the pulse goroutine never takes d.mu
	close(d.stop)
	<-d.done
	d.running = false

	out, err := d.output()
	if err != nil {
		log.WithError(err).Debug("clock stopped without output")
		return nil
	}
	if err := out.Send(message.Stop); err != nil {
		return fmt.Errorf("failed to send stop: %w", err)
	}
	d.record(message.Stop)
	log.Info("clock stopped")
	return nil
}

func (d *Driver) output() (Output, error) {
	if d.resolve == nil {
		return nil, ErrNoOutput
	}
	out, err := d.resolve()
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNoOutput
	}
	return out, nil
}

func (d *Driver) record(m message.Message) {
	if d.rec != nil {
		d.rec.Add(history.Out, history.Manual, m)
	}
}

func (d *Driver) pulse(out Output, interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := out.Send(message.Clock); err != nil {
				log.WithError(err).Debug("clock pulse dropped")
			}
		}
	}
}
