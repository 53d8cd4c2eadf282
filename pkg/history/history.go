// Package history keeps a bounded log of MIDI traffic
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/james-see/launchkeyctl/pkg/message"
)

// Capacity is the maximum number of retained entries
const Capacity = 1000

type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

type Source string

const (
	Manual  Source = "manual"
	DAW     Source = "daw"
	General Source = "general"
)

// Entry is one logged message
type Entry struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Direction   Direction      `json:"direction"`
	Message     message.Bytes  `json:"message"`
	Params      message.Params `json:"params"`
	Source      Source         `json:"source"`
	Description string         `json:"description"`
}

// Log is a fixed ring of entries, read back newest first
type Log struct {
	mu          sync.RWMutex
	ring        []Entry
	head        int // next write position
	size        int
	enabled     bool
	subscribers map[int]func(Entry)
	nextSub     int
	now         func() time.Time
}

// New returns a log with logging disabled
func New() *Log {
	return &Log{
		subscribers: make(map[int]func(Entry)),
		now:         time.Now,
	}
}

// Add records m. It does nothing while logging is disabled.
func (l *Log) Add(dir Direction, src Source, m message.Message) (Entry, bool) {
	l.mu.Lock()
	if !l.enabled {
		l.mu.Unlock()
		return Entry{}, false
	}
	wire := make([]byte, len(m.Wire))
	copy(wire, m.Wire)
	e := Entry{
		ID:          uuid.NewString(),
		Timestamp:   l.now(),
		Direction:   dir,
		Message:     wire,
		Params:      m.Params,
		Source:      src,
		Description: message.Describe(m.Params),
	}
	if l.ring == nil {
		l.ring = make([]Entry, Capacity)
	}
	l.ring[l.head] = e
	l.head = (l.head + 1) % Capacity
	if l.size < Capacity {
		l.size++
	}
	subs := make([]func(Entry), 0, len(l.subscribers))
	for _, fn := range l.subscribers {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(e)
	}
	return e, true
}

// Entries returns up to limit entries, newest first. A limit of zero or
// less returns everything.
func (l *Log) Entries(limit int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := l.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, n)
	for i := range out {
		out[i] = l.ring[(l.head-1-i+Capacity)%Capacity]
	}
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Clear drops every entry
func (l *Log) Clear() {
	l.mu.Lock()
	l.ring = nil
	l.head = 0
	l.size = 0
	l.mu.Unlock()
}

func (l *Log) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

func (l *Log) SetEnabled(enabled bool) {
	l.mu.Lock()
	l.enabled = enabled
	l.mu.Unlock()
}

// Subscribe calls fn for every appended entry until the returned func is
// called
func (l *Log) Subscribe(fn func(Entry)) (unsubscribe func()) {
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subscribers[id] = fn
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.subscribers, id)
		l.mu.Unlock()
	}
}
