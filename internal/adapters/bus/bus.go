// Package bus is an in-process, asynchronous ports.Publisher. Events are
// queued on a buffered channel and delivered in order by a single
// dispatcher goroutine, so Publish never blocks the caller.
package bus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/corey/idebridge/internal/ports"
)

// DefaultQueueSize is the event buffer used when New is given a size <= 0.
const DefaultQueueSize = 256

// Subscriber receives every delivered event.
type Subscriber func(ev ports.Event)

// Bus fans events out to subscribers in publish order.
type Bus struct {
	ch      chan ports.Event
	dropped atomic.Int64
	wg      sync.WaitGroup

	mu     sync.RWMutex // guards closed and the send side of ch
	closed bool

	seqMu    sync.Mutex
	skipping bool // an event was dropped; drop until the next leading event

	subsMu sync.RWMutex
	subs   []Subscriber
}

// New starts a bus with a queue of queueSize events.
func New(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	b := &Bus{ch: make(chan ports.Event, queueSize)}
	b.wg.Add(1)
	go b.dispatch()
	return b
}

// Subscribe registers fn for all subsequent events.
func (b *Bus) Subscribe(fn Subscriber) {
	b.subsMu.Lock()
	b.subs = append(b.subs, fn)
	b.subsMu.Unlock()
}

// Publish enqueues ev. When the queue is full, or the bus is closed, the
// event is dropped and counted.
//
// After a drop, the follow-up events of the same message (token activation,
// window activation) are dropped too until the next leading event (status or
// new project) is queued. Subscribers may miss the tail of a message but
// never see a gap in its middle.
func (b *Bus) Publish(ev ports.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.dropped.Add(1)
		return
	}

	b.seqMu.Lock()
	defer b.seqMu.Unlock()
	if b.skipping && !leading(ev) {
		b.dropped.Add(1)
		return
	}
	select {
	case b.ch <- ev:
		b.skipping = false
	default:
		b.dropped.Add(1)
		b.skipping = true
	}
}

// leading reports whether ev opens the emissions of an inbound message.
func leading(ev ports.Event) bool {
	switch ev.(type) {
	case ports.StatusEvent, ports.NewProjectEvent:
		return true
	}
	return false
}

// DroppedCount returns the number of events that were not queued.
func (b *Bus) DroppedCount() int64 {
	return b.dropped.Load()
}

// Close stops accepting events, delivers everything already queued and
// waits for the dispatcher to exit.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.ch)
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bus) dispatch() {
	defer b.wg.Done()
	for ev := range b.ch {
		b.subsMu.RLock()
		subs := b.subs
		b.subsMu.RUnlock()
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// LogSubscriber returns a subscriber that writes each event to logger at
// info level, or warn for error status events.
func LogSubscriber(logger *slog.Logger) Subscriber {
	return func(ev ports.Event) {
		switch e := ev.(type) {
		case ports.StatusEvent:
			level := slog.LevelInfo
			if e.Error {
				level = slog.LevelWarn
			}
			logger.Log(context.Background(), level, "status", "text", e.Text)
		case ports.ActivateTokenLocationsEvent:
			logger.Info("activate token locations", "ids", e.LocationIDs)
		case ports.ActivateWindowEvent:
			logger.Info("activate window")
		case ports.NewProjectEvent:
			logger.Info("new project",
				"name", e.Name,
				"root", e.RootPath,
				"items", len(e.ProjectItems),
				"include_paths", len(e.IncludePaths),
			)
		default:
			logger.Info("event", "kind", ev.Kind())
		}
	}
}
