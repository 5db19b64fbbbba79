package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher forwards token-lifecycle events to a sink from a single
// delivery goroutine, so sinks never see concurrent Emit calls and slow
// sinks never stall a login or grant path. A nil *Dispatcher is valid
// and drops everything; the engine holds nil when auditing is disabled.
type Dispatcher struct {
	sink   Sink
	events chan Event
	block  bool

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Uint64
}

// NewDispatcher starts the delivery goroutine. Returns nil when auditing
// is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}

	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:   sink,
		events: make(chan Event, buffer),
		block:  !cfg.DropIfFull,
		done:   make(chan struct{}),
	}

	go d.deliver()

	return d
}

// deliver drains the event channel until Close closes it, so every event
// accepted before Close reaches the sink.
func (d *Dispatcher) deliver() {
	defer close(d.done)
	for event := range d.events {
		d.sink.Emit(context.Background(), event)
	}
}

// Emit queues an event for delivery. Events carry their emission time; a
// zero Timestamp is stamped here so sinks always see when the operation
// happened, not when the sink got around to it. In drop mode a full
// buffer counts the event as dropped instead of blocking the caller; in
// blocking mode Emit waits until the buffer accepts or ctx is done.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if !d.block {
		select {
		case d.events <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.events <- event:
	case <-ctx.Done():
	}
}

// Close stops accepting events, waits for the buffer to drain and for the
// delivery goroutine to exit. Safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	<-d.done
}

// Dropped reports how many events were discarded under backpressure.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
