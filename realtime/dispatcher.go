package realtime

import (
	"encoding/json"
	"sync"
)

// Handler receives the raw payload of a server event. Decode with
// UnmarshalData into the event struct matching the event name.
type Handler func(data json.RawMessage)

// Subscription identifies a registered handler so it can be removed.
type Subscription struct {
	event string
	id    uint64
}

type entry struct {
	id uint64
	fn Handler
}

// Dispatcher routes server events to registered handlers. Handlers
// for an event run synchronously in registration order; a panicking
// handler is recovered so the remaining handlers still run.
type Dispatcher struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[string][]entry
	onError func(error)
	logger  Logger
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher(logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		entries: make(map[string][]entry),
		logger:  logger,
	}
}

// On registers a handler for the named event and returns its
// subscription handle.
func (d *Dispatcher) On(event string, fn Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.entries[event] = append(d.entries[event], entry{id: d.nextID, fn: fn})
	return Subscription{event: event, id: d.nextID}
}

// Off removes a previously registered handler. Removing a handle that
// was never registered, or removing it twice, is a no-op.
func (d *Dispatcher) Off(sub Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.entries[sub.event]
	for i, e := range list {
		if e.id == sub.id {
			d.entries[sub.event] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// SetOnError registers the callback invoked for protocol errors.
func (d *Dispatcher) SetOnError(fn func(error)) {
	d.mu.Lock()
	d.onError = fn
	d.mu.Unlock()
}

// Dispatch fans an outbound envelope out to every handler registered
// for its event name.
func (d *Dispatcher) Dispatch(out Outbound) {
	if out.Type == outboundError && out.Error != nil {
		d.fireError(FromProtocolError(out.Error))
		return
	}

	d.mu.Lock()
	list := d.entries[out.Event]
	handlers := make([]entry, len(list))
	copy(handlers, list)
	d.mu.Unlock()

	for _, e := range handlers {
		d.invoke(out.Event, e, out.Data)
	}
}

func (d *Dispatcher) invoke(event string, e entry, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked", map[string]any{
				"event": event,
				"panic": r,
			})
		}
	}()
	e.fn(data)
}

func (d *Dispatcher) fireError(err error) {
	d.mu.Lock()
	fn := d.onError
	d.mu.Unlock()
	if fn != nil && err != nil {
		fn(err)
	}
}
