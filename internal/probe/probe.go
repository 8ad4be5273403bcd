package probe

import (
	"sync"
	"time"
)

// Event is one recorded actuation. It is never modified after Emit returns.
type Event struct {
	// Timestamp is wall-clock seconds since the Unix epoch.
	Timestamp float64        `json:"timestamp"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload"`
}

// Time returns the event timestamp as a time.Time.
func (e Event) Time() time.Time {
	sec := int64(e.Timestamp)
	nsec := int64((e.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// Name returns the "name" payload field, or "" when absent.
func (e Event) Name() string {
	name, _ := e.Payload["name"].(string)
	return name
}

// Listener receives every recorded event. Listeners run on the emitting
// goroutine and must not block.
type Listener func(Event)

// Probe is an append-only, in-memory event log.
type Probe struct {
	mu        sync.Mutex
	events    []Event
	listeners []Listener
	now       func() time.Time
}

// Option configures a Probe.
type Option func(*Probe)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Probe) {
		p.now = now
	}
}

// New creates an empty Probe.
func New(opts ...Option) *Probe {
	p := &Probe{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe registers a listener for events emitted from now on.
func (p *Probe) Subscribe(l Listener) {
	p.mu.Lock()
	p.listeners = append(p.listeners, l)
	p.mu.Unlock()
}

// Emit records an event of the given kind. The payload is copied, so the
// caller may reuse its map.
func (p *Probe) Emit(kind string, payload map[string]any) Event {
	ev := Event{
		Kind:    kind,
		Payload: copyPayload(payload),
	}

	p.mu.Lock()
	ev.Timestamp = float64(p.now().UnixNano()) / 1e9
	p.events = append(p.events, ev)
	listeners := p.listeners
	p.mu.Unlock()

	for _, l := range listeners {
		l(copyEvent(ev))
	}
	return copyEvent(ev)
}

// Snapshot returns a copy of every recorded event in emission order.
// The result can be modified freely.
func (p *Probe) Snapshot() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Event, len(p.events))
	for i, ev := range p.events {
		out[i] = copyEvent(ev)
	}
	return out
}

// Clear discards every recorded event.
func (p *Probe) Clear() {
	p.mu.Lock()
	p.events = nil
	p.mu.Unlock()
}

// Len returns the number of recorded events.
func (p *Probe) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func copyEvent(ev Event) Event {
	ev.Payload = copyPayload(ev.Payload)
	return ev
}

func copyPayload(m map[string]any) map[string]any {
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = copyValue(v)
	}
	return cpy
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyPayload(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = copyValue(elem)
		}
		return cpy
	case []int:
		return append([]int(nil), val...)
	default:
		return v
	}
}
