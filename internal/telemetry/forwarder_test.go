package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/novaprops-core/internal/actuation"
	"github.com/nerrad567/novaprops-core/internal/probe"
)

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *fakePublisher) PublishJSON(topic string, _ any, _ bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

type fakeMetrics struct {
	mu     sync.Mutex
	kinds  []string
	frames []actuation.Stats
}

func (m *fakeMetrics) WriteActuation(kind string, _ map[string]any, _ time.Time) {
	m.mu.Lock()
	m.kinds = append(m.kinds, kind)
	m.mu.Unlock()
}

func (m *fakeMetrics) WriteFrameStats(packets uint64, lastUniverse int, active bool) {
	m.mu.Lock()
	m.frames = append(m.frames, actuation.Stats{Packets: packets, LastUniverse: lastUniverse, Active: active})
	m.mu.Unlock()
}

func (m *fakeMetrics) frameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []probe.Event
	err    error
}

func (r *fakeRecorder) Record(_ context.Context, ev probe.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	channels []string
}

func (b *fakeBroadcaster) Broadcast(channel string, _ any) {
	b.mu.Lock()
	b.channels = append(b.channels, channel)
	b.mu.Unlock()
}

type fixedStats struct{}

func (fixedStats) Stats() actuation.Stats {
	return actuation.Stats{Packets: 7, LastUniverse: 2, Active: true}
}

func topicFor(kind string) string { return "novaprops/probe/" + kind }

func TestForwarder_FansOut(t *testing.T) {
	pub := &fakePublisher{}
	metrics := &fakeMetrics{}
	rec := &fakeRecorder{}
	hub := &fakeBroadcaster{}

	f := NewForwarder(Sinks{
		Publisher:   pub,
		Topic:       topicFor,
		Metrics:     metrics,
		Recorder:    rec,
		Broadcaster: hub,
	}, Options{})

	p := probe.New()
	f.Attach(p)
	f.Start(context.Background())

	p.Emit("dc", map[string]any{"name": "dc-1", "value": 10, "direction": "fwd"})
	p.Emit("relay", map[string]any{"name": "smoke", "on": true})
	f.Stop()

	if got := pub.published(); len(got) != 2 || got[0] != "novaprops/probe/dc" || got[1] != "novaprops/probe/relay" {
		t.Errorf("published topics = %v", got)
	}
	if len(metrics.kinds) != 2 {
		t.Errorf("metrics writes = %v", metrics.kinds)
	}
	if len(rec.events) != 2 || rec.events[0].Name() != "dc-1" {
		t.Errorf("recorded = %+v", rec.events)
	}
	if len(hub.channels) != 2 || hub.channels[0] != ChannelProbeEvent {
		t.Errorf("broadcast channels = %v", hub.channels)
	}
	if c := f.Counters(); c.Forwarded != 2 || c.Failed != 0 || c.Dropped != 0 {
		t.Errorf("Counters() = %+v", c)
	}
}

func TestForwarder_SinkFailureCounted(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	rec := &fakeRecorder{}

	f := NewForwarder(Sinks{Publisher: pub, Topic: topicFor, Recorder: rec}, Options{})
	f.Start(context.Background())
	f.Enqueue(probe.Event{Kind: "led", Payload: map[string]any{"name": "eyes"}})
	f.Stop()

	if len(rec.events) != 1 {
		t.Errorf("recorder should still receive the event, got %d", len(rec.events))
	}
	if c := f.Counters(); c.Failed != 1 || c.Forwarded != 0 {
		t.Errorf("Counters() = %+v", c)
	}
}

func TestForwarder_DropsWhenFull(t *testing.T) {
	f := NewForwarder(Sinks{}, Options{BufferSize: 2})

	// Not started: nothing drains the buffer.
	for i := 0; i < 5; i++ {
		f.Enqueue(probe.Event{Kind: "dc"})
	}
	if c := f.Counters(); c.Dropped != 3 {
		t.Errorf("Dropped = %d, want 3", c.Dropped)
	}

	f.Start(context.Background())
	f.Stop()
	if c := f.Counters(); c.Forwarded != 2 {
		t.Errorf("Forwarded = %d, want 2 buffered events drained", c.Forwarded)
	}
}

func TestForwarder_FrameStats(t *testing.T) {
	metrics := &fakeMetrics{}
	f := NewForwarder(Sinks{Metrics: metrics, Stats: fixedStats{}}, Options{StatsInterval: 10 * time.Millisecond})
	f.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for metrics.frameCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	f.Stop()

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if len(metrics.frames) == 0 {
		t.Fatal("no frame stats written")
	}
	if got := metrics.frames[0]; got.Packets != 7 || got.LastUniverse != 2 || !got.Active {
		t.Errorf("frame stats = %+v", got)
	}
}

func TestForwarder_StopWithoutStart(t *testing.T) {
	f := NewForwarder(Sinks{}, Options{})
	f.Stop()
}
