package telemetry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/novaprops-core/internal/actuation"
	"github.com/nerrad567/novaprops-core/internal/probe"
)

const (
	DefaultBufferSize    = 256
	DefaultStatsInterval = 10 * time.Second

	// ChannelProbeEvent is the WebSocket channel carrying probe events.
	ChannelProbeEvent = "probe.event"

	sinkTimeout  = 5 * time.Second
	dropLogEvery = 100
)

// Publisher sends JSON to a topic. Satisfied by *mqtt.Client.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// TopicFunc maps an event kind to its topic.
type TopicFunc func(kind string) string

// MetricsWriter queues time-series points. Satisfied by *influxdb.Client.
type MetricsWriter interface {
	WriteActuation(kind string, payload map[string]any, ts time.Time)
	WriteFrameStats(packets uint64, lastUniverse int, active bool)
}

// Recorder persists events. Satisfied by *history.Repository.
type Recorder interface {
	Record(ctx context.Context, ev probe.Event) error
}

// Broadcaster pushes to live clients. Satisfied by *api.Hub.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// StatsSource reports frame counters. Satisfied by *actuation.Engine.
type StatsSource interface {
	Stats() actuation.Stats
}

// Logger is the logging interface used by the forwarder.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Sinks lists the destinations. Nil fields are skipped.
type Sinks struct {
	Publisher   Publisher
	Topic       TopicFunc
	Metrics     MetricsWriter
	Recorder    Recorder
	Broadcaster Broadcaster
	Stats       StatsSource
}

// Options tunes the forwarder.
type Options struct {
	BufferSize    int
	StatsInterval time.Duration
}

// Counters reports forwarder throughput.
type Counters struct {
	Forwarded uint64 `json:"forwarded"`
	Dropped   uint64 `json:"dropped"`
	Failed    uint64 `json:"failed"`
}

// Forwarder fans probe events out to the configured sinks on its own
// goroutine.
//
// Thread Safety:
//   - Enqueue is safe to call from any goroutine, including probe listeners.
type Forwarder struct {
	sinks  Sinks
	opts   Options
	events chan probe.Event
	logger Logger

	forwarded atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewForwarder creates a stopped forwarder.
func NewForwarder(sinks Sinks, opts Options) *Forwarder {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = DefaultStatsInterval
	}
	return &Forwarder{
		sinks:  sinks,
		opts:   opts,
		events: make(chan probe.Event, opts.BufferSize),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the forwarder.
func (f *Forwarder) SetLogger(logger Logger) {
	f.logger = logger
}

// Attach subscribes the forwarder to p.
func (f *Forwarder) Attach(p *probe.Probe) {
	p.Subscribe(f.Enqueue)
}

// Enqueue hands an event to the worker. It never blocks; when the buffer is
// full the event is dropped.
func (f *Forwarder) Enqueue(ev probe.Event) {
	select {
	case f.events <- ev:
	default:
		n := f.dropped.Add(1)
		if n == 1 || n%dropLogEvery == 0 {
			f.logger.Warn("telemetry buffer full, dropping event", "kind", ev.Kind, "dropped_total", n)
		}
	}
}

// Start launches the worker. Stop must be called to release it.
func (f *Forwarder) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(1)
	go f.run(ctx)

	if f.sinks.Metrics != nil && f.sinks.Stats != nil {
		f.wg.Add(1)
		go f.statsLoop(ctx)
	}
}

// Stop cancels the worker and waits for it. Events already buffered are
// forwarded before Stop returns.
func (f *Forwarder) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	f.wg.Wait()
}

// Counters returns forwarded, dropped and failed totals.
func (f *Forwarder) Counters() Counters {
	return Counters{
		Forwarded: f.forwarded.Load(),
		Dropped:   f.dropped.Load(),
		Failed:    f.failed.Load(),
	}
}

func (f *Forwarder) run(ctx context.Context) {
	defer f.wg.Done()
	for {
		select {
		case ev := <-f.events:
			f.forward(ev)
		case <-ctx.Done():
			f.drain()
			return
		}
	}
}

func (f *Forwarder) drain() {
	for {
		select {
		case ev := <-f.events:
			f.forward(ev)
		default:
			return
		}
	}
}

// forward delivers ev to every sink. A failing sink does not stop the others.
func (f *Forwarder) forward(ev probe.Event) {
	ok := true

	if f.sinks.Publisher != nil && f.sinks.Topic != nil {
		if err := f.sinks.Publisher.PublishJSON(f.sinks.Topic(ev.Kind), ev, false); err != nil {
			ok = false
			f.logger.Debug("probe event publish failed", "kind", ev.Kind, "error", err)
		}
	}

	if f.sinks.Metrics != nil {
		f.sinks.Metrics.WriteActuation(ev.Kind, ev.Payload, ev.Time())
	}

	if f.sinks.Recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		err := f.sinks.Recorder.Record(ctx, ev)
		cancel()
		if err != nil {
			ok = false
			f.logger.Warn("probe event history write failed", "kind", ev.Kind, "error", err)
		}
	}

	if f.sinks.Broadcaster != nil {
		f.sinks.Broadcaster.Broadcast(ChannelProbeEvent, ev)
	}

	if ok {
		f.forwarded.Add(1)
	} else {
		f.failed.Add(1)
	}
}

func (f *Forwarder) statsLoop(ctx context.Context) {
	defer f.wg.Done()

	ticker := time.NewTicker(f.opts.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s := f.sinks.Stats.Stats()
			f.sinks.Metrics.WriteFrameStats(s.Packets, s.LastUniverse, s.Active)
		case <-ctx.Done():
			return
		}
	}
}
