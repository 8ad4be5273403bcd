package actuation

import (
	"fmt"
	"sync/atomic"

	"github.com/nerrad567/novaprops-core/internal/probe"
	"github.com/nerrad567/novaprops-core/internal/subdevice"
)

// Logger defines the logging interface used by the Engine.
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

// SubdeviceSource supplies the current subdevice list.
// *subdevice.Registry satisfies it.
type SubdeviceSource interface {
	List() []subdevice.Config
	Get(index int) (subdevice.Config, error)
}

// Emitter records actuation events. *probe.Probe satisfies it.
type Emitter interface {
	Emit(kind string, payload map[string]any) probe.Event
}

// Stats are the frame counters maintained by ApplyFrame.
type Stats struct {
	Packets      uint64 `json:"packets"`
	LastUniverse int    `json:"last_universe"`
	Active       bool   `json:"active"`
}

// Engine maps DMX frames onto subdevice commands.
//
// ApplyFrame and RunTest are safe for concurrent use; each call works on its
// own snapshot of the subdevice list.
type Engine struct {
	source SubdeviceSource
	out    Emitter
	logger Logger

	packets      atomic.Uint64
	lastUniverse atomic.Int64
	active       atomic.Bool
}

// NewEngine creates an engine reading subdevices from source and recording
// events to out.
func NewEngine(source SubdeviceSource, out Emitter) *Engine {
	return &Engine{
		source: source,
		out:    out,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// ApplyFrame processes one frame for universe and returns the number of
// events emitted.
//
// The packet counter, last universe and active flag are updated for every
// frame, including frames no subdevice listens to. Disabled subdevices,
// subdevices on other universes and unknown types are skipped.
func (e *Engine) ApplyFrame(universe int, slots Slots) int {
	e.packets.Add(1)
	e.lastUniverse.Store(int64(universe))
	e.active.Store(true)

	emitted := 0
	for _, c := range e.source.List() {
		if !c.Enabled || c.Map.Universe != universe {
			continue
		}
		kind, payload, ok := decode(c, slots)
		if !ok {
			e.logger.Debug("skipping subdevice with unknown type", "name", c.Name, "type", int(c.Type))
			continue
		}
		e.out.Emit(kind, payload)
		emitted++
	}

	e.logger.Debug("frame applied", "universe", universe, "slots", len(slots), "events", emitted)
	return emitted
}

// decode builds the event for one subdevice. ok is false for unknown types.
func decode(c subdevice.Config, slots Slots) (kind string, payload map[string]any, ok bool) {
	addr := c.Map.StartAddr

	switch p := c.Params().(type) {
	case subdevice.DCMotorParams:
		value, dir := DecodeDC(p, slots, addr)
		return KindDC, map[string]any{"name": c.Name, "value": value, "direction": string(dir)}, true
	case subdevice.StepperParams:
		return KindStepper, map[string]any{"name": c.Name, "targetDegrees": DecodeStepper(slots, addr)}, true
	case subdevice.RelayParams:
		return KindRelay, map[string]any{"name": c.Name, "on": DecodeSwitch(slots, addr)}, true
	case subdevice.LEDParams:
		return KindLED, map[string]any{"name": c.Name, "on": DecodeSwitch(slots, addr)}, true
	case subdevice.PixelParams:
		return KindPixels, map[string]any{"name": c.Name, "rgb": DecodePixels(slots, addr), "count": p.Count}, true
	default:
		return "", nil, false
	}
}

// Stats returns the current frame counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Packets:      e.packets.Load(),
		LastUniverse: int(e.lastUniverse.Load()),
		Active:       e.active.Load(),
	}
}

// String implements fmt.Stringer for log output.
func (s Stats) String() string {
	return fmt.Sprintf("packets=%d last_universe=%d active=%t", s.Packets, s.LastUniverse, s.Active)
}
