// Package telemetry forwards probe events to the outside world.
//
// A Forwarder subscribes to the probe and copies every event, off the
// actuation path, to whichever sinks are configured:
//
//   - MQTT: JSON on {prefix}/probe/{kind}
//   - InfluxDB: one point in the "actuation" measurement
//   - SQLite: one row in probe_events
//   - WebSocket: broadcast on the "probe.event" channel
//
// Frame counters from the actuation engine are also written to InfluxDB on
// a fixed interval.
//
// Emit never blocks on a sink. When the buffer is full the event is dropped
// and counted; the probe itself still holds it.
package telemetry
