// Package probe records the actuation events produced by the engine.
//
// Every command that would drive hardware is appended to the Probe as an
// Event. The log can be read back with Snapshot and emptied with Clear; all
// three operations share one mutex. Listeners registered with Subscribe see
// each event after it has been recorded and are used to fan events out to
// MQTT, InfluxDB, the history database and WebSocket clients.
package probe
