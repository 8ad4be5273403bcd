// Package influxdb writes actuation metrics to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Every probe event can
// be recorded as an "actuation" point tagged by subdevice and kind, and the
// engine's frame counters as a "frames" point, so a show can be replayed on
// a dashboard after the fact.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteActuation("dc", map[string]any{"name": "dc-1", "value": 1200}, time.Now())
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval. Asynchronous failures are delivered to SetOnError.
package influxdb
