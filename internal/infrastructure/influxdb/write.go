package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementActuation = "actuation"
	MeasurementFrames    = "frames"
)

// ActuationPoint builds the point for one actuation event.
//
// The subdevice name and event kind become tags. Payload entries become
// fields: numbers and booleans as-is, strings as string fields, and an "rgb"
// triple as red/green/blue. The "name" entry is not repeated as a field.
func ActuationPoint(kind string, payload map[string]any, ts time.Time) *write.Point {
	tags := map[string]string{"kind": kind}
	if name, ok := payload["name"].(string); ok && name != "" {
		tags["subdevice"] = name
	}

	fields := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == "name" {
			continue
		}
		switch val := v.(type) {
		case []int:
			if k == "rgb" && len(val) == 3 {
				fields["red"], fields["green"], fields["blue"] = val[0], val[1], val[2]
			}
		case int, int64, float64, bool, string:
			fields[k] = val
		}
	}
	if len(fields) == 0 {
		// InfluxDB rejects points without fields.
		fields["count"] = 1
	}

	return write.NewPoint(MeasurementActuation, tags, fields, ts)
}

// WriteActuation queues one actuation event. Non-blocking.
func (c *Client) WriteActuation(kind string, payload map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(ActuationPoint(kind, payload, ts))
}

// WriteFrameStats queues the engine's frame counters. Non-blocking.
func (c *Client) WriteFrameStats(packets uint64, lastUniverse int, active bool) {
	if !c.IsConnected() {
		return
	}
	// #nosec G115 -- packet counts stay far below MaxInt64
	point := write.NewPoint(
		MeasurementFrames,
		nil,
		map[string]any{
			"packets":       int64(packets),
			"last_universe": lastUniverse,
			"active":        active,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}
