package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordCycle writes one signal-cycle measurement.
//
// This satisfies the engine's Telemetry interface; the write is
// non-blocking and batched.
//
// Parameters:
//   - tick: Engine tick the cycle ran at
//   - processed: Number of controllers processed successfully
//   - failures: Number of controllers that failed the cycle
//   - duration: Wall time of the cycle
func (c *Client) RecordCycle(tick int64, processed, failures int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"signal_cycle",
		map[string]string{
			"outcome": cycleOutcome(failures),
		},
		map[string]interface{}{
			"tick":        tick,
			"processed":   processed,
			"failures":    failures,
			"duration_ms": float64(duration.Microseconds()) / 1000.0,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

func cycleOutcome(failures int) string {
	if failures > 0 {
		return "partial"
	}
	return "clean"
}

// WriteRequestMetric writes one request entry's min/max quantities.
//
// Used for per-entry time series so operators can chart how a group's
// requests track the underlying signals.
//
// Parameters:
//   - groupID: The supply group
//   - entry: The request entry name (e.g., "iron-plate")
//   - minimum: Requested minimum quantity
//   - maximum: Requested maximum quantity
//   - enabled: Whether the entry is currently enabled
func (c *Client) WriteRequestMetric(groupID, entry string, minimum, maximum int64, enabled bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"request_entry",
		map[string]string{
			"group_id": groupID,
			"entry":    entry,
			"enabled":  strconv.FormatBool(enabled),
		},
		map[string]interface{}{
			"min": minimum,
			"max": maximum,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
