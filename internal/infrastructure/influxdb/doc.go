// Package influxdb records Stockflow time-series telemetry.
//
// It wraps influxdb-client-go v2 behind a small client that the engine
// and command handlers write through:
//
//   - RecordCycle: one point per signal cycle (controllers processed,
//     failures, elapsed time)
//   - WriteRequestMetric: per-group request entry history over time
//   - WritePoint / WritePointWithTime: ad-hoc measurements
//
// Writes are non-blocking and batched per the batch_size and
// flush_interval settings in config.yaml; async failures surface
// through the SetOnError callback rather than a return value. All
// methods are safe for concurrent use.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.RecordCycle(tick, processed, failures, elapsed)
//
// Telemetry is optional: when the influxdb section is disabled,
// Connect returns ErrDisabled and the caller runs without it.
package influxdb
