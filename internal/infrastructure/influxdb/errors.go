package influxdb

import "errors"

// Sentinel errors returned by the telemetry client. Check them with
// errors.Is():
//
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // Telemetry is switched off in configuration.
//	}
var (
	// ErrNotConnected is returned when an operation needs a live
	// connection and the client does not have one.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed is returned when the initial connection
	// attempt does not succeed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed marks a synchronous write failure. Most write
	// errors arrive asynchronously through the error callback instead.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled is returned by Connect when the influxdb section of
	// the configuration has enabled set to false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
