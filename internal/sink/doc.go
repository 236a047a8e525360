// Package sink pushes computed group requests to an optional downstream
// provisioning system.
//
// The downstream sink is strictly best-effort: Stockflow Core functions
// fully without one, and a missing integration is success, not failure.
// The adapter tolerates version skew in the sink's capability surface —
// older sinks reject the combined min+max registration call, so the
// adapter retries with the minimum-only form without surfacing the
// rejection.
//
// Implementations provided:
//
//   - Noop: the default when no integration is configured
//   - MQTTSink: publishes request registrations as retained broker messages
//
// The adapter is selected at composition time; nothing probes for an
// integration at call time.
package sink
