// Package engine drives the periodic signal and cleanup cycles.
//
// The engine sweeps every registered controller on a fixed tick
// interval: it reads the controller's aggregated signal channels,
// translates the readings into a request set, applies the set to the
// controller's group, and pushes the result to the downstream sink.
// A slower cleanup cycle removes controllers whose entities are gone
// and groups whose owning platform no longer exists. Removal waits for
// the liveness source to report Ready, so a restart with a cold
// presence snapshot never reclaims healthy state.
//
// One controller's failure never aborts a sweep; errors are logged and
// counted, and the sweep moves on.
package engine
