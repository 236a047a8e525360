// Package signal models the input-signal side of Stockflow Core.
//
// Field channels report raw item counts for the entity they are wired
// to. Several channels may feed one entity; their readings are summed
// per item name before translation. The package provides:
//
//   - Reading: one (item name, raw count) pair
//   - Aggregate: channel summation with stable first-seen ordering
//   - Source: the interface the cycle engine reads signals through
//   - MQTTSource: a Source fed by retained channel readings on the broker
//   - Presence: entity/platform liveness derived from retained status topics
//
// The engine never caches liveness; it asks Presence on every cycle so a
// vanished entity is noticed on the next sweep.
package signal
