// Package controller provides the controller registry and the
// signal-to-request translator for Stockflow Core.
//
// A controller is the single authority permitted to drive one supply
// group's requests from field signals. The registry enforces global
// uniqueness of group ownership through an ownership index (group ID to
// entity ID) and keeps group lock flags in step with it: a group is
// locked exactly while a live controller owns it.
//
// # Registration Semantics
//
// Registration fails with ErrAlreadyControlled when the target group is
// owned by a different controller whose backing entity is still alive.
// If the prior owner's entity is gone, its record is treated as stale
// and silently evicted before the new registration proceeds. This lazy
// self-healing is deliberate: stale index entries are repaired at the
// next registration attempt for that group, not by a background scan.
//
// # Translation
//
// Translate is a pure function of controller state and aggregated
// readings. Fixed maximum overrides win over multiplier-derived
// maximums; per-entry multiplier overrides win over the controller
// default. Enablement flags are carried forward from the previous
// request set by name, so a disabled entry stays disabled across signal
// refreshes even though the request set is rebuilt every cycle.
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use; a single mutex
// guards the registry state.
package controller
