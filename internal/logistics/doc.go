// Package logistics provides the supply group store for Stockflow Core.
//
// A supply group is a named collection of request entries (minimum and
// maximum desired quantities per item) owned by a platform. Groups are
// mutated by the signal translation cycle and by direct operator edits
// (multiplier tuning, per-entry enablement).
//
// # Key Types
//
//   - Group: A named request group belonging to one platform
//   - RequestEntry: One item's minimum/maximum quantities and enabled flag
//   - Store: In-memory store with write-through persistence
//   - Repository: Persistence operations (SQLite implementation provided)
//
// # Usage
//
//	repo := logistics.NewSQLiteRepository(db)
//	store := logistics.NewStore(repo)
//	store.SetLogger(log)
//
//	if err := store.Load(ctx); err != nil {
//	    return err
//	}
//
//	group, err := store.CreateGroup(ctx, "platform-7", "Ammo resupply")
//
// # Locking Semantics
//
// A group's Locked flag is true exactly while a controller owns it in the
// controller registry. The store never sets the flag on its own; the
// registry drives it through SetLocked. Multiplier and enablement edits
// deliberately work while a group is locked so operators can tune buffers
// without releasing control.
//
// # Thread Safety
//
// All Store methods are safe for concurrent use. A single mutex guards
// the whole store; operations are short and infrequent, so fine-grained
// locking buys nothing here.
package logistics
