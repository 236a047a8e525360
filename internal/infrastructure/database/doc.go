// Package database provides SQLite persistence for Stockflow Core.
//
// It manages:
//   - The connection, opened in WAL mode for concurrent reads
//   - Embedded schema migrations with per-migration transactions
//   - Pool sizing for SQLite's single-writer model
//
// Security:
//   - All queries use parameterised statements
//   - The database file is chmodded to 0600
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration files live in the migrations package and are embedded at
// build time. Each version is a .up.sql / .down.sql pair named
// YYYYMMDD_HHMMSS_description; migrations are additive so that a
// rollback never strands data written by a newer binary.
package database
