// Package migrations compiles the SQL migration files into the
// binary, so a deployment needs nothing on disk beyond the executable
// and its config.
package migrations

import (
	"embed"

	"github.com/nerrad567/stockflow-core/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	// Hand the embedded files to the database package; importing this
	// package for side effects is enough to wire them up.
	database.MigrationsFS = files
	database.MigrationsDir = "."
}
