// Package migrations holds the bun migrations for the generation usage log.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is discovered from the timestamped files in this package; bun derives each
// migration name from the registering file name.
var Migrations = migrate.NewMigrations()
