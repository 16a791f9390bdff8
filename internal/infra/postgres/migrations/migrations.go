package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema steps; each file registers one, named after its timestamp prefix.
var Migrations = migrate.NewMigrations()
