// Package migrations embeds SQL migration files for goose.
//
// Migration files follow the naming convention: YYYYMMDDHHMMSS_description.sql
// They are applied in order during database initialization. Each driver has
// its own directory because column types differ between PostgreSQL and SQLite.
package migrations

import "embed"

// Directory names inside the embedded filesystems.
const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)

//go:embed postgres/*.sql
var Postgres embed.FS

//go:embed sqlite/*.sql
var SQLite embed.FS
