// Package migrations embeds the SQL schema migrations so binaries and
// tests apply the same schema without needing a migrations directory on
// disk at runtime.
package migrations

import "embed"

// Files holds every up/down migration, named NNN_name.{up,down}.sql.
//
//go:embed *.sql
var Files embed.FS
