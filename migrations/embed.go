// Package migrations embeds the SQLite schema migrations.
package migrations

import "embed"

//go:embed *.sql
var files embed.FS

// FS holds the migration files at its root.
var FS = files
