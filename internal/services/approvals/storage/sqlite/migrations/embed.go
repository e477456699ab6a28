package migrations

import "embed"

// FS contains embedded SQLite migrations for approvals storage.
//
//go:embed *.sql
var FS embed.FS
