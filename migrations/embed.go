// Package migrations embeds the SQL schema migrations so binaries and
// integration tests apply the same files without a path on disk.
package migrations

import "embed"

// FS holds the numbered up and down migration files
//
//go:embed *.sql
var FS embed.FS
