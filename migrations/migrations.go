// Package migrations embeds the SQL schema migrations so the migrate CLI and
// the integration tests apply the same files.
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql migration.
//
//go:embed *.sql
var FS embed.FS
