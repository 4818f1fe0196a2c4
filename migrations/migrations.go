// Package migrations embeds the sqlite schema so the binary can migrate
// its own local database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
