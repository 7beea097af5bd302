// Package migrations embeds the SQLite schema applied at startup and in store tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
