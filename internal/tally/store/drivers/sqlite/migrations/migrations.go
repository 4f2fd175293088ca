// Package migrations embeds the sqlite schema migration files so the binary
// can bring a fresh database up to date on boot.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
