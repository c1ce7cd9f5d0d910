// Package migrations embeds the PostgreSQL schema.
package migrations

import "embed"

// FS holds the golang-migrate up/down files.
//
//go:embed *.sql
var FS embed.FS

//Personal.AI order the ending
