// Package migrations holds the PostgreSQL schema for the document tables.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
