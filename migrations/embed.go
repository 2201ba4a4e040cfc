// Package migrations embeds the goose SQL migrations for the head-office
// schema so both the test suite and `booker migrate` run the same files.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
