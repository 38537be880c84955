// Package migrations embeds the goose SQL migrations for the files and
// billing tables. River's own tables are migrated by rivermigrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
