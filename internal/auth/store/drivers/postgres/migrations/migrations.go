// Package migrations embeds the postgres schema for goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
