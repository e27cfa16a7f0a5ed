// Package migrations embeds the mirror schema for goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
