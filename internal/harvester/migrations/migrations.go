// Package migrations embeds the goose SQL migrations for the member-node
// versions catalog.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
