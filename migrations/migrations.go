// Package migrations embeds the Postgres schema so the server binary does
// not depend on its working directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
