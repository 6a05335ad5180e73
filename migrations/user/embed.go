// Package migrations embeds the user service's own SQL migration set into
// its binary, so cmd/user can apply them with sqlitestore.Migrate without
// reading from disk at runtime.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
