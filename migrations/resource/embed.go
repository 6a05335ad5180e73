// Package migrations embeds the resource service's own SQL migration set
// into its binary, so cmd/resource can apply them with sqlitestore.Migrate
// without reading from disk at runtime.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
