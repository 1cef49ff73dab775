// Package migrations holds the SQL schema applied at boot.
package migrations

import "embed"

// Files contains every migration, applied in lexical order.
//
//go:embed *.sql
var Files embed.FS
