// Package item embeds the SQL migrations for the item bounded context.
package item

import "embed"

// FS holds the goose migrations, applied in filename order.
//
//go:embed *.sql
var FS embed.FS
