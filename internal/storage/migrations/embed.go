// Package migrations applies the schema of stores this tool owns. The signal
// store belongs to the upstream generator and is never migrated here.
package migrations

import "embed"

// ClickhouseFS embeds all ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
