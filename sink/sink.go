// Package sink declares the external collaborator contract a
// destination driver backend must satisfy: writing batches, exposing
// fast-path bulk-load capabilities, and adapting schema introspection
// to the SQL generator. No concrete dialect implementation lives in
// this module.
package sink

import (
	"context"

	"github.com/dataflux/dataflux/sqlgen"
	"github.com/dataflux/dataflux/value"
)

// Capabilities reports what an Adapter can do for a given table,
// reported by the dry-run FastPath probe (C12). The Consumer's
// fast-path decision does not consult it; it asks Sink.SupportFastPath.
type Capabilities struct {
	CopyStreaming  bool
	MergeStatements bool
}

// Adapter is the destination-side schema/capability surface a SQL
// generator and the schema validator consult.
type Adapter interface {
	// ColumnDBType reports the raw driver type string for a column,
	// used for enum body parsing.
	ColumnDBType(ctx context.Context, table, column string) (string, error)

	TableExists(ctx context.Context, table string) (bool, error)

	Capabilities(ctx context.Context, table string) (Capabilities, error)

	FetchMeta(ctx context.Context, table string) (sqlgen.TableMeta, error)
}

// WriteResult reports how many rows a write_batch/write_fast_path call
// wrote and how many bytes it moved, for consumer metrics.
type WriteResult struct {
	RowsWritten int
	BytesMoved  int64
}

// Sink is the fast-path bulk-load surface: COPY into a staging table
// followed by a MERGE/UPSERT. SupportFastPath reports whether both
// halves of that path are available for the given table.
type Sink interface {
	SupportFastPath(ctx context.Context, table sqlgen.TableMeta) (bool, string)
	WriteFastPath(ctx context.Context, table sqlgen.TableMeta, rows []value.RowData) (WriteResult, error)
}

// Destination is the complete write-side contract a migration target
// satisfies: identity, schema introspection, the row-at-a-time
// fallback write path, and access to its Sink and Adapter.
type Destination interface {
	Name() string
	Adapter() Adapter
	FetchMeta(ctx context.Context, table string) (sqlgen.TableMeta, error)
	WriteBatch(ctx context.Context, table sqlgen.TableMeta, rows []value.RowData) (WriteResult, error)
	Sink() Sink
}
