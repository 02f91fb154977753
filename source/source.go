// Package source declares the external collaborator contract a
// driver backend (CSV, MySQL, Postgres, ...) must satisfy to act as a
// migration's data origin. No concrete dialect implementation lives
// in this module — only the interfaces; the test doubles live in the
// _test.go files that use them.
package source

import (
	"context"
	"time"

	"github.com/dataflux/dataflux/offset"
	"github.com/dataflux/dataflux/sqlgen"
	"github.com/dataflux/dataflux/value"
)

// FetchResult is one page read from a Source.
type FetchResult struct {
	Rows        []value.RowData
	NextCursor  offset.Cursor
	HasNext     bool
	ReachedEnd  bool
	RowCount    int
	Took        time.Duration
}

// ColumnMetadata describes one column as reported by the source's
// schema introspection.
type ColumnMetadata struct {
	Name     string
	Type     value.DataType
	Nullable bool
	Length   int
}

// EntityMetadata is the source-side shape of one table/file/API
// entity: its columns, primary keys, and the tables it references or
// is referenced by (for schema-plan traversal).
type EntityMetadata struct {
	Name              string
	Columns           []ColumnMetadata
	PrimaryKeys       []string
	ReferencedTables  []string
	ReferencingTables []string
}

// ColumnType looks up one column's DataType by name.
func (m EntityMetadata) ColumnType(name string) (value.DataType, bool) {
	for _, c := range m.Columns {
		if c.Name == name {
			return c.Type, true
		}
	}
	return value.DataType{}, false
}

// Source is the paged-read contract a migration's origin satisfies.
type Source interface {
	// FetchData reads the next page of at most batchSize rows
	// starting from cursor.
	FetchData(ctx context.Context, batchSize int, cursor offset.Cursor) (FetchResult, error)

	// BuildFetchRowsRequests exposes the would-be SELECT request(s)
	// for dry-run SQL preview, without executing them.
	BuildFetchRowsRequests(batchSize int, cursor offset.Cursor) ([]sqlgen.FetchRowsRequest, error)

	// FetchMeta introspects entity's schema.
	FetchMeta(ctx context.Context, entity string) (EntityMetadata, error)

	// Dialect names the SQL dialect rows should be rendered against.
	Dialect() string
}
