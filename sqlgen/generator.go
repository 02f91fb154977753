package sqlgen

import "github.com/dataflux/dataflux/value"

// ColumnMeta describes one destination column as known to the
// generator: its stable ordinal position, declared type, and
// nullability/length metadata used when rendering casts and DDL.
type ColumnMeta struct {
	Name     string
	Ordinal  int
	Type     value.DataType
	Nullable bool
	Length   int
}

// TableMeta describes a destination table's shape for DDL and
// DML generation. Columns must be supplied already sorted by Ordinal;
// generators never re-sort them.
type TableMeta struct {
	Name        string
	Columns     []ColumnMeta
	PrimaryKeys []string
}

// ColumnByName looks up a column case-insensitively.
func (t TableMeta) ColumnByName(name string) (ColumnMeta, bool) {
	for _, c := range t.Columns {
		if eqFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnMeta{}, false
}

func eqFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// FetchRowsRequest parameterizes a snapshot/CDC read: the source
// table, the columns to project, and the compiled WHERE/pagination
// already folded into builder by an offset.Strategy. It carries no
// join set.
type FetchRowsRequest struct {
	Table   string
	Alias   string
	Columns []string
	Builder SelectBuilder
	Limit   int
}

// Statement is a generated SQL command paired with its positional
// parameter values, in the order `?`/`$n` placeholders appear.
type Statement struct {
	SQL    string
	Params []value.Value
}

// Generator is the dialect-agnostic SQL-generation contract: it
// builds statement text and parameter lists without knowing how the
// destination driver executes them. A concrete dialect (e.g. Postgres
// or MySQL) implements this by supplying its own quoting, cast
// syntax, and placeholder style; no such implementation lives in this
// module, only reference/test doubles do.
type Generator interface {
	// Select builds a paginated SELECT per req.
	Select(req FetchRowsRequest) (Statement, error)

	// InsertBatch inserts rows into table, in table.Columns ordinal
	// order. A row missing a field renders NULL for that column.
	InsertBatch(table TableMeta, rows []value.RowData) (Statement, error)

	// CopyFromStdin synthesizes a fast-path bulk-load command for the
	// named table and columns.
	CopyFromStdin(table string, columns []string) (Statement, error)

	// MergeFromStaging emits a MERGE from staging into target keyed on
	// target.PrimaryKeys, updating the non-PK columns.
	MergeFromStaging(target TableMeta, staging string, columns []string) (Statement, error)

	// UpsertFromStaging emits an INSERT ... ON CONFLICT DO UPDATE from
	// staging into target; with no primary keys it degrades to a plain
	// INSERT.
	UpsertFromStaging(target TableMeta, staging string, columns []string) (Statement, error)

	CreateTable(table TableMeta) (Statement, error)
	DropTable(table string) (Statement, error)
	AddColumn(table string, column ColumnMeta) (Statement, error)
	AddForeignKey(table, column, refTable, refColumn string) (Statement, error)
	CreateEnum(name string, values []string) (Statement, error)
	ToggleTriggers(table string, enabled bool) (Statement, error)

	// KeyExistence builds a lookup statement that reports which of the
	// given primary-key values already exist in table.
	KeyExistence(table TableMeta, keyValues []value.Value) (Statement, error)
}
