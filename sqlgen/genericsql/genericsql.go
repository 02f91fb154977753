// Package genericsql is a reference sqlgen.Generator: plain ANSI-ish
// SQL with $n positional placeholders, quoting identifiers with
// double quotes. It exists for tests and dry-run examples that need a
// real Generator without depending on a specific dialect driver; the
// engine core never imports it.
package genericsql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dataflux/dataflux/expr"
	"github.com/dataflux/dataflux/sqlgen"
	"github.com/dataflux/dataflux/value"
)

// Generator renders statements against the generic dialect described
// above. The zero value is ready to use.
type Generator struct{}

var _ sqlgen.Generator = Generator{}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func qualCol(c sqlgen.QualCol) string {
	if c.Table == "" {
		return quote(c.Column)
	}
	return quote(c.Table) + "." + quote(c.Column)
}

type paramBuilder struct {
	params []value.Value
}

func (p *paramBuilder) placeholder(v value.Value) string {
	p.params = append(p.params, v)
	return "$" + strconv.Itoa(len(p.params))
}

// Select builds a paginated SELECT per req.
func (g Generator) Select(req sqlgen.FetchRowsRequest) (sqlgen.Statement, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(req.Columns) == 0 {
		b.WriteString("*")
	} else {
		cols := make([]string, len(req.Columns))
		for i, c := range req.Columns {
			cols[i] = quote(c)
		}
		b.WriteString(strings.Join(cols, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(quote(req.Table))
	if req.Alias != "" {
		b.WriteString(" AS ")
		b.WriteString(quote(req.Alias))
	}

	pb := &paramBuilder{}
	if where := req.Builder.WhereClause(); where != nil {
		clause, err := renderPredicate(where, pb)
		if err != nil {
			return sqlgen.Statement{}, err
		}
		b.WriteString(" WHERE ")
		b.WriteString(clause)
	}

	if terms := req.Builder.OrderTerms(); len(terms) > 0 {
		parts := make([]string, len(terms))
		for i, t := range terms {
			dir := "ASC"
			if t.Dir == sqlgen.Desc {
				dir = "DESC"
			}
			parts[i] = qualCol(t.Col) + " " + dir
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}

	if limit, ok := req.Builder.LimitValue(); ok {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	} else if req.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", req.Limit)
	}
	if offsetVal, ok := req.Builder.OffsetValue(); ok {
		fmt.Fprintf(&b, " OFFSET %d", offsetVal)
	}

	return sqlgen.Statement{SQL: b.String(), Params: pb.params}, nil
}

// renderPredicate renders the subset of expr.Node the offset
// strategies and pipeline filters actually produce: comparisons,
// AND/OR, identifiers/dot-paths and literals. Anything else reports
// an error rather than silently mis-rendering.
func renderPredicate(n expr.Node, pb *paramBuilder) (string, error) {
	switch node := n.(type) {
	case expr.Literal:
		return pb.placeholder(node.Value), nil
	case expr.Identifier:
		return quote(node.Name), nil
	case expr.DotPath:
		parts := make([]string, len(node.Segments))
		for i, s := range node.Segments {
			parts[i] = quote(s)
		}
		return strings.Join(parts, "."), nil
	case expr.Grouped:
		inner, err := renderPredicate(node.Operand, pb)
		if err != nil {
			return "", err
		}
		return "(" + inner + ")", nil
	case expr.IsNull:
		inner, err := renderPredicate(node.Operand, pb)
		if err != nil {
			return "", err
		}
		return inner + " IS NULL", nil
	case expr.IsNotNull:
		inner, err := renderPredicate(node.Operand, pb)
		if err != nil {
			return "", err
		}
		return inner + " IS NOT NULL", nil
	case expr.Binary:
		left, err := renderPredicate(node.Left, pb)
		if err != nil {
			return "", err
		}
		right, err := renderPredicate(node.Right, pb)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, node.Op, right), nil
	default:
		return "", fmt.Errorf("genericsql: cannot render predicate of type %T", n)
	}
}

// InsertBatch inserts rows into table, in table.Columns ordinal
// order. A row missing a field renders NULL for that column.
func (g Generator) InsertBatch(table sqlgen.TableMeta, rows []value.RowData) (sqlgen.Statement, error) {
	if len(rows) == 0 {
		return sqlgen.Statement{}, fmt.Errorf("genericsql: InsertBatch requires at least one row")
	}
	colNames := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		colNames[i] = quote(c.Name)
	}

	pb := &paramBuilder{}
	valueGroups := make([]string, len(rows))
	for ri, row := range rows {
		placeholders := make([]string, len(table.Columns))
		for ci, col := range table.Columns {
			fv, ok := row.Field(col.Name)
			if !ok || fv.Value == nil {
				placeholders[ci] = pb.placeholder(value.Null())
				continue
			}
			placeholders[ci] = pb.placeholder(*fv.Value)
		}
		valueGroups[ri] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quote(table.Name), strings.Join(colNames, ", "), strings.Join(valueGroups, ", "))
	return sqlgen.Statement{SQL: sql, Params: pb.params}, nil
}

// CopyFromStdin synthesizes a fast-path bulk-load command. The
// generic dialect has no COPY equivalent, so this renders the
// Postgres COPY...FROM STDIN form as a reasonable default; a real
// driver is expected to override it with its own fast path.
func (g Generator) CopyFromStdin(table string, columns []string) (sqlgen.Statement, error) {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = quote(c)
	}
	sql := fmt.Sprintf("COPY %s (%s) FROM STDIN WITH (FORMAT csv)", quote(table), strings.Join(cols, ", "))
	return sqlgen.Statement{SQL: sql}, nil
}

// MergeFromStaging emits a MERGE from staging into target keyed on
// target.PrimaryKeys, updating the non-PK columns.
func (g Generator) MergeFromStaging(target sqlgen.TableMeta, staging string, columns []string) (sqlgen.Statement, error) {
	if len(target.PrimaryKeys) == 0 {
		return sqlgen.Statement{}, fmt.Errorf("genericsql: MergeFromStaging requires at least one primary key on %s", target.Name)
	}
	onParts := make([]string, len(target.PrimaryKeys))
	for i, pk := range target.PrimaryKeys {
		onParts[i] = fmt.Sprintf("target.%s = staging.%s", quote(pk), quote(pk))
	}

	var setParts []string
	for _, c := range columns {
		if containsFold(target.PrimaryKeys, c) {
			continue
		}
		setParts = append(setParts, fmt.Sprintf("%s = staging.%s", quote(c), quote(c)))
	}

	insertCols := make([]string, len(columns))
	insertVals := make([]string, len(columns))
	for i, c := range columns {
		insertCols[i] = quote(c)
		insertVals[i] = "staging." + quote(c)
	}

	sql := fmt.Sprintf(
		"MERGE INTO %s AS target USING %s AS staging ON %s WHEN MATCHED THEN UPDATE SET %s WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)",
		quote(target.Name), quote(staging), strings.Join(onParts, " AND "),
		strings.Join(setParts, ", "), strings.Join(insertCols, ", "), strings.Join(insertVals, ", "))
	return sqlgen.Statement{SQL: sql}, nil
}

// UpsertFromStaging emits an INSERT ... ON CONFLICT DO UPDATE from
// staging into target; with no primary keys it degrades to a plain
// INSERT.
func (g Generator) UpsertFromStaging(target sqlgen.TableMeta, staging string, columns []string) (sqlgen.Statement, error) {
	insertCols := make([]string, len(columns))
	for i, c := range columns {
		insertCols[i] = quote(c)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
		quote(target.Name), strings.Join(insertCols, ", "), strings.Join(insertCols, ", "), quote(staging))

	if len(target.PrimaryKeys) == 0 {
		return sqlgen.Statement{SQL: sql}, nil
	}

	conflictCols := make([]string, len(target.PrimaryKeys))
	for i, pk := range target.PrimaryKeys {
		conflictCols[i] = quote(pk)
	}
	var setParts []string
	for _, c := range columns {
		if containsFold(target.PrimaryKeys, c) {
			continue
		}
		setParts = append(setParts, fmt.Sprintf("%s = EXCLUDED.%s", quote(c), quote(c)))
	}
	if len(setParts) == 0 {
		sql += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(conflictCols, ", "))
	} else {
		sql += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(conflictCols, ", "), strings.Join(setParts, ", "))
	}
	return sqlgen.Statement{SQL: sql}, nil
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

// CreateTable renders a CREATE TABLE IF NOT EXISTS with each column's
// MySQL-ish type name (the generic dialect has no driver of its own,
// so it borrows DataType.String for a readable, if not dialect-exact,
// type keyword) and an inline PRIMARY KEY clause when PrimaryKeys is
// non-empty.
func (g Generator) CreateTable(table sqlgen.TableMeta) (sqlgen.Statement, error) {
	cols := make([]string, 0, len(table.Columns)+1)
	for _, c := range table.Columns {
		def := quote(c.Name) + " " + c.Type.String()
		if c.Length > 0 && c.Type.SupportsLength("generic") {
			def += fmt.Sprintf("(%d)", c.Length)
		}
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}
	if len(table.PrimaryKeys) > 0 {
		pkCols := make([]string, len(table.PrimaryKeys))
		for i, pk := range table.PrimaryKeys {
			pkCols[i] = quote(pk)
		}
		cols = append(cols, "PRIMARY KEY ("+strings.Join(pkCols, ", ")+")")
	}
	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(table.Name), strings.Join(cols, ", "))
	return sqlgen.Statement{SQL: sql}, nil
}

func (g Generator) DropTable(table string) (sqlgen.Statement, error) {
	return sqlgen.Statement{SQL: "DROP TABLE IF EXISTS " + quote(table)}, nil
}

func (g Generator) AddColumn(table string, column sqlgen.ColumnMeta) (sqlgen.Statement, error) {
	def := quote(column.Name) + " " + column.Type.String()
	if column.Length > 0 && column.Type.SupportsLength("generic") {
		def += fmt.Sprintf("(%d)", column.Length)
	}
	if !column.Nullable {
		def += " NOT NULL"
	}
	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quote(table), def)
	return sqlgen.Statement{SQL: sql}, nil
}

func (g Generator) AddForeignKey(table, column, refTable, refColumn string) (sqlgen.Statement, error) {
	sql := fmt.Sprintf("ALTER TABLE %s ADD FOREIGN KEY (%s) REFERENCES %s (%s)",
		quote(table), quote(column), quote(refTable), quote(refColumn))
	return sqlgen.Statement{SQL: sql}, nil
}

func (g Generator) CreateEnum(name string, values []string) (sqlgen.Statement, error) {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	sql := fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", quote(name), strings.Join(quoted, ", "))
	return sqlgen.Statement{SQL: sql}, nil
}

func (g Generator) ToggleTriggers(table string, enabled bool) (sqlgen.Statement, error) {
	verb := "ENABLE"
	if !enabled {
		verb = "DISABLE"
	}
	return sqlgen.Statement{SQL: fmt.Sprintf("ALTER TABLE %s %s TRIGGER ALL", quote(table), verb)}, nil
}

// KeyExistence builds a lookup statement that reports which of
// keyValues already exist in table, keyed on its first declared
// primary key column.
func (g Generator) KeyExistence(table sqlgen.TableMeta, keyValues []value.Value) (sqlgen.Statement, error) {
	if len(table.PrimaryKeys) == 0 {
		return sqlgen.Statement{}, fmt.Errorf("genericsql: KeyExistence requires a primary key on %s", table.Name)
	}
	pk := table.PrimaryKeys[0]
	pb := &paramBuilder{}
	placeholders := make([]string, len(keyValues))
	for i, v := range keyValues {
		placeholders[i] = pb.placeholder(v)
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)",
		quote(pk), quote(table.Name), quote(pk), strings.Join(placeholders, ", "))
	return sqlgen.Statement{SQL: sql, Params: pb.params}, nil
}
