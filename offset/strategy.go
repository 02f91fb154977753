package offset

import (
	"strconv"
	"time"

	"github.com/dataflux/dataflux/expr"
	"github.com/dataflux/dataflux/sqlgen"
	"github.com/dataflux/dataflux/value"
)

// Strategy applies a pagination scheme to a SELECT builder and
// advances the cursor once the last row of a batch is known.
type Strategy interface {
	// ApplyToBuilder adds the WHERE/ORDER BY/LIMIT clauses that
	// continue reading from cursor, capped at limit rows.
	ApplyToBuilder(builder sqlgen.SelectBuilder, cursor Cursor, limit int) sqlgen.SelectBuilder

	// NextCursor derives the bookmark to resume from after row, the
	// last row of the batch just read.
	NextCursor(row value.RowData) Cursor

	Name() string
}

func appendWhere(b sqlgen.SelectBuilder, predicate expr.Node) sqlgen.SelectBuilder {
	return b.Where(predicate)
}

func ident(col sqlgen.QualCol) expr.Node {
	if col.Table == "" {
		return expr.Identifier{Name: col.Column}
	}
	return expr.DotPath{Segments: []string{col.Table, col.Column}}
}

func lit(v value.Value) expr.Node { return expr.Literal{Value: v} }

// PkOffset pages strictly by an ascending primary key: `WHERE pk > ?
// ORDER BY pk ASC`. It is the cheapest strategy. The factory falls
// back to DefaultOffset, not PkOffset, when a cursor carries no bookmark.
type PkOffset struct {
	Pk sqlgen.QualCol
}

func (s PkOffset) ApplyToBuilder(b sqlgen.SelectBuilder, cursor Cursor, limit int) sqlgen.SelectBuilder {
	if pkCol, id, ok := cursor.Pk(); ok {
		b = appendWhere(b, expr.Binary{Op: expr.OpGt, Left: ident(pkCol), Right: lit(value.Uint64(id))})
	}
	b = b.OrderBy(s.Pk, sqlgen.Asc)
	return b.Limit(limit)
}

func (s PkOffset) NextCursor(row value.RowData) Cursor {
	id, ok := extractUint(row, s.Pk.Column)
	if !ok {
		return NoneCursor()
	}
	return PkCursor(s.Pk, id)
}

func (s PkOffset) Name() string { return "pk" }

// NumericOffset pages by an ascending numeric column with a primary
// key tiebreaker for rows sharing the same value:
// `WHERE col > ? OR (col = ? AND pk > ?) ORDER BY col, pk ASC`.
type NumericOffset struct {
	Col sqlgen.QualCol
	Pk  sqlgen.QualCol
}

func (s NumericOffset) ApplyToBuilder(b sqlgen.SelectBuilder, cursor Cursor, limit int) sqlgen.SelectBuilder {
	if predicate, ok := s.whereClause(cursor); ok {
		b = appendWhere(b, predicate)
	}
	b = b.OrderBy(s.Col, sqlgen.Asc).OrderBy(s.Pk, sqlgen.Asc)
	return b.Limit(limit)
}

func (s NumericOffset) whereClause(cursor Cursor) (expr.Node, bool) {
	if _, _, val, id, ok := cursor.CompositeNumPk(); ok {
		gt := expr.Binary{Op: expr.OpGt, Left: ident(s.Col), Right: lit(value.Int64(val))}
		eq := expr.Binary{Op: expr.OpEq, Left: ident(s.Col), Right: lit(value.Int64(val))}
		pkGt := expr.Binary{Op: expr.OpGt, Left: ident(s.Pk), Right: lit(value.Uint64(id))}
		tie := expr.Binary{Op: expr.OpAnd, Left: eq, Right: pkGt}
		return expr.Binary{Op: expr.OpOr, Left: gt, Right: tie}, true
	}
	if _, val, ok := cursor.Numeric(); ok {
		return expr.Binary{Op: expr.OpGt, Left: ident(s.Col), Right: lit(value.Int64(val))}, true
	}
	return nil, false
}

func (s NumericOffset) NextCursor(row value.RowData) Cursor {
	val, vok := extractInt(row, s.Col.Column)
	id, iok := extractUint(row, s.Pk.Column)
	if !vok || !iok {
		return DefaultCursor(0)
	}
	return CompositeNumPkCursor(s.Col, s.Pk, val, id)
}

func (s NumericOffset) Name() string { return "numeric" }

// TimestampOffset pages by an ascending timestamp column with a
// primary key tiebreaker, the same shape as NumericOffset but keyed
// on a UTC microsecond timestamp rendered in loc for the WHERE clause.
type TimestampOffset struct {
	TsCol sqlgen.QualCol
	Pk    sqlgen.QualCol
	Loc   *time.Location
}

func (s TimestampOffset) location() *time.Location {
	if s.Loc != nil {
		return s.Loc
	}
	return time.UTC
}

func (s TimestampOffset) ApplyToBuilder(b sqlgen.SelectBuilder, cursor Cursor, limit int) sqlgen.SelectBuilder {
	if tsCol, pkCol, tsMicros, id, ok := cursor.CompositeTsPk(); ok {
		ts := value.Timestamp(time.UnixMicro(tsMicros).In(s.location()))
		cond1 := expr.Binary{Op: expr.OpGt, Left: ident(tsCol), Right: lit(ts)}
		cond2Left := expr.Binary{Op: expr.OpEq, Left: ident(tsCol), Right: lit(ts)}
		cond2Right := expr.Binary{Op: expr.OpGt, Left: ident(pkCol), Right: lit(value.Uint64(id))}
		cond2 := expr.Binary{Op: expr.OpAnd, Left: cond2Left, Right: cond2Right}
		b = appendWhere(b, expr.Binary{Op: expr.OpOr, Left: cond1, Right: cond2})
	}
	b = b.OrderBy(s.TsCol, sqlgen.Asc).OrderBy(s.Pk, sqlgen.Asc)
	return b.Limit(limit)
}

func (s TimestampOffset) NextCursor(row value.RowData) Cursor {
	tv, ok := row.Get(s.TsCol.Column)
	if !ok {
		return NoneCursor()
	}
	utcMicros, ok := tv.UnixMicro(s.location())
	if !ok {
		return NoneCursor()
	}
	id, _ := extractUint(row, s.Pk.Column)
	return CompositeTsPkCursor(s.TsCol, s.Pk, utcMicros, id)
}

func (s TimestampOffset) Name() string { return "timestamp" }

// DefaultOffset pages with a plain row-skip OFFSET/LIMIT. It never
// reorders results, so it is only safe against a query with a stable
// underlying ORDER BY already applied elsewhere.
type DefaultOffset struct {
	Start int
}

func (s DefaultOffset) ApplyToBuilder(b sqlgen.SelectBuilder, cursor Cursor, limit int) sqlgen.SelectBuilder {
	if off, ok := cursor.Offset(); ok {
		b = b.Offset(off)
	} else {
		b = b.Offset(s.Start)
	}
	return b.Limit(limit)
}

// NextCursor returns a Default cursor at s.Start. It does not add the
// number of rows just read, so the offset does not advance through
// this method.
func (s DefaultOffset) NextCursor(value.RowData) Cursor {
	return DefaultCursor(s.Start)
}

func (s DefaultOffset) Name() string { return "default" }

func extractUint(row value.RowData, col string) (uint64, bool) {
	v, ok := row.Get(col)
	if !ok {
		return 0, false
	}
	if u, ok := v.Uint(); ok {
		return u, true
	}
	if i, ok := v.Int(); ok && i >= 0 {
		return uint64(i), true
	}
	if s, ok := v.AsString(); ok {
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return u, true
		}
	}
	return 0, false
}

func extractInt(row value.RowData, col string) (int64, bool) {
	v, ok := row.Get(col)
	if !ok {
		return 0, false
	}
	if i, ok := v.Int(); ok {
		return i, true
	}
	if u, ok := v.Uint(); ok {
		return int64(u), true
	}
	if f, ok := v.AsF64(); ok {
		return int64(f), true
	}
	return 0, false
}
