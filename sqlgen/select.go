// Package sqlgen defines the SQL-generation contract a concrete
// dialect driver implements, plus the dialect-agnostic SelectBuilder
// that offset strategies (package offset) mutate while paginating a
// snapshot read. Rendering a builder to dialect-specific SQL text is
// left to the driver; this package only assembles the AST.
package sqlgen

import "github.com/dataflux/dataflux/expr"

// QualCol is a column optionally qualified by its source table or
// alias; Table is empty for an unqualified reference.
type QualCol struct {
	Table  string
	Column string
}

func (q QualCol) String() string {
	if q.Table == "" {
		return q.Column
	}
	return q.Table + "." + q.Column
}

// OrderDir is the sort direction of an ORDER BY term.
type OrderDir int

const (
	Asc OrderDir = iota
	Desc
)

// OrderTerm is a single ORDER BY column and direction.
type OrderTerm struct {
	Col QualCol
	Dir OrderDir
}

// SelectBuilder assembles a SELECT statement's clauses incrementally.
// Each method returns a new value with the clause applied; callers
// chain calls rather than mutate in place.
type SelectBuilder struct {
	from    string
	columns []string
	where   expr.Node
	orderBy []OrderTerm
	limit   *int
	offset  *int
}

// NewSelect starts a builder reading from the named table/entity.
func NewSelect(from string, columns ...string) SelectBuilder {
	return SelectBuilder{from: from, columns: columns}
}

// Where ANDs predicate onto any existing WHERE clause.
func (b SelectBuilder) Where(predicate expr.Node) SelectBuilder {
	if predicate == nil {
		return b
	}
	if b.where == nil {
		b.where = predicate
	} else {
		b.where = expr.Binary{Op: expr.OpAnd, Left: b.where, Right: predicate}
	}
	return b
}

// OrderBy appends a sort term, preserving prior terms' precedence.
func (b SelectBuilder) OrderBy(col QualCol, dir OrderDir) SelectBuilder {
	terms := make([]OrderTerm, len(b.orderBy), len(b.orderBy)+1)
	copy(terms, b.orderBy)
	b.orderBy = append(terms, OrderTerm{Col: col, Dir: dir})
	return b
}

// Limit sets the row cap. A later call overrides an earlier one.
func (b SelectBuilder) Limit(n int) SelectBuilder {
	b.limit = &n
	return b
}

// Offset sets the row skip count. A later call overrides an earlier one.
func (b SelectBuilder) Offset(n int) SelectBuilder {
	b.offset = &n
	return b
}

func (b SelectBuilder) From() string          { return b.from }
func (b SelectBuilder) Columns() []string     { return b.columns }
func (b SelectBuilder) WhereClause() expr.Node { return b.where }
func (b SelectBuilder) OrderTerms() []OrderTerm { return b.orderBy }

// LimitValue reports the configured LIMIT, if any.
func (b SelectBuilder) LimitValue() (int, bool) {
	if b.limit == nil {
		return 0, false
	}
	return *b.limit, true
}

// OffsetValue reports the configured OFFSET, if any.
func (b SelectBuilder) OffsetValue() (int, bool) {
	if b.offset == nil {
		return 0, false
	}
	return *b.offset, true
}

func identEq(col QualCol, right expr.Node, op expr.BinaryOp) expr.Node {
	var left expr.Node
	if col.Table == "" {
		left = expr.Identifier{Name: col.Column}
	} else {
		left = expr.DotPath{Segments: []string{col.Table, col.Column}}
	}
	return expr.Binary{Op: op, Left: left, Right: right}
}
