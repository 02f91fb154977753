// Package offset implements the pagination cursors and offset
// strategies a snapshot producer uses to resume a partially-read
// table across batches without re-scanning rows it already emitted.
package offset

import "github.com/dataflux/dataflux/sqlgen"

// Kind discriminates the Cursor variants. A zero Cursor is KindNone.
type Kind int

const (
	KindNone Kind = iota
	KindDefault
	KindPk
	KindNumeric
	KindCompositeNumPk
	KindTimestamp
	KindCompositeTsPk
)

// Cursor is the closed set of pagination bookmarks an OffsetStrategy
// can produce and consume. Only the fields relevant to Kind are
// meaningful; exactly one constructor below should be used to build
// a given variant.
type Cursor struct {
	kind Kind

	offset int

	pkCol sqlgen.QualCol
	id    uint64

	numCol sqlgen.QualCol
	val    int64

	tsCol sqlgen.QualCol
	tsMic int64
}

func (c Cursor) Kind() Kind { return c.kind }

// NoneCursor is the starting point: no rows have been read yet.
func NoneCursor() Cursor { return Cursor{kind: KindNone} }

func DefaultCursor(offsetRows int) Cursor {
	return Cursor{kind: KindDefault, offset: offsetRows}
}

func PkCursor(pkCol sqlgen.QualCol, id uint64) Cursor {
	return Cursor{kind: KindPk, pkCol: pkCol, id: id}
}

func NumericCursor(col sqlgen.QualCol, val int64) Cursor {
	return Cursor{kind: KindNumeric, numCol: col, val: val}
}

func CompositeNumPkCursor(numCol, pkCol sqlgen.QualCol, val int64, id uint64) Cursor {
	return Cursor{kind: KindCompositeNumPk, numCol: numCol, pkCol: pkCol, val: val, id: id}
}

func TimestampCursor(col sqlgen.QualCol, tsMicros int64) Cursor {
	return Cursor{kind: KindTimestamp, tsCol: col, tsMic: tsMicros}
}

func CompositeTsPkCursor(tsCol, pkCol sqlgen.QualCol, tsMicros int64, id uint64) Cursor {
	return Cursor{kind: KindCompositeTsPk, tsCol: tsCol, pkCol: pkCol, tsMic: tsMicros, id: id}
}

// Offset returns the row-skip count for a KindDefault cursor.
func (c Cursor) Offset() (int, bool) {
	if c.kind != KindDefault {
		return 0, false
	}
	return c.offset, true
}

// Pk returns the primary-key column and value for KindPk.
func (c Cursor) Pk() (sqlgen.QualCol, uint64, bool) {
	if c.kind != KindPk {
		return sqlgen.QualCol{}, 0, false
	}
	return c.pkCol, c.id, true
}

// Numeric returns the tiebreaker-less numeric bookmark for KindNumeric.
func (c Cursor) Numeric() (sqlgen.QualCol, int64, bool) {
	if c.kind != KindNumeric {
		return sqlgen.QualCol{}, 0, false
	}
	return c.numCol, c.val, true
}

// CompositeNumPk returns the full bookmark for KindCompositeNumPk.
func (c Cursor) CompositeNumPk() (numCol, pkCol sqlgen.QualCol, val int64, id uint64, ok bool) {
	if c.kind != KindCompositeNumPk {
		return sqlgen.QualCol{}, sqlgen.QualCol{}, 0, 0, false
	}
	return c.numCol, c.pkCol, c.val, c.id, true
}

// Timestamp returns the tiebreaker-less timestamp bookmark for KindTimestamp.
func (c Cursor) Timestamp() (sqlgen.QualCol, int64, bool) {
	if c.kind != KindTimestamp {
		return sqlgen.QualCol{}, 0, false
	}
	return c.tsCol, c.tsMic, true
}

// CompositeTsPk returns the full bookmark for KindCompositeTsPk.
func (c Cursor) CompositeTsPk() (tsCol, pkCol sqlgen.QualCol, tsMicros int64, id uint64, ok bool) {
	if c.kind != KindCompositeTsPk {
		return sqlgen.QualCol{}, sqlgen.QualCol{}, 0, 0, false
	}
	return c.tsCol, c.pkCol, c.tsMic, c.id, true
}
