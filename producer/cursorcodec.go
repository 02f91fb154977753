package producer

import (
	"encoding/json"

	"github.com/dataflux/dataflux/offset"
	"github.com/dataflux/dataflux/sqlgen"
)

// wireCursor is the checkpoint-persisted shape of an offset.Cursor;
// offset.Cursor keeps its fields private so a run can be resumed from
// disk without exposing its internals to callers mid-run.
type wireCursor struct {
	Kind   offset.Kind  `json:"kind"`
	Offset int          `json:"offset,omitempty"`
	PkCol  sqlgen.QualCol `json:"pk_col,omitempty"`
	ID     uint64       `json:"id,omitempty"`
	NumCol sqlgen.QualCol `json:"num_col,omitempty"`
	Val    int64        `json:"val,omitempty"`
	TsCol  sqlgen.QualCol `json:"ts_col,omitempty"`
	TsMic  int64        `json:"ts_mic,omitempty"`
}

// encodeCursor serializes a Cursor into the string stored in
// wal.Checkpoint.SrcOffset.
func encodeCursor(c offset.Cursor) string {
	w := wireCursor{Kind: c.Kind()}
	switch c.Kind() {
	case offset.KindDefault:
		w.Offset, _ = c.Offset()
	case offset.KindPk:
		w.PkCol, w.ID, _ = c.Pk()
	case offset.KindNumeric:
		w.NumCol, w.Val, _ = c.Numeric()
	case offset.KindCompositeNumPk:
		w.NumCol, w.PkCol, w.Val, w.ID, _ = c.CompositeNumPk()
	case offset.KindTimestamp:
		w.TsCol, w.TsMic, _ = c.Timestamp()
	case offset.KindCompositeTsPk:
		w.TsCol, w.PkCol, w.TsMic, w.ID, _ = c.CompositeTsPk()
	}
	b, err := json.Marshal(w)
	if err != nil {
		return ""
	}
	return string(b)
}

// decodeCursor is encodeCursor's inverse, returning offset.NoneCursor()
// for an empty or malformed string.
func decodeCursor(s string) offset.Cursor {
	if s == "" {
		return offset.NoneCursor()
	}
	var w wireCursor
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return offset.NoneCursor()
	}
	switch w.Kind {
	case offset.KindDefault:
		return offset.DefaultCursor(w.Offset)
	case offset.KindPk:
		return offset.PkCursor(w.PkCol, w.ID)
	case offset.KindNumeric:
		return offset.NumericCursor(w.NumCol, w.Val)
	case offset.KindCompositeNumPk:
		return offset.CompositeNumPkCursor(w.NumCol, w.PkCol, w.Val, w.ID)
	case offset.KindTimestamp:
		return offset.TimestampCursor(w.TsCol, w.TsMic)
	case offset.KindCompositeTsPk:
		return offset.CompositeTsPkCursor(w.TsCol, w.PkCol, w.TsMic, w.ID)
	default:
		return offset.NoneCursor()
	}
}
