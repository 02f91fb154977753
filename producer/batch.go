// Package producer implements the snapshot/CDC producer: it pages a
// Source via an offset.Strategy, transforms rows with bounded
// concurrency, and hands off Batches to the Consumer over a bounded
// channel.
package producer

import (
	"encoding/binary"
	"fmt"

	"lukechampine.com/blake3"

	"github.com/dataflux/dataflux/offset"
	"github.com/dataflux/dataflux/value"
)

// Batch is a unit of work sent from Producer to Consumer, bounded by
// batch_size.
type Batch struct {
	ID         string
	RunID      string
	ItemID     string
	PartID     string
	Rows       []value.RowData
	NextCursor offset.Cursor
	Final      bool
}

// BatchID computes the pure, deterministic identifier
// blake3(run_id, item_id, part_id, cursor): equal inputs always
// produce equal ids.
func BatchID(runID, itemID, partID string, cursor offset.Cursor) string {
	h := blake3.New(32, nil)
	writeLenPrefixed(h, runID)
	writeLenPrefixed(h, itemID)
	writeLenPrefixed(h, partID)
	writeLenPrefixed(h, cursorFingerprint(cursor))
	return fmt.Sprintf("%x", h.Sum(nil))
}

func writeLenPrefixed(w interface{ Write([]byte) (int, error) }, s string) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(s)))
	w.Write(lenBuf[:])
	w.Write([]byte(s))
}

// cursorFingerprint renders cursor into a stable string so distinct
// cursor variants and values never collide in BatchID's hash input.
func cursorFingerprint(c offset.Cursor) string {
	switch c.Kind() {
	case offset.KindNone:
		return "none"
	case offset.KindDefault:
		off, _ := c.Offset()
		return fmt.Sprintf("default:%d", off)
	case offset.KindPk:
		pk, id, _ := c.Pk()
		return fmt.Sprintf("pk:%s:%d", pk, id)
	case offset.KindNumeric:
		col, val, _ := c.Numeric()
		return fmt.Sprintf("numeric:%s:%d", col, val)
	case offset.KindCompositeNumPk:
		numCol, pkCol, val, id, _ := c.CompositeNumPk()
		return fmt.Sprintf("numpk:%s:%s:%d:%d", numCol, pkCol, val, id)
	case offset.KindTimestamp:
		col, ts, _ := c.Timestamp()
		return fmt.Sprintf("ts:%s:%d", col, ts)
	case offset.KindCompositeTsPk:
		tsCol, pkCol, ts, id, _ := c.CompositeTsPk()
		return fmt.Sprintf("tspk:%s:%s:%d:%d", tsCol, pkCol, ts, id)
	}
	return "unknown"
}
