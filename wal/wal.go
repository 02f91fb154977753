// Package wal implements the write-ahead log and checkpoint state
// store from an append-only, insertion-ordered WAL per
// run plus an overwrite-by-key checkpoint KV, both durable on return,
// and the recovery protocol that replays them into a resumption
// Cursor and stage.
package wal

import "time"

// EntryKind enumerates the WAL entry types a run can append.
type EntryKind string

const (
	RunStart EntryKind = "RunStart"
	ItemStart EntryKind = "ItemStart"
	BatchBegin EntryKind = "BatchBegin"
	BatchBeginWrite EntryKind = "BatchBeginWrite"
	BatchCommit EntryKind = "BatchCommit"
	Heartbeat EntryKind = "Heartbeat"
	CircuitBreakerOpen EntryKind = "CircuitBreakerOpen"
	ItemDone EntryKind = "ItemDone"
)

// Entry is one durable state transition appended to a run's WAL.
type Entry struct {
	RunID string
	ItemID string
	PartID string
	Kind EntryKind
	BatchID string
	Timestamp time.Time
	Detail string
}

// Stage names a checkpoint's position in the read -> write -> committed
// progression. Stores do not enforce the order: a save overwrites the
// previous checkpoint whatever its stage.
type Stage string

const (
	StageRead Stage = "read"
	StageWrite Stage = "write"
	StageCommitted Stage = "committed"
)

// Checkpoint is the most recent durable progress marker for one
// (run_id, item_id, part_id), overwritten in place on each save.
type Checkpoint struct {
	RunID string
	ItemID string
	PartID string
	Stage Stage
	SrcOffset string // the cursor's serialized form, e.g. offset.Cursor encoded by the caller
	BatchID string
	RowsDone int
	UpdatedAt time.Time
}

type checkpointKey struct {
	runID, itemID, partID string
}

func keyOf(runID, itemID, partID string) checkpointKey {
	return checkpointKey{runID: runID, itemID: itemID, partID: partID}
}

// StateStore is the durability contract: appends and checkpoint
// writes are durable on return (fsync-on-append semantics), and reads
// observe every prior durable write.
type StateStore interface {
	AppendWAL(entry Entry) error
	IterWAL(runID string) ([]Entry, error)
	SaveCheckpoint(cp Checkpoint) error
	LoadCheckpoint(runID, itemID, partID string) (Checkpoint, bool, error)
}
