package wal

import "time"

// RunStatus is the outcome of replaying a (run, item, part)'s WAL and
// checkpoint during resume.
type RunStatus int

const (
	StatusFresh RunStatus = iota // no checkpoint: start from Cursor::None
	StatusResumable // resume reading/writing from SrcOffset
	StatusFailed // circuit breaker opened with no subsequent commit
)

// Recovery is the decoded result of the recovery protocol: where to
// resume from, and whether the last attempt failed outright.
type Recovery struct {
	Status RunStatus
	Checkpoint Checkpoint
	RestartStage Stage // StageWrite when resuming a write that must be replayed, else StageRead
}

// Recover implements the four-step protocol: load the checkpoint: if
// absent, start fresh; if stage is "committed", continue from
// SrcOffset; if stage is "write", restart the batch from SrcOffset
// (the consumer must be idempotent on BatchID); then scan the WAL for
// a CircuitBreakerOpen with no following BatchCommit, which overrides
// everything as Failed.
func Recover(store StateStore, runID, itemID, partID string) (Recovery, error) {
	cp, ok, err := store.LoadCheckpoint(runID, itemID, partID)
	if err != nil {
		return Recovery{}, err
	}
	if !ok {
		return Recovery{Status: StatusFresh}, nil
	}

	rec := Recovery{Status: StatusResumable, Checkpoint: cp}
	switch cp.Stage {
	case StageCommitted:
		rec.RestartStage = StageRead
	case StageWrite:
		rec.RestartStage = StageWrite
	default:
		rec.RestartStage = StageRead
	}

	entries, err := store.IterWAL(runID)
	if err != nil {
		return Recovery{}, err
	}
	if circuitOpenedWithoutCommit(entries) {
		rec.Status = StatusFailed
	}
	return rec, nil
}

func circuitOpenedWithoutCommit(entries []Entry) bool {
	var sinceItemStart []Entry
	for _, e := range entries {
		if e.Kind == ItemStart {
			sinceItemStart = sinceItemStart[:0]
		}
		sinceItemStart = append(sinceItemStart, e)
	}
	openedAt := -1
	for i, e := range sinceItemStart {
		switch e.Kind {
		case CircuitBreakerOpen:
			openedAt = i
		case BatchCommit:
			if openedAt != -1 && i > openedAt {
				openedAt = -1
			}
		}
	}
	return openedAt != -1
}

// ProgressEvent is one observation the ProgressService surfaces to an
// operator or dashboard: a run/item is alive (recent heartbeat),
// idle-but-alive, or presumed crashed (heartbeat gap exceeded).
type ProgressEvent struct {
	RunID, ItemID string
	Alive bool
	LastSeen time.Time
}

// ProgressService distinguishes a live-but-idle run from a crashed one
// by tracking the most recent Heartbeat, BatchBegin, BatchBeginWrite
// or BatchCommit WAL entry per
// (run, item) and comparing it against a staleness threshold. This is
// a supplemented feature: the original engine persists heartbeats to
// the WAL but has no separate liveness-reporting component.
type ProgressService struct {
	store StateStore
	staleness time.Duration
}

func NewProgressService(store StateStore, staleness time.Duration) *ProgressService {
	return &ProgressService{store: store, staleness: staleness}
}

// Status reports whether (runID, itemID) is alive as of now, based on
// its most recent Heartbeat, BatchBegin, BatchBeginWrite or
// BatchCommit entry.
func (p *ProgressService) Status(runID, itemID string, now time.Time) (ProgressEvent, error) {
	entries, err := p.store.IterWAL(runID)
	if err != nil {
		return ProgressEvent{}, err
	}
	var lastSeen time.Time
	for _, e := range entries {
		if e.ItemID != itemID {
			continue
		}
		switch e.Kind {
		case Heartbeat, BatchBegin, BatchBeginWrite, BatchCommit:
			if e.Timestamp.After(lastSeen) {
				lastSeen = e.Timestamp
			}
		}
	}
	return ProgressEvent{
		RunID: runID,
		ItemID: itemID,
		Alive: !lastSeen.IsZero() && now.Sub(lastSeen) <= p.staleness,
		LastSeen: lastSeen,
	}, nil
}
