package wal

import "sync"

// MemStore is an in-process StateStore, useful for dry-run and tests.
// It has no crash durability: "durable on return" is satisfied only
// in the sense that a successful call is immediately visible to every
// subsequent call within the process.
type MemStore struct {
	mu          sync.Mutex
	entries     map[string][]Entry
	checkpoints map[checkpointKey]Checkpoint
}

func NewMemStore() *MemStore {
	return &MemStore{
		entries:     make(map[string][]Entry),
		checkpoints: make(map[checkpointKey]Checkpoint),
	}
}

func (s *MemStore) AppendWAL(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.RunID] = append(s.entries[entry.RunID], entry)
	return nil
}

func (s *MemStore) IterWAL(runID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries[runID]))
	copy(out, s.entries[runID])
	return out, nil
}

func (s *MemStore) SaveCheckpoint(cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[keyOf(cp.RunID, cp.ItemID, cp.PartID)] = cp
	return nil
}

func (s *MemStore) LoadCheckpoint(runID, itemID, partID string) (Checkpoint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.checkpoints[keyOf(runID, itemID, partID)]
	return cp, ok, nil
}

var _ StateStore = (*MemStore)(nil)
