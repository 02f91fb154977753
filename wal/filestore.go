package wal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStore is a file-backed StateStore: the WAL is one append-only
// JSON-Lines file per run, fsynced on every append; checkpoints are
// one JSON file per (run, item, part), written via a temp-file-then-
// rename so a reader never observes a half-written checkpoint.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore roots a FileStore's WAL and checkpoint files under dir,
// creating it if necessary.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating state store directory")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) walPath(runID string) string {
	return filepath.Join(s.dir, "wal-"+runID+".jsonl")
}

func (s *FileStore) checkpointPath(runID, itemID, partID string) string {
	return filepath.Join(s.dir, "checkpoint-"+runID+"-"+itemID+"-"+partID+".json")
}

func (s *FileStore) AppendWAL(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.walPath(entry.RunID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "opening wal file")
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encoding wal entry")
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return errors.Wrap(err, "writing wal entry")
	}
	return errors.Wrap(f.Sync(), "fsyncing wal file")
}

func (s *FileStore) IterWAL(runID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.walPath(runID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening wal file")
	}
	defer f.Close()

	var out []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, errors.Wrap(err, "decoding wal entry")
		}
		out = append(out, e)
	}
	return out, errors.Wrap(scanner.Err(), "scanning wal file")
}

func (s *FileStore) SaveCheckpoint(cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.checkpointPath(cp.RunID, cp.ItemID, cp.PartID)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(err, "creating checkpoint temp file")
	}
	if err := json.NewEncoder(f).Encode(cp); err != nil {
		f.Close()
		return errors.Wrap(err, "encoding checkpoint")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(err, "fsyncing checkpoint temp file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "closing checkpoint temp file")
	}
	return errors.Wrap(os.Rename(tmp, path), "renaming checkpoint into place")
}

func (s *FileStore) LoadCheckpoint(runID, itemID, partID string) (Checkpoint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.checkpointPath(runID, itemID, partID))
	if os.IsNotExist(err) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, errors.Wrap(err, "opening checkpoint file")
	}
	defer f.Close()

	var cp Checkpoint
	if err := json.NewDecoder(f).Decode(&cp); err != nil {
		return Checkpoint{}, false, errors.Wrap(err, "decoding checkpoint")
	}
	return cp, true, nil
}

var _ StateStore = (*FileStore)(nil)
