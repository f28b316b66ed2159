package fuelfinder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultCachePath is the default location of the snapshot file, relative
// to the working directory.
const DefaultCachePath = ".cache/fuelr-cache.json"

// SnapshotStore persists a snapshot to a single JSON file. It is a
// best-effort durability layer: a missing or unreadable file is "no cache",
// never an error the caller has to handle.
type SnapshotStore struct {
	path string
}

// NewSnapshotStore creates a store writing to the given path.
// An empty path uses DefaultCachePath.
func NewSnapshotStore(path string) *SnapshotStore {
	if path == "" {
		path = DefaultCachePath
	}
	return &SnapshotStore{path: path}
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Load reads the persisted snapshot. A missing file or malformed content
// yields (nil, nil); any other read failure is returned so the caller can
// log it, but must still be treated as "no cache".
func (s *SnapshotStore) Load() (*Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, nil
	}
	if snapshot.Stations == nil {
		return nil, nil
	}

	return &snapshot, nil
}

// Save writes the snapshot atomically (temp file then rename).
func (s *SnapshotStore) Save(snapshot *Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}

	return nil
}
