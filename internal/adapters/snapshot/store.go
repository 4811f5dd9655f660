// Package snapshot persists the input-set snapshot and decides whether a
// run needs to re-extract at all.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/docmill/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SnapshotStore = (*Store)(nil)

// Store persists one snapshot as a JSON document.
type Store struct {
	path   string
	logger ports.Logger
}

// NewStore creates a snapshot store backed by the file at the given path.
func NewStore(path string, logger ports.Logger) *Store {
	return &Store{path: filepath.Clean(path), logger: logger}
}

// Load returns the last persisted snapshot. Missing or corrupt state is
// reported as absent so the run proceeds as a first run.
func (s *Store) Load() *domain.Snapshot {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("unreadable snapshot, treating as first run", "path", s.path, "error", err)
		}
		return nil
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("invalid snapshot, treating as first run", "path", s.path, "error", err)
		return nil
	}
	return &snap
}

// Save overwrites the persisted snapshot. Callers invoke it only after the
// stages the snapshot change triggered have completed.
func (s *Store) Save(snap domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal snapshot")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return zerr.Wrap(err, "failed to create directory for snapshot")
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write snapshot")
	}
	return nil
}

// Changed reports whether the current input set differs from the previous
// run. A nil previous snapshot always counts as changed. Any difference in
// any bucket or prompt gates a full re-extraction; there is deliberately no
// per-file granularity.
func Changed(current domain.Snapshot, previous *domain.Snapshot) bool {
	if previous == nil {
		return true
	}
	return !current.Equal(*previous)
}

// Fingerprint renders a short stable digest of a snapshot for logging.
func Fingerprint(snap domain.Snapshot) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(snap.Render()))
}
