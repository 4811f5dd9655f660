package ports

import "go.trai.ch/docmill/internal/core/domain"

// SnapshotStore persists the input snapshot between runs.
//
//go:generate mockgen -source=snapshot.go -destination=mocks/mock_snapshot.go -package=mocks
type SnapshotStore interface {
	// Load returns the last persisted snapshot, or nil when there is none.
	// Corrupt state is treated as absent, never as an error.
	Load() *domain.Snapshot

	// Save overwrites the persisted snapshot.
	Save(snapshot domain.Snapshot) error
}
