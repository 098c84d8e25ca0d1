package tm

import "timemachine/internal/model"

// SnapshotRepository loads and persists the ordered snapshot history and
// produces the current file state of the tracked directory.
type SnapshotRepository interface {
	// Root returns the tracked directory root.
	Root() string

	// Init creates the repository layout (metadata directory and an empty
	// history) if it does not exist. Idempotent.
	Init() error

	// Scan enumerates the direct entries of the repository root, excluding
	// the metadata directory, and returns a FileState per regular file.
	// Subdirectories are skipped, not traversed.
	Scan() ([]model.FileState, error)

	// Load reads the persisted history. Fails with a not-found error if the
	// repository was never initialized and an invalid-data error if the
	// metadata cannot be parsed.
	Load() (*model.SnapshotMetadata, error)

	// Append builds a snapshot from the given states with the next id and a
	// current timestamp, appends it to meta, and persists. Returns the new
	// snapshot.
	Append(meta *model.SnapshotMetadata, states []model.FileState) (*model.Snapshot, error)

	// Remove deletes the snapshot with the given id from meta and persists.
	// Fails with a not-found error if no such snapshot exists.
	Remove(meta *model.SnapshotMetadata, id int) error

	// Lock acquires the repository's advisory lock for the duration of a
	// mutating operation. The returned release function must be called on
	// all exit paths.
	Lock() (release func(), err error)
}
