package tm

import "timemachine/internal/model"

// ContentStore is content-addressed, compressed blob storage keyed by the
// SHA-256 digest of the uncompressed bytes. Blobs are immutable once written:
// a store never overwrites, only creates-if-absent.
type ContentStore interface {
	// Init creates the backing storage if it does not exist. Idempotent.
	Init() error

	// Store hashes the file at path and writes a compressed blob for it if
	// one does not already exist. Returns the content hash. Idempotent.
	Store(path string) (string, error)

	// Retrieve decompresses the blob for hash to targetPath, creating parent
	// directories as needed and overwriting any existing file. Fails with a
	// not-found error if no blob exists for hash.
	Retrieve(hash string, targetPath string) error

	// Verify decompresses the blob and recomputes its hash, reporting whether
	// it matches. An absent blob yields (false, nil), not an error.
	Verify(hash string) (bool, error)

	// List returns the hashes of all stored blobs.
	List() ([]string, error)

	// FindOrphaned returns blobs present in storage but not referenced by any
	// FileState in any snapshot.
	FindOrphaned(meta *model.SnapshotMetadata) (map[string]struct{}, error)

	// Cleanup deletes exactly the given blobs and returns the bytes reclaimed.
	Cleanup(hashes map[string]struct{}) (uint64, error)

	// AutoCleanup deletes orphaned blobs only when their total on-disk size
	// exceeds the store's threshold. Returns the bytes reclaimed (0 if the
	// threshold was not met).
	AutoCleanup(meta *model.SnapshotMetadata) (uint64, error)
}
