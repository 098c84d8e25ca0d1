package store

import (
	"os"
	"path/filepath"

	"timemachine/internal/hash"
	"timemachine/internal/model"
	"timemachine/internal/tm"
)

// MemoryStore is an in-memory ContentStore for tests. Blobs are held
// uncompressed; the content-addressing contract is otherwise identical to
// FileSystemStore.
type MemoryStore struct {
	blobs            map[string][]byte
	corrupted        map[string]bool
	cleanupThreshold uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs:            make(map[string][]byte),
		corrupted:        make(map[string]bool),
		cleanupThreshold: DefaultCleanupThreshold,
	}
}

// SetCleanupThreshold overrides the AutoCleanup threshold.
func (m *MemoryStore) SetCleanupThreshold(bytes uint64) { m.cleanupThreshold = bytes }

// Corrupt marks a blob so Verify reports a mismatch, simulating bit rot.
func (m *MemoryStore) Corrupt(h string) { m.corrupted[h] = true }

func (m *MemoryStore) Init() error { return nil }

func (m *MemoryStore) Store(path string) (string, error) {
	h, err := hash.File(path)
	if err != nil {
		return "", err
	}
	if _, ok := m.blobs[h]; ok {
		return h, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &tm.Error{Kind: tm.KindIO, Op: "store", Path: path, Err: err}
	}
	m.blobs[h] = data
	return h, nil
}

func (m *MemoryStore) Retrieve(h string, targetPath string) error {
	data, ok := m.blobs[h]
	if !ok {
		return &tm.Error{Kind: tm.KindNotFound, Op: "retrieve", Path: h}
	}
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "retrieve", Path: targetPath, Err: err}
	}
	if err := os.WriteFile(targetPath, data, 0644); err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "retrieve", Path: targetPath, Err: err}
	}
	return nil
}

func (m *MemoryStore) Verify(h string) (bool, error) {
	if _, ok := m.blobs[h]; !ok {
		return false, nil
	}
	return !m.corrupted[h], nil
}

func (m *MemoryStore) List() ([]string, error) {
	hashes := make([]string, 0, len(m.blobs))
	for h := range m.blobs {
		hashes = append(hashes, h)
	}
	return hashes, nil
}

func (m *MemoryStore) FindOrphaned(meta *model.SnapshotMetadata) (map[string]struct{}, error) {
	used := meta.ReferencedHashes()
	orphaned := make(map[string]struct{})
	for h := range m.blobs {
		if _, ok := used[h]; !ok {
			orphaned[h] = struct{}{}
		}
	}
	return orphaned, nil
}

func (m *MemoryStore) Cleanup(hashes map[string]struct{}) (uint64, error) {
	var reclaimed uint64
	for h := range hashes {
		if data, ok := m.blobs[h]; ok {
			reclaimed += uint64(len(data))
			delete(m.blobs, h)
			delete(m.corrupted, h)
		}
	}
	return reclaimed, nil
}

func (m *MemoryStore) AutoCleanup(meta *model.SnapshotMetadata) (uint64, error) {
	orphaned, err := m.FindOrphaned(meta)
	if err != nil {
		return 0, err
	}
	var total uint64
	for h := range orphaned {
		total += uint64(len(m.blobs[h]))
	}
	if total <= m.cleanupThreshold {
		return 0, nil
	}
	return m.Cleanup(orphaned)
}

// Compile-time check that MemoryStore implements tm.ContentStore.
var _ tm.ContentStore = (*MemoryStore)(nil)
