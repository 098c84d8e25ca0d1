// Package store implements content-addressed blob storage. Blobs are keyed
// by the SHA-256 digest of their uncompressed bytes and held zstd-compressed
// on disk, so identical content is stored exactly once regardless of how many
// snapshots reference it.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"timemachine/internal/hash"
	"timemachine/internal/model"
	"timemachine/internal/tm"
)

// DefaultCleanupThreshold is the orphaned-bytes level above which AutoCleanup
// sweeps the store. Below it, orphans are left for an explicit cleanup so a
// single stray deleted snapshot does not force a sweep on every operation.
const DefaultCleanupThreshold = 100 * 1024 * 1024

// DefaultCompressionLevel matches zstd level 3.
const DefaultCompressionLevel = 3

// FileSystemStore keeps one compressed blob per unique content hash under
// <root>/.timemachine/contents/<hex-hash>.
type FileSystemStore struct {
	dir              string
	level            zstd.EncoderLevel
	cleanupThreshold uint64
	logger           tm.Logger
}

// Option configures a FileSystemStore.
type Option func(*FileSystemStore)

// WithCompressionLevel sets the zstd compression level. The level never
// affects content addressing: hashing happens over raw bytes before
// compression, so changing it later leaves existing keys valid.
func WithCompressionLevel(level int) Option {
	return func(s *FileSystemStore) {
		s.level = zstd.EncoderLevelFromZstd(level)
	}
}

// WithCleanupThreshold sets the orphaned-bytes threshold for AutoCleanup.
func WithCleanupThreshold(bytes uint64) Option {
	return func(s *FileSystemStore) { s.cleanupThreshold = bytes }
}

// WithLogger sets the logger. Defaults to a NopLogger.
func WithLogger(l tm.Logger) Option {
	return func(s *FileSystemStore) { s.logger = l }
}

// NewFileSystemStore creates a store rooted at the repository root.
func NewFileSystemStore(root string, opts ...Option) *FileSystemStore {
	s := &FileSystemStore{
		dir:              filepath.Join(root, ".timemachine", "contents"),
		level:            zstd.EncoderLevelFromZstd(DefaultCompressionLevel),
		cleanupThreshold: DefaultCleanupThreshold,
		logger:           tm.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init creates the contents directory. Idempotent.
func (s *FileSystemStore) Init() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "store init", Path: s.dir, Err: err}
	}
	return nil
}

// blobPath returns the on-disk location for a content hash.
func (s *FileSystemStore) blobPath(h string) string {
	return filepath.Join(s.dir, h)
}

// Store hashes the file at path over its raw bytes, then compresses the
// source stream into a new blob named by the hash unless one already exists.
func (s *FileSystemStore) Store(path string) (string, error) {
	h, err := hash.File(path)
	if err != nil {
		return "", err
	}

	blob := s.blobPath(h)
	if _, err := os.Stat(blob); err == nil {
		// Blob exists; content-addressing guarantees it is byte-identical.
		s.logger.Debug("content deduplicated", "hash", h)
		return h, nil
	}

	src, err := os.Open(path)
	if err != nil {
		return "", &tm.Error{Kind: tm.KindIO, Op: "store", Path: path, Err: err}
	}
	defer src.Close()

	if err := s.writeBlob(blob, src); err != nil {
		return "", err
	}

	s.logger.Debug("content stored", "hash", h)
	return h, nil
}

// writeBlob compresses r into a temp file and renames it over dest so a
// crash mid-write never leaves a truncated blob under a valid hash name.
func (s *FileSystemStore) writeBlob(dest string, r io.Reader) error {
	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "store", Path: dest, Err: fmt.Errorf("creating temp file: %w", err)}
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	enc, err := zstd.NewWriter(tmpFile, zstd.WithEncoderLevel(s.level))
	if err != nil {
		tmpFile.Close()
		return &tm.Error{Kind: tm.KindIO, Op: "store", Path: dest, Err: fmt.Errorf("creating encoder: %w", err)}
	}

	if _, err := io.Copy(enc, r); err != nil {
		enc.Close()
		tmpFile.Close()
		return &tm.Error{Kind: tm.KindIO, Op: "store", Path: dest, Err: fmt.Errorf("compressing content: %w", err)}
	}
	if err := enc.Close(); err != nil {
		tmpFile.Close()
		return &tm.Error{Kind: tm.KindIO, Op: "store", Path: dest, Err: fmt.Errorf("flushing encoder: %w", err)}
	}
	if err := tmpFile.Close(); err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "store", Path: dest, Err: fmt.Errorf("closing temp file: %w", err)}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "store", Path: dest, Err: fmt.Errorf("renaming temp file: %w", err)}
	}

	success = true
	return nil
}

// Retrieve decompresses the blob for hash to targetPath, creating parent
// directories as needed and overwriting any existing file there.
func (s *FileSystemStore) Retrieve(h string, targetPath string) error {
	blob := s.blobPath(h)
	src, err := os.Open(blob)
	if err != nil {
		if os.IsNotExist(err) {
			return &tm.Error{Kind: tm.KindNotFound, Op: "retrieve", Path: h, Err: err}
		}
		return &tm.Error{Kind: tm.KindIO, Op: "retrieve", Path: h, Err: err}
	}
	defer src.Close()

	dec, err := zstd.NewReader(src)
	if err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "retrieve", Path: h, Err: fmt.Errorf("creating decoder: %w", err)}
	}
	defer dec.Close()

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "retrieve", Path: targetPath, Err: fmt.Errorf("creating parent directory: %w", err)}
	}

	dst, err := os.Create(targetPath)
	if err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "retrieve", Path: targetPath, Err: err}
	}
	defer dst.Close()

	if _, err := io.Copy(dst, dec); err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "retrieve", Path: targetPath, Err: fmt.Errorf("decompressing content: %w", err)}
	}
	return nil
}

// Verify decompresses the blob and recomputes its hash, reporting whether it
// matches the key. Detects silent corruption. An absent blob is (false, nil).
func (s *FileSystemStore) Verify(h string) (bool, error) {
	src, err := os.Open(s.blobPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &tm.Error{Kind: tm.KindIO, Op: "verify", Path: h, Err: err}
	}
	defer src.Close()

	dec, err := zstd.NewReader(src)
	if err != nil {
		// Header too corrupt to even open a decoder: treat as a failed check.
		return false, nil
	}
	defer dec.Close()

	computed, err := hash.Reader(dec)
	if err != nil {
		// Corruption inside the compressed stream surfaces as a decode error.
		return false, nil
	}
	return computed == h, nil
}

// List returns the hashes of all stored blobs.
func (s *FileSystemStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &tm.Error{Kind: tm.KindNotFound, Op: "list blobs", Path: s.dir, Err: err}
		}
		return nil, &tm.Error{Kind: tm.KindIO, Op: "list blobs", Path: s.dir, Err: err}
	}

	hashes := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		hashes = append(hashes, e.Name())
	}
	return hashes, nil
}

// FindOrphaned returns blobs present in storage but not referenced by any
// FileState in any snapshot.
func (s *FileSystemStore) FindOrphaned(meta *model.SnapshotMetadata) (map[string]struct{}, error) {
	stored, err := s.List()
	if err != nil {
		return nil, err
	}

	used := meta.ReferencedHashes()
	orphaned := make(map[string]struct{})
	for _, h := range stored {
		if _, ok := used[h]; !ok {
			orphaned[h] = struct{}{}
		}
	}
	return orphaned, nil
}

// Cleanup deletes exactly the given blobs and returns bytes reclaimed,
// measured as on-disk blob size.
func (s *FileSystemStore) Cleanup(hashes map[string]struct{}) (uint64, error) {
	var reclaimed uint64
	for h := range hashes {
		blob := s.blobPath(h)
		info, err := os.Stat(blob)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return reclaimed, &tm.Error{Kind: tm.KindIO, Op: "cleanup", Path: h, Err: err}
		}
		if err := os.Remove(blob); err != nil {
			return reclaimed, &tm.Error{Kind: tm.KindIO, Op: "cleanup", Path: h, Err: err}
		}
		reclaimed += uint64(info.Size())
	}
	if reclaimed > 0 {
		s.logger.Info("content cleaned up", "bytes", reclaimed, "blobs", len(hashes))
	}
	return reclaimed, nil
}

// AutoCleanup sweeps orphaned blobs only when their total on-disk size
// exceeds the configured threshold. Returns bytes reclaimed, 0 when the
// threshold was not met.
func (s *FileSystemStore) AutoCleanup(meta *model.SnapshotMetadata) (uint64, error) {
	orphaned, err := s.FindOrphaned(meta)
	if err != nil {
		return 0, err
	}
	if len(orphaned) == 0 {
		return 0, nil
	}

	var total uint64
	for h := range orphaned {
		info, err := os.Stat(s.blobPath(h))
		if err != nil {
			continue
		}
		total += uint64(info.Size())
	}

	if total <= s.cleanupThreshold {
		s.logger.Debug("orphaned content below threshold", "bytes", total)
		return 0, nil
	}
	return s.Cleanup(orphaned)
}

// Compile-time check that FileSystemStore implements tm.ContentStore.
var _ tm.ContentStore = (*FileSystemStore)(nil)
