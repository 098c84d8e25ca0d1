// Package snapshot persists the snapshot history and scans the tracked
// directory into FileStates. The on-disk format is a single JSON document at
// <root>/.timemachine/metadata.json, rewritten whole on every mutation and
// kept compatible with existing repositories.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"timemachine/internal/fs"
	"timemachine/internal/hash"
	"timemachine/internal/model"
	"timemachine/internal/tm"
)

// MetadataDirName is the reserved directory holding all repository state.
const MetadataDirName = ".timemachine"

// metadataFileName is the history file inside the metadata directory.
const metadataFileName = "metadata.json"

// Repository stores snapshot history under a directory root.
type Repository struct {
	root   string
	clock  tm.Clock
	ignore *fs.IgnoreMatcher
	logger tm.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithClock overrides the clock used for snapshot timestamps.
func WithClock(c tm.Clock) RepositoryOption {
	return func(r *Repository) { r.clock = c }
}

// WithIgnoreMatcher sets the matcher used to exclude entries from scans.
func WithIgnoreMatcher(m *fs.IgnoreMatcher) RepositoryOption {
	return func(r *Repository) { r.ignore = m }
}

// WithLogger sets the logger. Defaults to a NopLogger.
func WithLogger(l tm.Logger) RepositoryOption {
	return func(r *Repository) { r.logger = l }
}

// NewRepository creates a Repository for the given root.
func NewRepository(root string, opts ...RepositoryOption) *Repository {
	r := &Repository{
		root:   root,
		clock:  tm.RealClock{},
		ignore: fs.NewIgnoreMatcher(nil),
		logger: tm.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the directory root this repository tracks.
func (r *Repository) Root() string { return r.root }

func (r *Repository) metadataDir() string {
	return filepath.Join(r.root, MetadataDirName)
}

func (r *Repository) metadataPath() string {
	return filepath.Join(r.metadataDir(), metadataFileName)
}

// Init creates the metadata directory and an empty history if they do not
// exist. Idempotent: re-initializing never truncates existing history.
func (r *Repository) Init() error {
	if err := os.MkdirAll(r.metadataDir(), 0755); err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "init", Path: r.metadataDir(), Err: err}
	}

	if _, err := os.Stat(r.metadataPath()); err == nil {
		return nil
	}
	return r.persist(&model.SnapshotMetadata{Snapshots: []model.Snapshot{}})
}

// Load reads the persisted history.
func (r *Repository) Load() (*model.SnapshotMetadata, error) {
	data, err := os.ReadFile(r.metadataPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &tm.Error{Kind: tm.KindNotFound, Op: "load metadata", Path: r.root, Err: err}
		}
		return nil, &tm.Error{Kind: tm.KindIO, Op: "load metadata", Path: r.metadataPath(), Err: err}
	}

	var meta model.SnapshotMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, &tm.Error{Kind: tm.KindInvalidData, Op: "load metadata", Path: r.metadataPath(), Err: fmt.Errorf("parsing metadata: %w", err)}
	}
	return &meta, nil
}

// Scan enumerates direct entries of the root, excluding the metadata
// directory and ignored names, and returns a FileState per regular file.
// Subdirectories are skipped, not traversed; nested trees are out of scope
// for the current format. Results are sorted by path.
func (r *Repository) Scan() ([]model.FileState, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, &tm.Error{Kind: tm.KindIO, Op: "scan", Path: r.root, Err: err}
	}

	states := make([]model.FileState, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if name == MetadataDirName || r.ignore.Match(name) {
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, &tm.Error{Kind: tm.KindIO, Op: "scan", Path: name, Err: err}
		}

		path := filepath.Join(r.root, name)
		h, err := hash.File(path)
		if err != nil {
			return nil, err
		}

		states = append(states, model.FileState{
			Path:         name,
			Size:         uint64(info.Size()),
			LastModified: strconv.FormatInt(info.ModTime().Unix(), 10),
			Hash:         h,
		})
	}

	sort.Slice(states, func(i, j int) bool { return states[i].Path < states[j].Path })
	return states, nil
}

// nextID returns max(existing ids)+1. Counting entries would reuse ids once
// a snapshot is deleted; ids must stay unique for the life of the repository.
func nextID(meta *model.SnapshotMetadata) int {
	max := 0
	for i := range meta.Snapshots {
		if meta.Snapshots[i].ID > max {
			max = meta.Snapshots[i].ID
		}
	}
	return max + 1
}

// Append builds a snapshot from the given states, appends it to meta, and
// persists the updated history. Changes is fixed to len(states) here and
// never recomputed.
func (r *Repository) Append(meta *model.SnapshotMetadata, states []model.FileState) (*model.Snapshot, error) {
	snap := model.Snapshot{
		ID:         nextID(meta),
		Timestamp:  r.clock.Now().Format(time.RFC3339),
		Changes:    len(states),
		FileStates: states,
	}

	meta.Snapshots = append(meta.Snapshots, snap)
	if err := r.persist(meta); err != nil {
		return nil, err
	}

	r.logger.Info("snapshot created", "id", snap.ID, "files", snap.Changes)
	return &meta.Snapshots[len(meta.Snapshots)-1], nil
}

// Remove deletes the snapshot with the given id and persists.
func (r *Repository) Remove(meta *model.SnapshotMetadata, id int) error {
	index := -1
	for i := range meta.Snapshots {
		if meta.Snapshots[i].ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return &tm.Error{Kind: tm.KindNotFound, Op: "delete snapshot", SnapshotID: id, Available: meta.IDs()}
	}

	meta.Snapshots = append(meta.Snapshots[:index], meta.Snapshots[index+1:]...)
	if err := r.persist(meta); err != nil {
		return err
	}

	r.logger.Info("snapshot deleted", "id", id)
	return nil
}

// persist rewrites metadata.json. The write goes to a temp file in the
// metadata directory followed by an atomic rename so a crash mid-write never
// leaves a partial history.
func (r *Repository) persist(meta *model.SnapshotMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "persist metadata", Err: err}
	}

	tmpFile, err := os.CreateTemp(r.metadataDir(), ".metadata-*.json")
	if err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "persist metadata", Err: fmt.Errorf("creating temp file: %w", err)}
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return &tm.Error{Kind: tm.KindIO, Op: "persist metadata", Err: fmt.Errorf("writing temp file: %w", err)}
	}
	if err := tmpFile.Close(); err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "persist metadata", Err: fmt.Errorf("closing temp file: %w", err)}
	}

	if err := os.Rename(tmpPath, r.metadataPath()); err != nil {
		return &tm.Error{Kind: tm.KindIO, Op: "persist metadata", Err: fmt.Errorf("renaming temp file: %w", err)}
	}

	success = true
	return nil
}

// Compile-time check that Repository implements tm.SnapshotRepository.
var _ tm.SnapshotRepository = (*Repository)(nil)
