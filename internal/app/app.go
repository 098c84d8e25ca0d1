// Package app is the application layer between the CLI and the versioning
// service. It loads per-repository configuration, wires the concrete
// collaborators, and owns the log file lifecycle.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"timemachine/internal/config"
	"timemachine/internal/disk"
	"timemachine/internal/fs"
	"timemachine/internal/model"
	"timemachine/internal/snapshot"
	"timemachine/internal/store"
	"timemachine/internal/tm"
)

// App constructs all dependencies from config and exposes the high-level
// operations the CLI runs. The caller must call Close when done.
type App struct {
	root    string
	cfg     *config.Config
	service *tm.Service
	logFile *os.File
}

// NewApp creates a fully wired App for the given repository root.
// operation identifies the CLI command being run (e.g. "Snapshot", "Restore")
// and tags every log line of the invocation.
func NewApp(root string, operation string) (*App, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	ignore, err := fs.LoadIgnoreMatcher(root, cfg.Ignore)
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = filepath.Join(root, snapshot.MetadataDirName, "log")
	}
	opID := fmt.Sprintf("%s-%s", operation, time.Now().UTC().Format("20060102T150405Z"))
	slogger, logFile, err := newLogger(logDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	repo := snapshot.NewRepository(root,
		snapshot.WithIgnoreMatcher(ignore),
		snapshot.WithLogger(logger))

	blobs := store.NewFileSystemStore(root,
		store.WithCompressionLevel(cfg.CompressionLevel),
		store.WithCleanupThreshold(cfg.CleanupThresholdBytes),
		store.WithLogger(logger))

	svc := tm.NewService(repo, blobs, disk.NewStatfsProvider(), logger)

	return &App{
		root:    root,
		cfg:     cfg,
		service: svc,
		logFile: logFile,
	}, nil
}

// Root returns the repository root this App operates on.
func (a *App) Root() string { return a.root }

// Init initializes the repository layout and writes a fresh config with a
// generated repository id. Re-initializing an existing repository preserves
// both its history and its config.
func (a *App) Init() error {
	if err := a.service.Initialize(); err != nil {
		return err
	}
	return config.Init(a.root, config.NewConfig(uuid.New().String()))
}

// Snapshot records the current directory state.
func (a *App) Snapshot() (*model.Snapshot, error) {
	return a.service.TakeSnapshot()
}

// Diff compares two snapshots by id, idA before idB.
func (a *App) Diff(idA, idB int) (*model.SnapshotComparison, error) {
	return a.service.Diff(idA, idB)
}

// Restore brings the directory back to the state of snapshot id.
func (a *App) Restore(id int, opts tm.RestoreOptions) (*tm.RestoreResult, error) {
	return a.service.Restore(id, opts)
}

// List returns one row per snapshot in history order.
func (a *App) List(detailed bool) ([]model.SnapshotListInfo, error) {
	return a.service.ListSnapshots(detailed)
}

// Status summarizes the directory against the latest snapshot.
func (a *App) Status() (*model.StatusInfo, error) {
	return a.service.Status()
}

// Delete removes a snapshot from history. When cleanup is set, orphaned
// content is reclaimed in the same operation. Returns bytes reclaimed.
func (a *App) Delete(id int, cleanup bool) (uint64, error) {
	return a.service.DeleteSnapshot(id, cleanup)
}

// Cleanup deletes all orphaned content and returns bytes reclaimed.
func (a *App) Cleanup() (uint64, error) {
	return a.service.CleanupOrphans()
}

// Verify re-hashes every stored blob, returning the total checked and the
// hashes that failed.
func (a *App) Verify() (int, []string, error) {
	return a.service.VerifyStore()
}

// Close releases resources held for the invocation.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}
