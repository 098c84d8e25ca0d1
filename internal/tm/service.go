// Package tm is the orchestration layer of the versioning engine. It
// coordinates the snapshot repository, content store, and disk-space
// provider to implement the operations the CLI exposes, and owns the
// safety ordering of the restore pipeline.
package tm

import (
	"sort"

	"timemachine/internal/model"
)

// Service coordinates all components to perform the high-level versioning
// operations. It is synchronous and single-threaded; concurrent use against
// the same repository is guarded only by the repository's advisory lock.
type Service struct {
	repo   SnapshotRepository
	store  ContentStore
	disk   DiskSpaceProvider
	logger Logger
}

// NewService creates a Service with the provided dependencies.
func NewService(repo SnapshotRepository, store ContentStore, disk DiskSpaceProvider, logger Logger) *Service {
	return &Service{
		repo:   repo,
		store:  store,
		disk:   disk,
		logger: logger,
	}
}

// Initialize creates the repository layout: the metadata directory with an
// empty history and the contents directory. Idempotent.
func (s *Service) Initialize() error {
	if err := s.repo.Init(); err != nil {
		return err
	}
	if err := s.store.Init(); err != nil {
		return err
	}
	s.logger.Info("repository initialized", "root", s.repo.Root())
	return nil
}

// TakeSnapshot records the current directory state as a new snapshot and
// stores the content of every scanned file. An uninitialized repository is
// initialized first.
func (s *Service) TakeSnapshot() (*model.Snapshot, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	release, err := s.repo.Lock()
	if err != nil {
		return nil, err
	}
	defer release()

	return s.takeSnapshotLocked()
}

// takeSnapshotLocked is the lock-free body of TakeSnapshot, shared with the
// restore engine's forced-backup step (the flock is not reentrant).
func (s *Service) takeSnapshotLocked() (*model.Snapshot, error) {
	meta, err := s.repo.Load()
	if err != nil {
		return nil, err
	}

	states, err := s.repo.Scan()
	if err != nil {
		return nil, err
	}

	// Store content before metadata references it, so a snapshot never
	// points at a blob that was not written. Storing is idempotent; files
	// already present under their hash are skipped.
	for i := range states {
		if _, err := s.store.Store(s.statePath(states[i].Path)); err != nil {
			return nil, err
		}
	}

	return s.repo.Append(meta, states)
}

// ensureInitialized initializes the repository if it has never been.
func (s *Service) ensureInitialized() error {
	if _, err := s.repo.Load(); err != nil {
		if IsKind(err, KindNotFound) {
			s.logger.Warn("repository not initialized, initializing now", "root", s.repo.Root())
			return s.Initialize()
		}
		return err
	}
	return nil
}

// Diff compares two snapshots by id, idA before idB.
func (s *Service) Diff(idA, idB int) (*model.SnapshotComparison, error) {
	meta, err := s.repo.Load()
	if err != nil {
		return nil, err
	}

	snapA := meta.Find(idA)
	if snapA == nil {
		return nil, &Error{Kind: KindNotFound, Op: "diff", SnapshotID: idA, Available: meta.IDs()}
	}
	snapB := meta.Find(idB)
	if snapB == nil {
		return nil, &Error{Kind: KindNotFound, Op: "diff", SnapshotID: idB, Available: meta.IDs()}
	}

	return model.Compare(snapA.FileStates, snapB.FileStates), nil
}

// ListSnapshots returns one row per snapshot in history order. Total sizes
// are computed only when detailed is set.
func (s *Service) ListSnapshots(detailed bool) ([]model.SnapshotListInfo, error) {
	meta, err := s.repo.Load()
	if err != nil {
		return nil, err
	}

	infos := make([]model.SnapshotListInfo, 0, len(meta.Snapshots))
	for i := range meta.Snapshots {
		snap := &meta.Snapshots[i]
		info := model.SnapshotListInfo{
			ID:        snap.ID,
			Timestamp: snap.Timestamp,
			Changes:   snap.Changes,
		}
		if detailed {
			info.TotalSize = snap.TotalSize()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Status summarizes the working directory against the latest snapshot and
// reports available disk space.
func (s *Service) Status() (*model.StatusInfo, error) {
	meta, err := s.repo.Load()
	if err != nil {
		return nil, err
	}

	current, err := s.repo.Scan()
	if err != nil {
		return nil, err
	}

	available, err := s.disk.AvailableBytes(s.repo.Root())
	if err != nil {
		return nil, err
	}

	status := &model.StatusInfo{AvailableSpace: available}

	latest := meta.Latest()
	if latest == nil {
		// With no history every file counts as uncommitted.
		status.HasUncommittedChanges = len(current) > 0
		for i := range current {
			status.NewFiles = append(status.NewFiles, current[i].Path)
		}
		return status, nil
	}

	status.LatestSnapshotID = latest.ID

	snapMap := model.BuildFileMap(latest.FileStates)
	currentMap := model.BuildFileMap(current)

	for _, d := range model.ModifiedFiles(snapMap, currentMap) {
		status.ModifiedFiles = append(status.ModifiedFiles, d.Path)
	}
	status.NewFiles = model.NewFiles(snapMap, currentMap)
	status.DeletedFiles = model.DeletedFiles(snapMap, currentMap)
	status.HasUncommittedChanges = len(status.ModifiedFiles) > 0 ||
		len(status.NewFiles) > 0 ||
		len(status.DeletedFiles) > 0

	return status, nil
}

// DeleteSnapshot removes the snapshot with the given id from history.
// When cleanup is set, blobs orphaned by the removal are deleted in the
// same operation; otherwise the threshold-gated auto-cleanup runs, so large
// amounts of dead content do not linger unnoticed. Returns bytes reclaimed.
func (s *Service) DeleteSnapshot(id int, cleanup bool) (uint64, error) {
	release, err := s.repo.Lock()
	if err != nil {
		return 0, err
	}
	defer release()

	meta, err := s.repo.Load()
	if err != nil {
		return 0, err
	}

	if err := s.repo.Remove(meta, id); err != nil {
		return 0, err
	}

	// Orphans are recomputed after removal: content still referenced by any
	// remaining snapshot is never eligible.
	if cleanup {
		orphaned, err := s.store.FindOrphaned(meta)
		if err != nil {
			return 0, err
		}
		return s.store.Cleanup(orphaned)
	}
	return s.store.AutoCleanup(meta)
}

// CleanupOrphans deletes all blobs not referenced by any retained snapshot
// and returns the bytes reclaimed. This is the explicit, user-invoked sweep.
func (s *Service) CleanupOrphans() (uint64, error) {
	release, err := s.repo.Lock()
	if err != nil {
		return 0, err
	}
	defer release()

	meta, err := s.repo.Load()
	if err != nil {
		return 0, err
	}

	orphaned, err := s.store.FindOrphaned(meta)
	if err != nil {
		return 0, err
	}
	return s.store.Cleanup(orphaned)
}

// VerifyContent checks a single blob against its hash. Absent blobs report
// false without an error.
func (s *Service) VerifyContent(hash string) (bool, error) {
	return s.store.Verify(hash)
}

// VerifyStore re-hashes every stored blob and returns the total checked
// along with the hashes that failed verification, sorted.
func (s *Service) VerifyStore() (checked int, corrupt []string, err error) {
	hashes, err := s.store.List()
	if err != nil {
		return 0, nil, err
	}

	for _, h := range hashes {
		ok, err := s.store.Verify(h)
		if err != nil {
			return checked, corrupt, err
		}
		checked++
		if !ok {
			corrupt = append(corrupt, h)
		}
	}
	sort.Strings(corrupt)

	if len(corrupt) > 0 {
		s.logger.Warn("store verification found corrupt content", "corrupt", len(corrupt), "checked", checked)
	}
	return checked, corrupt, nil
}
