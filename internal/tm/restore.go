package tm

import (
	"fmt"
	"os"
	"path/filepath"

	"timemachine/internal/model"
)

// RestoreOptions controls a restore invocation.
type RestoreOptions struct {
	// DryRun computes and returns the report without touching the filesystem.
	DryRun bool
	// Force proceeds despite uncommitted changes, after taking a backup
	// snapshot of the current state.
	Force bool
}

// RestoreResult is the outcome of a restore invocation. When Force triggered
// a safety backup, BackupSnapshotID holds its id so callers (and tests) can
// observe that the backup exists; it is 0 otherwise.
type RestoreResult struct {
	Report           *model.RestoreReport
	BackupSnapshotID int
	DryRun           bool
}

// Restore brings the working directory to the state recorded in snapshot id.
//
// The pipeline is terminal on first failure: permission probe, snapshot
// lookup, disk-space check, uncommitted-change check (with forced backup),
// report generation, dry-run short-circuit, then apply. Apply has no
// transactional rollback: a blob retrieval failure aborts the remaining
// loop and surfaces the error, leaving the directory partially updated.
// The report describes the intended change set either way.
func (s *Service) Restore(id int, opts RestoreOptions) (*RestoreResult, error) {
	release, err := s.repo.Lock()
	if err != nil {
		return nil, err
	}
	defer release()

	root := s.repo.Root()

	// Step 1: the directory must be writable before anything else is
	// checked, so a doomed restore fails before mutating metadata.
	if err := s.validatePermissions(root); err != nil {
		return nil, err
	}

	// Step 2: locate the target snapshot.
	meta, err := s.repo.Load()
	if err != nil {
		return nil, err
	}
	target := meta.Find(id)
	if target == nil {
		return nil, &Error{Kind: KindNotFound, Op: "restore", SnapshotID: id, Available: meta.IDs()}
	}

	// Step 3: the filesystem must hold the full restored file set.
	required := target.TotalSize()
	available, err := s.disk.AvailableBytes(root)
	if err != nil {
		return nil, err
	}
	if available < required {
		return nil, &Error{Kind: KindInsufficientSpace, Op: "restore", Path: root,
			Err: fmt.Errorf("need %d bytes, %d available", required, available)}
	}

	// Step 4: uncommitted changes are measured against the latest snapshot,
	// not the restore target. With force set, the current state is captured
	// in a backup snapshot before it is overwritten.
	current, err := s.repo.Scan()
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{DryRun: opts.DryRun}

	if s.hasUncommittedChanges(meta, current) {
		if !opts.Force {
			return nil, &Error{Kind: KindUncommittedChanges, Op: "restore", Path: root}
		}

		backup, err := s.takeSnapshotLocked()
		if err != nil {
			return nil, fmt.Errorf("creating backup snapshot: %w", err)
		}
		result.BackupSnapshotID = backup.ID
		s.logger.Info("backup snapshot created before forced restore", "id", backup.ID)
	}

	// Step 5: report in current->target direction.
	result.Report = model.BuildRestoreReport(current, target.FileStates)

	// Step 6: dry run stops here.
	if opts.DryRun {
		return result, nil
	}

	// Step 7: apply. Restorations before deletions; the path sets are
	// disjoint by diff construction, but deleting first could remove a
	// parent directory a restoration still needs.
	if err := s.applyRestore(target, result.Report); err != nil {
		return nil, err
	}

	s.logger.Info("restore complete", "snapshot", id,
		"added", len(result.Report.Added),
		"modified", len(result.Report.Modified),
		"deleted", len(result.Report.Deleted))
	return result, nil
}

// hasUncommittedChanges reports whether current differs from the latest
// snapshot. With no history, any file at all counts as uncommitted.
func (s *Service) hasUncommittedChanges(meta *model.SnapshotMetadata, current []model.FileState) bool {
	latest := meta.Latest()
	if latest == nil {
		return len(current) > 0
	}
	return model.HasChanges(latest.FileStates, current)
}

// validatePermissions probes the directory with a throwaway write+delete.
func (s *Service) validatePermissions(root string) error {
	probe, err := os.CreateTemp(root, ".tm-write-check-*")
	if err != nil {
		return &Error{Kind: KindPermissionDenied, Op: "restore", Path: root, Err: err}
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil {
		return &Error{Kind: KindPermissionDenied, Op: "restore", Path: root, Err: err}
	}
	return nil
}

// applyRestore materializes the report against the filesystem. Added and
// modified paths are retrieved from the content store; deleted paths are
// removed directly.
func (s *Service) applyRestore(target *model.Snapshot, report *model.RestoreReport) error {
	targetMap := model.BuildFileMap(target.FileStates)

	restore := make([]string, 0, len(report.Added)+len(report.Modified))
	restore = append(restore, report.Added...)
	restore = append(restore, report.Modified...)

	for _, path := range restore {
		state, ok := targetMap[path]
		if !ok {
			// Report paths come from the target map; a miss means the diff
			// and the snapshot disagree, which is a programming error.
			return &Error{Kind: KindNotFound, Op: "restore", Path: path,
				Err: fmt.Errorf("path in report but not in snapshot %d", target.ID)}
		}
		if err := s.store.Retrieve(state.Hash, s.statePath(path)); err != nil {
			return fmt.Errorf("restoring %s: %w", path, err)
		}
	}

	for _, path := range report.Deleted {
		if err := os.Remove(s.statePath(path)); err != nil && !os.IsNotExist(err) {
			return &Error{Kind: KindIO, Op: "restore", Path: path, Err: fmt.Errorf("deleting file: %w", err)}
		}
	}

	return nil
}

// statePath resolves a FileState's relative path against the repository root.
func (s *Service) statePath(relative string) string {
	return filepath.Join(s.repo.Root(), relative)
}
