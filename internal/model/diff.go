package model

import "sort"

// FileMap indexes FileStates by their relative path.
type FileMap map[string]FileState

// BuildFileMap indexes the given states by path.
func BuildFileMap(states []FileState) FileMap {
	m := make(FileMap, len(states))
	for _, s := range states {
		m[s.Path] = s
	}
	return m
}

// modified reports whether a path present in both maps counts as modified:
// hash or size differs. LastModified is informational only and never
// triggers a modification on its own.
func modified(old, new FileState) bool {
	return old.Hash != new.Hash || old.Size != new.Size
}

// NewFiles returns paths present in b but absent from a, sorted.
func NewFiles(a, b FileMap) []string {
	var paths []string
	for path := range b {
		if _, ok := a[path]; !ok {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// DeletedFiles returns paths present in a but absent from b, sorted.
func DeletedFiles(a, b FileMap) []string {
	var paths []string
	for path := range a {
		if _, ok := b[path]; !ok {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

// ModifiedFiles returns detail records for paths present in both maps whose
// hash or size differs, sorted by path.
func ModifiedFiles(a, b FileMap) []ModifiedFileDetail {
	var details []ModifiedFileDetail
	for path, newState := range b {
		oldState, ok := a[path]
		if !ok || !modified(oldState, newState) {
			continue
		}
		details = append(details, ModifiedFileDetail{
			Path:            path,
			OldSize:         oldState.Size,
			NewSize:         newState.Size,
			OldHash:         oldState.Hash,
			NewHash:         newState.Hash,
			OldLastModified: oldState.LastModified,
			NewLastModified: newState.LastModified,
		})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Path < details[j].Path })
	return details
}

// UnchangedFiles returns paths present in both maps that are not modified,
// sorted.
func UnchangedFiles(a, b FileMap) []string {
	var paths []string
	for path, oldState := range a {
		newState, ok := b[path]
		if !ok || modified(oldState, newState) {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Compare diffs two snapshots' file states, a before b.
func Compare(a, b []FileState) *SnapshotComparison {
	mapA := BuildFileMap(a)
	mapB := BuildFileMap(b)
	return &SnapshotComparison{
		NewFiles:      NewFiles(mapA, mapB),
		ModifiedFiles: ModifiedFiles(mapA, mapB),
		DeletedFiles:  DeletedFiles(mapA, mapB),
	}
}

// BuildRestoreReport diffs the current directory state against a restore
// target. Added is present in the target but absent now; Deleted is present
// now but absent in the target. The same diff primitive as Compare, with the
// direction reversed.
func BuildRestoreReport(current, target []FileState) *RestoreReport {
	currentMap := BuildFileMap(current)
	targetMap := BuildFileMap(target)

	var modifiedPaths []string
	for _, d := range ModifiedFiles(currentMap, targetMap) {
		modifiedPaths = append(modifiedPaths, d.Path)
	}

	return &RestoreReport{
		Added:     NewFiles(currentMap, targetMap),
		Modified:  modifiedPaths,
		Deleted:   DeletedFiles(currentMap, targetMap),
		Unchanged: UnchangedFiles(currentMap, targetMap),
	}
}

// HasChanges reports whether current differs from the given snapshot states
// in any way visible to the diff: new, modified, or deleted paths.
func HasChanges(snapshotStates, current []FileState) bool {
	snapMap := BuildFileMap(snapshotStates)
	currentMap := BuildFileMap(current)
	return len(NewFiles(snapMap, currentMap)) > 0 ||
		len(ModifiedFiles(snapMap, currentMap)) > 0 ||
		len(DeletedFiles(snapMap, currentMap)) > 0
}
