package model

// FileState records the observed state of one tracked file. Path is relative
// to the repository root and is the identity key; two FileStates are equal
// only when all four fields match.
type FileState struct {
	Path         string `json:"path"`
	Size         uint64 `json:"size"`
	LastModified string `json:"last_modified"` // epoch seconds as text
	Hash         string `json:"hash"`          // lowercase hex SHA-256 of raw bytes
}

// Snapshot is an immutable recorded state of all tracked files at a point in
// time. Changes is fixed at creation to len(FileStates) and never recomputed.
type Snapshot struct {
	ID         int         `json:"id"`
	Timestamp  string      `json:"timestamp"` // RFC 3339
	Changes    int         `json:"changes"`
	FileStates []FileState `json:"file_states"`
}

// TotalSize returns the sum of all file sizes recorded in the snapshot.
func (s *Snapshot) TotalSize() uint64 {
	var total uint64
	for i := range s.FileStates {
		total += s.FileStates[i].Size
	}
	return total
}

// SnapshotMetadata is the ordered snapshot history, the sole persisted source
// of truth. It is append-only except for explicit deletion by id.
type SnapshotMetadata struct {
	Snapshots []Snapshot `json:"snapshots"`
}

// Latest returns the most recent snapshot, or nil if the history is empty.
func (m *SnapshotMetadata) Latest() *Snapshot {
	if len(m.Snapshots) == 0 {
		return nil
	}
	return &m.Snapshots[len(m.Snapshots)-1]
}

// Find returns the snapshot with the given id, or nil.
func (m *SnapshotMetadata) Find(id int) *Snapshot {
	for i := range m.Snapshots {
		if m.Snapshots[i].ID == id {
			return &m.Snapshots[i]
		}
	}
	return nil
}

// IDs returns all snapshot ids in history order.
func (m *SnapshotMetadata) IDs() []int {
	ids := make([]int, 0, len(m.Snapshots))
	for i := range m.Snapshots {
		ids = append(ids, m.Snapshots[i].ID)
	}
	return ids
}

// ReferencedHashes returns the set of content hashes referenced by any
// FileState in any retained snapshot.
func (m *SnapshotMetadata) ReferencedHashes() map[string]struct{} {
	used := make(map[string]struct{})
	for i := range m.Snapshots {
		for j := range m.Snapshots[i].FileStates {
			used[m.Snapshots[i].FileStates[j].Hash] = struct{}{}
		}
	}
	return used
}

// ModifiedFileDetail describes one modified path in a snapshot comparison,
// carrying both sides of every field for rendering.
type ModifiedFileDetail struct {
	Path            string
	OldSize         uint64
	NewSize         uint64
	OldHash         string
	NewHash         string
	OldLastModified string
	NewLastModified string
}

// SnapshotComparison is the result of diffing two snapshots.
type SnapshotComparison struct {
	NewFiles      []string
	ModifiedFiles []ModifiedFileDetail
	DeletedFiles  []string
}

// RestoreReport is the result of diffing the current directory state against
// a restore target, in current->target direction: Added is present in the
// target but absent now, Deleted is present now but absent in the target.
type RestoreReport struct {
	Added     []string
	Modified  []string
	Deleted   []string
	Unchanged []string
}

// Empty reports whether applying the restore would change nothing.
func (r *RestoreReport) Empty() bool {
	return len(r.Added) == 0 && len(r.Modified) == 0 && len(r.Deleted) == 0
}

// SnapshotListInfo is one row of a snapshot listing. TotalSize is only
// populated for detailed listings.
type SnapshotListInfo struct {
	ID        int
	Timestamp string
	Changes   int
	TotalSize uint64
}

// StatusInfo summarizes the working directory against the latest snapshot.
type StatusInfo struct {
	HasUncommittedChanges bool
	ModifiedFiles         []string
	NewFiles              []string
	DeletedFiles          []string
	AvailableSpace        uint64
	LatestSnapshotID      int // 0 when no snapshots exist
}
