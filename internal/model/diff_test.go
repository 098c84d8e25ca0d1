package model

import (
	"reflect"
	"testing"
)

func state(path, hash string, size uint64) FileState {
	return FileState{Path: path, Size: size, LastModified: "1700000000", Hash: hash}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name         string
		a, b         []FileState
		wantNew      []string
		wantModified []string
		wantDeleted  []string
	}{
		{
			name: "file added",
			a:    []FileState{state("a.txt", "h1", 5)},
			b:    []FileState{state("a.txt", "h1", 5), state("b.txt", "h2", 3)},
			wantNew: []string{"b.txt"},
		},
		{
			name:        "file deleted",
			a:           []FileState{state("a.txt", "h1", 5), state("b.txt", "h2", 3)},
			b:           []FileState{state("a.txt", "h1", 5)},
			wantDeleted: []string{"b.txt"},
		},
		{
			name:         "hash change is a modification",
			a:            []FileState{state("a.txt", "h1", 5)},
			b:            []FileState{state("a.txt", "h9", 5)},
			wantModified: []string{"a.txt"},
		},
		{
			name:         "size change is a modification",
			a:            []FileState{state("a.txt", "h1", 5)},
			b:            []FileState{state("a.txt", "h1", 6)},
			wantModified: []string{"a.txt"},
		},
		{
			name: "timestamp change alone is not a modification",
			a:    []FileState{state("a.txt", "h1", 5)},
			b: []FileState{{
				Path: "a.txt", Size: 5, LastModified: "1800000000", Hash: "h1",
			}},
		},
		{
			name: "both empty",
		},
		{
			name: "mixed changes come back sorted",
			a: []FileState{
				state("keep.txt", "k", 1),
				state("z-gone.txt", "z", 2),
				state("a-gone.txt", "a", 2),
				state("edit.txt", "e1", 4),
			},
			b: []FileState{
				state("keep.txt", "k", 1),
				state("edit.txt", "e2", 4),
				state("z-new.txt", "zn", 7),
				state("a-new.txt", "an", 7),
			},
			wantNew:      []string{"a-new.txt", "z-new.txt"},
			wantModified: []string{"edit.txt"},
			wantDeleted:  []string{"a-gone.txt", "z-gone.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.a, tt.b)

			if !reflect.DeepEqual(got.NewFiles, tt.wantNew) {
				t.Errorf("NewFiles = %v, want %v", got.NewFiles, tt.wantNew)
			}
			var modifiedPaths []string
			for _, d := range got.ModifiedFiles {
				modifiedPaths = append(modifiedPaths, d.Path)
			}
			if !reflect.DeepEqual(modifiedPaths, tt.wantModified) {
				t.Errorf("ModifiedFiles = %v, want %v", modifiedPaths, tt.wantModified)
			}
			if !reflect.DeepEqual(got.DeletedFiles, tt.wantDeleted) {
				t.Errorf("DeletedFiles = %v, want %v", got.DeletedFiles, tt.wantDeleted)
			}
		})
	}
}

func TestCompare_SelfDiffIsEmpty(t *testing.T) {
	states := []FileState{
		state("a.txt", "h1", 5),
		state("b.txt", "h2", 10),
		state("c.txt", "h3", 0),
	}

	got := Compare(states, states)
	if len(got.NewFiles) != 0 || len(got.ModifiedFiles) != 0 || len(got.DeletedFiles) != 0 {
		t.Errorf("self-diff not empty: %+v", got)
	}
}

func TestModifiedFiles_CarriesBothSides(t *testing.T) {
	a := BuildFileMap([]FileState{{Path: "f", Size: 5, LastModified: "100", Hash: "old"}})
	b := BuildFileMap([]FileState{{Path: "f", Size: 9, LastModified: "200", Hash: "new"}})

	details := ModifiedFiles(a, b)
	if len(details) != 1 {
		t.Fatalf("ModifiedFiles returned %d entries, want 1", len(details))
	}
	d := details[0]
	if d.OldSize != 5 || d.NewSize != 9 {
		t.Errorf("sizes = %d -> %d, want 5 -> 9", d.OldSize, d.NewSize)
	}
	if d.OldHash != "old" || d.NewHash != "new" {
		t.Errorf("hashes = %q -> %q, want old -> new", d.OldHash, d.NewHash)
	}
	if d.OldLastModified != "100" || d.NewLastModified != "200" {
		t.Errorf("timestamps = %q -> %q, want 100 -> 200", d.OldLastModified, d.NewLastModified)
	}
}

func TestBuildRestoreReport(t *testing.T) {
	current := []FileState{
		state("keep.txt", "k", 1),
		state("edited.txt", "now", 4),
		state("extra.txt", "x", 2),
	}
	target := []FileState{
		state("keep.txt", "k", 1),
		state("edited.txt", "then", 4),
		state("missing.txt", "m", 8),
	}

	report := BuildRestoreReport(current, target)

	if want := []string{"missing.txt"}; !reflect.DeepEqual(report.Added, want) {
		t.Errorf("Added = %v, want %v", report.Added, want)
	}
	if want := []string{"edited.txt"}; !reflect.DeepEqual(report.Modified, want) {
		t.Errorf("Modified = %v, want %v", report.Modified, want)
	}
	if want := []string{"extra.txt"}; !reflect.DeepEqual(report.Deleted, want) {
		t.Errorf("Deleted = %v, want %v", report.Deleted, want)
	}
	if want := []string{"keep.txt"}; !reflect.DeepEqual(report.Unchanged, want) {
		t.Errorf("Unchanged = %v, want %v", report.Unchanged, want)
	}
	if report.Empty() {
		t.Error("Empty() = true for a report with changes")
	}
}

func TestRestoreReport_EmptyWhenStatesMatch(t *testing.T) {
	states := []FileState{state("a.txt", "h", 3)}
	report := BuildRestoreReport(states, states)
	if !report.Empty() {
		t.Errorf("Empty() = false, report %+v", report)
	}
}

func TestHasChanges(t *testing.T) {
	base := []FileState{state("a.txt", "h1", 5)}

	if HasChanges(base, base) {
		t.Error("HasChanges reported changes for identical states")
	}
	if !HasChanges(base, nil) {
		t.Error("HasChanges missed a deletion")
	}
	if !HasChanges(base, []FileState{state("a.txt", "h1", 5), state("b.txt", "h2", 1)}) {
		t.Error("HasChanges missed a new file")
	}
	if !HasChanges(base, []FileState{state("a.txt", "h2", 5)}) {
		t.Error("HasChanges missed a content change")
	}
}

func TestSnapshotMetadata_Helpers(t *testing.T) {
	meta := &SnapshotMetadata{Snapshots: []Snapshot{
		{ID: 1, FileStates: []FileState{state("a", "h1", 2)}},
		{ID: 3, FileStates: []FileState{state("a", "h2", 4), state("b", "h1", 2)}},
	}}

	if got := meta.Latest(); got == nil || got.ID != 3 {
		t.Errorf("Latest() = %v, want snapshot 3", got)
	}
	if got := meta.Find(1); got == nil || got.ID != 1 {
		t.Errorf("Find(1) = %v, want snapshot 1", got)
	}
	if got := meta.Find(2); got != nil {
		t.Errorf("Find(2) = %v, want nil", got)
	}
	if got, want := meta.IDs(), []int{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}

	used := meta.ReferencedHashes()
	for _, h := range []string{"h1", "h2"} {
		if _, ok := used[h]; !ok {
			t.Errorf("ReferencedHashes() missing %q", h)
		}
	}
	if len(used) != 2 {
		t.Errorf("ReferencedHashes() has %d entries, want 2", len(used))
	}

	if got := (&SnapshotMetadata{}).Latest(); got != nil {
		t.Errorf("Latest() on empty history = %v, want nil", got)
	}
}

func TestSnapshot_TotalSize(t *testing.T) {
	snap := Snapshot{FileStates: []FileState{
		state("a", "h1", 100),
		state("b", "h2", 23),
	}}
	if got := snap.TotalSize(); got != 123 {
		t.Errorf("TotalSize() = %d, want 123", got)
	}
}
