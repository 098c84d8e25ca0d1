package app

import (
	"os"
	"path/filepath"
	"testing"

	"timemachine/internal/tm"
)

func newTestApp(t *testing.T, root string, operation string) *App {
	t.Helper()
	a, err := NewApp(root, operation)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func write(t *testing.T, root, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestApp_SnapshotRestoreCycle(t *testing.T) {
	root := t.TempDir()

	a := newTestApp(t, root, "test")
	if err := a.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	write(t, root, "notes.txt", "first draft")
	snap, err := a.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.ID != 1 {
		t.Errorf("snapshot id = %d, want 1", snap.ID)
	}

	write(t, root, "notes.txt", "second draft")
	if _, err := a.Snapshot(); err != nil {
		t.Fatal(err)
	}

	cmp, err := a.Diff(1, 2)
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if len(cmp.ModifiedFiles) != 1 || cmp.ModifiedFiles[0].Path != "notes.txt" {
		t.Errorf("ModifiedFiles = %+v, want notes.txt", cmp.ModifiedFiles)
	}

	result, err := a.Restore(1, tm.RestoreOptions{})
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if result.BackupSnapshotID != 0 {
		t.Errorf("BackupSnapshotID = %d for a clean restore, want 0", result.BackupSnapshotID)
	}

	data, err := os.ReadFile(filepath.Join(root, "notes.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first draft" {
		t.Errorf("notes.txt = %q after restore, want %q", data, "first draft")
	}
}

func TestApp_InitPreservesExistingConfig(t *testing.T) {
	root := t.TempDir()

	a := newTestApp(t, root, "test")
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}
	if err := a.Init(); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, ".timemachine", "config.toml")); err != nil {
		t.Errorf("config.toml missing: %v", err)
	}
}

func TestApp_IgnorePatternsFromConfigAndFile(t *testing.T) {
	root := t.TempDir()
	write(t, root, ".tmignore", "*.log\n")
	write(t, root, "keep.txt", "keep")
	write(t, root, "noise.log", "noise")

	a := newTestApp(t, root, "test")
	if err := a.Init(); err != nil {
		t.Fatal(err)
	}

	snap, err := a.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.FileStates) != 1 || snap.FileStates[0].Path != "keep.txt" {
		t.Errorf("FileStates = %+v, want only keep.txt", snap.FileStates)
	}
}
