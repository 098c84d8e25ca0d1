package hash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"timemachine/internal/tm"
)

func TestFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty file",
			content: "",
			want:    "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:    "hello",
			content: "hello",
			want:    "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
		{
			name:    "newline terminated",
			content: "Hello, world!\n",
			want:    "d9014c4624844aa5bac314773d6b689ad467fa4e1d1a50a1b8a99d5a95f72ff5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "f.txt")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("writing file: %v", err)
			}

			got, err := File(path)
			if err != nil {
				t.Fatalf("File() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("File() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFile_Deterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("same bytes"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	first, err := File(path)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	second, err := File(path)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if first != second {
		t.Errorf("hash not deterministic: %s != %s", first, second)
	}
}

func TestFile_NotFound(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("File() expected error for missing file")
	}
	if !tm.IsKind(err, tm.KindNotFound) {
		t.Errorf("error kind = %v, want not found", err)
	}
}

func TestReader(t *testing.T) {
	got, err := Reader(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("Reader() = %s, want %s", got, want)
	}
}
