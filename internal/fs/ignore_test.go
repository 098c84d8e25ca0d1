package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		entry    string
		want     bool
	}{
		{name: "no patterns", patterns: nil, entry: "file.txt", want: false},
		{name: "exact match", patterns: []string{"secret.txt"}, entry: "secret.txt", want: true},
		{name: "glob match", patterns: []string{"*.tmp"}, entry: "build.tmp", want: true},
		{name: "glob non-match", patterns: []string{"*.tmp"}, entry: "build.txt", want: false},
		{name: "comment skipped", patterns: []string{"# *.txt"}, entry: "file.txt", want: false},
		{name: "blank line skipped", patterns: []string{"", "*.log"}, entry: "app.log", want: true},
		{name: "ignore file always excluded", patterns: nil, entry: ".tmignore", want: true},
		{name: "bad pattern skipped", patterns: []string{"[", "*.bak"}, entry: "old.bak", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewIgnoreMatcher(tt.patterns)
			if got := m.Match(tt.entry); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.entry, got, tt.want)
			}
		})
	}
}

func TestLoadIgnoreMatcher(t *testing.T) {
	t.Run("missing file yields config-only matcher", func(t *testing.T) {
		m, err := LoadIgnoreMatcher(t.TempDir(), []string{"*.tmp"})
		if err != nil {
			t.Fatalf("LoadIgnoreMatcher() error = %v", err)
		}
		if !m.Match("a.tmp") {
			t.Error("config pattern not applied")
		}
	})

	t.Run("file patterns merge with config", func(t *testing.T) {
		root := t.TempDir()
		content := "# editor files\n*.swp\n\n*.bak\n"
		if err := os.WriteFile(filepath.Join(root, IgnoreFileName), []byte(content), 0644); err != nil {
			t.Fatalf("writing ignore file: %v", err)
		}

		m, err := LoadIgnoreMatcher(root, []string{"*.tmp"})
		if err != nil {
			t.Fatalf("LoadIgnoreMatcher() error = %v", err)
		}

		for _, entry := range []string{"a.swp", "a.bak", "a.tmp"} {
			if !m.Match(entry) {
				t.Errorf("Match(%q) = false, want true", entry)
			}
		}
		if m.Match("keep.txt") {
			t.Error("Match(keep.txt) = true, want false")
		}
	})
}
