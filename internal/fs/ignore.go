// Package fs holds filesystem helpers for the directory scanner.
package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-repository ignore file, read from the root.
const IgnoreFileName = ".tmignore"

// defaultIgnorePatterns are always applied regardless of config or .tmignore.
var defaultIgnorePatterns = []string{IgnoreFileName}

// IgnoreMatcher checks file names against a set of glob patterns.
// The scanner is non-recursive, so patterns match the entry name directly.
type IgnoreMatcher struct {
	patterns []string
}

// NewIgnoreMatcher creates an IgnoreMatcher from raw pattern strings.
// Blank lines and lines starting with '#' are skipped; the defaults are
// always included.
func NewIgnoreMatcher(rawPatterns []string) *IgnoreMatcher {
	patterns := append([]string{}, defaultIgnorePatterns...)
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		patterns = append(patterns, raw)
	}
	return &IgnoreMatcher{patterns: patterns}
}

// Match reports whether the given entry name should be excluded from scans.
func (m *IgnoreMatcher) Match(name string) bool {
	for _, p := range m.patterns {
		matched, err := filepath.Match(p, name)
		if err != nil {
			// Bad patterns are skipped rather than failing the scan.
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// LoadIgnoreMatcher builds a matcher from config patterns plus the root's
// .tmignore file, if one exists.
func LoadIgnoreMatcher(root string, configPatterns []string) (*IgnoreMatcher, error) {
	patterns := append([]string{}, configPatterns...)

	f, err := os.Open(filepath.Join(root, IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return NewIgnoreMatcher(patterns), nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return NewIgnoreMatcher(patterns), nil
}
