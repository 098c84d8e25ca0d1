package app

import (
	"fmt"
	"os"
)

// DefaultRoot returns the repository root for a CLI invocation, checking the
// TM_ROOT environment variable first and falling back to the current working
// directory.
func DefaultRoot() (string, error) {
	if root := os.Getenv("TM_ROOT"); root != "" {
		return root, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot determine current directory: %w", err)
	}
	return cwd, nil
}
