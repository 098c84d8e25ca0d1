//go:build unix

package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"timemachine/internal/tm"
)

// lockFileName is the advisory lock inside the metadata directory.
const lockFileName = "lock"

// Lock acquires an exclusive advisory flock on <root>/.timemachine/lock for
// the duration of a mutating operation. The layer itself has no internal
// locking discipline; this turns a concurrent invocation against the same
// repository into a fast failure instead of a metadata race. Non-blocking:
// a held lock fails immediately rather than queueing.
func (r *Repository) Lock() (func(), error) {
	lockPath := filepath.Join(r.metadataDir(), lockFileName)
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			// Metadata directory missing: repository never initialized.
			return nil, &tm.Error{Kind: tm.KindNotFound, Op: "lock", Path: r.root, Err: err}
		}
		return nil, &tm.Error{Kind: tm.KindIO, Op: "lock", Path: lockPath, Err: err}
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, &tm.Error{Kind: tm.KindIO, Op: "lock", Path: lockPath,
			Err: fmt.Errorf("repository is locked by another process: %w", err)}
	}

	// Record an owner token for post-mortem diagnostics. Best effort only;
	// the flock is what actually guards the repository.
	token := uuid.New().String()
	f.Truncate(0)
	fmt.Fprintf(f, "%s %d\n", token, os.Getpid())
	f.Sync()

	release := func() {
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}
	return release, nil
}
