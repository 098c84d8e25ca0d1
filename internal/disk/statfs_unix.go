//go:build unix

// Package disk provides the OS-level free-space capability the restore
// engine consumes through tm.DiskSpaceProvider.
package disk

import (
	"golang.org/x/sys/unix"

	"timemachine/internal/tm"
)

// StatfsProvider reports free space via statfs(2) on the filesystem
// hosting the given path.
type StatfsProvider struct{}

// NewStatfsProvider creates a StatfsProvider.
func NewStatfsProvider() *StatfsProvider { return &StatfsProvider{} }

// AvailableBytes returns the bytes available to an unprivileged caller on
// the filesystem containing path.
func (StatfsProvider) AvailableBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, &tm.Error{Kind: tm.KindIO, Op: "statfs", Path: path, Err: err}
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// Compile-time check that StatfsProvider implements tm.DiskSpaceProvider.
var _ tm.DiskSpaceProvider = StatfsProvider{}
