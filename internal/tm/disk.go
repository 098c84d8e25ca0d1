package tm

// DiskSpaceProvider reports free space on the filesystem hosting a path.
// It is the only OS capability the restore engine depends on directly,
// kept behind an interface so tests can simulate full disks.
type DiskSpaceProvider interface {
	AvailableBytes(path string) (uint64, error)
}
