package testutil

// StubDiskSpace reports a fixed number of available bytes regardless of
// path, so tests can simulate full disks deterministically.
type StubDiskSpace struct {
	Available uint64
	Err       error
}

func (s *StubDiskSpace) AvailableBytes(string) (uint64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Available, nil
}
