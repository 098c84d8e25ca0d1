package tm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies an operation failure so callers can branch programmatically
// instead of parsing message text.
type Kind int

const (
	// KindNotFound covers a missing file, snapshot id, or content blob.
	KindNotFound Kind = iota + 1
	// KindInvalidData means the persisted metadata could not be parsed.
	KindInvalidData
	// KindPermissionDenied means the target directory failed the write probe.
	KindPermissionDenied
	// KindInsufficientSpace means the target filesystem cannot hold the snapshot.
	KindInsufficientSpace
	// KindUncommittedChanges means the working directory differs from the
	// latest snapshot and force was not set.
	KindUncommittedChanges
	// KindIO covers any other OS-level failure.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidData:
		return "invalid data"
	case KindPermissionDenied:
		return "permission denied"
	case KindInsufficientSpace:
		return "insufficient space"
	case KindUncommittedChanges:
		return "uncommitted changes"
	case KindIO:
		return "io error"
	default:
		return "unknown"
	}
}

// Error is a classified failure with structured context. Fields beyond Kind
// are populated when they apply: Path for file-level failures, SnapshotID and
// Available for snapshot lookups.
type Error struct {
	Kind       Kind
	Op         string // operation that failed, e.g. "restore", "store"
	Path       string
	SnapshotID int
	Available  []int // valid snapshot ids, for missing-snapshot errors
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.SnapshotID != 0 {
		fmt.Fprintf(&b, ": snapshot %d", e.SnapshotID)
	}
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
	}
	if len(e.Available) > 0 {
		ids := make([]string, len(e.Available))
		for i, id := range e.Available {
			ids[i] = strconv.Itoa(id)
		}
		fmt.Fprintf(&b, " (available: %s)", strings.Join(ids, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err or any error it wraps is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
