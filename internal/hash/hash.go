// Package hash computes content digests for change detection and
// content addressing. The algorithm is fixed: SHA-256 over the raw,
// uncompressed file bytes, rendered as lowercase hex.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"timemachine/internal/tm"
)

// File streams the file at path through SHA-256 without buffering the whole
// file in memory. Identical bytes always yield the identical digest.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &tm.Error{Kind: tm.KindNotFound, Op: "hash", Path: path, Err: err}
		}
		return "", &tm.Error{Kind: tm.KindIO, Op: "hash", Path: path, Err: err}
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", &tm.Error{Kind: tm.KindIO, Op: "hash", Path: path, Err: fmt.Errorf("reading file: %w", err)}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Reader consumes r through SHA-256 and returns the lowercase hex digest.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
