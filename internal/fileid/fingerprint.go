// Package fileid provides deterministic identifiers for dataset files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const prefix = "dataset:"

// Fingerprint identifies one version of a dataset file: its cleaned absolute path,
// modification time and size. Two fingerprints are equal exactly when the file has not
// been replaced or rewritten in between.
type Fingerprint struct {
	Path    string
	ModTime int64 // unix nanoseconds
	Size    int64
}

// Of stats path and returns its fingerprint.
func Of(path string) (Fingerprint, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("resolve dataset path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("stat dataset: %w", err)
	}
	if info.IsDir() {
		return Fingerprint{}, fmt.Errorf("dataset path %s is a directory", abs)
	}
	return Fingerprint{
		Path:    filepath.Clean(abs),
		ModTime: info.ModTime().UnixNano(),
		Size:    info.Size(),
	}, nil
}

// IsZero reports whether f was never computed.
func (f Fingerprint) IsZero() bool {
	return f.Path == "" && f.ModTime == 0 && f.Size == 0
}

// ID returns a stable string key for f. Same path, mtime and size always yield the same ID.
func (f Fingerprint) ID() string {
	h := sha256.New()
	h.Write([]byte(f.Path))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(f.ModTime, 10)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(f.Size, 10)))
	return prefix + hex.EncodeToString(h.Sum(nil))
}
