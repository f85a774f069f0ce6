// Package fsutil holds small filesystem helpers shared by the spec,
// snapshot and artifact writers.
package fsutil

import (
	"io"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes content to path through a temporary file in the
// same directory, synced and then renamed over the destination. On failure
// the previous file at path, if any, is left untouched.
func WriteFileAtomic(path string, content []byte, perm os.FileMode) error {
	return WriteAtomic(path, perm, func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	})
}

// WriteAtomic is WriteFileAtomic with a streaming producer.
func WriteAtomic(path string, perm os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
