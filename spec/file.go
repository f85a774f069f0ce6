package spec

import (
	"os"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/internal/fsutil"
)

// ReadFile decodes a standalone spec file.
func ReadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseSpec, "read", path, err)
	}
	return Decode(data)
}

// WriteFile encodes entries to path atomically.
func WriteFile(path string, entries []Entry) error {
	data, err := Encode(entries)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return errors.IO(errors.PhaseSpec, "write", path, err)
	}
	return nil
}
