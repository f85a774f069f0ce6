package artifact

import (
	"encoding/binary"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/contract-sdk/errors"
	wbinary "github.com/wippyai/contract-sdk/internal/binary"
)

const (
	// Magic is "\0asm" read as a little-endian uint32.
	Magic   uint32 = 0x6D736100
	Version uint32 = 1

	SectionCustom byte = 0
	headerSize         = 8
)

// Section is one top-level section of a module. For custom sections Name
// holds the section name and Data the bytes after it.
type Section struct {
	Name string
	Data []byte
	ID   byte
}

// IsCustom reports whether s is a custom section named name.
func (s Section) IsCustom(name string) bool {
	return s.ID == SectionCustom && s.Name == name
}

// Split parses the section framing of a module without decoding the
// section contents.
func Split(wasm []byte) ([]Section, error) {
	if len(wasm) < headerSize {
		return nil, errors.InvalidInput(errors.PhaseArtifact, "module shorter than its header")
	}
	if binary.LittleEndian.Uint32(wasm[0:4]) != Magic {
		return nil, errors.InvalidInput(errors.PhaseArtifact, "invalid wasm magic number")
	}
	if v := binary.LittleEndian.Uint32(wasm[4:8]); v != Version {
		return nil, errors.New(errors.PhaseArtifact, errors.KindInvalidInput).
			Value(v).Detail("unsupported wasm version %d", v).Build()
	}

	r := wbinary.NewReader(wasm[headerSize:])
	var sections []Section
	for !r.EOF() {
		id, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(errors.PhaseArtifact, errors.KindInvalidInput, err, "section header")
		}
		size, err := r.ReadLen()
		if err != nil {
			return nil, errors.Wrap(errors.PhaseArtifact, errors.KindInvalidInput, err, "section size")
		}
		body, err := r.Sub(size)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseArtifact, errors.KindInvalidInput, err, "section data")
		}

		s := Section{ID: id}
		if id == SectionCustom {
			name, err := body.ReadName()
			if err != nil {
				return nil, errors.Wrap(errors.PhaseArtifact, errors.KindInvalidInput, err, "custom section name")
			}
			s.Name = name
		}
		s.Data = body.ReadRemaining()
		sections = append(sections, s)
	}
	return sections, nil
}

// Join is the inverse of Split.
func Join(sections []Section) []byte {
	w := wbinary.NewWriter()
	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:4], Magic)
	binary.LittleEndian.PutUint32(header[4:8], Version)
	w.WriteBytes(header[:])

	for _, s := range sections {
		w.Byte(s.ID)
		if s.ID == SectionCustom {
			body := wbinary.NewWriter()
			body.WriteName(s.Name)
			body.WriteBytes(s.Data)
			w.WriteSized(body.Bytes())
			continue
		}
		w.WriteSized(s.Data)
	}
	return w.Bytes()
}

// CustomSections returns the payloads of every custom section named name,
// in module order.
func CustomSections(wasm []byte, name string) ([][]byte, error) {
	sections, err := Split(wasm)
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for _, s := range sections {
		if s.IsCustom(name) {
			out = append(out, s.Data)
		}
	}
	return out, nil
}

// CustomSection returns the concatenated payloads of the sections named
// name, or nil when there are none.
func CustomSection(wasm []byte, name string) ([]byte, error) {
	parts, err := CustomSections(wasm, name)
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// SetCustomSection removes every custom section named name and appends a
// single one holding data.
func SetCustomSection(wasm []byte, name string, data []byte) ([]byte, error) {
	return ReplaceCustomSections(wasm, map[string][]byte{name: data})
}

// ReplaceCustomSections applies several SetCustomSection calls at once.
// New sections are appended in name order.
func ReplaceCustomSections(wasm []byte, replace map[string][]byte) ([]byte, error) {
	sections, err := Split(wasm)
	if err != nil {
		return nil, err
	}

	kept := sections[:0]
	removed := 0
	for _, s := range sections {
		if s.ID == SectionCustom {
			if _, ok := replace[s.Name]; ok {
				removed++
				continue
			}
		}
		kept = append(kept, s)
	}
	for _, name := range slices.Sorted(maps.Keys(replace)) {
		kept = append(kept, Section{ID: SectionCustom, Name: name, Data: replace[name]})
	}

	Logger().Debug("replaced custom sections",
		zap.Strings("names", slices.Sorted(maps.Keys(replace))),
		zap.Int("removed", removed))
	return Join(kept), nil
}

// RemoveCustomSection drops every custom section named name.
func RemoveCustomSection(wasm []byte, name string) ([]byte, error) {
	sections, err := Split(wasm)
	if err != nil {
		return nil, err
	}
	kept := sections[:0]
	for _, s := range sections {
		if !s.IsCustom(name) {
			kept = append(kept, s)
		}
	}
	return Join(kept), nil
}
