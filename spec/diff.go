package spec

import (
	"bytes"
	"fmt"
)

// ChangeKind classifies a difference between two specifications.
type ChangeKind uint8

const (
	Added ChangeKind = iota
	Removed
	Changed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	}
	return fmt.Sprintf("ChangeKind(%d)", uint8(k))
}

// Change is one entry-level difference.
type Change struct {
	Kind  ChangeKind
	Entry EntryKind
	Name  string
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s %s", c.Kind, c.Entry, c.Name)
}

type entryKey struct {
	kind EntryKind
	name string
}

// Diff compares two specifications entry by entry, keyed by entry kind and
// name. Entries are equal when their encodings are byte-identical.
// Changes are reported in the order of b, then removals in the order of a.
func Diff(a, b []Entry) ([]Change, error) {
	old := make(map[entryKey][]byte, len(a))
	for _, e := range a {
		enc, err := EncodeEntry(e)
		if err != nil {
			return nil, err
		}
		old[entryKey{e.EntryKind(), e.EntryName()}] = enc
	}

	var changes []Change
	seen := make(map[entryKey]bool, len(b))
	for _, e := range b {
		k := entryKey{e.EntryKind(), e.EntryName()}
		seen[k] = true
		enc, err := EncodeEntry(e)
		if err != nil {
			return nil, err
		}
		prev, ok := old[k]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: Added, Entry: k.kind, Name: k.name})
		case !bytes.Equal(prev, enc):
			changes = append(changes, Change{Kind: Changed, Entry: k.kind, Name: k.name})
		}
	}
	for _, e := range a {
		k := entryKey{e.EntryKind(), e.EntryName()}
		if !seen[k] {
			changes = append(changes, Change{Kind: Removed, Entry: k.kind, Name: k.name})
		}
	}
	return changes, nil
}
