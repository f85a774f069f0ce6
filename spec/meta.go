package spec

import (
	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/internal/binary"
)

// Well-known meta keys written by the SDK into the env meta section.
const (
	MetaSDKVersion   = "rssdkver"
	MetaABIVersion   = "abiver"
	MetaInterfaceSHA = "ifacesha"
)

// MetaEntry is a key/value pair stored in a meta section.
type MetaEntry struct {
	Key   string
	Value string
}

// EncodeMeta serializes meta entries as length-prefixed key/value strings.
func EncodeMeta(entries []MetaEntry) []byte {
	w := binary.NewWriter()
	for _, m := range entries {
		w.WriteName(m.Key)
		w.WriteName(m.Value)
	}
	return w.Bytes()
}

// DecodeMeta parses a meta section.
func DecodeMeta(data []byte) ([]MetaEntry, error) {
	r := binary.NewReader(data)
	var out []MetaEntry
	for !r.EOF() {
		k, err := r.ReadName()
		if err != nil {
			return nil, corrupt(err, "meta key")
		}
		v, err := r.ReadName()
		if err != nil {
			return nil, corrupt(err, "meta value")
		}
		if k == "" {
			return nil, errors.SpecCorrupt(r.Offset(), "empty meta key")
		}
		out = append(out, MetaEntry{Key: k, Value: v})
	}
	return out, nil
}

// LookupMeta returns the last value stored for key.
func LookupMeta(entries []MetaEntry, key string) (string, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Key == key {
			return entries[i].Value, true
		}
	}
	return "", false
}
