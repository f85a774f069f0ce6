package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/host"
	"github.com/wippyai/contract-sdk/internal/fsutil"
	"github.com/wippyai/contract-sdk/val"
)

const (
	// Magic opens every snapshot envelope.
	Magic = "csnp"
	// Version is the envelope version written by Save.
	Version = 1
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	encMode = em

	dm, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels:   2*maxValueDepth + 16,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR dec mode: %v", err))
	}
	decMode = dm
}

// Entry is one stored contract data entry.
type Entry struct {
	Key      val.Value
	Value    val.Value
	Contract val.Address
	// LiveUntil is the last ledger the entry is live in. Nil for entries
	// without a TTL.
	LiveUntil  *uint32
	Durability host.Durability
}

// Snapshot is the captured state of a test environment.
type Snapshot struct {
	Entries []Entry
	Ledger  host.LedgerInfo
}

// New returns an empty snapshot at the default ledger.
func New() *Snapshot {
	return &Snapshot{Ledger: host.DefaultLedgerInfo()}
}

// Validate checks that no two entries share contract, durability and key.
func (s *Snapshot) Validate() error {
	seen := make(map[string]int, len(s.Entries))
	for i, e := range s.Entries {
		if e.Key == nil || e.Value == nil {
			return errors.SnapshotCorrupt(fmt.Sprintf("entry %d has no key or value", i), nil)
		}
		if e.Durability > host.Instance {
			return errors.SnapshotCorrupt(fmt.Sprintf("entry %d has unknown durability %d", i, e.Durability), nil)
		}
		k, err := EntryID(e.Contract, e.Durability, e.Key)
		if err != nil {
			return err
		}
		if j, dup := seen[k]; dup {
			return errors.SnapshotCorrupt(fmt.Sprintf("entries %d and %d share key %s", j, i, val.Format(e.Key)), nil)
		}
		seen[k] = i
	}
	return nil
}

// Find returns the entry of contract under key, if present.
func (s *Snapshot) Find(contract val.Address, key val.Value, d host.Durability) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Contract == contract && e.Durability == d && val.Equal(e.Key, key) {
			return e, true
		}
	}
	return Entry{}, false
}

// EntryID identifies a storage slot: the owning contract, the storage
// class and the key up to val.Equal.
func EntryID(contract val.Address, d host.Durability, key val.Value) (string, error) {
	k, err := KeyOf(key)
	if err != nil {
		return "", err
	}
	return contract.String() + "/" + d.String() + "/" + k, nil
}

type envelope struct {
	Magic   string      `cbor:"1,keyasint"`
	Version uint32      `cbor:"2,keyasint"`
	Ledger  wireLedger  `cbor:"3,keyasint"`
	Entries []wireEntry `cbor:"4,keyasint,omitempty"`
}

type wireLedger struct {
	NetworkID             []byte `cbor:"1,keyasint"`
	Timestamp             uint64 `cbor:"2,keyasint"`
	ProtocolVersion       uint32 `cbor:"3,keyasint"`
	SequenceNumber        uint32 `cbor:"4,keyasint"`
	BaseReserve           uint32 `cbor:"5,keyasint"`
	MinTempEntryTTL       uint32 `cbor:"6,keyasint"`
	MinPersistentEntryTTL uint32 `cbor:"7,keyasint"`
	MaxEntryTTL           uint32 `cbor:"8,keyasint"`
}

type wireEntry struct {
	Contract   wireValue `cbor:"1,keyasint"`
	Key        wireValue `cbor:"2,keyasint"`
	Value      wireValue `cbor:"3,keyasint"`
	LiveUntil  *uint32   `cbor:"4,keyasint,omitempty"`
	Durability uint8     `cbor:"5,keyasint"`
}

// Marshal encodes s in the canonical envelope. Equal snapshots encode to
// identical bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	env := envelope{
		Magic:   Magic,
		Version: Version,
		Ledger:  ledgerToWire(s.Ledger),
	}
	for i, e := range s.Entries {
		we, err := entryToWire(e)
		if err != nil {
			return nil, errors.WithPath(err, fmt.Sprintf("entries[%d]", i))
		}
		env.Entries = append(env.Entries, we)
	}
	b, err := encMode.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseSnapshot, errors.KindInvalidInput, err, "encode snapshot")
	}
	return b, nil
}

func ledgerToWire(li host.LedgerInfo) wireLedger {
	return wireLedger{
		NetworkID:             li.NetworkID[:],
		Timestamp:             li.Timestamp,
		ProtocolVersion:       li.ProtocolVersion,
		SequenceNumber:        li.SequenceNumber,
		BaseReserve:           li.BaseReserve,
		MinTempEntryTTL:       li.MinTempEntryTTL,
		MinPersistentEntryTTL: li.MinPersistentEntryTTL,
		MaxEntryTTL:           li.MaxEntryTTL,
	}
}

func ledgerFromWire(l wireLedger) (host.LedgerInfo, error) {
	var li host.LedgerInfo
	if len(l.NetworkID) != len(li.NetworkID) {
		return li, errors.SnapshotCorrupt(fmt.Sprintf("network id has %d bytes", len(l.NetworkID)), nil)
	}
	copy(li.NetworkID[:], l.NetworkID)
	li.Timestamp = l.Timestamp
	li.ProtocolVersion = l.ProtocolVersion
	li.SequenceNumber = l.SequenceNumber
	li.BaseReserve = l.BaseReserve
	li.MinTempEntryTTL = l.MinTempEntryTTL
	li.MinPersistentEntryTTL = l.MinPersistentEntryTTL
	li.MaxEntryTTL = l.MaxEntryTTL
	return li, nil
}

func entryToWire(e Entry) (wireEntry, error) {
	c, err := toWire(e.Contract)
	if err != nil {
		return wireEntry{}, err
	}
	k, err := toWire(Canonical(e.Key))
	if err != nil {
		return wireEntry{}, errors.WithPath(err, "key")
	}
	v, err := toWire(e.Value)
	if err != nil {
		return wireEntry{}, errors.WithPath(err, "value")
	}
	return wireEntry{
		Contract:   c,
		Key:        k,
		Value:      v,
		LiveUntil:  e.LiveUntil,
		Durability: uint8(e.Durability),
	}, nil
}

// Unmarshal decodes an envelope produced by Marshal.
func Unmarshal(data []byte) (*Snapshot, error) {
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, errors.SnapshotCorrupt("malformed CBOR", err)
	}
	if env.Magic != Magic {
		return nil, errors.SnapshotCorrupt(fmt.Sprintf("bad magic %q", env.Magic), nil)
	}
	if env.Version != Version {
		return nil, errors.SnapshotCorrupt(fmt.Sprintf("unsupported version %d", env.Version), nil)
	}

	ledger, err := ledgerFromWire(env.Ledger)
	if err != nil {
		return nil, err
	}
	s := &Snapshot{Ledger: ledger}

	for i, we := range env.Entries {
		e, err := entryFromWire(we)
		if err != nil {
			return nil, errors.WithPath(err, fmt.Sprintf("entries[%d]", i))
		}
		s.Entries = append(s.Entries, e)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func entryFromWire(we wireEntry) (Entry, error) {
	c, err := fromWire(we.Contract, 0)
	if err != nil {
		return Entry{}, err
	}
	addr, ok := c.(val.Address)
	if !ok {
		return Entry{}, errors.SnapshotCorrupt("entry owner is "+c.Kind().String()+", not an address", nil)
	}
	k, err := fromWire(we.Key, 0)
	if err != nil {
		return Entry{}, errors.WithPath(err, "key")
	}
	v, err := fromWire(we.Value, 0)
	if err != nil {
		return Entry{}, errors.WithPath(err, "value")
	}
	return Entry{
		Contract:   addr,
		Key:        k,
		Value:      v,
		LiveUntil:  we.LiveUntil,
		Durability: host.Durability(we.Durability),
	}, nil
}

// Save writes s to w.
func (s *Snapshot) Save(w io.Writer) error {
	b, err := Marshal(s)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return errors.IO(errors.PhaseSnapshot, "write", "snapshot", err)
	}
	return nil
}

// SaveFile writes s to path atomically. A failed save leaves any previous
// file at path intact.
func (s *Snapshot) SaveFile(path string) error {
	b, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, b, 0o644); err != nil {
		return errors.IO(errors.PhaseSnapshot, "write", path, err)
	}
	Logger().Debug("snapshot saved", zap.String("path", path), zap.Int("entries", len(s.Entries)))
	return nil
}

// Load reads a snapshot from r.
func Load(r io.Reader) (*Snapshot, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.IO(errors.PhaseSnapshot, "read", "snapshot", err)
	}
	return Unmarshal(buf.Bytes())
}

func LoadFile(path string) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseSnapshot, "read", path, err)
	}
	s, err := Unmarshal(b)
	if err != nil {
		return nil, err
	}
	Logger().Debug("snapshot loaded", zap.String("path", path), zap.Int("entries", len(s.Entries)))
	return s, nil
}
