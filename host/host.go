package host

import (
	"math"

	"github.com/wippyai/contract-sdk/val"
)

// Durability selects the storage class of an entry.
type Durability uint8

const (
	// Persistent entries survive TTL expiry in an archived state.
	Persistent Durability = iota
	// Temporary entries are deleted when their TTL runs out.
	Temporary
	// Instance entries share the lifetime of the contract instance.
	Instance
)

var durabilityNames = [...]string{"persistent", "temporary", "instance"}

func (d Durability) String() string {
	if int(d) < len(durabilityNames) {
		return durabilityNames[d]
	}
	return "unknown"
}

// ParseDurability is the inverse of Durability.String.
func ParseDurability(s string) (Durability, bool) {
	for i, name := range durabilityNames {
		if name == s {
			return Durability(i), true
		}
	}
	return 0, false
}

// Host is everything a running contract may ask of its environment.
type Host interface {
	val.ObjectStore
	Storage
	Events
	Ledger
	Crypto
	Caller
}

// Storage holds the calling contract's entries. Keys are scoped to the
// current contract by the host.
type Storage interface {
	// Get fails with a not-found error when the key is absent.
	Get(key val.Val, d Durability) (val.Val, error)
	Has(key val.Val, d Durability) (bool, error)
	Put(key, value val.Val, d Durability) error
	Delete(key val.Val, d Durability) error
	// ExtendTTL raises the entry's live-until ledger to sequence+extendTo
	// when its remaining TTL is below threshold.
	ExtendTTL(key val.Val, d Durability, threshold, extendTo uint32) error
}

// Events receives contract events. Topics is a VecObject.
type Events interface {
	Publish(topics, data val.Val) error
}

type Ledger interface {
	LedgerInfo() LedgerInfo
	CurrentContract() val.Address
}

type Crypto interface {
	// SHA256 hashes a BytesObject and returns a 32-byte BytesObject.
	SHA256(data val.Val) (val.Val, error)
}

// Caller invokes a function of another contract.
type Caller interface {
	Call(contract val.Address, fn string, args []val.Val) (val.Val, error)
}

// LedgerInfo describes the ledger a contract executes in.
type LedgerInfo struct {
	NetworkID             [32]byte
	Timestamp             uint64
	ProtocolVersion       uint32
	SequenceNumber        uint32
	BaseReserve           uint32
	MinTempEntryTTL       uint32
	MinPersistentEntryTTL uint32
	// MaxEntryTTL includes the current ledger.
	MaxEntryTTL uint32
}

// SetMaxEntryTTL sets the maximum TTL counted without the current ledger.
func (li *LedgerInfo) SetMaxEntryTTL(ttl uint32) {
	if ttl == math.MaxUint32 {
		li.MaxEntryTTL = ttl
		return
	}
	li.MaxEntryTTL = ttl + 1
}

// MaxLiveUntilLedger is the last ledger an entry written now can live to.
func (li LedgerInfo) MaxLiveUntilLedger() uint32 {
	if li.MaxEntryTTL == 0 {
		return li.SequenceNumber
	}
	n := uint64(li.SequenceNumber) + uint64(li.MaxEntryTTL) - 1
	if n > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}

// MinTTL returns the minimum TTL for a new entry of durability d.
func (li LedgerInfo) MinTTL(d Durability) uint32 {
	if d == Temporary {
		return li.MinTempEntryTTL
	}
	return li.MinPersistentEntryTTL
}

// DefaultLedgerInfo is the ledger a fresh test environment starts in.
func DefaultLedgerInfo() LedgerInfo {
	li := LedgerInfo{
		ProtocolVersion:       22,
		SequenceNumber:        0,
		BaseReserve:           10,
		MinTempEntryTTL:       16,
		MinPersistentEntryTTL: 4096,
	}
	li.SetMaxEntryTTL(6_312_000)
	return li
}
