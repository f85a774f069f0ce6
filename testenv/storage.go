package testenv

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/host"
	"github.com/wippyai/contract-sdk/snapshot"
	"github.com/wippyai/contract-sdk/val"
)

// slot resolves a key Val of the current contract to its storage id.
func (e *Env) slot(key val.Val, d host.Durability) (string, val.Value, val.Address, error) {
	if d > host.Instance {
		return "", nil, val.Address{}, errors.InvalidInput(errors.PhaseHost, fmt.Sprintf("unknown durability %d", d))
	}
	k, err := val.Lift(e.objects, key)
	if err != nil {
		return "", nil, val.Address{}, err
	}
	owner := e.CurrentContract()
	id, err := snapshot.EntryID(owner, d, k)
	if err != nil {
		return "", nil, val.Address{}, err
	}
	return id, k, owner, nil
}

// lookup returns the live entry under id. Expired temporary entries are
// dropped; expired persistent and instance entries are archived and
// unreadable. Callers hold e.mu.
func (e *Env) lookup(id string) (*entry, error) {
	ent, ok := e.entries[id]
	if !ok {
		return nil, nil
	}
	if ent.liveUntil >= e.ledger.SequenceNumber {
		return ent, nil
	}
	if ent.durability == host.Temporary {
		delete(e.entries, id)
		return nil, nil
	}
	return nil, errors.New(errors.PhaseHost, errors.KindNotFound).
		Detail("entry %s is archived since ledger %d", val.Format(ent.key), ent.liveUntil+1).
		Build()
}

func (e *Env) Get(key val.Val, d host.Durability) (val.Val, error) {
	id, k, _, err := e.slot(key, d)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	ent, err := e.lookup(id)
	var v val.Value
	if ent != nil {
		v = ent.value
	}
	e.mu.Unlock()
	if err != nil {
		return 0, err
	}
	if ent == nil {
		return 0, errors.NotFound(errors.PhaseHost, d.String()+" entry", val.Format(k))
	}
	return val.Lower(e.objects, v)
}

func (e *Env) Has(key val.Val, d host.Durability) (bool, error) {
	id, _, _, err := e.slot(key, d)
	if err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, err := e.lookup(id)
	return ent != nil, err
}

// Put writes value under key. A new entry lives for the minimum TTL of
// its storage class; overwriting keeps the existing live-until ledger.
func (e *Env) Put(key, value val.Val, d host.Durability) error {
	id, k, owner, err := e.slot(key, d)
	if err != nil {
		return err
	}
	v, err := val.Lift(e.objects, value)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, err := e.lookup(id)
	if err != nil {
		return err
	}
	if ent != nil {
		ent.value = v
		return nil
	}
	e.entries[id] = &entry{
		key:        k,
		value:      v,
		contract:   owner,
		liveUntil:  e.liveFor(e.ledger.MinTTL(d)),
		durability: d,
		hasTTL:     true,
	}
	return nil
}

func (e *Env) Delete(key val.Val, d host.Durability) error {
	id, _, _, err := e.slot(key, d)
	if err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.entries, id)
	e.mu.Unlock()
	return nil
}

func (e *Env) ExtendTTL(key val.Val, d host.Durability, threshold, extendTo uint32) error {
	id, k, _, err := e.slot(key, d)
	if err != nil {
		return err
	}
	if threshold > extendTo {
		return errors.InvalidInput(errors.PhaseHost, fmt.Sprintf("threshold %d exceeds extend-to %d", threshold, extendTo))
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, err := e.lookup(id)
	if err != nil {
		return err
	}
	if ent == nil {
		return errors.NotFound(errors.PhaseHost, d.String()+" entry", val.Format(k))
	}
	target := uint64(e.ledger.SequenceNumber) + uint64(extendTo)
	if target > uint64(e.ledger.MaxLiveUntilLedger()) {
		return errors.InvalidInput(errors.PhaseHost, fmt.Sprintf("extend-to %d exceeds the maximum entry TTL", extendTo))
	}
	if ent.liveUntil-e.ledger.SequenceNumber < threshold && uint32(target) > ent.liveUntil {
		Logger().Debug("ttl extended", zap.String("key", val.Format(k)), zap.Uint32("from", ent.liveUntil), zap.Uint64("to", target))
		ent.liveUntil = uint32(target)
		ent.hasTTL = true
	}
	return nil
}

// liveFor is the live-until ledger of an entry written now with the given
// TTL, which counts the current ledger.
func (e *Env) liveFor(ttl uint32) uint32 {
	if ttl == 0 {
		return e.ledger.SequenceNumber
	}
	n := uint64(e.ledger.SequenceNumber) + uint64(ttl) - 1
	if limit := uint64(e.ledger.MaxLiveUntilLedger()); n > limit {
		n = limit
	}
	return uint32(n)
}

// SetEntry stores value under key for contract directly, bypassing any
// contract code. A zero liveUntil uses the minimum TTL and leaves the
// entry without a recorded live-until ledger in snapshots.
func (e *Env) SetEntry(contract val.Address, d host.Durability, key, value val.Value, liveUntil uint32) error {
	id, err := snapshot.EntryID(contract, d, key)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ent := &entry{key: key, value: value, contract: contract, liveUntil: liveUntil, durability: d, hasTTL: liveUntil != 0}
	if !ent.hasTTL {
		ent.liveUntil = e.liveFor(e.ledger.MinTTL(d))
	}
	e.entries[id] = ent
	return nil
}

// Entry reads what contract stored under key, ignoring TTL expiry. ok is
// false when the key is absent.
func (e *Env) Entry(contract val.Address, d host.Durability, key val.Value) (value val.Value, liveUntil uint32, ok bool) {
	id, err := snapshot.EntryID(contract, d, key)
	if err != nil {
		return nil, 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, found := e.entries[id]
	if !found {
		return nil, 0, false
	}
	return ent.value, ent.liveUntil, true
}
