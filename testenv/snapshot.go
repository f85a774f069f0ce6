package testenv

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/contract-sdk/snapshot"
)

// Snapshot captures the ledger and every stored entry, including expired
// ones. Entries are ordered by slot so equal states snapshot identically.
// Entries loaded without a live-until ledger keep it unset.
func (e *Env) Snapshot() (*snapshot.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &snapshot.Snapshot{Ledger: e.ledger}
	for _, id := range slices.Sorted(maps.Keys(e.entries)) {
		ent := e.entries[id]
		se := snapshot.Entry{
			Contract:   ent.contract,
			Key:        ent.key,
			Value:      ent.value,
			Durability: ent.durability,
		}
		if ent.hasTTL {
			live := ent.liveUntil
			se.LiveUntil = &live
		}
		s.Entries = append(s.Entries, se)
	}
	return s, nil
}

// FromSnapshot creates an environment holding the state captured in s.
// Entries without a live-until ledger get the minimum TTL of their class.
// Contracts must be registered again at their addresses.
func FromSnapshot(s *snapshot.Snapshot, opts ...Option) (*Env, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	e := New(append([]Option{WithLedger(s.Ledger)}, opts...)...)
	for _, se := range s.Entries {
		var live uint32
		if se.LiveUntil != nil {
			live = *se.LiveUntil
		}
		if err := e.SetEntry(se.Contract, se.Durability, se.Key, se.Value, live); err != nil {
			return nil, err
		}
	}
	Logger().Debug("environment restored", zap.Int("entries", len(s.Entries)), zap.Uint32("ledger", s.Ledger.SequenceNumber))
	return e, nil
}
