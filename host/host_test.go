package host

import (
	"math"
	"testing"
)

func TestDurability(t *testing.T) {
	for _, d := range []Durability{Persistent, Temporary, Instance} {
		got, ok := ParseDurability(d.String())
		if !ok || got != d {
			t.Errorf("ParseDurability(%q) = %v, %v", d, got, ok)
		}
	}
	if _, ok := ParseDurability("forever"); ok {
		t.Error("unknown durability should not parse")
	}
	if Durability(9).String() != "unknown" {
		t.Error("out of range durability")
	}
}

func TestLedgerInfo_MaxEntryTTL(t *testing.T) {
	tests := []struct {
		seq, ttl uint32
		want     uint32
	}{
		{seq: 100, ttl: 10, want: 110},
		{seq: 0, ttl: 1, want: 1},
		{seq: math.MaxUint32 - 5, ttl: 100, want: math.MaxUint32},
	}
	for _, tt := range tests {
		li := LedgerInfo{SequenceNumber: tt.seq}
		li.SetMaxEntryTTL(tt.ttl)
		if got := li.MaxLiveUntilLedger(); got != tt.want {
			t.Errorf("seq %d ttl %d: MaxLiveUntilLedger = %d, want %d", tt.seq, tt.ttl, got, tt.want)
		}
	}

	var li LedgerInfo
	li.SetMaxEntryTTL(math.MaxUint32)
	if li.MaxEntryTTL != math.MaxUint32 {
		t.Error("SetMaxEntryTTL must saturate")
	}
}

func TestLedgerInfo_MinTTL(t *testing.T) {
	li := DefaultLedgerInfo()
	if li.MinTTL(Temporary) != li.MinTempEntryTTL {
		t.Error("temporary entries use the temp minimum")
	}
	if li.MinTTL(Persistent) != li.MinPersistentEntryTTL || li.MinTTL(Instance) != li.MinPersistentEntryTTL {
		t.Error("persistent and instance entries use the persistent minimum")
	}
}
