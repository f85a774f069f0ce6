package testenv

import (
	"context"
	"crypto/sha256"
	stderrors "errors"
	"testing"

	"github.com/wippyai/contract-sdk/contract"
	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/host"
	"github.com/wippyai/contract-sdk/snapshot"
	"github.com/wippyai/contract-sdk/val"
)

func increment(env *contract.Env, by uint32) (uint32, error) {
	n, err := contract.GetOr[uint32](env.Instance(), val.Symbol("count"), 0)
	if err != nil {
		return 0, err
	}
	n += by
	if err := env.Instance().Set(val.Symbol("count"), n); err != nil {
		return 0, err
	}
	return n, nil
}

func forward(env *contract.Env, target val.Address, by uint32) (uint32, error) {
	return contract.Call[uint32](env, target, "increment", by)
}

func whoami(env *contract.Env) val.Address {
	return env.CurrentContract()
}

var counter = contract.New("counter").
	Export("increment", increment, "by").
	Export("whoami", whoami).
	MustBuild()

var proxy = contract.New("proxy").
	Export("forward", forward, "target", "by").
	MustBuild()

func TestInvoke(t *testing.T) {
	env := New()
	addr := env.Register(counter)

	for want := uint32(3); want <= 9; want += 3 {
		got, err := Call[uint32](env, addr, "increment", uint32(3))
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != want {
			t.Errorf("increment = %d, want %d", got, want)
		}
	}

	v, _, ok := env.Entry(addr, host.Instance, val.Symbol("count"))
	if !ok || !val.Equal(v, val.U32(9)) {
		t.Errorf("stored count = %v, %v", v, ok)
	}

	self, err := Call[val.Address](env, addr, "whoami")
	if err != nil {
		t.Fatal(err)
	}
	if self != addr {
		t.Errorf("whoami = %s, want %s", self, addr)
	}
}

func TestInvoke_Errors(t *testing.T) {
	env := New()
	addr := env.Register(counter)

	if _, err := env.Invoke(NewContractAddress(), "increment", uint32(1)); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown contract: %v", err)
	}
	if _, err := env.Invoke(addr, "decrement", uint32(1)); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown function: %v", err)
	}
	if _, err := env.Invoke(addr, "increment"); !stderrors.Is(err, errors.ErrArgumentDecode) {
		t.Errorf("missing argument: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := env.InvokeContract(ctx, addr, "whoami", nil); !stderrors.Is(err, context.Canceled) {
		t.Errorf("canceled context: %v", err)
	}
}

func TestCrossContractCall(t *testing.T) {
	env := New()
	c := env.Register(counter)
	p := env.Register(proxy)

	got, err := Call[uint32](env, p, "forward", c, uint32(2))
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Errorf("forward = %d, want 2", got)
	}

	if _, _, ok := env.Entry(p, host.Instance, val.Symbol("count")); ok {
		t.Error("callee storage leaked into the caller")
	}
	if v, _, ok := env.Entry(c, host.Instance, val.Symbol("count")); !ok || !val.Equal(v, val.U32(2)) {
		t.Errorf("callee count = %v, %v", v, ok)
	}

	// a failing callee surfaces as an error value in the caller
	_, err = Call[uint32](env, p, "forward", NewContractAddress(), uint32(1))
	if err == nil {
		t.Fatal("expected error for a missing callee")
	}
}

func TestStorage_Scoping(t *testing.T) {
	env := New()
	a, b := NewContractAddress(), NewContractAddress()

	err := env.As(a, func(ce *contract.Env) error {
		return ce.Persistent().Set(val.Symbol("k"), "from a")
	})
	if err != nil {
		t.Fatal(err)
	}

	err = env.As(b, func(ce *contract.Env) error {
		ok, err := ce.Persistent().Has(val.Symbol("k"))
		if err != nil {
			return err
		}
		if ok {
			t.Error("b sees a's entry")
		}
		ok, err = ce.Temporary().Has(val.Symbol("k"))
		if ok {
			t.Error("durabilities share a slot")
		}
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	err = env.As(a, func(ce *contract.Env) error {
		s, ok, err := contract.Get[string](ce.Persistent(), val.Symbol("k"))
		if err != nil {
			return err
		}
		if !ok || s != "from a" {
			t.Errorf("Get = %q, %v", s, ok)
		}
		if err := ce.Persistent().Remove(val.Symbol("k")); err != nil {
			return err
		}
		ok, err = ce.Persistent().Has(val.Symbol("k"))
		if ok {
			t.Error("entry survived Remove")
		}
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestStorage_GetMissing(t *testing.T) {
	env := New()
	key, err := env.Objects().NewObject(val.Bytes("nope"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Get(key, host.Persistent); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get missing: %v", err)
	}
	if err := env.Delete(key, host.Persistent); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
	if _, err := env.Has(key, host.Durability(9)); err == nil {
		t.Error("unknown durability accepted")
	}
}

func TestStorage_Expiry(t *testing.T) {
	env := New()
	addr := NewContractAddress()

	err := env.As(addr, func(ce *contract.Env) error {
		if err := ce.Persistent().Set(val.Symbol("p"), uint32(1)); err != nil {
			return err
		}
		return ce.Temporary().Set(val.Symbol("t"), uint32(2))
	})
	if err != nil {
		t.Fatal(err)
	}

	li := env.LedgerInfo()
	if _, live, _ := env.Entry(addr, host.Persistent, val.Symbol("p")); live != li.MinPersistentEntryTTL-1 {
		t.Errorf("persistent live until %d, want %d", live, li.MinPersistentEntryTTL-1)
	}
	if _, live, _ := env.Entry(addr, host.Temporary, val.Symbol("t")); live != li.MinTempEntryTTL-1 {
		t.Errorf("temporary live until %d, want %d", live, li.MinTempEntryTTL-1)
	}

	env.AdvanceLedger(li.MinTempEntryTTL)
	err = env.As(addr, func(ce *contract.Env) error {
		ok, err := ce.Temporary().Has(val.Symbol("t"))
		if err != nil {
			return err
		}
		if ok {
			t.Error("expired temporary entry still readable")
		}
		ok, err = ce.Persistent().Has(val.Symbol("p"))
		if !ok {
			t.Error("persistent entry expired early")
		}
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	env.AdvanceLedger(li.MinPersistentEntryTTL)
	err = env.As(addr, func(ce *contract.Env) error {
		_, err := ce.Persistent().Has(val.Symbol("p"))
		return err
	})
	if !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("archived entry: %v", err)
	}
	if _, _, ok := env.Entry(addr, host.Persistent, val.Symbol("p")); !ok {
		t.Error("archived entry must stay in the snapshot state")
	}
}

func TestStorage_ExtendTTL(t *testing.T) {
	env := New()
	addr := NewContractAddress()
	key := val.Symbol("balance")

	err := env.As(addr, func(ce *contract.Env) error {
		st := ce.Persistent()
		if err := st.Set(key, uint64(5)); err != nil {
			return err
		}
		if err := st.ExtendTTL(key, 5000, 10000); err != nil {
			return err
		}
		if _, live, _ := env.Entry(addr, host.Persistent, key); live != 10000 {
			t.Errorf("after extend live until %d, want 10000", live)
		}
		if err := st.ExtendTTL(key, 100, 20000); err != nil {
			return err
		}
		if _, live, _ := env.Entry(addr, host.Persistent, key); live != 10000 {
			t.Errorf("extend above threshold changed live until to %d", live)
		}

		// overwriting keeps the live-until ledger
		if err := st.Set(key, uint64(6)); err != nil {
			return err
		}
		if _, live, _ := env.Entry(addr, host.Persistent, key); live != 10000 {
			t.Errorf("overwrite reset live until to %d", live)
		}

		if err := st.ExtendTTL(key, 0, 7_000_000); err == nil {
			t.Error("extend beyond max TTL accepted")
		}
		if err := st.ExtendTTL(key, 10, 5); err == nil {
			t.Error("threshold above extend-to accepted")
		}
		if err := st.ExtendTTL(val.Symbol("missing"), 1, 2); !stderrors.Is(err, errors.ErrNotFound) {
			t.Errorf("extend missing: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestEvents(t *testing.T) {
	env := New()
	addr := NewContractAddress()
	to := NewAccountAddress()

	err := env.As(addr, func(ce *contract.Env) error {
		return ce.Publish([]any{val.Symbol("mint"), to}, uint64(5))
	})
	if err != nil {
		t.Fatal(err)
	}

	events := env.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	ev := events[0]
	if ev.Contract != addr {
		t.Errorf("event contract = %s", ev.Contract)
	}
	want := val.Vec{val.Symbol("mint"), to}
	if !val.Equal(ev.Topics, want) {
		t.Errorf("topics = %s, want %s", val.Format(ev.Topics), val.Format(want))
	}
	if !val.Equal(ev.Data, val.U64(5)) {
		t.Errorf("data = %s", val.Format(ev.Data))
	}

	env.ClearEvents()
	if len(env.Events()) != 0 {
		t.Error("ClearEvents kept events")
	}
}

func TestSHA256(t *testing.T) {
	env := New()
	var got [32]byte
	err := env.As(NewContractAddress(), func(ce *contract.Env) error {
		var err error
		got, err = ce.SHA256([]byte("abc"))
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := sha256.Sum256([]byte("abc")); got != want {
		t.Errorf("SHA256 = %x, want %x", got, want)
	}

	if _, err := env.SHA256(val.FromU32(1)); err == nil {
		t.Error("hashing a non-bytes value accepted")
	}
}

func TestAddresses(t *testing.T) {
	seen := make(map[val.Address]bool)
	for range 100 {
		a := NewContractAddress()
		if a.Type != val.AddressContract {
			t.Fatalf("kind = %s", a.Type)
		}
		if seen[a] {
			t.Fatalf("duplicate address %s", a)
		}
		seen[a] = true
	}
	if NewAccountAddress().Type != val.AddressAccount {
		t.Error("account address has the wrong kind")
	}
}

func TestObjectLimit(t *testing.T) {
	env := New(WithObjectLimit(1))
	if _, err := env.NewObject(val.Bytes("one")); err != nil {
		t.Fatal(err)
	}
	if _, err := env.NewObject(val.Bytes("two")); err == nil {
		t.Error("allocation beyond the limit accepted")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	env := New()
	addr := env.Register(counter)
	if _, err := Call[uint32](env, addr, "increment", uint32(3)); err != nil {
		t.Fatal(err)
	}
	env.AdvanceLedger(10)

	s, err := env.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	data, err := snapshot.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := snapshot.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}

	restored, err := FromSnapshot(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if restored.LedgerInfo() != env.LedgerInfo() {
		t.Errorf("ledger = %+v, want %+v", restored.LedgerInfo(), env.LedgerInfo())
	}

	restored.RegisterAt(addr, counter)
	got, err := Call[uint32](restored, addr, "increment", uint32(1))
	if err != nil {
		t.Fatal(err)
	}
	if got != 4 {
		t.Errorf("increment after restore = %d, want 4", got)
	}

	again, err := restored.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Entries) != 1 {
		t.Fatalf("entries = %d", len(again.Entries))
	}
	if *again.Entries[0].LiveUntil != *s.Entries[0].LiveUntil {
		t.Error("live-until ledger changed across restore")
	}
}

func TestFromSnapshot_DefaultTTL(t *testing.T) {
	addr := NewContractAddress()
	s := snapshot.New()
	s.Entries = []snapshot.Entry{{
		Contract: addr,
		Key:      val.Symbol("balance"),
		Value:    val.U64(100),
	}}

	env, err := FromSnapshot(s)
	if err != nil {
		t.Fatal(err)
	}
	v, live, ok := env.Entry(addr, host.Persistent, val.Symbol("balance"))
	if !ok || !val.Equal(v, val.U64(100)) {
		t.Fatalf("entry = %v, %v", v, ok)
	}
	if live != s.Ledger.MinPersistentEntryTTL-1 {
		t.Errorf("live until %d", live)
	}

	env.RegisterAt(addr, counter)
	if _, err := Call[uint32](env, addr, "increment", uint32(1)); err != nil {
		t.Fatal(err)
	}

	again, err := env.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(again.Entries))
	}
	for _, se := range again.Entries {
		switch se.Durability {
		case host.Persistent:
			if se.LiveUntil != nil {
				t.Errorf("loaded entry live-until = %d, want unset", *se.LiveUntil)
			}
		case host.Instance:
			if se.LiveUntil == nil {
				t.Error("contract-written entry has no live-until")
			}
		}
	}
}

func TestCall_ReleasesObjects(t *testing.T) {
	env := New()
	addr := env.Register(counter)

	got, err := Call[val.Address](env, addr, "whoami")
	if err != nil {
		t.Fatal(err)
	}
	if got != addr {
		t.Errorf("whoami = %s, want %s", got, addr)
	}
	stats := env.ObjectStats()
	if stats.Live != 0 || stats.Created == 0 || stats.Dropped != stats.Created {
		t.Errorf("stats after Call = %+v, want every object freed", stats)
	}

	w, err := env.Invoke(addr, "whoami")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Object(w); err != nil {
		t.Fatalf("Invoke result released: %v", err)
	}
	env.Release(w)
	if _, err := env.Object(w); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("released result resolved: %v", err)
	}
}

func TestRelease(t *testing.T) {
	tests := []struct {
		name  string
		value val.Value
	}{
		{"inline", val.U32(7)},
		{"string", val.String("hello")},
		{"nested vec", val.Vec{val.String("a"), val.Vec{val.Bytes("b")}}},
		{"map", val.Map{{Key: val.Symbol("k"), Value: val.String("v")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := New()
			w, err := val.Lower(env, tt.value)
			if err != nil {
				t.Fatal(err)
			}
			env.Release(w)
			env.Release(w)
			if n := env.ObjectStats().Live; n != 0 {
				t.Errorf("%d objects live after Release", n)
			}
		})
	}
}

func TestReleaseObjectsAndClose(t *testing.T) {
	env := New()
	for _, s := range []string{"a", "b", "c"} {
		if _, err := env.NewObject(val.String(s)); err != nil {
			t.Fatal(err)
		}
	}
	env.ReleaseObjects()
	stats := env.ObjectStats()
	if stats.Live != 0 || stats.Created != 3 || stats.Dropped != 3 {
		t.Errorf("stats = %+v", stats)
	}

	if err := env.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := env.NewObject(val.String("late")); err == nil {
		t.Error("allocation after Close succeeded")
	}
	if env.ObjectStats().Created != 3 {
		t.Error("allocation log still attached after Close")
	}
}
