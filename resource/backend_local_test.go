package resource

import (
	"errors"
	"sync"
	"testing"

	"github.com/wippyai/contract-sdk/val"
)

func TestLocalBackend_CreateGetDrop(t *testing.T) {
	b := NewLocalBackend(0)

	h, err := b.Create(val.String("test value"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h == 0 {
		t.Fatal("Create returned the reserved handle")
	}
	if obj, ok := b.Get(h); !ok || obj != val.String("test value") {
		t.Fatalf("Get = %v, %v", obj, ok)
	}
	if obj, ok := b.Drop(h); !ok || obj != val.String("test value") {
		t.Fatalf("Drop = %v, %v", obj, ok)
	}
	if _, ok := b.Get(h); ok {
		t.Error("Get succeeded after Drop")
	}
	if _, ok := b.Drop(h); ok {
		t.Error("second Drop succeeded")
	}
}

func TestLocalBackend_HandleReuse(t *testing.T) {
	b := NewLocalBackend(0)
	h1, _ := b.Create(val.String("a"))
	h2, _ := b.Create(val.String("b"))
	b.Drop(h1)
	h3, _ := b.Create(val.Bytes{1})
	if h3 != h1 {
		t.Fatalf("freed handle %d not reused, got %d", h1, h3)
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}

	var seen []Handle
	for h := range b.All() {
		seen = append(seen, h)
	}
	if len(seen) != 2 || seen[0] != h1 || seen[1] != h2 {
		t.Fatalf("All visited %v", seen)
	}
}

func TestLocalBackend_InvalidHandles(t *testing.T) {
	b := NewLocalBackend(0)
	b.Create(val.String("a"))
	for _, h := range []Handle{0, 2, 99} {
		if _, ok := b.Get(h); ok {
			t.Errorf("handle %d resolved", h)
		}
	}
}

func TestLocalBackend_Limit(t *testing.T) {
	b := NewLocalBackend(1)
	h, err := b.Create(val.String("a"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := b.Create(val.String("b")); !errors.Is(err, ErrFull) {
		t.Fatalf("err = %v, want ErrFull", err)
	}
	b.Drop(h)
	if _, err := b.Create(val.String("c")); err != nil {
		t.Fatalf("Create after Drop: %v", err)
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend(0)
	var wg sync.WaitGroup
	handles := make([]Handle, 100)
	for i := range handles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := b.Create(val.U64(uint64(i)))
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			handles[i] = h
		}(i)
	}
	wg.Wait()

	seen := make(map[Handle]bool)
	for i, h := range handles {
		if seen[h] {
			t.Fatalf("duplicate handle %d", h)
		}
		seen[h] = true
		if obj, ok := b.Get(h); !ok || obj != val.U64(uint64(i)) {
			t.Fatalf("handle %d: got %v", h, obj)
		}
	}
}

func TestLocalBackend_Close(t *testing.T) {
	b := NewLocalBackend(0)
	b.Create(val.String("a"))
	for range 2 {
		if err := b.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	if _, err := b.Create(val.String("b")); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if b.Len() != 0 {
		t.Errorf("Len = %d after Close", b.Len())
	}
}
