package resource

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/val"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	// NewObject
	v, err := table.NewObject(val.String("test"))
	if err != nil {
		t.Fatalf("NewObject failed: %v", err)
	}
	if v.Tag() != val.TagStringObject || v.Handle() == 0 {
		t.Fatalf("unexpected Val %s", v)
	}

	// Object
	obj, err := table.Object(v)
	if err != nil {
		t.Fatalf("Object failed: %v", err)
	}
	if obj != val.String("test") {
		t.Fatalf("Expected 'test', got %v", obj)
	}

	// Wrong tag on the same handle
	_, err = table.Object(val.FromHandle(val.TagBytesObject, v.Handle()))
	if !stderrors.Is(err, errors.ErrTypeMismatch) {
		t.Fatalf("Expected type mismatch, got %v", err)
	}

	// Remove with the wrong tag keeps the object
	if _, ok := table.Remove(val.FromHandle(val.TagBytesObject, v.Handle())); ok {
		t.Fatal("Remove with a mismatched tag succeeded")
	}

	// Remove
	obj, ok := table.Remove(v)
	if !ok {
		t.Fatal("Remove failed")
	}
	if obj != val.String("test") {
		t.Fatalf("Expected 'test', got %v", obj)
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}

	_, err = table.Object(v)
	if !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("Expected not found after Remove, got %v", err)
	}
}

func TestTable_NotAnObject(t *testing.T) {
	table := NewTable()
	if _, err := table.Object(val.FromU32(1)); err == nil {
		t.Fatal("inline Val should not resolve")
	}
	if _, err := table.Object(val.FromHandle(val.TagVecObject, 0)); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("handle 0 should be invalid, got %v", err)
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	// NewObject should trigger EventCreated
	v, _ := table.NewObject(val.Bytes{1})
	if len(obs.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventCreated {
		t.Fatal("Expected EventCreated")
	}
	if obs.events[0].Handle != Handle(v.Handle()) || obs.events[0].Tag != val.TagBytesObject {
		t.Fatal("Wrong handle in event")
	}

	// Remove should trigger EventDropped
	table.Remove(v)
	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(obs.events))
	}
	if obs.events[1].Type != EventDropped {
		t.Fatal("Expected EventDropped")
	}

	// Unsubscribe
	table.Unsubscribe(obs)
	table.NewObject(val.Bytes{2})
	if len(obs.events) != 2 {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}

func TestTable_Clear(t *testing.T) {
	table := NewTable()

	table.NewObject(val.String("a"))
	table.NewObject(val.VecObject{val.Void})
	table.NewObject(val.U64(1 << 60))

	if table.Len() != 3 {
		t.Fatal("Expected Len() == 3")
	}

	obs := &testObserver{}
	table.Subscribe(obs)
	if n := table.Clear(); n != 3 {
		t.Fatalf("Clear freed %d, want 3", n)
	}
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Clear")
	}
	if len(obs.events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(obs.events))
	}
	for _, e := range obs.events {
		if e.Type != EventDropped {
			t.Errorf("event %s, want dropped", e.Type)
		}
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()

	table.NewObject(val.String("a"))

	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := table.NewObject(val.String("c")); !stderrors.Is(err, ErrClosed) {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}
}

func TestTable_Limit(t *testing.T) {
	table := NewLimitedTable(2)

	// Inline values never touch the table.
	v, err := val.Lower(table, val.Vec{val.U32(1), val.String("x")})
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("Expected 2 objects, got %d", table.Len())
	}

	_, err = val.Lower(table, val.String("y"))
	if !stderrors.Is(err, errors.ErrHostAllocation) {
		t.Fatalf("Expected host allocation failure, got %v", err)
	}
	if !stderrors.Is(err, ErrFull) {
		t.Fatalf("Expected ErrFull in the cause chain, got %v", err)
	}

	got, err := val.Lift(table, v)
	if err != nil {
		t.Fatalf("Lift failed: %v", err)
	}
	if !val.Equal(got, val.Vec{val.U32(1), val.String("x")}) {
		t.Fatalf("Lift = %s", val.Format(got))
	}
}
