package binary

import (
	"errors"
	"math"
	"testing"
)

func TestU32RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 255, 16383, 16384, 1 << 21, math.MaxUint32}
	for _, v := range values {
		w := NewWriter()
		w.WriteU32(v)
		got, err := NewReader(w.Bytes()).ReadU32()
		if err != nil {
			t.Fatalf("ReadU32(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("ReadU32 = %d, want %d", got, v)
		}
	}
}

func TestU32Overflow(t *testing.T) {
	// Six continuation bytes cannot fit a u32.
	_, err := NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}).ReadU32()
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	// Fifth byte with bits above 32.
	_, err = NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0x7f}).ReadU32()
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow for high bits, got %v", err)
	}
}

func TestTruncated(t *testing.T) {
	_, err := NewReader([]byte{0x80}).ReadU32()
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected truncation, got %v", err)
	}

	r := NewReader([]byte{0x05, 'a', 'b'})
	if _, err := r.ReadName(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected truncation for short name, got %v", err)
	}
}

func TestNameRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteName("transfer")
	w.WriteName("")
	r := NewReader(w.Bytes())
	for _, want := range []string{"transfer", ""} {
		got, err := r.ReadName()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("ReadName = %q, want %q", got, want)
		}
	}
	if !r.EOF() {
		t.Error("expected EOF")
	}
}

func TestInvalidUTF8(t *testing.T) {
	_, err := NewReader([]byte{0x02, 0xff, 0xfe}).ReadName()
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected invalid utf8, got %v", err)
	}
}

func TestSubOffsets(t *testing.T) {
	r := NewReader([]byte{0xaa, 0xbb, 0x01, 0x02, 0x03})
	if _, err := r.take(2); err != nil {
		t.Fatal(err)
	}
	sub, err := r.Sub(2)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Offset() != 2 {
		t.Errorf("sub offset = %d, want 2", sub.Offset())
	}
	sub.ReadByte()
	if sub.Offset() != 3 {
		t.Errorf("sub offset after read = %d, want 3", sub.Offset())
	}
	if r.Len() != 1 {
		t.Errorf("parent remaining = %d, want 1", r.Len())
	}
	if _, err := r.Sub(2); err == nil {
		t.Error("expected error for oversized sub")
	}
}

func TestWriterFraming(t *testing.T) {
	w := NewWriter()
	w.Byte(0x07)
	w.WriteU32(624485)
	w.WriteName("ab")
	w.WriteSized([]byte{0xff})
	w.WriteBytes([]byte{0x01, 0x02})

	want := []byte{0x07, 0xe5, 0x8e, 0x26, 0x02, 'a', 'b', 0x01, 0xff, 0x01, 0x02}
	if string(w.Bytes()) != string(want) {
		t.Errorf("Bytes = %x, want %x", w.Bytes(), want)
	}
}
