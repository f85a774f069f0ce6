package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseDecode,
				Kind:   KindTypeMismatch,
				Path:   []string{"point", "x"},
				GoType: "int64",
				Shape:  "string",
				Detail: "cannot convert",
				Index:  NoIndex,
			},
			contains: []string{"[decode]", "type_mismatch", "point.x", "int64", "string", "cannot convert"},
		},
		{
			name:     "minimal error",
			err:      &Error{Phase: PhaseSpec, Kind: KindSpecCorrupt, Index: NoIndex},
			contains: []string{"[spec]", "spec_corrupt"},
		},
		{
			name:     "argument index",
			err:      ArgumentDecode("transfer", 2, errors.New("bad")),
			contains: []string{"[invoke]", "argument_decode", "in transfer", "arg 2", "caused by: bad"},
		},
		{
			name:     "argument index zero",
			err:      ArgumentDecode("transfer", 0, nil),
			contains: []string{"arg 0"},
		},
		{
			name: "unsupported shape with param",
			err: New(PhaseBindgen, KindUnsupportedShape).
				Function("swap").Param("pair").Detail("map key").Build(),
			contains: []string{"in swap(pair)", "map key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(PhaseSnapshot, KindIO, cause, "write")

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := SpecCorrupt(12, "truncated %s", "entry")

	if !errors.Is(err, ErrSpecCorrupt) {
		t.Error("kind sentinel should match regardless of phase")
	}
	if errors.Is(err, ErrSnapshotCorrupt) {
		t.Error("different kind must not match")
	}
	if errors.Is(err, &Error{Phase: PhaseDecode, Kind: KindSpecCorrupt}) {
		t.Error("explicit phase in target must be honored")
	}
	if !errors.Is(err, &Error{Phase: PhaseSpec, Kind: KindSpecCorrupt}) {
		t.Error("same phase and kind should match")
	}

	wrapped := Wrap(PhaseArtifact, KindIO, err, "read section")
	if !errors.Is(wrapped, ErrSpecCorrupt) {
		t.Error("errors.Is should walk the cause chain")
	}
}

func TestArity(t *testing.T) {
	tests := []struct {
		want, got, index int
	}{
		{3, 2, 2},
		{3, 0, 0},
		{1, 4, 1},
	}
	for _, tt := range tests {
		err := Arity("f", tt.want, tt.got)
		if err.Index != tt.index {
			t.Errorf("Arity(%d, %d).Index = %d, want %d", tt.want, tt.got, err.Index, tt.index)
		}
		if !errors.Is(err, ErrArgumentDecode) {
			t.Error("arity errors are argument decode errors")
		}
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseCompile, KindInvalidDeclaration).
		Path("Token", "owner").
		GoType("chan int").
		Value(7).
		Detail("field %s", "owner").
		Build()

	if err.Index != NoIndex {
		t.Errorf("builder should default to NoIndex, got %d", err.Index)
	}
	if err.Detail != "field owner" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Value != 7 {
		t.Errorf("Value = %v", err.Value)
	}
}

func TestWithPath(t *testing.T) {
	base := TypeMismatch(PhaseDecode, []string{"x"}, "int64", "bool")
	got := WithPath(base, "point").(*Error)
	if strings.Join(got.Path, ".") != "point.x" {
		t.Errorf("Path = %v", got.Path)
	}
	if strings.Join(base.Path, ".") != "x" {
		t.Error("WithPath must not mutate the original")
	}

	plain := errors.New("plain")
	if WithPath(plain, "a") != plain {
		t.Error("non-SDK errors pass through")
	}
}
