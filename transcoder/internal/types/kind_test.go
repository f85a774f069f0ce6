package types //nolint:revive // package name is used by internal consumers

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		want string
		kind Kind
	}{
		{"void", KindVoid},
		{"bool", KindBool},
		{"u32", KindU32},
		{"i128", KindI128},
		{"bigint", KindBigInt},
		{"symbol", KindSymbol},
		{"bytesn", KindBytesN},
		{"value", KindValue},
		{"option", KindOption},
		{"map", KindMap},
		{"struct", KindStruct},
		{"error_enum", KindErrorEnum},
		{"union", KindUnion},
		{"unknown", Kind(255)},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := tc.kind.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKindPredicates(t *testing.T) {
	if !KindU64.IsPrimitive() || KindVec.IsPrimitive() {
		t.Error("IsPrimitive")
	}
	if !KindUnion.IsNamed() || KindTuple.IsNamed() {
		t.Error("IsNamed")
	}
	if !KindBigInt.IsInteger() || KindTimepoint.IsInteger() || KindBool.IsInteger() {
		t.Error("IsInteger")
	}
}
