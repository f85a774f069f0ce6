package contract_test

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/contract-sdk/contract"
	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/spec"
	"github.com/wippyai/contract-sdk/testenv"
	"github.com/wippyai/contract-sdk/val"
)

type TokenError uint32

const ErrInsufficient TokenError = 1

func (TokenError) ContractErrors() []spec.EnumCase {
	return []spec.EnumCase{{Name: "Insufficient", Value: 1}}
}

func (e TokenError) Error() string { return val.ContractError(uint32(e)).Error() }

type TransferEvent struct {
	From   val.Address `contract:",topic"`
	To     val.Address `contract:",topic"`
	Amount uint64
}

var transferCalls int

func mint(env *contract.Env, to val.Address, amount uint64) error {
	bal, err := contract.GetOr[uint64](env.Persistent(), to, 0)
	if err != nil {
		return err
	}
	return env.Persistent().Set(to, bal+amount)
}

func balance(env *contract.Env, id val.Address) (uint64, error) {
	return contract.GetOr[uint64](env.Persistent(), id, 0)
}

func transfer(env *contract.Env, from, to val.Address, amount uint64) error {
	transferCalls++
	st := env.Persistent()
	have, err := contract.GetOr[uint64](st, from, 0)
	if err != nil {
		return err
	}
	if have < amount {
		return ErrInsufficient
	}
	if err := st.Set(from, have-amount); err != nil {
		return err
	}
	got, err := contract.GetOr[uint64](st, to, 0)
	if err != nil {
		return err
	}
	if err := st.Set(to, got+amount); err != nil {
		return err
	}
	return env.Emit(TransferEvent{From: from, To: to, Amount: amount})
}

func explode(env *contract.Env) uint32 {
	panic("boom")
}

func refuse(env *contract.Env) uint32 {
	panic(ErrInsufficient)
}

var token = contract.New("token").
	Export("mint", mint, "to", "amount").
	Export("balance", balance, "id").
	Export("transfer", transfer, "from", "to", "amount").
	Errors(TokenError(0)).
	Export("explode", explode).
	Export("refuse", refuse).
	Event("transfer", TransferEvent{}).
	MustBuild()

func setup(t *testing.T) (*testenv.Env, val.Address, val.Address, val.Address) {
	t.Helper()
	env := testenv.New()
	addr := env.Register(token)
	alice, bob := testenv.NewAccountAddress(), testenv.NewAccountAddress()
	if _, err := env.Invoke(addr, "mint", alice, uint64(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	return env, addr, alice, bob
}

func TestInvoke_Transfer(t *testing.T) {
	env, addr, alice, bob := setup(t)

	if _, err := env.Invoke(addr, "transfer", alice, bob, uint64(30)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	for _, tt := range []struct {
		who  val.Address
		want uint64
	}{{alice, 70}, {bob, 30}} {
		got, err := testenv.Call[uint64](env, addr, "balance", tt.who)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("balance(%s) = %d, want %d", tt.who, got, tt.want)
		}
	}

	events := env.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	want := val.Vec{val.Symbol("transfer"), alice, bob}
	if !val.Equal(events[0].Topics, want) {
		t.Errorf("topics = %s", val.Format(events[0].Topics))
	}
	if !val.Equal(events[0].Data, val.U64(30)) {
		t.Errorf("data = %s", val.Format(events[0].Data))
	}
	if events[0].Contract != addr {
		t.Errorf("event contract = %s", events[0].Contract)
	}
}

func TestInvoke_ArityCheckedFirst(t *testing.T) {
	env, addr, alice, bob := setup(t)
	transferCalls = 0

	_, err := env.Invoke(addr, "transfer", alice, bob)
	if !stderrors.Is(err, errors.ErrArgumentDecode) {
		t.Fatalf("expected argument decode error, got %v", err)
	}
	var se *errors.Error
	if !stderrors.As(err, &se) || se.Index != 2 || se.Function != "transfer" {
		t.Errorf("error = %+v", se)
	}
	if transferCalls != 0 {
		t.Error("function body ran despite missing arguments")
	}

	_, err = env.Invoke(addr, "transfer", alice, bob, uint64(1), uint64(2))
	if !stderrors.As(err, &se) || se.Index != 3 {
		t.Errorf("extra argument error = %v", err)
	}
}

func TestInvoke_ArgumentDecode(t *testing.T) {
	env, addr, alice, bob := setup(t)
	transferCalls = 0

	_, err := env.Invoke(addr, "transfer", alice, bob, "thirty")
	var se *errors.Error
	if !stderrors.As(err, &se) {
		t.Fatalf("expected SDK error, got %v", err)
	}
	if se.Kind != errors.KindArgumentDecode || se.Index != 2 || se.Param != "amount" {
		t.Errorf("error = %v", err)
	}
	if !stderrors.Is(err, errors.ErrTypeMismatch) {
		t.Errorf("cause should be a type mismatch: %v", err)
	}
	if transferCalls != 0 {
		t.Error("function body ran despite a bad argument")
	}

	_, err = env.Invoke(addr, "transfer", uint32(5), bob, uint64(1))
	if !stderrors.As(err, &se) || se.Index != 0 || se.Param != "from" {
		t.Errorf("first argument error = %v", err)
	}
}

func TestInvoke_ContractError(t *testing.T) {
	env, addr, alice, bob := setup(t)

	_, err := env.Invoke(addr, "transfer", bob, alice, uint64(1))
	if !stderrors.Is(err, ErrInsufficient) {
		t.Errorf("expected the error enum in the chain, got %v", err)
	}
	if got := val.ErrorFromErr(err); got != val.ContractError(1) {
		t.Errorf("error value = %v", got)
	}

	w := token.Dispatch(env, "transfer", mustEncode(t, env, bob, alice, uint64(1)))
	ve, ok := w.AsError()
	if !ok || ve != val.ContractError(1) {
		t.Errorf("Dispatch = %s", w)
	}

	if got, _ := testenv.Call[uint64](env, addr, "balance", alice); got != 100 {
		t.Errorf("failed transfer changed the balance to %d", got)
	}
}

func TestInvoke_Panics(t *testing.T) {
	env, addr, _, _ := setup(t)

	_, err := env.Invoke(addr, "explode")
	if err == nil {
		t.Fatal("panic not reported")
	}
	if got := val.ErrorFromErr(err); got != val.HostError(val.ErrorTypeContext, val.CodeInternalError) {
		t.Errorf("panic error value = %v", got)
	}

	_, err = env.Invoke(addr, "refuse")
	if got := val.ErrorFromErr(err); got != val.ContractError(1) {
		t.Errorf("panicking with an error enum = %v", got)
	}
}

func TestDispatch(t *testing.T) {
	env, _, alice, bob := setup(t)

	tests := []struct {
		name string
		fn   string
		args []val.Val
		want val.Error
	}{
		{"arity", "transfer", mustEncode(t, env, alice, bob), val.HostError(val.ErrorTypeContext, val.CodeUnexpectedSize)},
		{"bad argument", "transfer", mustEncode(t, env, alice, bob, "x"), val.HostError(val.ErrorTypeValue, val.CodeInvalidInput)},
		{"unknown function", "nope", nil, val.HostError(val.ErrorTypeStorage, val.CodeMissingValue)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := token.Dispatch(env, tt.fn, tt.args)
			got, ok := w.AsError()
			if !ok {
				t.Fatalf("Dispatch returned %s, not an error", w)
			}
			if got != tt.want {
				t.Errorf("Dispatch = %v, want %v", got, tt.want)
			}
		})
	}

	w := token.Dispatch(env, "balance", mustEncode(t, env, alice))
	if n, err := contract.NewEnv(env, token).Encode(uint64(0)); err != nil || w != n {
		t.Errorf("balance outside any frame = %s", w)
	}
}

func TestEnv_Emit_Undeclared(t *testing.T) {
	env := testenv.New()
	err := env.As(testenv.NewContractAddress(), func(ce *contract.Env) error {
		return ce.Emit(struct{ X uint32 }{1})
	})
	if err == nil {
		t.Error("emitting an undeclared event succeeded")
	}
}

func mustEncode(t *testing.T, env *testenv.Env, args ...any) []val.Val {
	t.Helper()
	ce := contract.NewEnv(env, token)
	out := make([]val.Val, len(args))
	for i, a := range args {
		w, err := ce.Encode(a)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = w
	}
	return out
}
