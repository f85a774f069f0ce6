package testenv

import (
	"context"
	"crypto/sha256"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/contract-sdk/contract"
	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/host"
	"github.com/wippyai/contract-sdk/resource"
	"github.com/wippyai/contract-sdk/transcoder"
	"github.com/wippyai/contract-sdk/val"
)

// MaxCallDepth bounds nested cross-contract calls.
const MaxCallDepth = 64

// secondsPerLedger is the close time AdvanceLedger assumes.
const secondsPerLedger = 5

// Event is a published contract event.
type Event struct {
	Data     val.Value
	Topics   val.Vec
	Contract val.Address
}

type entry struct {
	key        val.Value
	value      val.Value
	contract   val.Address
	liveUntil  uint32
	durability host.Durability
	// hasTTL is false for entries loaded without a live-until ledger
	// until a contract extends them.
	hasTTL bool
}

// Env is an in-memory host. It is safe for concurrent use, but
// invocations that touch the same contract should not overlap.
type Env struct {
	objects   *resource.Table
	log       *objectLog
	entries   map[string]*entry
	contracts map[val.Address]*contract.Contract
	frames    []val.Address
	events    []Event
	self      val.Address
	ledger    host.LedgerInfo
	mu        sync.Mutex
}

var _ host.Host = (*Env)(nil)

// Option configures an Env.
type Option func(*Env)

// WithLedger starts the environment at li.
func WithLedger(li host.LedgerInfo) Option {
	return func(e *Env) { e.ledger = li }
}

// WithObjectLimit caps the number of live host objects.
func WithObjectLimit(n int) Option {
	return func(e *Env) { e.objects = resource.NewLimitedTable(n) }
}

// New creates an empty environment at the default ledger.
func New(opts ...Option) *Env {
	e := &Env{
		objects:   resource.NewTable(),
		entries:   make(map[string]*entry),
		contracts: make(map[val.Address]*contract.Contract),
		ledger:    host.DefaultLedgerInfo(),
		self:      NewContractAddress(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = &objectLog{}
	e.objects.Subscribe(e.log)
	return e
}

// NewContractAddress returns a fresh, unique contract address.
func NewContractAddress() val.Address {
	return newAddress(val.AddressContract)
}

// NewAccountAddress returns a fresh, unique account address.
func NewAccountAddress() val.Address {
	return newAddress(val.AddressAccount)
}

func newAddress(kind val.AddressKind) val.Address {
	id := uuid.Must(uuid.NewV7())
	return val.Address{Type: kind, ID: sha256.Sum256(id[:])}
}

// Objects returns the host object table.
func (e *Env) Objects() *resource.Table { return e.objects }

func (e *Env) NewObject(obj val.Object) (val.Val, error) { return e.objects.NewObject(obj) }
func (e *Env) Object(v val.Val) (val.Object, error)      { return e.objects.Object(v) }

// Register deploys c at a fresh address.
func (e *Env) Register(c *contract.Contract) val.Address {
	addr := NewContractAddress()
	e.RegisterAt(addr, c)
	return addr
}

// RegisterAt deploys c at addr, replacing whatever was deployed there.
func (e *Env) RegisterAt(addr val.Address, c *contract.Contract) {
	e.mu.Lock()
	e.contracts[addr] = c
	e.mu.Unlock()
	Logger().Debug("contract registered", zap.String("contract", c.Name()), zap.Stringer("address", addr))
}

// Contract returns the contract deployed at addr.
func (e *Env) Contract(addr val.Address) (*contract.Contract, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.contracts[addr]
	return c, ok
}

func (e *Env) LedgerInfo() host.LedgerInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger
}

func (e *Env) SetLedgerInfo(li host.LedgerInfo) {
	e.mu.Lock()
	e.ledger = li
	e.mu.Unlock()
}

// AdvanceLedger closes n ledgers.
func (e *Env) AdvanceLedger(n uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	seq := uint64(e.ledger.SequenceNumber) + uint64(n)
	if seq > math.MaxUint32 {
		seq = math.MaxUint32
	}
	e.ledger.SequenceNumber = uint32(seq)
	e.ledger.Timestamp += uint64(n) * secondsPerLedger
}

// CurrentContract is the contract on top of the call stack, or the
// environment's own address outside any invocation.
func (e *Env) CurrentContract() val.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current()
}

func (e *Env) current() val.Address {
	if n := len(e.frames); n > 0 {
		return e.frames[n-1]
	}
	return e.self
}

func (e *Env) push(addr val.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.frames) >= MaxCallDepth {
		return errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Detail("call depth exceeds %d", MaxCallDepth).Build()
	}
	e.frames = append(e.frames, addr)
	return nil
}

func (e *Env) pop() {
	e.mu.Lock()
	e.frames = e.frames[:len(e.frames)-1]
	e.mu.Unlock()
}

// As runs f with addr as the current contract. The Env handed to f
// resolves events against the contract deployed at addr, if any.
func (e *Env) As(addr val.Address, f func(*contract.Env) error) error {
	if err := e.push(addr); err != nil {
		return err
	}
	defer e.pop()
	c, _ := e.Contract(addr)
	return f(contract.NewEnv(e, c))
}

// Call invokes fn on a deployed contract from inside another contract.
// Failures of the callee come back as an Error Val.
func (e *Env) Call(addr val.Address, fn string, args []val.Val) (val.Val, error) {
	c, ok := e.Contract(addr)
	if !ok {
		return 0, errors.NotFound(errors.PhaseHost, "contract", addr.String())
	}
	if err := e.push(addr); err != nil {
		return 0, err
	}
	defer e.pop()
	return c.Dispatch(e, fn, args), nil
}

// InvokeContract calls fn on the contract at addr as a transaction would.
func (e *Env) InvokeContract(ctx context.Context, addr val.Address, fn string, args []val.Val) (val.Val, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c, ok := e.Contract(addr)
	if !ok {
		return 0, errors.NotFound(errors.PhaseHost, "contract", addr.String())
	}
	if err := e.push(addr); err != nil {
		return 0, err
	}
	defer e.pop()
	return c.Invoke(e, fn, args)
}

// Invoke encodes args and calls fn on the contract at addr. The result
// and the encoded arguments stay allocated.
func (e *Env) Invoke(addr val.Address, fn string, args ...any) (val.Val, error) {
	ws, err := e.encodeArgs(fn, args)
	if err != nil {
		return 0, err
	}
	return e.InvokeContract(context.Background(), addr, fn, ws)
}

func (e *Env) encodeArgs(fn string, args []any) ([]val.Val, error) {
	ws := make([]val.Val, 0, len(args))
	for i, a := range args {
		w, err := transcoder.Encode(e, a)
		if err != nil {
			e.Release(ws...)
			return nil, errors.ArgumentDecode(fn, i, err)
		}
		ws = append(ws, w)
	}
	return ws, nil
}

// Call invokes fn on the contract at addr and decodes the result as R.
// Objects behind the arguments and the result are freed once decoded, so
// R should not hold raw object Vals; use Invoke to keep them.
func Call[R any](e *Env, addr val.Address, fn string, args ...any) (R, error) {
	var out R
	ws, err := e.encodeArgs(fn, args)
	if err != nil {
		return out, err
	}
	w, err := e.InvokeContract(context.Background(), addr, fn, ws)
	if err == nil {
		err = transcoder.Decode(e, w, &out)
		ws = append(ws, w)
	}
	e.Release(ws...)
	return out, err
}

func (e *Env) Publish(topics, data val.Val) error {
	t, err := val.Lift(e.objects, topics)
	if err != nil {
		return err
	}
	tv, ok := t.(val.Vec)
	if !ok {
		return errors.TypeMismatch(errors.PhaseHost, []string{"topics"}, "val.Vec", t.Kind().String())
	}
	d, err := val.Lift(e.objects, data)
	if err != nil {
		return err
	}
	e.mu.Lock()
	ev := Event{Contract: e.current(), Topics: tv, Data: d}
	e.events = append(e.events, ev)
	e.mu.Unlock()
	Logger().Debug("event", zap.Stringer("contract", ev.Contract), zap.String("topics", val.Format(tv)))
	return nil
}

// Events returns every event published so far, oldest first.
func (e *Env) Events() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Event(nil), e.events...)
}

// ClearEvents drops the recorded events.
func (e *Env) ClearEvents() {
	e.mu.Lock()
	e.events = nil
	e.mu.Unlock()
}

func (e *Env) SHA256(data val.Val) (val.Val, error) {
	v, err := val.Lift(e.objects, data)
	if err != nil {
		return 0, err
	}
	b, ok := v.(val.Bytes)
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseHost, nil, "val.Bytes", v.Kind().String())
	}
	sum := sha256.Sum256(b)
	return val.Lower(e.objects, val.Bytes(sum[:]))
}
