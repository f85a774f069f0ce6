package contract

import (
	"reflect"
	"strconv"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/host"
	"github.com/wippyai/contract-sdk/transcoder"
	"github.com/wippyai/contract-sdk/val"
)

// Env is handed to contract functions that declare it as their first
// parameter. It converts Go values at the host boundary.
type Env struct {
	host     host.Host
	contract *Contract
}

// NewEnv returns an Env for calling helpers outside of Invoke, mostly in
// tests. c may be nil when no events are emitted.
func NewEnv(h host.Host, c *Contract) *Env {
	return &Env{host: h, contract: c}
}

func (e *Env) Host() host.Host { return e.host }

func (e *Env) compiler() *transcoder.Compiler {
	if e.contract != nil {
		return e.contract.compiler
	}
	return transcoder.DefaultCompiler()
}

// Encode converts v to a Val, allocating objects in the host.
func (e *Env) Encode(v any) (val.Val, error) {
	return transcoder.NewEncoderWithCompiler(e.compiler()).Encode(e.host, v)
}

// Decode converts w into target, a non-nil pointer.
func (e *Env) Decode(w val.Val, target any) error {
	return transcoder.NewDecoderWithCompiler(e.compiler()).Decode(e.host, w, target)
}

func (e *Env) Ledger() host.LedgerInfo { return e.host.LedgerInfo() }

// CurrentContract is the address of the executing contract.
func (e *Env) CurrentContract() val.Address { return e.host.CurrentContract() }

func (e *Env) Persistent() Storage { return Storage{env: e, durability: host.Persistent} }
func (e *Env) Temporary() Storage  { return Storage{env: e, durability: host.Temporary} }
func (e *Env) Instance() Storage   { return Storage{env: e, durability: host.Instance} }

// Storage is a typed view of one storage class.
type Storage struct {
	env        *Env
	durability host.Durability
}

func (s Storage) Durability() host.Durability { return s.durability }

func (s Storage) Set(key, value any) error {
	k, err := s.env.Encode(key)
	if err != nil {
		return errors.WithPath(err, "key")
	}
	v, err := s.env.Encode(value)
	if err != nil {
		return errors.WithPath(err, "value")
	}
	return s.env.host.Put(k, v, s.durability)
}

func (s Storage) Has(key any) (bool, error) {
	k, err := s.env.Encode(key)
	if err != nil {
		return false, errors.WithPath(err, "key")
	}
	return s.env.host.Has(k, s.durability)
}

// GetInto decodes the value stored under key into target. It reports
// false without error when the key is absent.
func (s Storage) GetInto(key, target any) (bool, error) {
	k, err := s.env.Encode(key)
	if err != nil {
		return false, errors.WithPath(err, "key")
	}
	ok, err := s.env.host.Has(k, s.durability)
	if err != nil || !ok {
		return false, err
	}
	w, err := s.env.host.Get(k, s.durability)
	if err != nil {
		return false, err
	}
	return true, s.env.Decode(w, target)
}

func (s Storage) Remove(key any) error {
	k, err := s.env.Encode(key)
	if err != nil {
		return errors.WithPath(err, "key")
	}
	return s.env.host.Delete(k, s.durability)
}

// ExtendTTL extends the entry under key to live extendTo more ledgers when
// fewer than threshold remain.
func (s Storage) ExtendTTL(key any, threshold, extendTo uint32) error {
	k, err := s.env.Encode(key)
	if err != nil {
		return errors.WithPath(err, "key")
	}
	return s.env.host.ExtendTTL(k, s.durability, threshold, extendTo)
}

// Get reads the value under key from s.
func Get[V any](s Storage, key any) (V, bool, error) {
	var v V
	ok, err := s.GetInto(key, &v)
	return v, ok, err
}

// GetOr reads the value under key or returns def when it is absent.
func GetOr[V any](s Storage, key any, def V) (V, error) {
	v, ok, err := Get[V](s, key)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// Publish emits a raw event. Topics are encoded in order into a vector.
func (e *Env) Publish(topics []any, data any) error {
	ts := make(val.VecObject, len(topics))
	for i, t := range topics {
		w, err := e.Encode(t)
		if err != nil {
			return errors.WithPath(err, "topics", "["+strconv.Itoa(i)+"]")
		}
		ts[i] = w
	}
	tv, err := val.Alloc(e.host, ts)
	if err != nil {
		return err
	}
	d, err := e.Encode(data)
	if err != nil {
		return errors.WithPath(err, "data")
	}
	return e.host.Publish(tv, d)
}

// Emit publishes an event declared with Builder.Event.
func (e *Env) Emit(payload any) error {
	if e.contract == nil {
		return errors.InvalidInput(errors.PhaseHost, "no contract to look up events in")
	}
	ev, ok := e.contract.events[reflect.TypeOf(payload)]
	if !ok {
		return errors.NotFound(errors.PhaseHost, "event for", reflect.TypeOf(payload).String())
	}
	rv := reflect.ValueOf(payload)
	enc := transcoder.NewEncoderWithCompiler(e.compiler())

	topics := make(val.VecObject, 0, len(ev.prefix)+len(ev.topics))
	for _, p := range ev.prefix {
		w, err := val.LowerSymbol(e.host, p)
		if err != nil {
			return err
		}
		topics = append(topics, w)
	}
	for _, f := range ev.topics {
		w, err := enc.EncodeValue(e.host, f.Type, rv.Field(f.Index))
		if err != nil {
			return errors.WithPath(err, f.Name)
		}
		topics = append(topics, w)
	}
	tv, err := val.Alloc(e.host, topics)
	if err != nil {
		return err
	}

	var data val.Val
	switch len(ev.data) {
	case 0:
		data = val.Void
	case 1:
		f := ev.data[0]
		if data, err = enc.EncodeValue(e.host, f.Type, rv.Field(f.Index)); err != nil {
			return errors.WithPath(err, f.Name)
		}
	default:
		elems := make(val.VecObject, len(ev.data))
		for i, f := range ev.data {
			if elems[i], err = enc.EncodeValue(e.host, f.Type, rv.Field(f.Index)); err != nil {
				return errors.WithPath(err, f.Name)
			}
		}
		if data, err = val.Alloc(e.host, elems); err != nil {
			return err
		}
	}
	return e.host.Publish(tv, data)
}

// SHA256 hashes data through the host.
func (e *Env) SHA256(data []byte) ([32]byte, error) {
	var out [32]byte
	w, err := e.Encode(data)
	if err != nil {
		return out, err
	}
	h, err := e.host.SHA256(w)
	if err != nil {
		return out, err
	}
	err = e.Decode(h, &out)
	return out, err
}

// Invoke calls fn on another contract with encoded args.
func (e *Env) Invoke(contract val.Address, fn string, args ...any) (val.Val, error) {
	ws := make([]val.Val, len(args))
	for i, a := range args {
		w, err := e.Encode(a)
		if err != nil {
			return 0, errors.ArgumentDecode(fn, i, err)
		}
		ws[i] = w
	}
	return e.host.Call(contract, fn, ws)
}

// Call invokes fn on another contract and decodes its result as R. An
// Error result is returned as a val.Error.
func Call[R any](e *Env, contract val.Address, fn string, args ...any) (R, error) {
	var out R
	w, err := e.Invoke(contract, fn, args...)
	if err != nil {
		return out, err
	}
	if ve, ok := w.AsError(); ok {
		if _, wantErr := any(&out).(*val.Error); !wantErr {
			return out, ve
		}
	}
	err = e.Decode(w, &out)
	return out, err
}
