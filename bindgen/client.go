package bindgen

import (
	"context"
	"reflect"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/spec"
	"github.com/wippyai/contract-sdk/transcoder"
	"github.com/wippyai/contract-sdk/val"
)

// Invoker runs a function of a deployed contract. Arguments and result
// are Vals whose objects live in the invoker's object store.
type Invoker interface {
	val.ObjectStore
	InvokeContract(ctx context.Context, addr val.Address, fn string, args []val.Val) (val.Val, error)
}

// Client calls a contract through its interface specification alone.
// Arguments are converted to runtime Go types built from the spec and
// encoded with the same rules the contract uses to decode them.
type Client struct {
	invoker Invoker
	address val.Address
	set     *spec.Set
	methods map[string]*method
	types   map[string]*transcoder.CompiledType
	enc     *transcoder.Encoder
	dec     *transcoder.Decoder
}

type method struct {
	spec   *spec.FunctionSpec
	params []*transcoder.CompiledType
	result *transcoder.CompiledType
	// errors is the declared error enum of a Result output.
	errors *transcoder.CompiledType
}

// NewClient prepares a client for the contract at address. Every function
// in entries must have shapes with a runtime Go form; the first that does
// not fails with an UnsupportedShape error naming the function and
// parameter.
func NewClient(entries []spec.Entry, invoker Invoker, address val.Address) (*Client, error) {
	set, err := spec.NewSet(entries)
	if err != nil {
		return nil, err
	}

	r := newResolver(set)
	c := &Client{
		invoker: invoker,
		address: address,
		set:     set,
		methods: make(map[string]*method),
		enc:     transcoder.NewEncoder(),
		dec:     transcoder.NewDecoder(),
	}
	for _, fs := range set.Functions() {
		m, err := r.method(fs)
		if err != nil {
			return nil, err
		}
		c.methods[fs.Name] = m
	}

	// Types unreachable from functions still get a runtime form when they
	// have one.
	for _, te := range set.Types() {
		if _, err := r.resolve(spec.UDT(te.EntryName()), nil); err != nil {
			Logger().Debug("type has no runtime form",
				zap.String("type", te.EntryName()),
				zap.Error(err))
		}
	}
	c.types = r.named

	Logger().Debug("client ready", zap.Stringer("address", address), zap.Int("functions", len(c.methods)))
	return c, nil
}

func (r *resolver) method(fs *spec.FunctionSpec) (*method, error) {
	m := &method{spec: fs, params: make([]*transcoder.CompiledType, len(fs.Inputs))}
	for i, p := range fs.Inputs {
		ct, err := r.resolve(p.Type, []string{p.Name})
		if err != nil {
			return nil, atParam(err, fs.Name, p.Name)
		}
		m.params[i] = ct
	}

	out := fs.Output()
	if out.Kind == spec.KindResult {
		errType, err := r.resolve(*out.Err, []string{"result", "[err]"})
		if err != nil {
			return nil, atParam(err, fs.Name, "result")
		}
		m.errors = errType
		out = *out.Ok
	}
	if out.Kind != spec.KindVoid {
		ct, err := r.resolve(out, []string{"result"})
		if err != nil {
			return nil, atParam(err, fs.Name, "result")
		}
		m.result = ct
	}
	return m, nil
}

func (c *Client) Address() val.Address { return c.address }

// Functions returns the callable functions in declaration order.
func (c *Client) Functions() []*spec.FunctionSpec { return c.set.Functions() }

// Type returns the runtime Go type built for a declared type. Enums are
// uint32; structs and unions are unnamed struct types.
func (c *Client) Type(name string) (reflect.Type, bool) {
	ct, ok := c.types[name]
	if !ok {
		return nil, false
	}
	return ct.GoType, true
}

// Call invokes fn with args and returns the decoded result, or nil for
// functions without one. Arguments may be the exact runtime types or any
// value Convert accepts for the parameter shape.
func (c *Client) Call(ctx context.Context, fn string, args ...any) (any, error) {
	m, ok := c.methods[fn]
	if !ok {
		return nil, errors.NotFound(errors.PhaseBindgen, "function", fn)
	}
	if len(args) != len(m.params) {
		e := errors.Arity(fn, len(m.params), len(args))
		e.Phase = errors.PhaseBindgen
		return nil, e
	}

	ws := make([]val.Val, len(args))
	for i, a := range args {
		rv, err := convert(reflect.ValueOf(a), m.params[i])
		if err == nil {
			ws[i], err = c.enc.EncodeValue(c.invoker, m.params[i], rv)
		}
		if err != nil {
			e := errors.ArgumentDecode(fn, i, err)
			e.Phase = errors.PhaseBindgen
			e.Param = m.spec.Inputs[i].Name
			return nil, e
		}
	}

	Logger().Debug("call", zap.Stringer("address", c.address), zap.String("function", fn))
	w, err := c.invoker.InvokeContract(ctx, c.address, fn, ws)
	if err != nil {
		return nil, err
	}
	if ve, isErr := w.AsError(); isErr && (m.result == nil || m.result.Kind != transcoder.KindError) {
		return nil, ve
	}
	if m.result == nil {
		return nil, nil
	}
	out := reflect.New(m.result.GoType).Elem()
	if err := c.dec.DecodeValue(c.invoker, m.result, w, out); err != nil {
		return nil, errors.WithPath(err, "result")
	}
	return out.Interface(), nil
}

// ErrorName returns the declared name of a contract error code returned by
// fn, if fn declares an error enum containing it.
func (c *Client) ErrorName(fn string, err error) (string, bool) {
	m, ok := c.methods[fn]
	if !ok || m.errors == nil || m.errors.Kind != transcoder.KindErrorEnum {
		return "", false
	}
	code, ok := ContractErrorCode(err)
	if !ok {
		return "", false
	}
	ec, ok := m.errors.EnumValue(code)
	return ec.Name, ok
}

// Invoke encodes args with the default transcoder, calls fn and decodes
// the result into out, a pointer, unless out is nil. An Error result is
// returned as a val.Error. Generated clients call through Invoke.
func Invoke(ctx context.Context, inv Invoker, addr val.Address, fn string, out any, args ...any) error {
	ws := make([]val.Val, len(args))
	for i, a := range args {
		w, err := transcoder.Encode(inv, a)
		if err != nil {
			e := errors.ArgumentDecode(fn, i, err)
			e.Phase = errors.PhaseBindgen
			return e
		}
		ws[i] = w
	}
	w, err := inv.InvokeContract(ctx, addr, fn, ws)
	if err != nil {
		return err
	}
	if ve, isErr := w.AsError(); isErr {
		if _, wantErr := out.(*val.Error); !wantErr {
			return ve
		}
	}
	if out == nil {
		return nil
	}
	if err := transcoder.Decode(inv, w, out); err != nil {
		return errors.WithPath(err, "result")
	}
	return nil
}

// ContractErrorCode extracts an author-defined error code from err.
func ContractErrorCode(err error) (uint32, bool) {
	if err == nil {
		return 0, false
	}
	ve := val.ErrorFromErr(err)
	if !ve.IsContract() {
		return 0, false
	}
	return ve.Code, true
}

func indexName(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
