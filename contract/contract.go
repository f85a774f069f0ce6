package contract

import (
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"reflect"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/contract-sdk/artifact"
	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/host"
	"github.com/wippyai/contract-sdk/spec"
	"github.com/wippyai/contract-sdk/transcoder"
	"github.com/wippyai/contract-sdk/val"
)

// SDKVersion is recorded in the env metadata of embedded artifacts.
const SDKVersion = "0.1.0"

// Contract is a built contract: its marshaling wrappers and interface
// specification. It is immutable and safe for concurrent use.
type Contract struct {
	compiler  *transcoder.Compiler
	funcs     map[string]*function
	events    map[reflect.Type]*event
	name      string
	order     []string
	entries   []spec.Entry
	specBytes []byte
	meta      []spec.MetaEntry
	envMeta   []spec.MetaEntry
}

type function struct {
	fn      reflect.Value
	spec    *spec.FunctionSpec
	result  *transcoder.CompiledType
	errEnum *transcoder.CompiledType
	name    string
	names   []string
	params  []*transcoder.CompiledType
	hasEnv  bool
	hasErr  bool
}

type event struct {
	spec   *spec.EventSpec
	ct     *transcoder.CompiledType
	prefix []string
	topics []transcoder.CompiledField
	data   []transcoder.CompiledField
}

func (c *Contract) Name() string { return c.name }

// Spec returns the interface specification entries.
func (c *Contract) Spec() []spec.Entry { return c.entries }

// SpecBytes returns the encoded specification.
func (c *Contract) SpecBytes() []byte { return c.specBytes }

// Functions lists exported function names in declaration order.
func (c *Contract) Functions() []string { return c.order }

func (c *Contract) Meta() []spec.MetaEntry { return c.meta }

// EnvMeta returns the SDK metadata written next to the spec.
func (c *Contract) EnvMeta() []spec.MetaEntry { return c.envMeta }

// Function returns the spec of an exported function.
func (c *Contract) Function(name string) (*spec.FunctionSpec, bool) {
	f, ok := c.funcs[name]
	if !ok {
		return nil, false
	}
	return f.spec, true
}

// Invoke runs fn with already-encoded arguments. The argument count is
// checked before anything is decoded. The function body runs at most once
// and a panic inside it is returned as an error.
func (c *Contract) Invoke(h host.Host, fn string, args []val.Val) (val.Val, error) {
	f, ok := c.funcs[fn]
	if !ok {
		return 0, errors.NotFound(errors.PhaseInvoke, "function", fn)
	}
	if len(args) != len(f.params) {
		return 0, errors.Arity(fn, len(f.params), len(args))
	}

	env := &Env{host: h, contract: c}
	dec := transcoder.NewDecoderWithCompiler(c.compiler)

	in := make([]reflect.Value, 0, len(args)+1)
	if f.hasEnv {
		in = append(in, reflect.ValueOf(env))
	}
	for i, arg := range args {
		pt := f.params[i]
		rv := reflect.New(pt.GoType).Elem()
		if err := dec.DecodeValue(h, pt, arg, rv); err != nil {
			e := errors.ArgumentDecode(fn, i, err)
			e.Param = f.names[i]
			return 0, e
		}
		in = append(in, rv)
	}

	Logger().Debug("invoke", zap.String("contract", c.name), zap.String("function", fn), zap.Int("args", len(args)))

	out, err := c.call(f, in)
	if err != nil {
		Logger().Debug("invoke failed", zap.String("function", fn), zap.Error(err))
		return 0, err
	}

	if f.result == nil {
		return val.Void, nil
	}
	w, err := transcoder.NewEncoderWithCompiler(c.compiler).EncodeValue(h, f.result, out[0])
	if err != nil {
		return 0, errors.WithPath(err, "result")
	}
	return w, nil
}

// Dispatch is Invoke for hosts: every failure comes back as an Error Val.
func (c *Contract) Dispatch(h host.Host, fn string, args []val.Val) val.Val {
	w, err := c.Invoke(h, fn, args)
	if err != nil {
		return val.ErrorFromErr(err).Val()
	}
	return w
}

func (c *Contract) call(f *function, in []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = c.panicError(f, r)
		}
	}()

	out = f.fn.Call(in)
	if f.hasErr {
		if e, _ := out[len(out)-1].Interface().(error); e != nil {
			return nil, c.failure(f, e)
		}
	}
	return out, nil
}

// failure converts an error returned by a contract function. Error enum
// values become contract errors carrying their code.
func (c *Contract) failure(f *function, err error) error {
	if code, ok := c.errorCode(err); ok {
		return errors.New(errors.PhaseInvoke, errors.KindContract).
			Function(f.name).
			Value(val.ContractError(code)).
			Cause(err).
			Build()
	}
	return err
}

func (c *Contract) panicError(f *function, r any) error {
	if err, ok := r.(error); ok {
		var ve val.Error
		if _, isEnum := c.errorCode(err); isEnum || stderrors.As(err, &ve) {
			return c.failure(f, err)
		}
	}
	return errors.New(errors.PhaseInvoke, errors.KindContract).
		Function(f.name).
		Value(val.HostError(val.ErrorTypeContext, val.CodeInternalError)).
		Detail("panic: %v", r).
		Build()
}

// errorCode finds an error enum value in err's chain.
func (c *Contract) errorCode(err error) (uint32, bool) {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if _, ok := e.(transcoder.ErrorEnum); !ok {
			continue
		}
		ct, cerr := c.compiler.Compile(reflect.TypeOf(e))
		if cerr != nil || ct.Kind != transcoder.KindErrorEnum {
			continue
		}
		rv := reflect.ValueOf(e)
		switch rv.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return uint32(rv.Uint()), true
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return uint32(rv.Int()), true
		}
	}
	return 0, false
}

// Embed writes the spec and metadata sections into a compiled module,
// replacing any earlier copies.
func (c *Contract) Embed(wasm []byte) ([]byte, error) {
	out, err := EmbedSpec(wasm, c.specBytes, c.meta)
	if err != nil {
		return nil, err
	}
	Logger().Info("embedded contract spec",
		zap.String("contract", c.name),
		zap.Int("spec_bytes", len(c.specBytes)),
		zap.Int("module_bytes", len(out)))
	return out, nil
}

// EmbedSpec writes already encoded spec bytes into wasm together with the
// environment meta derived from them and, when present, author meta.
// Author meta left from an earlier embed is dropped when meta is empty.
func EmbedSpec(wasm, specBytes []byte, meta []spec.MetaEntry) ([]byte, error) {
	sections := map[string][]byte{
		spec.SectionSpec:    specBytes,
		spec.SectionEnvMeta: spec.EncodeMeta(EnvMeta(specBytes)),
	}
	if len(meta) == 0 {
		var err error
		if wasm, err = artifact.RemoveCustomSection(wasm, spec.SectionMeta); err != nil {
			return nil, err
		}
	} else {
		sections[spec.SectionMeta] = spec.EncodeMeta(meta)
	}
	return artifact.ReplaceCustomSections(wasm, sections)
}

// WriteSpec stores the specification as a standalone file.
func (c *Contract) WriteSpec(path string) error {
	return spec.WriteFile(path, c.entries)
}

// EnvMeta returns the environment meta recorded alongside encoded spec
// bytes, including the interface hash.
func EnvMeta(specBytes []byte) []spec.MetaEntry {
	sum := sha256.Sum256(specBytes)
	return []spec.MetaEntry{
		{Key: spec.MetaSDKVersion, Value: SDKVersion},
		{Key: spec.MetaABIVersion, Value: strconv.Itoa(val.ABIVersion)},
		{Key: spec.MetaInterfaceSHA, Value: hex.EncodeToString(sum[:])},
	}
}
