package contract

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/spec"
	"github.com/wippyai/contract-sdk/transcoder"
	"github.com/wippyai/contract-sdk/val"
)

var (
	envType   = reflect.TypeFor[*Env]()
	errorType = reflect.TypeFor[error]()
)

// Build compiles the declarations into a Contract. It first extracts a
// shape for every declared function, type and event, rejecting
// unsupported shapes, conflicting type names and types without a finite
// value, then generates the wrappers and the interface specification.
func (b *Builder) Build() (*Contract, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	x := &extractor{
		compiler: b.compiler,
		byName:   make(map[string]*transcoder.CompiledType),
		seen:     make(map[*transcoder.CompiledType]bool),
	}
	c := &Contract{
		name:     b.name,
		compiler: b.compiler,
		funcs:    make(map[string]*function),
		events:   make(map[reflect.Type]*event),
		meta:     slices.Clone(b.meta),
	}

	for _, d := range b.decls {
		switch d.kind {
		case declFunction:
			if _, dup := c.funcs[d.name]; dup {
				return nil, errors.InvalidDeclaration([]string{d.name}, "function %q exported twice", d.name)
			}
			f, err := x.function(d)
			if err != nil {
				return nil, err
			}
			c.funcs[d.name] = f
			c.order = append(c.order, d.name)
			x.entries = append(x.entries, f.spec)
		case declType:
			if err := x.namedType(d); err != nil {
				return nil, err
			}
		case declEvent:
			ev, err := x.event(d)
			if err != nil {
				return nil, err
			}
			if _, dup := c.events[d.goType]; dup {
				return nil, errors.InvalidDeclaration([]string{d.name}, "%s declared as two events", d.goType)
			}
			c.events[d.goType] = ev
			x.entries = append(x.entries, ev.spec)
		}
	}

	if err := x.checkTermination(); err != nil {
		return nil, err
	}
	if err := spec.Validate(x.entries); err != nil {
		return nil, err
	}
	data, err := spec.Encode(x.entries)
	if err != nil {
		return nil, err
	}
	c.entries = x.entries
	c.specBytes = data
	c.envMeta = EnvMeta(data)

	Logger().Debug("built contract",
		zap.String("contract", c.name),
		zap.Int("functions", len(c.order)),
		zap.Int("entries", len(c.entries)),
		zap.Int("spec_bytes", len(data)))
	return c, nil
}

// MustBuild is Build for package-level contract variables.
func (b *Builder) MustBuild() *Contract {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

type extractor struct {
	compiler *transcoder.Compiler
	byName   map[string]*transcoder.CompiledType
	seen     map[*transcoder.CompiledType]bool
	all      []*transcoder.CompiledType
	entries  []spec.Entry
}

// collect records every named type reachable from ct in first-encounter
// order.
func (x *extractor) collect(ct *transcoder.CompiledType) error {
	var err error
	ct.Walk(func(t *transcoder.CompiledType) {
		if err != nil {
			return
		}
		if !x.seen[t] {
			x.seen[t] = true
			x.all = append(x.all, t)
		}
		if !t.Kind.IsNamed() {
			return
		}
		if prev, ok := x.byName[t.Name]; ok {
			if prev.GoType != t.GoType {
				err = errors.DuplicateTypeName(t.Name, prev.GoType.String(), t.GoType.String())
			}
			return
		}
		x.byName[t.Name] = t
		entry, _ := transcoder.EntryOf(t)
		x.entries = append(x.entries, entry)
	})
	return err
}

func (x *extractor) compile(t reflect.Type, fn, param string) (*transcoder.CompiledType, error) {
	ct, err := x.compiler.Compile(t)
	if err != nil {
		return nil, inFunction(err, fn, param)
	}
	if err := x.collect(ct); err != nil {
		return nil, err
	}
	return ct, nil
}

func (x *extractor) function(d *decl) (*function, error) {
	t := d.goType
	if t.IsVariadic() {
		return nil, errors.InvalidDeclaration([]string{d.name}, "variadic functions cannot be exported")
	}

	f := &function{name: d.name, fn: d.fn}
	first := 0
	if t.NumIn() > 0 && t.In(0) == envType {
		f.hasEnv = true
		first = 1
	}

	n := t.NumIn() - first
	names := d.params
	if len(names) == 0 {
		for i := range n {
			names = append(names, fmt.Sprintf("arg%d", i))
		}
	} else if len(names) != n {
		return nil, errors.InvalidDeclaration([]string{d.name},
			"%d parameter names for %d parameters", len(names), n)
	}
	f.names = names

	fs := &spec.FunctionSpec{Doc: d.doc, Name: d.name}
	for i := range n {
		pt := t.In(first + i)
		if pt == envType {
			return nil, errors.InvalidDeclaration([]string{d.name, names[i]}, "*Env must be the first parameter")
		}
		ct, err := x.compile(pt, d.name, names[i])
		if err != nil {
			return nil, err
		}
		f.params = append(f.params, ct)
		fs.Inputs = append(fs.Inputs, spec.Param{
			Doc:  d.paramDoc[names[i]],
			Name: names[i],
			Type: transcoder.ShapeOf(ct),
		})
	}

	outs := t.NumOut()
	if outs > 0 && t.Out(outs-1) == errorType {
		f.hasErr = true
		outs--
	}
	if outs > 1 {
		return nil, errors.InvalidDeclaration([]string{d.name}, "at most one result besides error, got %d", outs)
	}

	var out *spec.Type
	if outs == 1 {
		ct, err := x.compile(t.Out(0), d.name, "result")
		if err != nil {
			return nil, err
		}
		f.result = ct
		shape := transcoder.ShapeOf(ct)
		out = &shape
	}

	if d.errType != nil {
		ect, err := x.compile(d.errType, d.name, "error")
		if err != nil {
			return nil, err
		}
		if ect.Kind != transcoder.KindErrorEnum {
			return nil, errors.InvalidDeclaration([]string{d.name},
				"Errors needs an error enum, %s is %s", d.errType, ect.Kind)
		}
		if !f.hasErr {
			return nil, errors.InvalidDeclaration([]string{d.name}, "Errors declared but the function returns no error")
		}
		f.errEnum = ect
		ok := spec.Void
		if out != nil {
			ok = *out
		}
		fs.Outputs = []spec.Type{spec.Result(ok, spec.UDT(ect.Name))}
	} else if out != nil {
		fs.Outputs = []spec.Type{*out}
	}

	f.spec = fs
	return f, nil
}

func (x *extractor) namedType(d *decl) error {
	ct, err := x.compile(d.goType, "", "")
	if err != nil {
		return err
	}
	if !ct.Kind.IsNamed() {
		return errors.InvalidDeclaration([]string{d.goType.String()},
			"only structs, unions and enums can be exported, got %s", ct.Kind)
	}
	if d.doc != "" {
		if e, ok := x.entry(ct.Name); ok {
			setDoc(e, d.doc)
		}
	}
	return nil
}

func (x *extractor) entry(name string) (spec.Entry, bool) {
	for _, e := range x.entries {
		if _, ok := e.(spec.TypeEntry); ok && e.EntryName() == name {
			return e, true
		}
	}
	return nil, false
}

func (x *extractor) event(d *decl) (*event, error) {
	ct, err := x.compiler.Compile(d.goType)
	if err != nil {
		return nil, inFunction(err, d.name, "")
	}
	if ct.Kind != transcoder.KindStruct && ct.Kind != transcoder.KindTuple {
		return nil, errors.InvalidDeclaration([]string{d.name}, "event payload %s must be a struct", d.goType)
	}
	for _, p := range d.prefix {
		if !val.Symbol(p).Valid() {
			return nil, errors.InvalidDeclaration([]string{d.name}, "prefix topic %q is not a symbol", p)
		}
	}

	ev := &event{ct: ct, prefix: d.prefix}
	es := &spec.EventSpec{Doc: d.doc, Name: d.name, PrefixTopics: d.prefix}
	var data []spec.Type
	for _, f := range ct.Fields {
		if err := x.collect(f.Type); err != nil {
			return nil, err
		}
		shape := transcoder.ShapeOf(f.Type)
		if isTopic(d.goType.Field(f.Index)) {
			ev.topics = append(ev.topics, f)
			es.Topics = append(es.Topics, spec.Param{Doc: f.Doc, Name: f.Name, Type: shape})
			continue
		}
		ev.data = append(ev.data, f)
		data = append(data, shape)
	}
	switch len(data) {
	case 0:
		es.Data = spec.Void
	case 1:
		es.Data = data[0]
	default:
		es.Data = spec.Tuple(data...)
	}
	ev.spec = es
	return ev, nil
}

// checkTermination rejects named types that have no finite value, such as
// a union whose only case contains the union itself.
func (x *extractor) checkTermination() error {
	finite := make(map[*transcoder.CompiledType]bool)
	for changed := true; changed; {
		changed = false
		for _, t := range x.all {
			if !finite[t] && terminates(t, finite) {
				finite[t] = true
				changed = true
			}
		}
	}
	for _, t := range x.all {
		if !finite[t] && t.Kind.IsNamed() {
			return errors.InvalidDeclaration([]string{t.Name}, "type %s has no finite value", t.Name)
		}
	}
	return nil
}

func terminates(t *transcoder.CompiledType, finite map[*transcoder.CompiledType]bool) bool {
	switch t.Kind {
	case transcoder.KindOption, transcoder.KindVec, transcoder.KindMap:
		return true
	case transcoder.KindArray:
		return t.Len == 0 || finite[t.ElemType]
	case transcoder.KindStruct, transcoder.KindTuple:
		for _, f := range t.Fields {
			if !finite[f.Type] {
				return false
			}
		}
		return true
	case transcoder.KindUnion:
		for _, c := range t.Cases {
			if !slices.ContainsFunc(c.Types, func(ct *transcoder.CompiledType) bool { return !finite[ct] }) {
				return true
			}
		}
		return false
	}
	return true
}

func isTopic(f reflect.StructField) bool {
	_, opts, _ := strings.Cut(f.Tag.Get("contract"), ",")
	for _, o := range strings.Split(opts, ",") {
		if o == "topic" {
			return true
		}
	}
	return false
}

func setDoc(e spec.Entry, doc string) {
	switch x := e.(type) {
	case *spec.StructSpec:
		x.Doc = doc
	case *spec.UnionSpec:
		x.Doc = doc
	case *spec.EnumSpec:
		x.Doc = doc
	case *spec.ErrorEnumSpec:
		x.Doc = doc
	}
}

// inFunction attaches the function and parameter to a compile error.
func inFunction(err error, fn, param string) error {
	e, ok := err.(*errors.Error)
	if !ok || fn == "" {
		return err
	}
	cp := *e
	cp.Function = fn
	cp.Param = param
	return &cp
}
