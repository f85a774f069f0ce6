package contract

import (
	"reflect"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/spec"
	"github.com/wippyai/contract-sdk/transcoder"
)

type declKind uint8

const (
	declFunction declKind = iota
	declType
	declEvent
)

// decl is one item in declaration order.
type decl struct {
	fn       reflect.Value
	goType   reflect.Type
	errType  reflect.Type
	name     string
	doc      string
	params   []string
	prefix   []string
	paramDoc map[string]string
	kind     declKind
}

// Builder collects a contract's declarations. Mistakes are reported by
// Build, so calls can be chained.
type Builder struct {
	compiler *transcoder.Compiler
	name     string
	decls    []*decl
	meta     []spec.MetaEntry
	errs     []error
}

// New starts the declaration of a contract.
func New(name string) *Builder {
	return &Builder{
		name:     name,
		compiler: transcoder.DefaultCompiler(),
	}
}

// WithCompiler makes the builder compile types with c.
func (b *Builder) WithCompiler(c *transcoder.Compiler) *Builder {
	b.compiler = c
	return b
}

// Export declares a contract function. fn may take a *Env first; that
// parameter is not part of the interface. A trailing error result is the
// failure channel. params names the remaining parameters in order and
// defaults to arg0, arg1 and so on.
func (b *Builder) Export(name string, fn any, params ...string) *Builder {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		b.errs = append(b.errs, errors.InvalidDeclaration([]string{name}, "export %q is %T, not a function", name, fn))
		return b
	}
	b.decls = append(b.decls, &decl{kind: declFunction, name: name, fn: rv, goType: rv.Type(), params: params})
	return b
}

// Doc documents the most recent declaration.
func (b *Builder) Doc(doc string) *Builder {
	if d := b.last(); d != nil {
		d.doc = doc
	} else {
		b.errs = append(b.errs, errors.InvalidDeclaration(nil, "Doc called before any declaration"))
	}
	return b
}

// ParamDoc documents a parameter of the most recently exported function.
func (b *Builder) ParamDoc(param, doc string) *Builder {
	d := b.last()
	if d == nil || d.kind != declFunction {
		b.errs = append(b.errs, errors.InvalidDeclaration([]string{param}, "ParamDoc must follow Export"))
		return b
	}
	if d.paramDoc == nil {
		d.paramDoc = make(map[string]string)
	}
	d.paramDoc[param] = doc
	return b
}

// Errors declares the error enum returned by the most recently exported
// function; its output becomes Result<T, E>.
func (b *Builder) Errors(sample any) *Builder {
	d := b.last()
	if d == nil || d.kind != declFunction {
		b.errs = append(b.errs, errors.InvalidDeclaration(nil, "Errors must follow Export"))
		return b
	}
	d.errType = reflect.TypeOf(sample)
	return b
}

// Type exports a type that no function mentions.
func (b *Builder) Type(sample any) *Builder {
	t := reflect.TypeOf(sample)
	if t == nil {
		b.errs = append(b.errs, errors.InvalidDeclaration(nil, "Type needs a non-nil sample"))
		return b
	}
	b.decls = append(b.decls, &decl{kind: declType, name: t.Name(), goType: t})
	return b
}

// EventOption configures an event declaration.
type EventOption func(*decl)

// WithPrefix sets the static topics published before the topic fields.
// The default prefix is the event name.
func WithPrefix(topics ...string) EventOption {
	return func(d *decl) {
		d.prefix = topics
	}
}

// Event declares an event whose payload has the type of sample, a struct.
// Fields tagged `contract:",topic"` are published as topics; the others
// form the data: void when there are none, the field itself when there is
// one and a tuple otherwise.
func (b *Builder) Event(name string, sample any, opts ...EventOption) *Builder {
	t := reflect.TypeOf(sample)
	if t == nil || t.Kind() != reflect.Struct {
		b.errs = append(b.errs, errors.InvalidDeclaration([]string{name}, "event %q needs a struct sample, got %T", name, sample))
		return b
	}
	d := &decl{kind: declEvent, name: name, goType: t, prefix: []string{name}}
	for _, opt := range opts {
		opt(d)
	}
	b.decls = append(b.decls, d)
	return b
}

// Meta adds a key/value pair to the contract's metadata section.
func (b *Builder) Meta(key, value string) *Builder {
	b.meta = append(b.meta, spec.MetaEntry{Key: key, Value: value})
	return b
}

func (b *Builder) last() *decl {
	if len(b.decls) == 0 {
		return nil
	}
	return b.decls[len(b.decls)-1]
}
