package bindgen

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/spec"
)

const (
	pkgBindgen    = "github.com/wippyai/contract-sdk/bindgen"
	pkgSpec       = "github.com/wippyai/contract-sdk/spec"
	pkgTranscoder = "github.com/wippyai/contract-sdk/transcoder"
	pkgVal        = "github.com/wippyai/contract-sdk/val"
)

// Options controls GenerateGo.
type Options struct {
	// Package is the package clause of the generated file. Defaults to
	// "client".
	Package string
	// Client names the generated client type. Defaults to "Client".
	Client string
}

// GenerateGo renders a Go source file with a type for every declared type
// and a client with one method per function. The generated types carry
// the marker methods the transcoder reads, so values encode exactly as the
// contract's own types do.
func GenerateGo(entries []spec.Entry, opts Options) ([]byte, error) {
	set, err := spec.NewSet(entries)
	if err != nil {
		return nil, err
	}
	if opts.Package == "" {
		opts.Package = "client"
	}
	if opts.Client == "" {
		opts.Client = "Client"
	}

	g := &goGen{
		set:     set,
		f:       jen.NewFile(opts.Package),
		names:   make(map[string]string),
		tuples:  make(map[string]string),
		checked: make(map[string]bool),
		ids:     newIdents(),
	}
	g.ids.unique(opts.Client)
	g.ids.unique("New" + opts.Client)
	for _, te := range set.Types() {
		g.names[te.EntryName()] = g.ids.unique(exportedName(te.EntryName()))
	}

	for _, fs := range set.Functions() {
		if err := g.checkFunction(fs); err != nil {
			return nil, err
		}
	}
	for _, te := range set.Types() {
		if err := g.check(spec.UDT(te.EntryName()), nil); err != nil {
			return nil, err
		}
	}

	g.f.HeaderComment("Code generated by contractspec bindgen. DO NOT EDIT.")
	for _, te := range set.Types() {
		if err := g.typeDecl(te); err != nil {
			return nil, err
		}
	}
	g.client(opts.Client)
	for _, decl := range g.tupleDecls {
		g.f.Add(decl)
	}

	var buf bytes.Buffer
	if err := g.f.Render(&buf); err != nil {
		return nil, errors.Wrap(errors.PhaseBindgen, errors.KindInvalidInput, err, "render Go source")
	}
	return buf.Bytes(), nil
}

type goGen struct {
	set        *spec.Set
	f          *jen.File
	names      map[string]string // spec type name -> Go name
	tuples     map[string]string // tuple shape -> Go name
	tupleDecls []jen.Code
	checked    map[string]bool
	ids        idents
}

func (g *goGen) checkFunction(fs *spec.FunctionSpec) error {
	for _, p := range fs.Inputs {
		if err := g.check(p.Type, []string{p.Name}); err != nil {
			return atParam(err, fs.Name, p.Name)
		}
	}
	out := fs.Output()
	if out.Kind == spec.KindResult {
		if err := g.check(*out.Ok, []string{"result", "[ok]"}); err != nil {
			return atParam(err, fs.Name, "result")
		}
		if err := g.check(*out.Err, []string{"result", "[err]"}); err != nil {
			return atParam(err, fs.Name, "result")
		}
		return nil
	}
	if err := g.check(out, []string{"result"}); err != nil {
		return atParam(err, fs.Name, "result")
	}
	return nil
}

// check rejects shapes without a Go form. Each named type is checked once,
// at its first reference.
func (g *goGen) check(t spec.Type, path []string) error {
	switch t.Kind {
	case spec.KindResult:
		return unsupported(path, t, "Result is only valid as a function output")
	case spec.KindOption, spec.KindVec, spec.KindArray:
		return g.check(*t.Elem, path)
	case spec.KindMap:
		if !g.comparable(*t.Key, make(map[string]bool)) {
			return unsupported(path, t, "map key %s has no comparable Go form", t.Key)
		}
		if err := g.check(*t.Key, appendPath(path, "[key]")); err != nil {
			return err
		}
		return g.check(*t.Value, appendPath(path, "[value]"))
	case spec.KindTuple:
		for _, item := range t.Items {
			if err := g.check(item, path); err != nil {
				return err
			}
		}
	case spec.KindUDT:
		if g.checked[t.Name] {
			return nil
		}
		g.checked[t.Name] = true
		te, _ := g.set.Type(t.Name)
		return g.checkEntry(te, path)
	}
	return nil
}

func (g *goGen) checkEntry(te spec.TypeEntry, path []string) error {
	switch e := te.(type) {
	case *spec.StructSpec:
		for _, f := range e.Fields {
			if err := g.check(f.Type, appendPath(path, e.Name, f.Name)); err != nil {
				return err
			}
		}
	case *spec.UnionSpec:
		for _, c := range e.Cases {
			if len(c.Types) == 1 && c.Types[0].Kind == spec.KindTuple {
				return unsupported(appendPath(path, e.Name, c.Name), c.Types[0],
					"a single tuple payload is indistinguishable from a multi-value case")
			}
			for _, t := range c.Types {
				if err := g.check(t, appendPath(path, e.Name, c.Name)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// comparable reports whether the Go form of t can be a map key.
func (g *goGen) comparable(t spec.Type, seen map[string]bool) bool {
	switch t.Kind {
	case spec.KindBytes, spec.KindVec, spec.KindMap:
		return false
	case spec.KindArray:
		return g.comparable(*t.Elem, seen)
	case spec.KindTuple:
		for _, item := range t.Items {
			if !g.comparable(item, seen) {
				return false
			}
		}
	case spec.KindUDT:
		if seen[t.Name] {
			return true
		}
		seen[t.Name] = true
		te, _ := g.set.Type(t.Name)
		if s, ok := te.(*spec.StructSpec); ok {
			for _, f := range s.Fields {
				if !g.comparable(f.Type, seen) {
					return false
				}
			}
		}
	}
	return true
}

func (g *goGen) goType(t spec.Type) jen.Code {
	switch t.Kind {
	case spec.KindVal:
		return jen.Qual(pkgVal, "Val")
	case spec.KindBool:
		return jen.Bool()
	case spec.KindVoid:
		return jen.Struct()
	case spec.KindError:
		return jen.Qual(pkgVal, "Error")
	case spec.KindU32:
		return jen.Uint32()
	case spec.KindI32:
		return jen.Int32()
	case spec.KindU64:
		return jen.Uint64()
	case spec.KindI64:
		return jen.Int64()
	case spec.KindTimepoint:
		return jen.Qual(pkgVal, "Timepoint")
	case spec.KindDuration:
		return jen.Qual(pkgVal, "Duration")
	case spec.KindU128:
		return jen.Qual(pkgVal, "U128")
	case spec.KindI128:
		return jen.Qual(pkgVal, "I128")
	case spec.KindU256:
		return jen.Qual(pkgVal, "U256")
	case spec.KindI256:
		return jen.Qual(pkgVal, "I256")
	case spec.KindBytes:
		return jen.Index().Byte()
	case spec.KindString:
		return jen.String()
	case spec.KindSymbol:
		return jen.Qual(pkgVal, "Symbol")
	case spec.KindAddress:
		return jen.Qual(pkgVal, "Address")
	case spec.KindOption:
		return jen.Op("*").Add(g.goType(*t.Elem))
	case spec.KindVec:
		return jen.Index().Add(g.goType(*t.Elem))
	case spec.KindArray:
		return jen.Index(jen.Lit(int(t.N))).Add(g.goType(*t.Elem))
	case spec.KindBytesN:
		return jen.Index(jen.Lit(int(t.N))).Byte()
	case spec.KindMap:
		return jen.Map(g.goType(*t.Key)).Add(g.goType(*t.Value))
	case spec.KindTuple:
		return jen.Id(g.tuple(t))
	case spec.KindUDT:
		return jen.Id(g.names[t.Name])
	}
	return jen.Qual(pkgVal, "Val")
}

// tuple returns the Go type declared for a tuple shape, declaring it on
// first use.
func (g *goGen) tuple(t spec.Type) string {
	key := t.String()
	if name, ok := g.tuples[key]; ok {
		return name
	}
	name := g.ids.unique("Tuple")
	g.tuples[key] = name

	fields := make([]jen.Code, len(t.Items))
	for i, item := range t.Items {
		fields[i] = jen.Id("F" + strconv.Itoa(i)).Add(g.goType(item))
	}
	g.tupleDecls = append(g.tupleDecls,
		jen.Comment(name+" is the "+key+" shape."),
		jen.Line(),
		jen.Type().Id(name).Struct(fields...),
		jen.Line(),
		jen.Func().Params(jen.Id(name)).Id("ContractTuple").Params().Block(),
		jen.Line(),
	)
	return name
}

func (g *goGen) typeDecl(te spec.TypeEntry) error {
	name := g.names[te.EntryName()]
	switch e := te.(type) {
	case *spec.StructSpec:
		g.doc(e.Doc)
		fields := make([]jen.Code, 0, len(e.Fields))
		ids := newIdents()
		for _, f := range e.Fields {
			if f.Doc != "" {
				fields = append(fields, jen.Comment(f.Doc))
			}
			fields = append(fields, jen.Id(ids.unique(exportedName(f.Name))).
				Add(g.goType(f.Type)).
				Tag(map[string]string{"contract": f.Name}))
		}
		g.f.Type().Id(name).Struct(fields...)
		g.nameMethod(name, e.Name)
		if e.Layout == spec.LayoutMap {
			g.f.Func().Params(jen.Id(name)).Id("ContractLayout").Params().Qual(pkgTranscoder, "Layout").Block(
				jen.Return(jen.Qual(pkgTranscoder, "LayoutMap")),
			)
		}

	case *spec.UnionSpec:
		g.doc(e.Doc)
		fields := make([]jen.Code, 0, len(e.Cases))
		ids := newIdents()
		for _, c := range e.Cases {
			if c.Doc != "" {
				fields = append(fields, jen.Comment(c.Doc))
			}
			var payload jen.Code
			switch len(c.Types) {
			case 0:
				payload = jen.Struct()
			case 1:
				payload = g.goType(c.Types[0])
			default:
				payload = jen.Id(g.tuple(spec.Tuple(c.Types...)))
			}
			fields = append(fields, jen.Id(ids.unique(exportedName(c.Name))).
				Op("*").Add(payload).
				Tag(map[string]string{"contract": c.Name}))
		}
		g.f.Type().Id(name).Struct(fields...)
		g.f.Func().Params(jen.Id(name)).Id("ContractUnion").Params().Block()
		g.nameMethod(name, e.Name)

	case *spec.EnumSpec:
		g.enumDecl(name, e.Name, e.Doc, e.Cases, "ContractEnum")

	case *spec.ErrorEnumSpec:
		g.enumDecl(name, e.Name, e.Doc, e.Cases, "ContractErrors")
		g.f.Func().Params(jen.Id("e").Id(name)).Id("Error").Params().String().Block(
			jen.Return(jen.Qual(pkgVal, "ContractError").Call(jen.Uint32().Call(jen.Id("e"))).Dot("Error").Call()),
		)

	default:
		return errors.New(errors.PhaseBindgen, errors.KindUnsupportedShape).
			Detail("unknown type entry %T", te).Build()
	}
	return nil
}

func (g *goGen) enumDecl(name, specName, doc string, cases []spec.EnumCase, marker string) {
	g.doc(doc)
	g.f.Type().Id(name).Uint32()

	consts := make([]jen.Code, 0, len(cases))
	lits := make([]jen.Code, 0, len(cases))
	for _, c := range cases {
		if c.Doc != "" {
			consts = append(consts, jen.Comment(c.Doc))
		}
		consts = append(consts, jen.Id(name+exportedName(c.Name)).Id(name).Op("=").Lit(int(c.Value)))
		lits = append(lits, jen.Values(jen.Dict{
			jen.Id("Name"):  jen.Lit(c.Name),
			jen.Id("Value"): jen.Lit(int(c.Value)),
		}))
	}
	g.f.Const().Defs(consts...)
	g.f.Func().Params(jen.Id(name)).Id(marker).Params().Index().Qual(pkgSpec, "EnumCase").Block(
		jen.Return(jen.Index().Qual(pkgSpec, "EnumCase").Values(lits...)),
	)
	g.nameMethod(name, specName)
}

func (g *goGen) nameMethod(goName, specName string) {
	if goName == specName {
		return
	}
	g.f.Func().Params(jen.Id(goName)).Id("ContractName").Params().String().Block(
		jen.Return(jen.Lit(specName)),
	)
}

func (g *goGen) doc(doc string) {
	if doc == "" {
		return
	}
	for _, line := range strings.Split(doc, "\n") {
		g.f.Comment(line)
	}
}

func (g *goGen) client(name string) {
	g.f.Commentf("%s calls the contract through a bindgen.Invoker.", name)
	g.f.Type().Id(name).Struct(
		jen.Id("invoker").Qual(pkgBindgen, "Invoker"),
		jen.Id("address").Qual(pkgVal, "Address"),
	)
	g.f.Func().Id("New"+name).Params(
		jen.Id("invoker").Qual(pkgBindgen, "Invoker"),
		jen.Id("address").Qual(pkgVal, "Address"),
	).Op("*").Id(name).Block(
		jen.Return(jen.Op("&").Id(name).Values(jen.Dict{
			jen.Id("invoker"): jen.Id("invoker"),
			jen.Id("address"): jen.Id("address"),
		})),
	)

	methods := newIdents()
	for _, fs := range g.set.Functions() {
		g.method(name, methods.unique(exportedName(fs.Name)), fs)
	}
}

var reservedParams = map[string]bool{
	"ctx": true, "c": true, "out": true, "err": true, "code": true, "ok": true,
	"bindgen": true, "context": true, "val": true,
}

func (g *goGen) method(client, goName string, fs *spec.FunctionSpec) {
	params := []jen.Code{jen.Id("ctx").Qual("context", "Context")}
	args := []jen.Code{
		jen.Id("ctx"),
		jen.Id("c").Dot("invoker"),
		jen.Id("c").Dot("address"),
		jen.Lit(fs.Name),
	}
	names := newIdents()
	var argNames []jen.Code
	for _, p := range fs.Inputs {
		n := paramName(p.Name)
		if reservedParams[n] || goKeywords[n] {
			n += "Arg"
		}
		n = names.unique(n)
		params = append(params, jen.Id(n).Add(g.goType(p.Type)))
		argNames = append(argNames, jen.Id(n))
	}

	out := fs.Output()
	var errEnum string
	if out.Kind == spec.KindResult {
		if te, ok := g.set.Type(out.Err.Name); ok && out.Err.Kind == spec.KindUDT {
			if _, isEnum := te.(*spec.ErrorEnumSpec); isEnum {
				errEnum = g.names[out.Err.Name]
			}
		}
		out = *out.Ok
	}

	if fs.Doc != "" {
		for _, line := range strings.Split(fs.Doc, "\n") {
			g.f.Comment(line)
		}
	}

	var body []jen.Code
	var results []jen.Code
	if out.Kind == spec.KindVoid {
		results = []jen.Code{jen.Error()}
		call := jen.Qual(pkgBindgen, "Invoke").Call(append(append(args, jen.Nil()), argNames...)...)
		if errEnum == "" {
			body = append(body, jen.Return(call))
		} else {
			body = append(body,
				jen.Id("err").Op(":=").Add(call),
				mapError(errEnum),
				jen.Return(jen.Id("err")),
			)
		}
	} else {
		results = []jen.Code{g.goType(out), jen.Error()}
		call := jen.Qual(pkgBindgen, "Invoke").Call(append(append(args, jen.Op("&").Id("out")), argNames...)...)
		body = append(body,
			jen.Var().Id("out").Add(g.goType(out)),
			jen.Id("err").Op(":=").Add(call),
		)
		if errEnum != "" {
			body = append(body, mapError(errEnum))
		}
		body = append(body, jen.Return(jen.Id("out"), jen.Id("err")))
	}

	g.f.Func().Params(jen.Id("c").Op("*").Id(client)).Id(goName).Params(params...).Params(results...).Block(body...)
}

// mapError turns a contract error code into the generated error enum.
func mapError(enum string) jen.Code {
	return jen.If(
		jen.List(jen.Id("code"), jen.Id("ok")).Op(":=").Qual(pkgBindgen, "ContractErrorCode").Call(jen.Id("err")),
		jen.Id("ok"),
	).Block(
		jen.Id("err").Op("=").Id(enum).Call(jen.Id("code")),
	)
}

// paramName is the lowerCamel form of a spec identifier.
func paramName(name string) string {
	r := []rune(exportedName(name))
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}
