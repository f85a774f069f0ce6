package bindgen

import (
	"strings"
	"unicode"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/spec"
	"github.com/wippyai/contract-sdk/transcoder"
)

var witKeywords = map[string]bool{
	"as": true, "bool": true, "borrow": true, "char": true, "constructor": true,
	"enum": true, "export": true, "f32": true, "f64": true, "flags": true,
	"from": true, "func": true, "import": true, "include": true, "interface": true,
	"list": true, "option": true, "own": true, "package": true, "record": true,
	"resource": true, "result": true, "s16": true, "s32": true, "s64": true,
	"s8": true, "static": true, "string": true, "tuple": true, "type": true,
	"u16": true, "u32": true, "u64": true, "u8": true, "use": true,
	"variant": true, "with": true, "world": true, "async": true, "future": true,
	"stream": true, "error-context": true,
}

// witDef is a named WIT type with the documentation carried over from
// the spec.
type witDef struct {
	def  *wit.TypeDef
	doc  string
	docs []string // per field, case or enum case
}

type witFunc struct {
	doc    string
	name   string
	params []wit.Field
	result wit.Type
}

type witGen struct {
	set     *spec.Set
	defs    map[string]*witDef
	order   []*witDef
	active  map[string]bool
	builtin map[string]*witDef
}

// GenerateWIT renders entries as a WIT interface named iface. Wide
// integers, addresses and error values become records; maps become lists
// of pairs. Raw Val shapes and recursive types have no WIT form.
func GenerateWIT(entries []spec.Entry, iface string) (string, error) {
	set, err := spec.NewSet(entries)
	if err != nil {
		return "", err
	}
	g := &witGen{
		set:     set,
		defs:    make(map[string]*witDef),
		active:  make(map[string]bool),
		builtin: make(map[string]*witDef),
	}

	var funcs []witFunc
	for _, fs := range set.Functions() {
		f := witFunc{doc: fs.Doc, name: witName(fs.Name)}
		for _, p := range fs.Inputs {
			t, err := g.typ(p.Type, []string{p.Name})
			if err != nil {
				return "", atParam(err, fs.Name, p.Name)
			}
			f.params = append(f.params, wit.Field{Name: witName(p.Name), Type: t})
		}
		if f.result, err = g.result(fs.Output()); err != nil {
			return "", atParam(err, fs.Name, "result")
		}
		funcs = append(funcs, f)
	}
	for _, te := range set.Types() {
		if _, err := g.named(te.EntryName(), nil); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	b.WriteString("interface ")
	b.WriteString(witName(iface))
	b.WriteString(" {\n")
	for i, d := range g.order {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeTypeDef(&b, d)
	}
	for i, f := range funcs {
		if i > 0 || len(g.order) > 0 {
			b.WriteByte('\n')
		}
		writeDoc(&b, "    ", f.doc)
		params := make([]string, len(f.params))
		for j, p := range f.params {
			params[j] = p.Name + ": " + witType(p.Type)
		}
		b.WriteString("    " + f.name + ": func(" + strings.Join(params, ", ") + ")")
		if f.result != nil {
			b.WriteString(" -> " + witType(f.result))
		}
		b.WriteString(";\n")
	}
	b.WriteString("}\n")

	Logger().Debug("wit generated", zap.String("interface", iface), zap.Int("types", len(g.order)), zap.Int("functions", len(funcs)))
	return b.String(), nil
}

func (g *witGen) result(out spec.Type) (wit.Type, error) {
	switch out.Kind {
	case spec.KindVoid:
		return nil, nil
	case spec.KindResult:
		r := &wit.Result{}
		var err error
		if out.Ok.Kind != spec.KindVoid {
			if r.OK, err = g.typ(*out.Ok, []string{"result", "[ok]"}); err != nil {
				return nil, err
			}
		}
		if out.Err.Kind != spec.KindVoid {
			if r.Err, err = g.typ(*out.Err, []string{"result", "[err]"}); err != nil {
				return nil, err
			}
		}
		return &wit.TypeDef{Kind: r}, nil
	}
	return g.typ(out, []string{"result"})
}

func (g *witGen) typ(t spec.Type, path []string) (wit.Type, error) {
	switch t.Kind {
	case spec.KindBool:
		return wit.Bool{}, nil
	case spec.KindU32:
		return wit.U32{}, nil
	case spec.KindI32:
		return wit.S32{}, nil
	case spec.KindU64, spec.KindTimepoint, spec.KindDuration:
		return wit.U64{}, nil
	case spec.KindI64:
		return wit.S64{}, nil
	case spec.KindString, spec.KindSymbol:
		return wit.String{}, nil
	case spec.KindBytes, spec.KindBytesN:
		return &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}, nil
	case spec.KindVoid:
		return &wit.TypeDef{Kind: &wit.Tuple{}}, nil
	case spec.KindU128, spec.KindI128, spec.KindU256, spec.KindI256, spec.KindAddress, spec.KindError:
		return g.builtinDef(t.Kind).def, nil
	case spec.KindVal:
		return nil, unsupported(path, t, "raw values have no WIT form")
	case spec.KindResult:
		return nil, unsupported(path, t, "Result is only valid as a function output")

	case spec.KindOption, spec.KindVec, spec.KindArray:
		elem, err := g.typ(*t.Elem, path)
		if err != nil {
			return nil, err
		}
		if t.Kind == spec.KindOption {
			return &wit.TypeDef{Kind: &wit.Option{Type: elem}}, nil
		}
		return &wit.TypeDef{Kind: &wit.List{Type: elem}}, nil

	case spec.KindMap:
		key, err := g.typ(*t.Key, appendPath(path, "[key]"))
		if err != nil {
			return nil, err
		}
		value, err := g.typ(*t.Value, appendPath(path, "[value]"))
		if err != nil {
			return nil, err
		}
		pair := &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{key, value}}}
		return &wit.TypeDef{Kind: &wit.List{Type: pair}}, nil

	case spec.KindTuple:
		types := make([]wit.Type, len(t.Items))
		for i, item := range t.Items {
			it, err := g.typ(item, path)
			if err != nil {
				return nil, err
			}
			types[i] = it
		}
		return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}, nil

	case spec.KindUDT:
		d, err := g.named(t.Name, path)
		if err != nil {
			return nil, err
		}
		return d.def, nil
	}
	return nil, unsupported(path, t, "unknown shape kind")
}

func (g *witGen) named(name string, path []string) (*witDef, error) {
	if d, ok := g.defs[name]; ok {
		return d, nil
	}
	if g.active[name] {
		return nil, unsupported(path, spec.UDT(name), "WIT types cannot be recursive")
	}
	g.active[name] = true
	defer delete(g.active, name)

	te, _ := g.set.Type(name)
	wname := witName(name)
	d := &witDef{def: &wit.TypeDef{Name: &wname}}
	switch e := te.(type) {
	case *spec.StructSpec:
		d.doc = e.Doc
		rec := &wit.Record{}
		for _, f := range e.Fields {
			ft, err := g.typ(f.Type, appendPath(path, name, f.Name))
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, wit.Field{Name: witName(f.Name), Type: ft})
			d.docs = append(d.docs, f.Doc)
		}
		d.def.Kind = rec

	case *spec.UnionSpec:
		d.doc = e.Doc
		v := &wit.Variant{}
		for _, c := range e.Cases {
			wc := wit.Case{Name: witName(c.Name)}
			casePath := appendPath(path, name, c.Name)
			switch len(c.Types) {
			case 0:
			case 1:
				ct, err := g.typ(c.Types[0], casePath)
				if err != nil {
					return nil, err
				}
				wc.Type = ct
			default:
				ct, err := g.typ(spec.Tuple(c.Types...), casePath)
				if err != nil {
					return nil, err
				}
				wc.Type = ct
			}
			v.Cases = append(v.Cases, wc)
			d.docs = append(d.docs, c.Doc)
		}
		d.def.Kind = v

	case *spec.EnumSpec:
		d.doc = e.Doc
		d.def.Kind, d.docs = witEnum(e.Cases)

	case *spec.ErrorEnumSpec:
		d.doc = e.Doc
		d.def.Kind, d.docs = witEnum(e.Cases)

	default:
		return nil, errors.NotFound(errors.PhaseBindgen, "type", name)
	}

	g.defs[name] = d
	g.order = append(g.order, d)
	return d, nil
}

func witEnum(cases []spec.EnumCase) (*wit.Enum, []string) {
	en := &wit.Enum{}
	docs := make([]string, len(cases))
	for i, c := range cases {
		en.Cases = append(en.Cases, wit.EnumCase{Name: witName(c.Name)})
		docs[i] = c.Doc
	}
	return en, docs
}

// builtinDef declares the record standing in for a host value kind the
// first time a shape needs it.
func (g *witGen) builtinDef(k spec.Kind) *witDef {
	var (
		name   string
		fields []wit.Field
	)
	switch k {
	case spec.KindU128:
		name, fields = "u128", []wit.Field{{Name: "hi", Type: wit.U64{}}, {Name: "lo", Type: wit.U64{}}}
	case spec.KindI128:
		name, fields = "i128", []wit.Field{{Name: "hi", Type: wit.S64{}}, {Name: "lo", Type: wit.U64{}}}
	case spec.KindU256:
		name, fields = "u256", wideFields(wit.U64{})
	case spec.KindI256:
		name, fields = "i256", wideFields(wit.S64{})
	case spec.KindAddress:
		name, fields = "address", []wit.Field{
			{Name: "kind", Type: wit.U8{}},
			{Name: "id", Type: &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}},
		}
	default:
		name, fields = "host-error", []wit.Field{{Name: "kind", Type: wit.U32{}}, {Name: "code", Type: wit.U32{}}}
	}
	if d, ok := g.builtin[name]; ok {
		return d
	}
	d := &witDef{def: &wit.TypeDef{Name: &name, Kind: &wit.Record{Fields: fields}}}
	g.builtin[name] = d
	g.order = append(g.order, d)
	return d
}

func wideFields(hi wit.Type) []wit.Field {
	return []wit.Field{
		{Name: "hi-hi", Type: hi},
		{Name: "hi-lo", Type: wit.U64{}},
		{Name: "lo-hi", Type: wit.U64{}},
		{Name: "lo-lo", Type: wit.U64{}},
	}
}

func writeTypeDef(b *strings.Builder, d *witDef) {
	writeDoc(b, "    ", d.doc)
	name := *d.def.Name
	doc := func(i int) {
		if i < len(d.docs) {
			writeDoc(b, "        ", d.docs[i])
		}
	}
	switch k := d.def.Kind.(type) {
	case *wit.Record:
		b.WriteString("    record " + name + " {\n")
		for i, f := range k.Fields {
			doc(i)
			b.WriteString("        " + f.Name + ": " + witType(f.Type) + ",\n")
		}
	case *wit.Variant:
		b.WriteString("    variant " + name + " {\n")
		for i, c := range k.Cases {
			doc(i)
			b.WriteString("        " + c.Name)
			if c.Type != nil {
				b.WriteString("(" + witType(c.Type) + ")")
			}
			b.WriteString(",\n")
		}
	case *wit.Enum:
		b.WriteString("    enum " + name + " {\n")
		for i, c := range k.Cases {
			doc(i)
			b.WriteString("        " + c.Name + ",\n")
		}
	}
	b.WriteString("    }\n")
}

func writeDoc(b *strings.Builder, indent, doc string) {
	if doc == "" {
		return
	}
	for _, line := range strings.Split(doc, "\n") {
		b.WriteString(indent + "/// " + line + "\n")
	}
}

func witType(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		switch k := v.Kind.(type) {
		case *wit.List:
			return "list<" + witType(k.Type) + ">"
		case *wit.Option:
			return "option<" + witType(k.Type) + ">"
		case *wit.Tuple:
			items := make([]string, len(k.Types))
			for i, it := range k.Types {
				items[i] = witType(it)
			}
			return "tuple<" + strings.Join(items, ", ") + ">"
		case *wit.Result:
			switch {
			case k.OK == nil && k.Err == nil:
				return "result"
			case k.Err == nil:
				return "result<" + witType(k.OK) + ">"
			case k.OK == nil:
				return "result<_, " + witType(k.Err) + ">"
			}
			return "result<" + witType(k.OK) + ", " + witType(k.Err) + ">"
		}
	}
	return "_"
}

// witName converts a spec identifier to a kebab-case WIT identifier,
// escaping keywords.
func witName(name string) string {
	words := strings.FieldsFunc(transcoder.ToSnakeCase(name), func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		if !unicode.IsLetter([]rune(w)[0]) {
			words[i] = "x" + w
		}
	}
	s := strings.Join(words, "-")
	if s == "" {
		s = "x"
	}
	if witKeywords[s] {
		return "%" + s
	}
	return s
}
