package bindgen

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/spec"
	"github.com/wippyai/contract-sdk/transcoder"
	"github.com/wippyai/contract-sdk/val"
)

var primitiveTypes = map[spec.Kind]struct {
	goType reflect.Type
	kind   transcoder.TypeKind
}{
	spec.KindVal:       {reflect.TypeFor[val.Val](), transcoder.KindVal},
	spec.KindBool:      {reflect.TypeFor[bool](), transcoder.KindBool},
	spec.KindVoid:      {reflect.TypeFor[struct{}](), transcoder.KindVoid},
	spec.KindError:     {reflect.TypeFor[val.Error](), transcoder.KindError},
	spec.KindU32:       {reflect.TypeFor[uint32](), transcoder.KindU32},
	spec.KindI32:       {reflect.TypeFor[int32](), transcoder.KindI32},
	spec.KindU64:       {reflect.TypeFor[uint64](), transcoder.KindU64},
	spec.KindI64:       {reflect.TypeFor[int64](), transcoder.KindI64},
	spec.KindTimepoint: {reflect.TypeFor[val.Timepoint](), transcoder.KindTimepoint},
	spec.KindDuration:  {reflect.TypeFor[val.Duration](), transcoder.KindDuration},
	spec.KindU128:      {reflect.TypeFor[val.U128](), transcoder.KindU128},
	spec.KindI128:      {reflect.TypeFor[val.I128](), transcoder.KindI128},
	spec.KindU256:      {reflect.TypeFor[val.U256](), transcoder.KindU256},
	spec.KindI256:      {reflect.TypeFor[val.I256](), transcoder.KindI256},
	spec.KindBytes:     {reflect.TypeFor[[]byte](), transcoder.KindBytes},
	spec.KindString:    {reflect.TypeFor[string](), transcoder.KindString},
	spec.KindSymbol:    {reflect.TypeFor[val.Symbol](), transcoder.KindSymbol},
	spec.KindAddress:   {reflect.TypeFor[val.Address](), transcoder.KindAddress},
}

// resolver builds runtime Go types for spec shapes. Named types are
// compiled once; the compiled form carries the same kinds and layouts the
// contract side derives from its declared Go types, so both ends encode
// identically.
type resolver struct {
	set    *spec.Set
	named  map[string]*transcoder.CompiledType
	active map[string]bool
}

func newResolver(set *spec.Set) *resolver {
	return &resolver{
		set:    set,
		named:  make(map[string]*transcoder.CompiledType),
		active: make(map[string]bool),
	}
}

func (r *resolver) resolve(t spec.Type, path []string) (*transcoder.CompiledType, error) {
	if p, ok := primitiveTypes[t.Kind]; ok {
		return &transcoder.CompiledType{GoType: p.goType, Kind: p.kind}, nil
	}

	switch t.Kind {
	case spec.KindOption:
		elem, err := r.resolve(*t.Elem, appendPath(path, "[some]"))
		if err != nil {
			return nil, err
		}
		return &transcoder.CompiledType{GoType: reflect.PointerTo(elem.GoType), Kind: transcoder.KindOption, ElemType: elem}, nil

	case spec.KindVec:
		elem, err := r.resolve(*t.Elem, appendPath(path, "[elem]"))
		if err != nil {
			return nil, err
		}
		return &transcoder.CompiledType{GoType: reflect.SliceOf(elem.GoType), Kind: transcoder.KindVec, ElemType: elem}, nil

	case spec.KindArray:
		elem, err := r.resolve(*t.Elem, appendPath(path, "[elem]"))
		if err != nil {
			return nil, err
		}
		return &transcoder.CompiledType{
			GoType:   reflect.ArrayOf(int(t.N), elem.GoType),
			Kind:     transcoder.KindArray,
			ElemType: elem,
			Len:      int(t.N),
		}, nil

	case spec.KindBytesN:
		return &transcoder.CompiledType{
			GoType: reflect.ArrayOf(int(t.N), reflect.TypeFor[byte]()),
			Kind:   transcoder.KindBytesN,
			Len:    int(t.N),
		}, nil

	case spec.KindMap:
		key, err := r.resolve(*t.Key, appendPath(path, "[key]"))
		if err != nil {
			return nil, err
		}
		if !key.GoType.Comparable() {
			return nil, unsupported(path, t, "map key %s has no comparable Go form", t.Key)
		}
		value, err := r.resolve(*t.Value, appendPath(path, "[value]"))
		if err != nil {
			return nil, err
		}
		return &transcoder.CompiledType{
			GoType:    reflect.MapOf(key.GoType, value.GoType),
			Kind:      transcoder.KindMap,
			KeyType:   key,
			ValueType: value,
		}, nil

	case spec.KindTuple:
		return r.tuple(t.Items, path)

	case spec.KindResult:
		return nil, unsupported(path, t, "Result is only valid as a function output")

	case spec.KindUDT:
		return r.udt(t, path)
	}
	return nil, unsupported(path, t, "unknown shape kind")
}

func (r *resolver) tuple(items []spec.Type, path []string) (*transcoder.CompiledType, error) {
	ct := &transcoder.CompiledType{Kind: transcoder.KindTuple}
	fields := make([]reflect.StructField, len(items))
	for i, item := range items {
		ft, err := r.resolve(item, appendPath(path, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		fields[i] = reflect.StructField{Name: "F" + strconv.Itoa(i), Type: ft.GoType}
		ct.Fields = append(ct.Fields, transcoder.CompiledField{Type: ft, Name: strconv.Itoa(i), Index: i})
	}
	ct.GoType = reflect.StructOf(fields)
	return ct, nil
}

func (r *resolver) udt(t spec.Type, path []string) (*transcoder.CompiledType, error) {
	if ct, ok := r.named[t.Name]; ok {
		return ct, nil
	}
	if r.active[t.Name] {
		return nil, unsupported(path, t, "recursive type %s has no runtime Go form; generate bindings instead", t.Name)
	}
	entry, ok := r.set.Type(t.Name)
	if !ok {
		return nil, unsupported(path, t, "type %s is not declared", t.Name)
	}

	r.active[t.Name] = true
	defer delete(r.active, t.Name)

	var (
		ct  *transcoder.CompiledType
		err error
	)
	switch e := entry.(type) {
	case *spec.StructSpec:
		ct, err = r.structType(e, path)
	case *spec.UnionSpec:
		ct, err = r.unionType(e, path)
	case *spec.EnumSpec:
		ct = enumType(transcoder.KindEnum, e.Name, e.Doc, e.Cases)
	case *spec.ErrorEnumSpec:
		ct = enumType(transcoder.KindErrorEnum, e.Name, e.Doc, e.Cases)
	}
	if err != nil {
		return nil, err
	}
	r.named[t.Name] = ct
	return ct, nil
}

func (r *resolver) structType(s *spec.StructSpec, path []string) (*transcoder.CompiledType, error) {
	ct := &transcoder.CompiledType{Kind: transcoder.KindStruct, Name: s.Name, Doc: s.Doc, Layout: s.Layout}
	names := newIdents()
	fields := make([]reflect.StructField, len(s.Fields))
	for i, f := range s.Fields {
		ft, err := r.resolve(f.Type, appendPath(path, s.Name, f.Name))
		if err != nil {
			return nil, err
		}
		fields[i] = reflect.StructField{
			Name: names.unique(exportedName(f.Name)),
			Type: ft.GoType,
			Tag:  reflect.StructTag(`contract:"` + f.Name + `"`),
		}
		ct.Fields = append(ct.Fields, transcoder.CompiledField{Type: ft, Name: f.Name, Doc: f.Doc, Index: i})
	}
	ct.GoType = reflect.StructOf(fields)
	return ct, nil
}

func (r *resolver) unionType(u *spec.UnionSpec, path []string) (*transcoder.CompiledType, error) {
	ct := &transcoder.CompiledType{Kind: transcoder.KindUnion, Name: u.Name, Doc: u.Doc}
	names := newIdents()
	fields := make([]reflect.StructField, len(u.Cases))
	for i, c := range u.Cases {
		casePath := appendPath(path, u.Name, c.Name)
		cc := transcoder.CompiledCase{Name: c.Name, Doc: c.Doc, Index: i}
		pointee := reflect.TypeFor[struct{}]()
		switch len(c.Types) {
		case 0:
		case 1:
			if c.Types[0].Kind == spec.KindTuple {
				return nil, unsupported(casePath, c.Types[0], "a single tuple payload is indistinguishable from a multi-value case")
			}
			payload, err := r.resolve(c.Types[0], casePath)
			if err != nil {
				return nil, err
			}
			cc.Payload = payload
			cc.Types = []*transcoder.CompiledType{payload}
			pointee = payload.GoType
		default:
			payload, err := r.tuple(c.Types, casePath)
			if err != nil {
				return nil, err
			}
			cc.Payload = payload
			for _, f := range payload.Fields {
				cc.Types = append(cc.Types, f.Type)
			}
			pointee = payload.GoType
		}
		fields[i] = reflect.StructField{
			Name: names.unique(exportedName(c.Name)),
			Type: reflect.PointerTo(pointee),
			Tag:  reflect.StructTag(`contract:"` + c.Name + `"`),
		}
		ct.Cases = append(ct.Cases, cc)
	}
	ct.GoType = reflect.StructOf(fields)
	return ct, nil
}

func enumType(kind transcoder.TypeKind, name, doc string, cases []spec.EnumCase) *transcoder.CompiledType {
	ct := &transcoder.CompiledType{GoType: reflect.TypeFor[uint32](), Kind: kind, Name: name, Doc: doc}
	for _, c := range cases {
		ct.Enum = append(ct.Enum, transcoder.CompiledEnumCase{Name: c.Name, Doc: c.Doc, Value: c.Value})
	}
	return ct
}

func unsupported(path []string, t spec.Type, detail string, args ...any) *errors.Error {
	return errors.New(errors.PhaseBindgen, errors.KindUnsupportedShape).
		Path(path...).
		Shape(t.String()).
		Detail(detail, args...).
		Build()
}

// atParam attributes a shape error to a function parameter.
func atParam(err error, function, param string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Function = function
		e.Param = param
	}
	return err
}

func appendPath(path []string, elems ...string) []string {
	return append(append([]string{}, path...), elems...)
}

// exportedName turns a spec identifier into an exported Go identifier:
// "owner_id" -> "OwnerId", "0" -> "F0".
func exportedName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		switch {
		case r == '_' || r == '-':
			upper = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upper {
				r = unicode.ToUpper(r)
				upper = false
			}
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" || !unicode.IsLetter([]rune(s)[0]) {
		s = "F" + s
	}
	return s
}

// idents hands out unique Go identifiers within one scope.
type idents map[string]int

func newIdents() idents { return make(idents) }

func (ids idents) unique(name string) string {
	n := ids[name]
	ids[name] = n + 1
	if n == 0 {
		return name
	}
	return name + strconv.Itoa(n+1)
}
