package transcoder

import (
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/spec"
	"github.com/wippyai/contract-sdk/val"
)

var (
	valType       = reflect.TypeFor[val.Val]()
	valueType     = reflect.TypeFor[val.Value]()
	u128Type      = reflect.TypeFor[val.U128]()
	i128Type      = reflect.TypeFor[val.I128]()
	u256Type      = reflect.TypeFor[val.U256]()
	i256Type      = reflect.TypeFor[val.I256]()
	bigIntType    = reflect.TypeFor[*big.Int]()
	timepointType = reflect.TypeFor[val.Timepoint]()
	durationType  = reflect.TypeFor[val.Duration]()
	symbolType    = reflect.TypeFor[val.Symbol]()
	addressType   = reflect.TypeFor[val.Address]()
	errorValType  = reflect.TypeFor[val.Error]()
)

// Compiler resolves Go types to CompiledTypes and caches the result.
// It is safe for concurrent use.
type Compiler struct {
	cache sync.Map // reflect.Type -> *CompiledType
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

var defaultCompiler = NewCompiler()

// DefaultCompiler returns the process-wide compiler used by the package
// level helpers.
func DefaultCompiler() *Compiler {
	return defaultCompiler
}

func (c *Compiler) Compile(goType reflect.Type) (*CompiledType, error) {
	if goType == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("Go type cannot be nil").
			Build()
	}

	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}

	s := &session{c: c, pending: make(map[reflect.Type]*CompiledType)}
	ct, err := s.compile(goType, nil)
	if err != nil {
		return nil, err
	}

	// Publish everything compiled in this session, including nested types.
	for t, pct := range s.pending {
		c.cache.LoadOrStore(t, pct)
	}
	actual, _ := c.cache.LoadOrStore(goType, ct)
	return actual.(*CompiledType), nil
}

// Shape returns the interface spec shape for goType.
func (c *Compiler) Shape(goType reflect.Type) (spec.Type, error) {
	ct, err := c.Compile(goType)
	if err != nil {
		return spec.Type{}, err
	}
	return ShapeOf(ct), nil
}

type session struct {
	c       *Compiler
	pending map[reflect.Type]*CompiledType
}

func (s *session) compile(t reflect.Type, path []string) (*CompiledType, error) {
	if cached, ok := s.c.cache.Load(t); ok {
		return cached.(*CompiledType), nil
	}
	if ct, ok := s.pending[t]; ok {
		return ct, nil
	}

	ct := &CompiledType{GoType: t}
	// Register before descending so recursive references resolve to ct.
	s.pending[t] = ct
	if err := s.fill(ct, t, path); err != nil {
		delete(s.pending, t)
		return nil, err
	}
	return ct, nil
}

func (s *session) fill(ct *CompiledType, t reflect.Type, path []string) error {
	switch t {
	case valType:
		ct.Kind = KindVal
		return nil
	case valueType:
		ct.Kind = KindValue
		return nil
	case u128Type:
		ct.Kind = KindU128
		return nil
	case i128Type:
		ct.Kind = KindI128
		return nil
	case u256Type:
		ct.Kind = KindU256
		return nil
	case i256Type:
		ct.Kind = KindI256
		return nil
	case bigIntType:
		ct.Kind = KindBigInt
		return nil
	case timepointType:
		ct.Kind = KindTimepoint
		return nil
	case durationType:
		ct.Kind = KindDuration
		return nil
	case symbolType:
		ct.Kind = KindSymbol
		return nil
	case addressType:
		ct.Kind = KindAddress
		return nil
	case errorValType:
		ct.Kind = KindError
		return nil
	}

	if t.Implements(errorEnumType) {
		return s.fillEnum(ct, t, KindErrorEnum, zeroAs[ErrorEnum](t).ContractErrors(), path)
	}
	if t.Implements(enumType) {
		return s.fillEnum(ct, t, KindEnum, zeroAs[Enum](t).ContractEnum(), path)
	}

	switch t.Kind() {
	case reflect.Bool:
		ct.Kind = KindBool
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		ct.Kind = KindU32
	case reflect.Int8, reflect.Int16, reflect.Int32:
		ct.Kind = KindI32
	case reflect.Uint64, reflect.Uint:
		ct.Kind = KindU64
	case reflect.Int64, reflect.Int:
		ct.Kind = KindI64
	case reflect.String:
		ct.Kind = KindString
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && !t.Elem().Implements(enumType) {
			ct.Kind = KindBytes
			return nil
		}
		elem, err := s.compile(t.Elem(), appendPath(path, "[elem]"))
		if err != nil {
			return err
		}
		ct.Kind = KindVec
		ct.ElemType = elem
	case reflect.Array:
		ct.Len = t.Len()
		if t.Elem().Kind() == reflect.Uint8 && !t.Elem().Implements(enumType) {
			ct.Kind = KindBytesN
			return nil
		}
		elem, err := s.compile(t.Elem(), appendPath(path, "[elem]"))
		if err != nil {
			return err
		}
		ct.Kind = KindArray
		ct.ElemType = elem
	case reflect.Map:
		key, err := s.compile(t.Key(), appendPath(path, "[key]"))
		if err != nil {
			return err
		}
		value, err := s.compile(t.Elem(), appendPath(path, "[value]"))
		if err != nil {
			return err
		}
		ct.Kind = KindMap
		ct.KeyType = key
		ct.ValueType = value
	case reflect.Pointer:
		elem, err := s.compile(t.Elem(), appendPath(path, "[some]"))
		if err != nil {
			return err
		}
		ct.Kind = KindOption
		ct.ElemType = elem
	case reflect.Struct:
		return s.fillStruct(ct, t, path)
	default:
		return errors.UnsupportedShape(errors.PhaseCompile, path, t.String(),
			t.Kind().String()+" has no contract value representation")
	}
	return nil
}

func (s *session) fillEnum(ct *CompiledType, t reflect.Type, kind TypeKind, cases []spec.EnumCase, path []string) error {
	switch t.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint64, reflect.Int64, reflect.Uint, reflect.Int:
	default:
		return errors.New(errors.PhaseCompile, errors.KindInvalidDeclaration).
			Path(path...).GoType(t.String()).
			Detail("%s must have an integer underlying type", kind).
			Build()
	}
	if len(cases) == 0 {
		return errors.InvalidDeclaration(path, "%s %s declares no cases", kind, t)
	}
	ct.Kind = kind
	ct.Name = typeName(t)
	ct.Doc = typeDoc(t)
	ct.Enum = make([]CompiledEnumCase, len(cases))
	for i, c := range cases {
		ct.Enum[i] = CompiledEnumCase{Name: c.Name, Doc: c.Doc, Value: c.Value}
	}
	return nil
}

func (s *session) fillStruct(ct *CompiledType, t reflect.Type, path []string) error {
	switch {
	case t.Implements(unionType):
		return s.fillUnion(ct, t, path)
	case t.NumField() == 0 && t.Name() == "":
		ct.Kind = KindVoid
		return nil
	case t.Name() == "":
		return errors.UnsupportedShape(errors.PhaseCompile, path, t.String(),
			"anonymous structs have no public name")
	}

	fields, err := s.fields(t, path)
	if err != nil {
		return err
	}
	ct.Fields = fields

	if t.Implements(tupleType) {
		ct.Kind = KindTuple
		return nil
	}

	ct.Kind = KindStruct
	ct.Name = typeName(t)
	ct.Doc = typeDoc(t)
	if t.Implements(structLayoutType) {
		ct.Layout = zeroAs[StructLayout](t).ContractLayout()
	}
	return nil
}

func (s *session) fields(t reflect.Type, path []string) ([]CompiledField, error) {
	var fields []CompiledField
	seen := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, skip := fieldName(f)
		if skip {
			continue
		}
		if seen[name] {
			return nil, errors.InvalidDeclaration(appendPath(path, name),
				"field name %q used twice in %s", name, t)
		}
		seen[name] = true

		ft, err := s.compile(f.Type, appendPath(path, name))
		if err != nil {
			return nil, err
		}
		fields = append(fields, CompiledField{
			Name:  name,
			Doc:   f.Tag.Get("doc"),
			Index: i,
			Type:  ft,
		})
	}
	return fields, nil
}

func (s *session) fillUnion(ct *CompiledType, t reflect.Type, path []string) error {
	if t.Name() == "" {
		return errors.UnsupportedShape(errors.PhaseCompile, path, t.String(), "anonymous unions have no public name")
	}
	ct.Kind = KindUnion
	ct.Name = typeName(t)
	ct.Doc = typeDoc(t)

	seen := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag := f.Tag.Get("contract"); tag == "-" {
			continue
		} else if tag != "" {
			name = tag
		}
		casePath := appendPath(path, name)
		if f.Type.Kind() != reflect.Pointer {
			return errors.InvalidDeclaration(casePath, "union case %s.%s must be a pointer", t.Name(), f.Name)
		}
		if seen[name] {
			return errors.InvalidDeclaration(casePath, "union case %q used twice in %s", name, t)
		}
		seen[name] = true

		c := CompiledCase{Name: name, Doc: f.Tag.Get("doc"), Index: i}
		elem := f.Type.Elem()
		if !(elem.Kind() == reflect.Struct && elem.NumField() == 0 && elem.Name() == "") {
			payload, err := s.compile(elem, casePath)
			if err != nil {
				return err
			}
			c.Payload = payload
			if payload.Kind == KindTuple {
				for _, pf := range payload.Fields {
					c.Types = append(c.Types, pf.Type)
				}
			} else {
				c.Types = []*CompiledType{payload}
			}
		}
		ct.Cases = append(ct.Cases, c)
	}
	if len(ct.Cases) == 0 {
		return errors.InvalidDeclaration(path, "union %s declares no cases", t)
	}
	return nil
}

func typeName(t reflect.Type) string {
	if t.Implements(namedType) {
		if n := zeroAs[Named](t).ContractName(); n != "" {
			return n
		}
	}
	return t.Name()
}

func typeDoc(t reflect.Type) string {
	if t.Implements(documentedType) {
		return zeroAs[Documented](t).ContractDoc()
	}
	return ""
}

// fieldName uses the contract tag when present, otherwise the Go field
// name in snake_case. A tag of "-" skips the field.
func fieldName(f reflect.StructField) (string, bool) {
	if tag := f.Tag.Get("contract"); tag != "" {
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return "", true
		}
		if name != "" {
			return name, false
		}
	}
	return ToSnakeCase(f.Name), false
}

// ToSnakeCase converts a Go identifier to snake_case, keeping acronyms
// together: "OwnerID" -> "owner_id", "HTTPServer" -> "http_server".
func ToSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func appendPath(path []string, elem string) []string {
	return append(append([]string{}, path...), elem)
}

func indexName(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}

// ShapeOf returns the interface spec shape of a compiled type. Named kinds
// become UDT references.
func ShapeOf(ct *CompiledType) spec.Type {
	switch ct.Kind {
	case KindVoid:
		return spec.Void
	case KindBool:
		return spec.Bool
	case KindU32:
		return spec.U32
	case KindI32:
		return spec.I32
	case KindU64:
		return spec.U64
	case KindI64:
		return spec.I64
	case KindU128:
		return spec.U128
	case KindI128:
		return spec.I128
	case KindU256:
		return spec.U256
	case KindI256, KindBigInt:
		return spec.I256
	case KindTimepoint:
		return spec.Timepoint
	case KindDuration:
		return spec.Duration
	case KindString:
		return spec.String
	case KindSymbol:
		return spec.Symbol
	case KindBytes:
		return spec.Bytes
	case KindBytesN:
		return spec.BytesN(uint32(ct.Len))
	case KindAddress:
		return spec.Address
	case KindError:
		return spec.Error
	case KindVal, KindValue:
		return spec.Val
	case KindOption:
		return spec.Option(ShapeOf(ct.ElemType))
	case KindVec:
		return spec.Vec(ShapeOf(ct.ElemType))
	case KindArray:
		return spec.Array(ShapeOf(ct.ElemType), uint32(ct.Len))
	case KindMap:
		return spec.Map(ShapeOf(ct.KeyType), ShapeOf(ct.ValueType))
	case KindTuple:
		items := make([]spec.Type, len(ct.Fields))
		for i, f := range ct.Fields {
			items[i] = ShapeOf(f.Type)
		}
		return spec.Tuple(items...)
	case KindStruct, KindEnum, KindErrorEnum, KindUnion:
		return spec.UDT(ct.Name)
	}
	return spec.Val
}

// EntryOf returns the spec entry for a named compiled type.
func EntryOf(ct *CompiledType) (spec.TypeEntry, bool) {
	switch ct.Kind {
	case KindStruct:
		s := &spec.StructSpec{Doc: ct.Doc, Name: ct.Name, Layout: ct.Layout}
		for _, f := range ct.Fields {
			s.Fields = append(s.Fields, spec.Field{Doc: f.Doc, Name: f.Name, Type: ShapeOf(f.Type)})
		}
		return s, true
	case KindUnion:
		u := &spec.UnionSpec{Doc: ct.Doc, Name: ct.Name}
		for _, c := range ct.Cases {
			uc := spec.UnionCase{Doc: c.Doc, Name: c.Name}
			for _, t := range c.Types {
				uc.Types = append(uc.Types, ShapeOf(t))
			}
			u.Cases = append(u.Cases, uc)
		}
		return u, true
	case KindEnum:
		return &spec.EnumSpec{Doc: ct.Doc, Name: ct.Name, Cases: enumCases(ct)}, true
	case KindErrorEnum:
		return &spec.ErrorEnumSpec{Doc: ct.Doc, Name: ct.Name, Cases: enumCases(ct)}, true
	}
	return nil, false
}

func enumCases(ct *CompiledType) []spec.EnumCase {
	out := make([]spec.EnumCase, len(ct.Enum))
	for i, c := range ct.Enum {
		out[i] = spec.EnumCase{Doc: c.Doc, Name: c.Name, Value: c.Value}
	}
	return out
}
