package spec

import (
	stderrors "errors"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/internal/binary"
)

// MaxTypeDepth bounds shape nesting accepted by Decode.
const MaxTypeDepth = 32

// Decode parses a concatenated entry stream. Entries with unknown tags are
// skipped. UDT references are resolved after the whole stream is read, so
// forward references are allowed.
func Decode(data []byte) ([]Entry, error) {
	entries, err := decodeEntries(data)
	if err != nil {
		return nil, err
	}
	if err := resolve(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DecodePartial parses the stream without resolving UDT references.
func DecodePartial(data []byte) ([]Entry, error) {
	return decodeEntries(data)
}

func decodeEntries(data []byte) ([]Entry, error) {
	r := binary.NewReader(data)
	var entries []Entry

	for !r.EOF() {
		start := r.Offset()
		tag, err := r.ReadByte()
		if err != nil {
			return nil, corrupt(err, "entry tag")
		}
		size, err := r.ReadLen()
		if err != nil {
			return nil, corrupt(err, "entry length")
		}
		payload, err := r.Sub(size)
		if err != nil {
			return nil, corrupt(err, "entry payload")
		}

		d := &decoder{r: payload}
		var e Entry
		switch EntryKind(tag) {
		case EntryFunction:
			e, err = d.function()
		case EntryStruct:
			e, err = d.structSpec()
		case EntryUnion:
			e, err = d.union()
		case EntryEnum:
			var x EnumSpec
			x.Doc, x.Lib, x.Name, x.Cases, err = d.enum()
			e = &x
		case EntryErrorEnum:
			var x ErrorEnumSpec
			x.Doc, x.Lib, x.Name, x.Cases, err = d.enum()
			e = &x
		case EntryEvent:
			e, err = d.event()
		default:
			// Unknown entry from a newer producer.
			continue
		}
		if err != nil {
			return nil, err
		}
		if !payload.EOF() {
			return nil, errors.SpecCorrupt(payload.Offset(),
				"%s entry at byte %d declares %d bytes but uses %d", EntryKind(tag), start, size, size-payload.Len())
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// corrupt converts a reader failure into SpecCorrupt.
func corrupt(err error, what string) error {
	var pe *binary.ParseError
	if stderrors.As(err, &pe) {
		return errors.New(errors.PhaseSpec, errors.KindSpecCorrupt).
			Detail("at byte %d: %s: %v", pe.Position, what, pe.Err).
			Value(pe.Position).
			Cause(err).
			Build()
	}
	if _, ok := err.(*errors.Error); ok {
		return err
	}
	return errors.Wrap(errors.PhaseSpec, errors.KindSpecCorrupt, err, what)
}

type decoder struct {
	r *binary.Reader
}

func (d *decoder) str(what string) (string, error) {
	s, err := d.r.ReadName()
	if err != nil {
		return "", corrupt(err, what)
	}
	return s, nil
}

func (d *decoder) count(what string) (int, error) {
	// Every counted item occupies at least one byte.
	n, err := d.r.ReadLen()
	if err != nil {
		return 0, corrupt(err, what)
	}
	return n, nil
}

func (d *decoder) header() (doc, lib, name string, err error) {
	if doc, err = d.str("doc"); err != nil {
		return
	}
	if lib, err = d.str("lib"); err != nil {
		return
	}
	name, err = d.str("name")
	return
}

func (d *decoder) param() (Param, error) {
	var p Param
	var err error
	if p.Doc, err = d.str("doc"); err != nil {
		return p, err
	}
	if p.Name, err = d.str("name"); err != nil {
		return p, err
	}
	p.Type, err = d.typ(0)
	return p, err
}

func (d *decoder) function() (*FunctionSpec, error) {
	f := &FunctionSpec{}
	var err error
	if f.Doc, err = d.str("doc"); err != nil {
		return nil, err
	}
	if f.Name, err = d.str("name"); err != nil {
		return nil, err
	}
	n, err := d.count("input count")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		f.Inputs = make([]Param, n)
	}
	for i := range f.Inputs {
		if f.Inputs[i], err = d.param(); err != nil {
			return nil, err
		}
	}
	n, err = d.count("output count")
	if err != nil {
		return nil, err
	}
	if n > 1 {
		return nil, errors.SpecCorrupt(d.r.Offset(), "function %s has %d outputs", f.Name, n)
	}
	if n > 0 {
		f.Outputs = make([]Type, n)
	}
	for i := range f.Outputs {
		if f.Outputs[i], err = d.typ(0); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (d *decoder) structSpec() (*StructSpec, error) {
	s := &StructSpec{}
	var err error
	if s.Doc, s.Lib, s.Name, err = d.header(); err != nil {
		return nil, err
	}
	at := d.r.Offset()
	layout, err := d.r.ReadByte()
	if err != nil {
		return nil, corrupt(err, "struct layout")
	}
	if s.Layout = StructLayout(layout); s.Layout > LayoutMap {
		return nil, errors.SpecCorrupt(at, "unknown struct layout %d", layout)
	}
	n, err := d.count("field count")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		s.Fields = make([]Field, n)
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Doc, err = d.str("doc"); err != nil {
			return nil, err
		}
		if f.Name, err = d.str("name"); err != nil {
			return nil, err
		}
		if f.Type, err = d.typ(0); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (d *decoder) union() (*UnionSpec, error) {
	u := &UnionSpec{}
	var err error
	if u.Doc, u.Lib, u.Name, err = d.header(); err != nil {
		return nil, err
	}
	n, err := d.count("case count")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		u.Cases = make([]UnionCase, n)
	}
	for i := range u.Cases {
		c := &u.Cases[i]
		if c.Doc, err = d.str("doc"); err != nil {
			return nil, err
		}
		if c.Name, err = d.str("name"); err != nil {
			return nil, err
		}
		m, err := d.count("case type count")
		if err != nil {
			return nil, err
		}
		if m > 0 {
			c.Types = make([]Type, m)
		}
		for j := range c.Types {
			if c.Types[j], err = d.typ(0); err != nil {
				return nil, err
			}
		}
	}
	return u, nil
}

func (d *decoder) enum() (doc, lib, name string, cases []EnumCase, err error) {
	if doc, lib, name, err = d.header(); err != nil {
		return
	}
	var n int
	if n, err = d.count("case count"); err != nil {
		return
	}
	if n > 0 {
		cases = make([]EnumCase, n)
	}
	for i := range cases {
		c := &cases[i]
		if c.Doc, err = d.str("doc"); err != nil {
			return
		}
		if c.Name, err = d.str("name"); err != nil {
			return
		}
		if c.Value, err = d.r.ReadU32(); err != nil {
			err = corrupt(err, "case value")
			return
		}
	}
	return
}

func (d *decoder) event() (*EventSpec, error) {
	ev := &EventSpec{}
	var err error
	if ev.Doc, ev.Lib, ev.Name, err = d.header(); err != nil {
		return nil, err
	}
	n, err := d.count("prefix topic count")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		ev.PrefixTopics = make([]string, n)
	}
	for i := range ev.PrefixTopics {
		if ev.PrefixTopics[i], err = d.str("prefix topic"); err != nil {
			return nil, err
		}
	}
	n, err = d.count("topic count")
	if err != nil {
		return nil, err
	}
	if n > 0 {
		ev.Topics = make([]Param, n)
	}
	for i := range ev.Topics {
		if ev.Topics[i], err = d.param(); err != nil {
			return nil, err
		}
	}
	if ev.Data, err = d.typ(0); err != nil {
		return nil, err
	}
	return ev, nil
}

func (d *decoder) typ(depth int) (Type, error) {
	if depth >= MaxTypeDepth {
		return Type{}, errors.SpecCorrupt(d.r.Offset(), "type nesting exceeds %d", MaxTypeDepth)
	}
	at := d.r.Offset()
	b, err := d.r.ReadByte()
	if err != nil {
		return Type{}, corrupt(err, "type kind")
	}
	k := Kind(b)
	if !k.Known() {
		return Type{}, errors.SpecCorrupt(at, "unknown type kind 0x%02x", b)
	}
	t := Type{Kind: k}
	switch k {
	case KindOption, KindVec:
		elem, err := d.typ(depth + 1)
		if err != nil {
			return Type{}, err
		}
		t.Elem = &elem
	case KindArray:
		elem, err := d.typ(depth + 1)
		if err != nil {
			return Type{}, err
		}
		t.Elem = &elem
		if t.N, err = d.r.ReadU32(); err != nil {
			return Type{}, corrupt(err, "array length")
		}
	case KindResult:
		ok, err := d.typ(depth + 1)
		if err != nil {
			return Type{}, err
		}
		e, err := d.typ(depth + 1)
		if err != nil {
			return Type{}, err
		}
		t.Ok, t.Err = &ok, &e
	case KindMap:
		key, err := d.typ(depth + 1)
		if err != nil {
			return Type{}, err
		}
		value, err := d.typ(depth + 1)
		if err != nil {
			return Type{}, err
		}
		t.Key, t.Value = &key, &value
	case KindTuple:
		n, err := d.count("tuple arity")
		if err != nil {
			return Type{}, err
		}
		if n > 0 {
			t.Items = make([]Type, n)
		}
		for i := range t.Items {
			if t.Items[i], err = d.typ(depth + 1); err != nil {
				return Type{}, err
			}
		}
	case KindBytesN:
		if t.N, err = d.r.ReadU32(); err != nil {
			return Type{}, corrupt(err, "bytesn length")
		}
	case KindUDT:
		if t.Name, err = d.str("udt name"); err != nil {
			return Type{}, err
		}
		if t.Name == "" {
			return Type{}, errors.SpecCorrupt(at, "empty UDT name")
		}
	}
	return t, nil
}

// resolve checks that every UDT reference names a type entry in the set.
func resolve(entries []Entry) error {
	if e, name := unresolved(entries); e != nil {
		return errors.New(errors.PhaseSpec, errors.KindSpecCorrupt).
			Path(e.EntryName()).
			Detail("unresolved type reference %q", name).
			Build()
	}
	return nil
}

// unresolved returns the first entry referencing an undefined type.
func unresolved(entries []Entry) (Entry, string) {
	names := make(map[string]bool)
	for _, e := range entries {
		if _, ok := e.(TypeEntry); ok {
			names[e.EntryName()] = true
		}
	}
	for _, e := range entries {
		for _, s := range shapes(e) {
			var missing string
			s.Walk(func(t Type) {
				if t.Kind == KindUDT && !names[t.Name] && missing == "" {
					missing = t.Name
				}
			})
			if missing != "" {
				return e, missing
			}
		}
	}
	return nil, ""
}
