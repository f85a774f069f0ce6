package spec

import (
	"strconv"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/internal/binary"
)

// Encode serializes entries in order. Each entry is written as its tag
// byte, the uleb128 payload length, then the payload.
func Encode(entries []Entry) ([]byte, error) {
	w := binary.NewWriter()
	for i, e := range entries {
		if err := writeEntry(w, e); err != nil {
			return nil, errors.WithPath(err, e.EntryKind().String()+"["+strconv.Itoa(i)+"]")
		}
	}
	return w.Bytes(), nil
}

// EncodeEntry serializes a single entry with its framing.
func EncodeEntry(e Entry) ([]byte, error) {
	w := binary.NewWriter()
	if err := writeEntry(w, e); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func writeEntry(w *binary.Writer, e Entry) error {
	p := binary.NewWriter()
	switch x := e.(type) {
	case *FunctionSpec:
		p.WriteName(x.Doc)
		p.WriteName(x.Name)
		p.WriteU32(uint32(len(x.Inputs)))
		for _, in := range x.Inputs {
			if err := writeParam(p, in); err != nil {
				return err
			}
		}
		p.WriteU32(uint32(len(x.Outputs)))
		for _, out := range x.Outputs {
			if err := writeType(p, out); err != nil {
				return err
			}
		}
	case *StructSpec:
		if x.Layout > LayoutMap {
			return errors.New(errors.PhaseSpec, errors.KindInvalidInput).
				Path(x.Name).Detail("unknown struct layout %d", x.Layout).Build()
		}
		writeHeader(p, x.Doc, x.Lib, x.Name)
		p.Byte(byte(x.Layout))
		p.WriteU32(uint32(len(x.Fields)))
		for _, f := range x.Fields {
			p.WriteName(f.Doc)
			p.WriteName(f.Name)
			if err := writeType(p, f.Type); err != nil {
				return errors.WithPath(err, x.Name, f.Name)
			}
		}
	case *UnionSpec:
		writeHeader(p, x.Doc, x.Lib, x.Name)
		p.WriteU32(uint32(len(x.Cases)))
		for _, c := range x.Cases {
			p.WriteName(c.Doc)
			p.WriteName(c.Name)
			p.WriteU32(uint32(len(c.Types)))
			for _, t := range c.Types {
				if err := writeType(p, t); err != nil {
					return errors.WithPath(err, x.Name, c.Name)
				}
			}
		}
	case *EnumSpec:
		writeHeader(p, x.Doc, x.Lib, x.Name)
		writeEnumCases(p, x.Cases)
	case *ErrorEnumSpec:
		writeHeader(p, x.Doc, x.Lib, x.Name)
		writeEnumCases(p, x.Cases)
	case *EventSpec:
		writeHeader(p, x.Doc, x.Lib, x.Name)
		p.WriteU32(uint32(len(x.PrefixTopics)))
		for _, s := range x.PrefixTopics {
			p.WriteName(s)
		}
		p.WriteU32(uint32(len(x.Topics)))
		for _, t := range x.Topics {
			if err := writeParam(p, t); err != nil {
				return err
			}
		}
		if err := writeType(p, x.Data); err != nil {
			return errors.WithPath(err, x.Name, "data")
		}
	default:
		return errors.New(errors.PhaseSpec, errors.KindInvalidInput).
			Detail("unknown entry type %T", e).Build()
	}

	w.Byte(byte(e.EntryKind()))
	w.WriteSized(p.Bytes())
	return nil
}

func writeHeader(w *binary.Writer, doc, lib, name string) {
	w.WriteName(doc)
	w.WriteName(lib)
	w.WriteName(name)
}

func writeParam(w *binary.Writer, p Param) error {
	w.WriteName(p.Doc)
	w.WriteName(p.Name)
	if err := writeType(w, p.Type); err != nil {
		return errors.WithPath(err, p.Name)
	}
	return nil
}

func writeEnumCases(w *binary.Writer, cases []EnumCase) {
	w.WriteU32(uint32(len(cases)))
	for _, c := range cases {
		w.WriteName(c.Doc)
		w.WriteName(c.Name)
		w.WriteU32(c.Value)
	}
}

func writeType(w *binary.Writer, t Type) error {
	if !t.Kind.Known() {
		return errors.New(errors.PhaseSpec, errors.KindInvalidInput).
			Detail("unknown shape kind %d", t.Kind).Build()
	}
	w.Byte(byte(t.Kind))
	switch t.Kind {
	case KindOption, KindVec:
		if t.Elem == nil {
			return missingOperand(t)
		}
		return writeType(w, *t.Elem)
	case KindArray:
		if t.Elem == nil {
			return missingOperand(t)
		}
		if err := writeType(w, *t.Elem); err != nil {
			return err
		}
		w.WriteU32(t.N)
	case KindResult:
		if t.Ok == nil || t.Err == nil {
			return missingOperand(t)
		}
		if err := writeType(w, *t.Ok); err != nil {
			return err
		}
		return writeType(w, *t.Err)
	case KindMap:
		if t.Key == nil || t.Value == nil {
			return missingOperand(t)
		}
		if err := writeType(w, *t.Key); err != nil {
			return err
		}
		return writeType(w, *t.Value)
	case KindTuple:
		w.WriteU32(uint32(len(t.Items)))
		for _, it := range t.Items {
			if err := writeType(w, it); err != nil {
				return err
			}
		}
	case KindBytesN:
		w.WriteU32(t.N)
	case KindUDT:
		w.WriteName(t.Name)
	}
	return nil
}

func missingOperand(t Type) error {
	return errors.New(errors.PhaseSpec, errors.KindInvalidInput).
		Detail("%s shape missing operand", t.Kind).Build()
}
