package spec

import (
	"github.com/wippyai/contract-sdk/errors"
)

// Validate checks that entries form a self-consistent specification:
// names are present and unique per namespace, UDT references resolve,
// and Result shapes appear only as function outputs.
func Validate(entries []Entry) error {
	types := make(map[string]EntryKind)
	funcs := make(map[string]bool)
	events := make(map[string]bool)

	for _, e := range entries {
		name := e.EntryName()
		if name == "" {
			return invalid(nil, "%s entry without a name", e.EntryKind())
		}
		switch e.(type) {
		case *FunctionSpec:
			if funcs[name] {
				return invalid([]string{name}, "duplicate function")
			}
			funcs[name] = true
		case *EventSpec:
			if events[name] {
				return invalid([]string{name}, "duplicate event")
			}
			events[name] = true
		case TypeEntry:
			if _, dup := types[name]; dup {
				return errors.New(errors.PhaseSpec, errors.KindDuplicateTypeName).
					Path(name).
					Detail("type %q defined more than once", name).
					Build()
			}
			types[name] = e.EntryKind()
		}
		if err := validateMembers(e); err != nil {
			return err
		}
	}

	if e, name := unresolved(entries); e != nil {
		return invalid([]string{e.EntryName()}, "unresolved type reference %q", name)
	}
	return nil
}

func validateMembers(e Entry) error {
	path := []string{e.EntryName()}
	seen := make(map[string]bool)
	unique := func(name string) error {
		if name == "" {
			return invalid(path, "member without a name")
		}
		if seen[name] {
			return invalid(append(path, name), "duplicate member")
		}
		seen[name] = true
		return nil
	}

	switch x := e.(type) {
	case *FunctionSpec:
		for _, p := range x.Inputs {
			if err := unique(p.Name); err != nil {
				return err
			}
			if err := noResult(p.Type, append(path, p.Name)); err != nil {
				return err
			}
		}
		if len(x.Outputs) > 1 {
			return invalid(path, "at most one output, got %d", len(x.Outputs))
		}
		for _, out := range x.Outputs {
			check := out
			if out.Kind == KindResult {
				if err := noResult(*out.Ok, path); err != nil {
					return err
				}
				check = *out.Err
			}
			if err := noResult(check, path); err != nil {
				return err
			}
		}
	case *StructSpec:
		for _, f := range x.Fields {
			if err := unique(f.Name); err != nil {
				return err
			}
			if err := noResult(f.Type, append(path, f.Name)); err != nil {
				return err
			}
		}
	case *UnionSpec:
		for _, c := range x.Cases {
			if err := unique(c.Name); err != nil {
				return err
			}
			for _, t := range c.Types {
				if err := noResult(t, append(path, c.Name)); err != nil {
					return err
				}
			}
		}
	case *EnumSpec:
		return uniqueCases(path, x.Cases)
	case *ErrorEnumSpec:
		return uniqueCases(path, x.Cases)
	case *EventSpec:
		for _, p := range x.Topics {
			if err := unique(p.Name); err != nil {
				return err
			}
			if err := noResult(p.Type, append(path, p.Name)); err != nil {
				return err
			}
		}
		return noResult(x.Data, append(path, "data"))
	}
	return nil
}

func uniqueCases(path []string, cases []EnumCase) error {
	names := make(map[string]bool)
	values := make(map[uint32]bool)
	for _, c := range cases {
		if c.Name == "" || names[c.Name] {
			return invalid(append(path, c.Name), "missing or duplicate case name")
		}
		if values[c.Value] {
			return invalid(append(path, c.Name), "duplicate case value %d", c.Value)
		}
		names[c.Name] = true
		values[c.Value] = true
	}
	return nil
}

func noResult(t Type, path []string) error {
	var found bool
	t.Walk(func(s Type) {
		if s.Kind == KindResult {
			found = true
		}
	})
	if found {
		return invalid(path, "Result is only allowed as a function output")
	}
	return nil
}

func invalid(path []string, detail string, args ...any) error {
	return errors.New(errors.PhaseSpec, errors.KindInvalidInput).
		Path(path...).
		Detail(detail, args...).
		Build()
}
