package spec

// Set indexes a validated specification by name.
type Set struct {
	entries []Entry
	funcs   map[string]*FunctionSpec
	types   map[string]TypeEntry
	events  map[string]*EventSpec
}

// NewSet validates entries and indexes them.
func NewSet(entries []Entry) (*Set, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}
	s := &Set{
		entries: entries,
		funcs:   make(map[string]*FunctionSpec),
		types:   make(map[string]TypeEntry),
		events:  make(map[string]*EventSpec),
	}
	for _, e := range entries {
		switch x := e.(type) {
		case *FunctionSpec:
			s.funcs[x.Name] = x
		case *EventSpec:
			s.events[x.Name] = x
		case TypeEntry:
			s.types[x.EntryName()] = x
		}
	}
	return s, nil
}

// Entries returns the entries in their original order.
func (s *Set) Entries() []Entry { return s.entries }

// Function looks up a function by name.
func (s *Set) Function(name string) (*FunctionSpec, bool) {
	f, ok := s.funcs[name]
	return f, ok
}

// Type looks up a struct, union, enum or error enum by name.
func (s *Set) Type(name string) (TypeEntry, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Event looks up an event by name.
func (s *Set) Event(name string) (*EventSpec, bool) {
	e, ok := s.events[name]
	return e, ok
}

// Functions returns the functions in declaration order.
func (s *Set) Functions() []*FunctionSpec {
	var out []*FunctionSpec
	for _, e := range s.entries {
		if f, ok := e.(*FunctionSpec); ok {
			out = append(out, f)
		}
	}
	return out
}

// Types returns the type entries in declaration order.
func (s *Set) Types() []TypeEntry {
	var out []TypeEntry
	for _, e := range s.entries {
		if t, ok := e.(TypeEntry); ok {
			out = append(out, t)
		}
	}
	return out
}

// Events returns the events in declaration order.
func (s *Set) Events() []*EventSpec {
	var out []*EventSpec
	for _, e := range s.entries {
		if ev, ok := e.(*EventSpec); ok {
			out = append(out, ev)
		}
	}
	return out
}
