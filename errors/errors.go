package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile  Phase = "compile"  // declaration extraction and type compilation
	PhaseEncode   Phase = "encode"   // Go to Val
	PhaseDecode   Phase = "decode"   // Val to Go
	PhaseInvoke   Phase = "invoke"   // marshaling wrapper calls
	PhaseSpec     Phase = "spec"     // interface spec encoding/decoding
	PhaseArtifact Phase = "artifact" // wasm custom sections
	PhaseBindgen  Phase = "bindgen"  // client binding generation
	PhaseSnapshot Phase = "snapshot" // storage snapshot persistence
	PhaseHost     Phase = "host"     // host collaborator operations
	PhaseConfig   Phase = "config"   // manifest loading
)

// Kind categorizes the error
type Kind string

const (
	KindRange              Kind = "range"
	KindTypeMismatch       Kind = "type_mismatch"
	KindHostAllocation     Kind = "host_allocation"
	KindArgumentDecode     Kind = "argument_decode"
	KindDuplicateTypeName  Kind = "duplicate_type_name"
	KindUnsupportedShape   Kind = "unsupported_shape"
	KindInvalidDeclaration Kind = "invalid_declaration"
	KindSpecCorrupt        Kind = "spec_corrupt"
	KindSnapshotCorrupt    Kind = "snapshot_corrupt"
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
	KindNilPointer         Kind = "nil_pointer"
	KindIO                 Kind = "io"
	KindContract           Kind = "contract"
)

// Sentinels for errors.Is checks that only care about the kind.
var (
	ErrRange              = &Error{Kind: KindRange}
	ErrTypeMismatch       = &Error{Kind: KindTypeMismatch}
	ErrHostAllocation     = &Error{Kind: KindHostAllocation}
	ErrArgumentDecode     = &Error{Kind: KindArgumentDecode}
	ErrDuplicateTypeName  = &Error{Kind: KindDuplicateTypeName}
	ErrUnsupportedShape   = &Error{Kind: KindUnsupportedShape}
	ErrInvalidDeclaration = &Error{Kind: KindInvalidDeclaration}
	ErrSpecCorrupt        = &Error{Kind: KindSpecCorrupt}
	ErrSnapshotCorrupt    = &Error{Kind: KindSnapshotCorrupt}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrNilPointer         = &Error{Kind: KindNilPointer}
	ErrIO                 = &Error{Kind: KindIO}
	ErrContract           = &Error{Kind: KindContract}
)

// NoIndex marks an error that carries no argument index.
const NoIndex = -1

// Error is the structured error type used throughout the SDK
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	Shape    string
	Detail   string
	Function string
	Param    string
	Path     []string
	Index    int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Function != "" {
		b.WriteString(" in ")
		b.WriteString(e.Function)
		if e.Param != "" {
			b.WriteByte('(')
			b.WriteString(e.Param)
			b.WriteByte(')')
		}
	}

	if e.Index > 0 || (e.Index == 0 && e.Kind == KindArgumentDecode) {
		b.WriteString(" arg ")
		b.WriteString(strconv.Itoa(e.Index))
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.Shape != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Shape != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", shape ")
			b.WriteString(e.Shape)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("shape ")
			b.WriteString(e.Shape)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Shape != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// An empty Phase on the target matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
			Index: NoIndex,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Shape sets the type-shape name
func (b *Builder) Shape(s string) *Builder {
	b.err.Shape = s
	return b
}

// Function sets the contract function name
func (b *Builder) Function(name string) *Builder {
	b.err.Function = name
	return b
}

// Param sets the parameter name
func (b *Builder) Param(name string) *Builder {
	b.err.Param = name
	return b
}

// Index sets the positional argument index
func (b *Builder) Index(i int) *Builder {
	b.err.Index = i
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// Convenience constructors for common error patterns

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, shape string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Shape:  shape,
		Index:  NoIndex,
	}
}

// Range creates a range error for a value that does not fit its target width
func Range(phase Phase, path []string, value any, target string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRange,
		Path:   path,
		Shape:  target,
		Detail: fmt.Sprintf("value %v out of range for %s", value, target),
		Value:  value,
		Index:  NoIndex,
	}
}

// HostAllocationFailed wraps a rejected allocation request
func HostAllocationFailed(phase Phase, what string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindHostAllocation,
		Detail: fmt.Sprintf("host rejected %s allocation", what),
		Cause:  cause,
		Index:  NoIndex,
	}
}

// ArgumentDecode creates an argument decode error for the given position
func ArgumentDecode(function string, index int, cause error) *Error {
	return &Error{
		Phase:    PhaseInvoke,
		Kind:     KindArgumentDecode,
		Function: function,
		Index:    index,
		Cause:    cause,
	}
}

// Arity creates an argument decode error for a wrong argument count
func Arity(function string, want, got int) *Error {
	idx := got
	if got > want {
		idx = want
	}
	return &Error{
		Phase:    PhaseInvoke,
		Kind:     KindArgumentDecode,
		Function: function,
		Index:    idx,
		Detail:   fmt.Sprintf("expected %d arguments, got %d", want, got),
	}
}

// DuplicateTypeName reports two distinct declared types sharing a public name
func DuplicateTypeName(name, first, second string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindDuplicateTypeName,
		Detail: fmt.Sprintf("type name %q declared by both %s and %s", name, first, second),
		Index:  NoIndex,
	}
}

// UnsupportedShape reports a type that cannot be represented
func UnsupportedShape(phase Phase, path []string, goType, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupportedShape,
		Path:   path,
		GoType: goType,
		Detail: detail,
		Index:  NoIndex,
	}
}

// InvalidDeclaration reports a malformed contract declaration
func InvalidDeclaration(path []string, detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInvalidDeclaration,
		Path:   path,
		Detail: fmt.Sprintf(detail, args...),
		Index:  NoIndex,
	}
}

// SpecCorrupt reports malformed interface spec bytes
func SpecCorrupt(offset int, detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseSpec,
		Kind:   KindSpecCorrupt,
		Detail: fmt.Sprintf("at byte %d: %s", offset, fmt.Sprintf(detail, args...)),
		Value:  offset,
		Index:  NoIndex,
	}
}

// SnapshotCorrupt reports malformed snapshot bytes
func SnapshotCorrupt(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseSnapshot,
		Kind:   KindSnapshotCorrupt,
		Detail: detail,
		Cause:  cause,
		Index:  NoIndex,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, goType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
		Index:  NoIndex,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Index:  NoIndex,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
		Index:  NoIndex,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
		Index:  NoIndex,
	}
}

// IO wraps a filesystem or stream failure
func IO(phase Phase, op, path string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIO,
		Detail: fmt.Sprintf("%s %s", op, path),
		Cause:  cause,
		Index:  NoIndex,
	}
}

// WithPath returns a copy of err with prefix prepended to its path.
// Non-SDK errors are returned unchanged.
func WithPath(err error, prefix ...string) error {
	e, ok := err.(*Error)
	if !ok || len(prefix) == 0 {
		return err
	}
	cp := *e
	cp.Path = append(append([]string{}, prefix...), e.Path...)
	return &cp
}
