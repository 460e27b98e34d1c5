package errors

import (
	"fmt"
	"strings"

	"github.com/wippyai/callspec/decl"
)

// Phase indicates which stage of signature compilation raised the error
type Phase string

const (
	PhaseParse     Phase = "parse"     // source front-end
	PhaseLoad      Phase = "load"      // declaration manifests
	PhaseClassify  Phase = "classify"  // annotation partitioning
	PhaseReceiver  Phase = "receiver"  // receiver resolution
	PhaseArguments Phase = "arguments" // argument attribute table
	PhaseAssemble  Phase = "assemble"  // call spec assembly
	PhaseConfig    Phase = "config"    // CLI configuration
)

// Kind categorizes the error
type Kind string

const (
	KindStructuralConflict Kind = "structural_conflict"
	KindMissingReceiver    Kind = "missing_receiver"
	KindUnsupportedShape   Kind = "unsupported_shape"
	KindIllegalPlacement   Kind = "illegal_placement"
	KindUnknownParameter   Kind = "unknown_parameter"
	KindAmbiguousName      Kind = "ambiguous_name"
	KindAttributeConflict  Kind = "attribute_conflict"
	KindInvalidAttribute   Kind = "invalid_attribute"
	KindSyntax             Kind = "syntax"
	KindInvalidInput       Kind = "invalid_input"
)

// Error is the structured error type used throughout the compiler. Every
// diagnostic reported for a declaration is one *Error.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Pos    decl.Pos
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Pos.IsValid() {
		b.WriteString(e.Pos.String())
		b.WriteString(": ")
	}

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Message returns the human-readable rule violation without phase or
// location decoration.
func (e *Error) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return string(e.Kind)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Phase is ignored when the
// target leaves it empty, so errors.Is(err, &Error{Kind: k}) matches by kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase != "" && t.Phase != e.Phase {
			return false
		}
		return e.Kind == t.Kind
	}
	return false
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
		},
	}
}

// At sets the source position
func (b *Builder) At(pos decl.Pos) *Builder {
	b.err.Pos = pos
	return b
}

// Path sets the subject path (declaration, parameter)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
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

// Convenience constructors for the diagnostic taxonomy

// StructuralConflict creates an error for mutually exclusive annotations
func StructuralConflict(phase Phase, pos decl.Pos, detail string) *Error {
	return &Error{Phase: phase, Kind: KindStructuralConflict, Pos: pos, Detail: detail}
}

// MissingReceiver creates an error for a binding kind that needs a receiver
func MissingReceiver(pos decl.Pos, detail string) *Error {
	return &Error{Phase: PhaseReceiver, Kind: KindMissingReceiver, Pos: pos, Detail: detail}
}

// Unsupported creates an unsupported parameter shape error
func Unsupported(phase Phase, pos decl.Pos, detail string) *Error {
	return &Error{Phase: phase, Kind: KindUnsupportedShape, Pos: pos, Detail: detail}
}

// IllegalPlacement creates an error for an attribute on a kind that forbids it
func IllegalPlacement(phase Phase, pos decl.Pos, detail string) *Error {
	return &Error{Phase: phase, Kind: KindIllegalPlacement, Pos: pos, Detail: detail}
}

// UnknownParameter creates an error for an attribute naming no parameter
func UnknownParameter(pos decl.Pos, name string) *Error {
	return &Error{
		Phase:  PhaseArguments,
		Kind:   KindUnknownParameter,
		Pos:    pos,
		Path:   []string{name},
		Detail: fmt.Sprintf("argument %q not found in the parameter list", name),
	}
}

// AttributeConflict creates an error for two attributes on one parameter
func AttributeConflict(phase Phase, pos decl.Pos, detail string) *Error {
	return &Error{Phase: phase, Kind: KindAttributeConflict, Pos: pos, Detail: detail}
}

// AmbiguousName creates an error for an unresolvable external name
func AmbiguousName(pos decl.Pos, detail string) *Error {
	return &Error{Phase: PhaseAssemble, Kind: KindAmbiguousName, Pos: pos, Detail: detail}
}

// InvalidAttribute creates an error for malformed annotation syntax
func InvalidAttribute(phase Phase, pos decl.Pos, detail string) *Error {
	return &Error{Phase: phase, Kind: KindInvalidAttribute, Pos: pos, Detail: detail}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{Phase: phase, Kind: KindInvalidInput, Detail: detail}
}

// ParseFailed creates a front-end syntax error
func ParseFailed(pos decl.Pos, what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Pos:    pos,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
