package callspec

import (
	"fmt"
	"strings"

	"github.com/wippyai/callspec/decl"
)

// ReceiverKind says how the receiver object is obtained from the wrapper.
type ReceiverKind uint8

const (
	ReceiverNone       ReceiverKind = iota
	ReceiverImmutable                // &self: shared borrow of the wrapper
	ReceiverMutable                  // &mut self: exclusive borrow of the wrapper
	ReceiverConversion               // typed first parameter: fallible conversion from the wrapper
)

func (k ReceiverKind) String() string {
	switch k {
	case ReceiverNone:
		return "none"
	case ReceiverImmutable:
		return "immutable_borrow"
	case ReceiverMutable:
		return "mutable_borrow"
	case ReceiverConversion:
		return "fallible_conversion"
	}
	return fmt.Sprintf("ReceiverKind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k ReceiverKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ReceiverBinding is the resolved receiver of a declaration. Type and Pos are
// set for ReceiverConversion only.
type ReceiverBinding struct {
	Type string       `json:"type,omitempty" yaml:"type,omitempty"`
	Pos  decl.Pos     `json:"-" yaml:"-"`
	Kind ReceiverKind `json:"kind" yaml:"kind"`
}

// Role is how a user-facing parameter participates in the dynamic calling
// convention.
type Role uint8

const (
	RolePositional Role = iota
	RoleKeywordOnly
	RoleVarArgs
	RoleVarKwargs
)

func (r Role) String() string {
	switch r {
	case RolePositional:
		return "positional"
	case RoleKeywordOnly:
		return "keyword_only"
	case RoleVarArgs:
		return "var_positional"
	case RoleVarKwargs:
		return "var_keyword"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Parameter describes one native parameter after the receiver slot.
type Parameter struct {
	Name     string   `json:"name" yaml:"name"`
	Type     string   `json:"type" yaml:"type"`
	Default  string   `json:"default,omitempty" yaml:"default,omitempty"` // unparsed source text
	Pos      decl.Pos `json:"-" yaml:"-"`
	Role     Role     `json:"role" yaml:"role"`
	Optional bool     `json:"optional,omitempty" yaml:"optional,omitempty"` // Option<T>: implicit None
	Context  bool     `json:"context,omitempty" yaml:"context,omitempty"`   // receives the runtime context token
}

// HasDefault reports whether a default expression was supplied.
func (p *Parameter) HasDefault() bool {
	return p.Default != ""
}

// IsRequired reports whether a caller must supply the argument.
func (p *Parameter) IsRequired() bool {
	return p.Role == RolePositional || p.Role == RoleKeywordOnly
}

// CallSpec is the validated description of how the dynamic runtime invokes
// one declaration. It is built once by the assembler and never mutated.
type CallSpec struct {
	Receiver      ReceiverBinding `json:"receiver" yaml:"receiver"`
	Name          string          `json:"name" yaml:"name"`
	NativeName    string          `json:"native_name" yaml:"native_name"`
	Owner         string          `json:"owner,omitempty" yaml:"owner,omitempty"`
	Return        string          `json:"return" yaml:"return"`
	Doc           string          `json:"doc,omitempty" yaml:"doc,omitempty"`
	TextSignature string          `json:"text_signature,omitempty" yaml:"text_signature,omitempty"`
	Params        []Parameter     `json:"params" yaml:"params"`
	NativeArgs    []Parameter     `json:"native_args" yaml:"native_args"`
	Deprecations  []string        `json:"deprecations,omitempty" yaml:"deprecations,omitempty"`
	Pos           decl.Pos        `json:"-" yaml:"-"`
	Kind          BindingKind     `json:"kind" yaml:"kind"`
}

// ID returns "Owner.Name" using the external name.
func (s *CallSpec) ID() string {
	if s.Owner == "" {
		return s.Name
	}
	return s.Owner + "." + s.Name
}

// NulTerminatedName returns the external name as a C string literal body.
func (s *CallSpec) NulTerminatedName() string {
	return s.Name + "\x00"
}

// Signature renders the call signature, "name(sig)", or "" when none was
// requested.
func (s *CallSpec) Signature() string {
	if s.TextSignature == "" {
		return ""
	}
	return s.Name + s.TextSignature
}

// Docstring renders the runtime docstring. A text signature is placed on the
// first line followed by the "--" separator the runtime uses to split it off.
func (s *CallSpec) Docstring() string {
	if s.TextSignature == "" {
		return s.Doc
	}
	var b strings.Builder
	b.WriteString(s.Signature())
	b.WriteString("\n--\n\n")
	b.WriteString(s.Doc)
	return b.String()
}

// Param returns the user-facing parameter called name.
func (s *CallSpec) Param(name string) (*Parameter, bool) {
	for i := range s.Params {
		if s.Params[i].Name == name {
			return &s.Params[i], true
		}
	}
	return nil, false
}

// VarArgs returns the variadic positional parameter, if any.
func (s *CallSpec) VarArgs() (*Parameter, bool) {
	return s.byRole(RoleVarArgs)
}

// VarKwargs returns the variadic keyword parameter, if any.
func (s *CallSpec) VarKwargs() (*Parameter, bool) {
	return s.byRole(RoleVarKwargs)
}

func (s *CallSpec) byRole(r Role) (*Parameter, bool) {
	for i := range s.Params {
		if s.Params[i].Role == r {
			return &s.Params[i], true
		}
	}
	return nil, false
}
