package callspec

import "fmt"

// BindingKind is the dispatch role a declaration plays in the dynamic
// runtime. Exactly one is attached to every CallSpec; Plain is the default.
type BindingKind uint8

const (
	Plain BindingKind = iota
	Constructor
	CallOperator
	ClassMethod
	StaticMethod
	ClassAttribute
	Getter
	Setter
)

// AllKinds lists every binding kind in declaration order.
var AllKinds = []BindingKind{
	Plain, Constructor, CallOperator, ClassMethod,
	StaticMethod, ClassAttribute, Getter, Setter,
}

// ReceiverRule says what a binding kind expects in the first parameter slot.
type ReceiverRule uint8

const (
	ReceiverRequired  ReceiverRule = iota // self, &self, &mut self or a typed wrapper
	ReceiverForbidden                     // no self; the first parameter is an ordinary argument
	ReceiverClass                         // no self; the first parameter is the class object
)

// Rules is the per-kind rule table consulted by the resolver and assembler.
type Rules struct {
	Tag                 string // annotation spelling used in messages
	FixedName           string // forced external name, if any
	NamePrefix          string // stripped from the declaration name when deriving a property name
	SignatureError      string // diagnostic for a text signature request, when not allowed
	MissingReceiver     string // diagnostic when the receiver slot is empty
	Receiver            ReceiverRule
	ForbidsParams       bool
	ForbidsNameOverride bool
	AllowsSignature     bool
}

func signatureNotAllowed(tag string) string {
	return "text_signature not allowed with this method type (" + tag + ")"
}

var kindRules = [...]Rules{
	Plain: {
		Tag:             "",
		Receiver:        ReceiverRequired,
		MissingReceiver: "static method needs #[staticmethod] attribute",
		AllowsSignature: true,
	},
	Constructor: {
		Tag:                 "#[new]",
		FixedName:           "__new__",
		Receiver:            ReceiverForbidden,
		ForbidsNameOverride: true,
		SignatureError: "text_signature not allowed on __new__; if you want to add a signature on " +
			"__new__, put it on the struct definition instead",
	},
	CallOperator: {
		Tag:                 "#[call]",
		FixedName:           "__call__",
		Receiver:            ReceiverRequired,
		MissingReceiver:     "expected receiver for #[call]",
		ForbidsNameOverride: true,
		SignatureError:      signatureNotAllowed("#[call]"),
	},
	ClassMethod: {
		Tag:             "#[classmethod]",
		Receiver:        ReceiverClass,
		MissingReceiver: "class methods take the class object as their first parameter",
		AllowsSignature: true,
	},
	StaticMethod: {
		Tag:             "#[staticmethod]",
		Receiver:        ReceiverForbidden,
		AllowsSignature: true,
	},
	ClassAttribute: {
		Tag:            "#[classattr]",
		Receiver:       ReceiverForbidden,
		ForbidsParams:  true,
		SignatureError: signatureNotAllowed("#[classattr]"),
	},
	Getter: {
		Tag:             "#[getter]",
		NamePrefix:      "get_",
		Receiver:        ReceiverRequired,
		MissingReceiver: "expected receiver for #[getter]",
		SignatureError:  signatureNotAllowed("#[getter]"),
	},
	Setter: {
		Tag:             "#[setter]",
		NamePrefix:      "set_",
		Receiver:        ReceiverRequired,
		MissingReceiver: "expected receiver for #[setter]",
		SignatureError:  signatureNotAllowed("#[setter]"),
	},
}

// Rules returns the rule table entry for k.
func (k BindingKind) Rules() Rules {
	if int(k) < len(kindRules) {
		return kindRules[k]
	}
	return Rules{}
}

// RequiresReceiver reports whether a self receiver must be declared.
func (k BindingKind) RequiresReceiver() bool {
	return k.Rules().Receiver == ReceiverRequired
}

// IsProperty reports whether k is a property accessor.
func (k BindingKind) IsProperty() bool {
	return k == Getter || k == Setter
}

func (k BindingKind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Constructor:
		return "constructor"
	case CallOperator:
		return "call"
	case ClassMethod:
		return "classmethod"
	case StaticMethod:
		return "staticmethod"
	case ClassAttribute:
		return "classattr"
	case Getter:
		return "getter"
	case Setter:
		return "setter"
	}
	return fmt.Sprintf("BindingKind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k BindingKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BindingKind) UnmarshalText(b []byte) error {
	for _, c := range AllKinds {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown binding kind %q", string(b))
}
