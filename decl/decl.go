package decl

import (
	"fmt"
	"strings"
)

// Pos is a source location. Line and Column are 1-based; the zero Pos is
// "unknown".
type Pos struct {
	File   string
	Line   int
	Column int
}

// IsValid reports whether the position carries a line.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		if p.File != "" {
			return p.File
		}
		return "-"
	}
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Before orders positions by file, then line, then column.
func (p Pos) Before(o Pos) bool {
	if p.File != o.File {
		return p.File < o.File
	}
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

// ItemKind distinguishes function items from associated constants.
type ItemKind int

const (
	ItemFn ItemKind = iota
	ItemConst
)

func (k ItemKind) String() string {
	if k == ItemConst {
		return "const"
	}
	return "fn"
}

// Declaration is one annotated native function, method or associated const.
type Declaration struct {
	Return      *TypeRef
	Name        string // as written; may carry a raw-identifier prefix ("r#type")
	Owner       string // enclosing type, empty for free functions
	Annotations []Annotation
	Generics    []GenericParam
	Params      []Param
	Pos         Pos
	Item        ItemKind
	Async       bool
}

// ID returns "Owner::Name", or Name when there is no owner.
func (d *Declaration) ID() string {
	if d.Owner == "" {
		return d.Name
	}
	return d.Owner + "::" + d.Name
}

// GenericParam is a declared generic parameter.
type GenericParam struct {
	Name     string
	Pos      Pos
	Lifetime bool
	Const    bool
}

// PatternKind describes how a parameter binds its value.
type PatternKind int

const (
	PatternIdent PatternKind = iota // plain identifier, optionally `mut`
	PatternOther                    // tuple, struct or wildcard destructuring
)

// Param is one entry of a declaration's parameter list. The `self` receiver
// appears as a Param with Self set and no Type.
type Param struct {
	Type        *TypeRef
	Name        string
	Annotations []Annotation
	Pos         Pos
	Pattern     PatternKind
	Self        bool
	Ref         bool // &self / &mut self
	Mutable     bool
}

// IsSelf reports whether the parameter is a `self` receiver in any form.
func (p *Param) IsSelf() bool {
	return p.Self
}

// Annotation is one attribute attached to a declaration or parameter:
//
//	#[getter]              Name "getter"
//	#[getter(x)]           Name "getter", HasList, Values [x]
//	#[text_signature = ""] Name "text_signature", Eq "..."
type Annotation struct {
	Eq      *Value
	Name    string
	Values  []Value
	Pos     Pos
	HasList bool
	Inner   bool // #![...]
}

// IsBare reports whether the annotation is a standalone tag.
func (a *Annotation) IsBare() bool {
	return !a.HasList && a.Eq == nil
}

func (a *Annotation) String() string {
	var b strings.Builder
	b.WriteString("#")
	if a.Inner {
		b.WriteString("!")
	}
	b.WriteString("[")
	b.WriteString(a.Name)
	if a.HasList {
		b.WriteString("(")
		for i := range a.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Values[i].String())
		}
		b.WriteString(")")
	}
	if a.Eq != nil {
		b.WriteString(" = ")
		b.WriteString(a.Eq.String())
	}
	b.WriteString("]")
	return b.String()
}

// ValueKind classifies annotation values.
type ValueKind int

const (
	ValuePath    ValueKind = iota // ident or a::b
	ValueString                   // "text"; Text holds the unquoted contents
	ValueLiteral                  // any other literal; Text holds the source text
	ValueAssign                   // name = value
)

func (k ValueKind) String() string {
	switch k {
	case ValuePath:
		return "path"
	case ValueString:
		return "string"
	case ValueLiteral:
		return "literal"
	case ValueAssign:
		return "assignment"
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// Value is one nested value of an annotation.
type Value struct {
	Assigned *Value // right-hand side for ValueAssign
	Path     string // ValuePath, or the left-hand side of ValueAssign
	Text     string
	Pos      Pos
	Kind     ValueKind
}

// Ident reports whether the value is a single-segment path.
func (v *Value) Ident() bool {
	return v.Kind == ValuePath && v.Path != "" && !strings.Contains(v.Path, "::")
}

func (v *Value) String() string {
	switch v.Kind {
	case ValuePath:
		return v.Path
	case ValueString:
		return fmt.Sprintf("%q", v.Text)
	case ValueAssign:
		if v.Assigned == nil {
			return v.Path + " = ?"
		}
		return v.Path + " = " + v.Assigned.String()
	default:
		return v.Text
	}
}

// PathValue builds a path value.
func PathValue(path string, pos Pos) Value {
	return Value{Kind: ValuePath, Path: path, Pos: pos}
}

// StringValue builds a string literal value.
func StringValue(text string, pos Pos) Value {
	return Value{Kind: ValueString, Text: text, Pos: pos}
}

// AssignValue builds `name = rhs`.
func AssignValue(name string, rhs Value, pos Pos) Value {
	return Value{Kind: ValueAssign, Path: name, Assigned: &rhs, Pos: pos}
}
