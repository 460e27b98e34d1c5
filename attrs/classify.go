// Package attrs partitions a declaration's annotations into the binding kind,
// the external name override, argument-shape attributes and everything else.
//
// Classification never stops at the first problem: every malformed or
// conflicting annotation produces its own diagnostic and the classifier keeps
// going, so the assembler can report all of them at once.
package attrs

import (
	"fmt"
	"strings"

	"github.com/wippyai/callspec"
	"github.com/wippyai/callspec/decl"
	"github.com/wippyai/callspec/diag"
	"github.com/wippyai/callspec/errors"
)

// NameOverride is an explicitly chosen external name.
type NameOverride struct {
	Name   string
	Pos    decl.Pos
	Legacy bool // #[name = "..."] rather than #[pyo3(name = "...")]
}

// TextSignature is a request for generated signature text. Auto is set for
// a bare #[text_signature]; otherwise Text holds the literal.
type TextSignature struct {
	Text string
	Pos  decl.Pos
	Auto bool
}

// Classification is the partitioned annotation list of one declaration.
type Classification struct {
	Name          *NameOverride
	TextSignature *TextSignature
	Args          []Argument
	Deprecations  []string
	Passthrough   []decl.Annotation
	KindPos       decl.Pos
	Kind          callspec.BindingKind
	Tagged        bool // a binding-kind tag was present
}

// Docs returns the documentation lines carried by passthrough doc
// annotations, in order.
func (c *Classification) Docs() []string {
	var lines []string
	for i := range c.Passthrough {
		a := &c.Passthrough[i]
		if a.Name == "doc" && a.Eq != nil && a.Eq.Kind == decl.ValueString {
			lines = append(lines, a.Eq.Text)
		}
	}
	return lines
}

// Deprecation notices.
const (
	DeprecatedNameAttribute = "#[name = \"...\"] is deprecated; use #[pyo3(name = \"...\")] instead"
)

var tagKinds = map[string]callspec.BindingKind{
	"new":          callspec.Constructor,
	"__new__":      callspec.Constructor,
	"call":         callspec.CallOperator,
	"__call__":     callspec.CallOperator,
	"classmethod":  callspec.ClassMethod,
	"staticmethod": callspec.StaticMethod,
	"classattr":    callspec.ClassAttribute,
	"getter":       callspec.Getter,
	"setter":       callspec.Setter,
}

// IsBindingTag reports whether name spells a binding-kind annotation.
func IsBindingTag(name string) bool {
	_, ok := tagKinds[name]
	return ok
}

type classifier struct {
	out   *Classification
	diags diag.List
}

// Classify partitions the annotation list of a declaration.
func Classify(anns []decl.Annotation) (*Classification, diag.List) {
	c := &classifier{out: &Classification{Kind: callspec.Plain}}

	for i := range anns {
		a := anns[i]
		switch {
		case a.Name == "init" || a.Name == "__init__":
			c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, a.Pos,
				"#[init] is disabled; use #[new] to define a constructor"))
		case IsBindingTag(a.Name):
			c.bindingTag(&a)
		case a.Name == "args" && a.HasList:
			args, d := parseArgs(a.Values)
			c.out.Args = append(c.out.Args, args...)
			c.diags.Merge(d)
		case a.Name == "pyo3" && a.HasList:
			c.options(&a)
		case a.Name == "name" && a.Eq != nil:
			c.setName(a.Eq, true)
		case a.Name == "text_signature":
			c.textSignature(&a, a.Eq)
		case a.Name == "args":
			c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, a.Pos,
				"expected #[args(...)]"))
		case a.Name == "pyo3":
			c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, a.Pos,
				"expected #[pyo3(...)]"))
		case a.Name == "name":
			c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, a.Pos,
				"expected #[name = \"...\"]"))
		default:
			c.out.Passthrough = append(c.out.Passthrough, a)
		}
	}

	if c.out.Name != nil {
		if rules := c.out.Kind.Rules(); rules.ForbidsNameOverride {
			c.diags.Add(errors.StructuralConflict(errors.PhaseClassify, c.out.Name.Pos,
				fmt.Sprintf("`name` not allowed with `%s`", rules.Tag)))
		}
	}

	return c.out, c.diags
}

func (c *classifier) setKind(kind callspec.BindingKind, pos decl.Pos) {
	if c.out.Tagged {
		c.diags.Add(errors.New(errors.PhaseClassify, errors.KindStructuralConflict).
			At(pos).
			Detail("cannot specify a second method type (already %s, got %s)", c.out.Kind, kind).
			Build())
		return
	}
	c.out.Kind = kind
	c.out.KindPos = pos
	c.out.Tagged = true
}

func (c *classifier) bindingTag(a *decl.Annotation) {
	kind := tagKinds[a.Name]

	if kind.IsProperty() && a.Inner {
		c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, a.Pos,
			"inner attribute is not supported for setter and getter"))
	}

	switch {
	case a.Eq != nil:
		c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, a.Pos,
			fmt.Sprintf("#[%s] does not take a value; use #[%s(name)]", a.Name, a.Name)))
		c.setKind(kind, a.Pos)

	case a.HasList && kind.IsProperty():
		c.setKind(kind, a.Pos)
		if len(a.Values) != 1 {
			c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, a.Pos,
				"setter/getter requires one value"))
			return
		}
		c.propertyName(&a.Values[0])

	case a.HasList:
		c.diags.Add(errors.IllegalPlacement(errors.PhaseClassify, a.Pos,
			fmt.Sprintf("#[%s] does not accept arguments", a.Name)))
		c.setKind(kind, a.Pos)

	default:
		c.setKind(kind, a.Pos)
	}
}

func (c *classifier) propertyName(v *decl.Value) {
	switch v.Kind {
	case decl.ValuePath:
		if !v.Ident() {
			c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, v.Pos,
				"expected ident or string literal for property name"))
			return
		}
		c.setName(v, false)
	case decl.ValueString:
		c.setName(v, false)
	case decl.ValueLiteral:
		c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, v.Pos,
			"setter/getter attribute requires str value"))
	default:
		c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, v.Pos,
			"expected ident or string literal for property name"))
	}
}

// setName records a name override from an ident or string value. legacy marks
// the deprecated #[name = "..."] spelling.
func (c *classifier) setName(v *decl.Value, legacy bool) {
	var name string
	switch v.Kind {
	case decl.ValuePath:
		name = v.Path
	case decl.ValueString:
		name = v.Text
	default:
		c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, v.Pos,
			"expected string literal for name"))
		return
	}

	if c.out.Name != nil {
		c.diags.Add(errors.StructuralConflict(errors.PhaseClassify, v.Pos,
			"`name` may only be specified once"))
		return
	}

	if err := validateName(name); err != "" {
		c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, v.Pos, err))
		return
	}

	c.out.Name = &NameOverride{Name: name, Pos: v.Pos, Legacy: legacy}
	if legacy {
		c.out.Deprecations = append(c.out.Deprecations, DeprecatedNameAttribute)
	}
}

func validateName(name string) string {
	switch {
	case strings.TrimSpace(name) == "":
		return "name must not be empty"
	case strings.ContainsRune(name, 0):
		return "name must not contain a NUL character"
	}
	return ""
}

// options handles #[pyo3(name = "...", text_signature = "...")].
func (c *classifier) options(a *decl.Annotation) {
	for i := range a.Values {
		v := &a.Values[i]
		switch {
		case v.Kind == decl.ValueAssign && v.Path == "name" && v.Assigned != nil:
			c.setName(v.Assigned, false)
		case v.Kind == decl.ValueAssign && v.Path == "text_signature":
			c.textSignature(a, v.Assigned)
		case v.Kind == decl.ValuePath && v.Path == "text_signature":
			c.textSignature(a, nil)
		default:
			c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, v.Pos,
				fmt.Sprintf("unknown pyo3 option `%s`", v.String())))
		}
	}
}

// textSignature records a signature request; eq is nil for the bare form.
func (c *classifier) textSignature(a *decl.Annotation, eq *decl.Value) {
	if a.HasList && a.Name == "text_signature" {
		c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, a.Pos,
			"expected #[text_signature = \"(...)\"]"))
		return
	}
	pos := a.Pos
	if eq != nil {
		pos = eq.Pos
	}
	if c.out.TextSignature != nil {
		c.diags.Add(errors.AttributeConflict(errors.PhaseClassify, pos,
			"text_signature may only be specified once"))
		return
	}

	if eq == nil {
		c.out.TextSignature = &TextSignature{Auto: true, Pos: pos}
		return
	}
	if eq.Kind != decl.ValueString {
		c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, eq.Pos,
			"text_signature requires a string literal"))
		return
	}
	text := strings.TrimSpace(eq.Text)
	if !strings.HasPrefix(text, "(") || !strings.HasSuffix(text, ")") {
		c.diags.Add(errors.InvalidAttribute(errors.PhaseClassify, eq.Pos,
			"text_signature must be a parenthesised parameter list, e.g. \"(a, b=1)\""))
		return
	}
	c.out.TextSignature = &TextSignature{Text: text, Pos: pos}
}
