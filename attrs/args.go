package attrs

import (
	"fmt"
	"strings"

	"github.com/wippyai/callspec"
	"github.com/wippyai/callspec/decl"
	"github.com/wippyai/callspec/diag"
	"github.com/wippyai/callspec/errors"
)

// Argument is one argument-shape attribute naming a parameter.
type Argument struct {
	Name       string
	Default    string // unparsed source text
	Pos        decl.Pos
	Role       callspec.Role
	HasDefault bool
	OnParam    bool // came from an annotation on the parameter itself
}

func (a Argument) String() string {
	switch a.Role {
	case callspec.RoleVarArgs:
		return "*" + a.Name
	case callspec.RoleVarKwargs:
		return "**" + a.Name
	}
	if a.HasDefault {
		return a.Name + "=" + a.Default
	}
	return a.Name
}

// Markers used inside #[args(...)].
const (
	markerKeywordOnly = "*"
	markerVarArgs     = "*"
	markerVarKwargs   = "**"
)

// parseArgs reads the items of #[args(...)]:
//
//	a            positional (keyword-only after "*")
//	a = "expr"   with default
//	"*"          following items are keyword-only
//	args = "*"   variadic positional
//	kw = "**"    variadic keyword
func parseArgs(values []decl.Value) ([]Argument, diag.List) {
	var (
		out       []Argument
		diags     diag.List
		kwOnly    bool
		hasVarArg bool
		hasKwArgs bool
	)

	for i := range values {
		v := &values[i]

		if hasKwArgs {
			diags.Add(errors.StructuralConflict(errors.PhaseClassify, v.Pos,
				"arguments are not allowed after the variadic keyword argument"))
			continue
		}

		switch v.Kind {
		case decl.ValueString:
			if v.Text != markerKeywordOnly {
				diags.Add(errors.InvalidAttribute(errors.PhaseClassify, v.Pos,
					fmt.Sprintf("unexpected string %q in #[args]; only \"*\" is allowed here", v.Text)))
				continue
			}
			if kwOnly || hasVarArg {
				diags.Add(errors.StructuralConflict(errors.PhaseClassify, v.Pos,
					"\"*\" is not allowed after \"*\" or a variadic positional argument"))
				continue
			}
			kwOnly = true

		case decl.ValuePath:
			if !v.Ident() {
				diags.Add(errors.InvalidAttribute(errors.PhaseClassify, v.Pos,
					fmt.Sprintf("expected an argument name, got `%s`", v.Path)))
				continue
			}
			out = append(out, Argument{Name: v.Path, Pos: v.Pos, Role: roleFor(kwOnly || hasVarArg)})

		case decl.ValueAssign:
			rhs := v.Assigned
			if rhs == nil {
				diags.Add(errors.InvalidAttribute(errors.PhaseClassify, v.Pos,
					fmt.Sprintf("missing value for argument %q", v.Path)))
				continue
			}
			if rhs.Kind == decl.ValueString && rhs.Text == markerVarArgs {
				if hasVarArg {
					diags.Add(errors.StructuralConflict(errors.PhaseClassify, v.Pos,
						"variadic positional argument is already defined"))
					continue
				}
				if kwOnly {
					diags.Add(errors.StructuralConflict(errors.PhaseClassify, v.Pos,
						"variadic positional argument is not allowed after \"*\""))
					continue
				}
				hasVarArg = true
				out = append(out, Argument{Name: v.Path, Pos: v.Pos, Role: callspec.RoleVarArgs})
				continue
			}
			if rhs.Kind == decl.ValueString && rhs.Text == markerVarKwargs {
				hasKwArgs = true
				out = append(out, Argument{Name: v.Path, Pos: v.Pos, Role: callspec.RoleVarKwargs})
				continue
			}
			expr := rhs.Text
			if rhs.Kind == decl.ValuePath {
				expr = rhs.Path
			}
			if strings.TrimSpace(expr) == "" {
				diags.Add(errors.InvalidAttribute(errors.PhaseClassify, rhs.Pos,
					fmt.Sprintf("empty default expression for argument %q", v.Path)))
				continue
			}
			out = append(out, Argument{
				Name:       v.Path,
				Pos:        v.Pos,
				Role:       roleFor(kwOnly || hasVarArg),
				Default:    strings.TrimSpace(expr),
				HasDefault: true,
			})

		default:
			diags.Add(errors.InvalidAttribute(errors.PhaseClassify, v.Pos,
				fmt.Sprintf("unsupported #[args] item `%s`", v.String())))
		}
	}
	return out, diags
}

func roleFor(kwOnly bool) callspec.Role {
	if kwOnly {
		return callspec.RoleKeywordOnly
	}
	return callspec.RolePositional
}

// ParamArgs reads the #[arg(...)] annotation attached to a parameter:
//
//	#[arg(default = "expr")] #[arg(kw_only)] #[arg(varargs)] #[arg(kwargs)]
//
// All flags of one parameter fold into a single Argument. It returns nil when
// the parameter carries no #[arg] annotation.
func ParamArgs(p *decl.Param) (*Argument, diag.List) {
	var (
		diags   diag.List
		arg     *Argument
		varArgs bool
		kwArgs  bool
		kwOnly  bool
		defPos  decl.Pos
	)

	for i := range p.Annotations {
		a := &p.Annotations[i]
		if a.Name != "arg" {
			continue
		}
		if !a.HasList {
			diags.Add(errors.InvalidAttribute(errors.PhaseArguments, a.Pos,
				"expected #[arg(...)]"))
			continue
		}
		if arg == nil {
			arg = &Argument{Name: p.Name, Pos: a.Pos, Role: callspec.RolePositional, OnParam: true}
		}
		for j := range a.Values {
			v := &a.Values[j]
			switch {
			case v.Kind == decl.ValuePath && v.Path == "varargs":
				varArgs = true
			case v.Kind == decl.ValuePath && v.Path == "kwargs":
				kwArgs = true
			case v.Kind == decl.ValuePath && v.Path == "kw_only":
				kwOnly = true
			case v.Kind == decl.ValueAssign && v.Path == "default" && v.Assigned != nil:
				if arg.HasDefault {
					diags.Add(errors.AttributeConflict(errors.PhaseArguments, v.Pos,
						fmt.Sprintf("default for %q given more than once", p.Name)))
					continue
				}
				expr := v.Assigned.Text
				if v.Assigned.Kind == decl.ValuePath {
					expr = v.Assigned.Path
				}
				if strings.TrimSpace(expr) == "" {
					diags.Add(errors.InvalidAttribute(errors.PhaseArguments, v.Pos,
						fmt.Sprintf("empty default expression for argument %q", p.Name)))
					continue
				}
				arg.Default = strings.TrimSpace(expr)
				arg.HasDefault = true
				defPos = v.Pos
			default:
				diags.Add(errors.InvalidAttribute(errors.PhaseArguments, v.Pos,
					fmt.Sprintf("unknown #[arg] option `%s`", v.String())))
			}
		}
	}

	if arg == nil {
		return nil, diags
	}

	switch {
	case varArgs && kwArgs:
		diags.Add(errors.AttributeConflict(errors.PhaseArguments, arg.Pos,
			fmt.Sprintf("%q cannot be both the variadic positional and the variadic keyword parameter", p.Name)))
	case (varArgs || kwArgs) && kwOnly:
		diags.Add(errors.AttributeConflict(errors.PhaseArguments, arg.Pos,
			fmt.Sprintf("variadic parameter %q cannot be keyword-only", p.Name)))
	case varArgs:
		arg.Role = callspec.RoleVarArgs
	case kwArgs:
		arg.Role = callspec.RoleVarKwargs
	case kwOnly:
		arg.Role = callspec.RoleKeywordOnly
	}

	if (varArgs || kwArgs) && arg.HasDefault {
		diags.Add(errors.IllegalPlacement(errors.PhaseArguments, defPos,
			fmt.Sprintf("default values are only allowed on positional or keyword-only parameters, not on variadic %q", p.Name)))
	}

	return arg, diags
}
