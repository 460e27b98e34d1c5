// Package argtable normalizes argument-shape attributes into lookups keyed by
// parameter name.
//
// Attributes come from two places: the declaration-level #[args(...)] list
// and #[arg(...)] annotations on individual parameters. Both are merged into
// one Table; naming a parameter twice is an attribute conflict and naming a
// parameter that is not part of the dynamic calling convention (missing,
// the receiver, or a context handle) is an unknown parameter.
package argtable

import (
	"fmt"

	"github.com/wippyai/callspec"
	"github.com/wippyai/callspec/attrs"
	"github.com/wippyai/callspec/decl"
	"github.com/wippyai/callspec/diag"
	"github.com/wippyai/callspec/errors"
)

// Table maps parameter names to their argument attribute.
type Table struct {
	entries map[string]attrs.Argument
}

// Build merges declaration-level arguments with per-parameter annotations.
// params must hold only the user-facing parameters, in declaration order.
func Build(args []attrs.Argument, params []*decl.Param) (*Table, diag.List) {
	t := &Table{entries: make(map[string]attrs.Argument)}
	var diags diag.List

	known := make(map[string]bool, len(params))
	for _, p := range params {
		known[p.Name] = true
	}

	for _, p := range params {
		arg, d := attrs.ParamArgs(p)
		diags.Merge(d)
		if arg != nil {
			t.entries[p.Name] = *arg
		}
	}

	for _, a := range args {
		if !known[a.Name] {
			diags.Add(errors.UnknownParameter(a.Pos, a.Name))
			continue
		}
		if prev, ok := t.entries[a.Name]; ok {
			diags.Add(errors.AttributeConflict(errors.PhaseArguments, a.Pos,
				fmt.Sprintf("argument %q already has an attribute (%s)", a.Name, prev)))
			continue
		}
		t.entries[a.Name] = a
	}

	diags.Merge(t.singleVariadic(params, callspec.RoleVarArgs, "variadic positional"))
	diags.Merge(t.singleVariadic(params, callspec.RoleVarKwargs, "variadic keyword"))

	return t, diags
}

func (t *Table) singleVariadic(params []*decl.Param, role callspec.Role, what string) diag.List {
	var (
		diags diag.List
		first string
	)
	for _, p := range params {
		a, ok := t.entries[p.Name]
		if !ok || a.Role != role {
			continue
		}
		if first == "" {
			first = p.Name
			continue
		}
		diags.Add(errors.StructuralConflict(errors.PhaseArguments, a.Pos,
			fmt.Sprintf("only one %s parameter is allowed (%q and %q)", what, first, p.Name)))
	}
	return diags
}

// Lookup returns the attribute for name.
func (t *Table) Lookup(name string) (attrs.Argument, bool) {
	a, ok := t.entries[name]
	return a, ok
}

// Len returns the number of parameters carrying an attribute.
func (t *Table) Len() int {
	return len(t.entries)
}

// Role returns the calling-convention role of name; unattributed parameters
// are positional.
func (t *Table) Role(name string) callspec.Role {
	if a, ok := t.entries[name]; ok {
		return a.Role
	}
	return callspec.RolePositional
}

// IsVarArgs reports whether name collects extra positional arguments.
func (t *Table) IsVarArgs(name string) bool {
	return t.Role(name) == callspec.RoleVarArgs
}

// IsVarKwargs reports whether name collects extra keyword arguments.
func (t *Table) IsVarKwargs(name string) bool {
	return t.Role(name) == callspec.RoleVarKwargs
}

// IsKeywordOnly reports whether name can only be passed by keyword.
func (t *Table) IsKeywordOnly(name string) bool {
	return t.Role(name) == callspec.RoleKeywordOnly
}

// Default returns the unparsed default expression for name.
func (t *Table) Default(name string) (string, bool) {
	a, ok := t.entries[name]
	if !ok || !a.HasDefault {
		return "", false
	}
	return a.Default, true
}
