package assembler

import (
	"strings"

	"github.com/wippyai/callspec"
)

// Receiver placeholders used in generated signatures.
const (
	sigSelf = "$self"
	sigCls  = "$cls"
)

// generateSignature renders the call signature of the user-facing parameters,
// e.g. "($self, a, b=5, *args, c, **kwargs)". A "*" marker is inserted before
// the first keyword-only parameter unless a variadic positional precedes it.
func generateSignature(kind callspec.BindingKind, recv callspec.ReceiverKind, params []callspec.Parameter) string {
	var parts []string

	switch {
	case kind == callspec.ClassMethod:
		parts = append(parts, sigCls)
	case recv != callspec.ReceiverNone:
		parts = append(parts, sigSelf)
	}

	starred := false
	for i := range params {
		p := &params[i]
		switch p.Role {
		case callspec.RoleVarArgs:
			parts = append(parts, "*"+p.Name)
			starred = true
		case callspec.RoleVarKwargs:
			parts = append(parts, "**"+p.Name)
		case callspec.RoleKeywordOnly:
			if !starred {
				parts = append(parts, "*")
				starred = true
			}
			parts = append(parts, paramWithDefault(p))
		default:
			parts = append(parts, paramWithDefault(p))
		}
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

func paramWithDefault(p *callspec.Parameter) string {
	switch {
	case p.HasDefault():
		return p.Name + "=" + p.Default
	case p.Optional:
		return p.Name + "=None"
	}
	return p.Name
}

// joinDoc joins documentation lines, stripping the single space a doc comment
// leaves after its marker.
func joinDoc(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimPrefix(strings.TrimRight(l, "\r"), " ")
	}
	return strings.Join(out, "\n")
}
