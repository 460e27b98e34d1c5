// Package receiver decides how the receiver object of a declaration is bound.
//
// The binding kind's rule table says what the first parameter slot holds:
//
//	ReceiverRequired   self, &self, &mut self (mut self counts as mutable),
//	                   or a typed parameter such as self: Box<Self> the
//	                   wrapper is fallibly converted into
//	ReceiverClass      the class object; consumed but not bound
//	ReceiverForbidden  an ordinary argument; a self receiver is rejected
package receiver

import (
	"fmt"

	"github.com/wippyai/callspec"
	"github.com/wippyai/callspec/decl"
	"github.com/wippyai/callspec/diag"
	"github.com/wippyai/callspec/errors"
)

// ContextMatcher recognizes runtime context handle types. A context handle in
// the receiver slot is not receiver-shaped.
type ContextMatcher interface {
	IsContext(t *decl.TypeRef) bool
}

// Resolution is the outcome of receiver resolution.
type Resolution struct {
	Binding callspec.ReceiverBinding
	// Skip is the number of leading parameters consumed by the receiver slot.
	Skip int
}

// Resolve determines the receiver binding of d for kind. On failure the
// returned diagnostics are non-empty and Skip still reflects how many
// parameters the assembler should not treat as user arguments.
func Resolve(d *decl.Declaration, kind callspec.BindingKind, ctx ContextMatcher) (Resolution, diag.List) {
	rules := kind.Rules()
	var first *decl.Param
	if len(d.Params) > 0 {
		first = &d.Params[0]
	}

	switch rules.Receiver {
	case callspec.ReceiverRequired:
		return required(d, first, rules, ctx)
	case callspec.ReceiverClass:
		return class(d, first, rules)
	default:
		return forbidden(first, rules)
	}
}

func required(d *decl.Declaration, first *decl.Param, rules callspec.Rules, ctx ContextMatcher) (Resolution, diag.List) {
	var diags diag.List
	if first == nil {
		diags.Add(errors.MissingReceiver(d.Pos, rules.MissingReceiver))
		return Resolution{}, diags
	}

	if first.IsSelf() && first.Type == nil {
		kind := callspec.ReceiverImmutable
		if first.Mutable {
			kind = callspec.ReceiverMutable
		}
		return Resolution{Binding: callspec.ReceiverBinding{Kind: kind}, Skip: 1}, nil
	}

	if !first.IsSelf() && ctx != nil && ctx.IsContext(first.Type) {
		diags.Add(errors.New(errors.PhaseReceiver, errors.KindMissingReceiver).
			At(first.Pos).
			Path(first.Name).
			Detail("%s; the first parameter is a runtime context handle", rules.MissingReceiver).
			Build())
		return Resolution{}, diags
	}

	return Resolution{
		Binding: callspec.ReceiverBinding{
			Kind: callspec.ReceiverConversion,
			Type: first.Type.String(),
			Pos:  typePos(first),
		},
		Skip: 1,
	}, nil
}

func class(d *decl.Declaration, first *decl.Param, rules callspec.Rules) (Resolution, diag.List) {
	var diags diag.List
	if first == nil {
		diags.Add(errors.MissingReceiver(d.Pos, rules.MissingReceiver))
		return Resolution{}, diags
	}
	if first.IsSelf() {
		diags.Add(errors.Unsupported(errors.PhaseReceiver, first.Pos,
			fmt.Sprintf("unexpected receiver; %s", rules.MissingReceiver)))
	}
	return Resolution{Skip: 1}, diags
}

func forbidden(first *decl.Param, rules callspec.Rules) (Resolution, diag.List) {
	if first == nil || !first.IsSelf() {
		return Resolution{}, nil
	}
	var diags diag.List
	diags.Add(errors.Unsupported(errors.PhaseReceiver, first.Pos,
		fmt.Sprintf("unexpected receiver; %s methods do not take self", rules.Tag)))
	return Resolution{Skip: 1}, diags
}

func typePos(p *decl.Param) decl.Pos {
	if p.Type != nil && p.Type.Pos.IsValid() {
		return p.Type.Pos
	}
	return p.Pos
}
