// Package assembler turns one declaration into a validated CallSpec.
//
// Assembly runs the classifier, the receiver resolver and the argument
// attribute table, then checks every structural rule of the binding kind and
// the type shapes of the parameters and return type. All independent problems
// are collected; a declaration with any diagnostic yields no CallSpec.
//
// An Assembler holds no mutable state and may be shared between goroutines.
package assembler

import (
	"slices"

	"github.com/wippyai/callspec"
	"github.com/wippyai/callspec/argtable"
	"github.com/wippyai/callspec/attrs"
	"github.com/wippyai/callspec/decl"
	"github.com/wippyai/callspec/diag"
	"github.com/wippyai/callspec/errors"
	"github.com/wippyai/callspec/receiver"
)

// Messages for type shapes the synchronous calling convention cannot carry.
const (
	msgAsync            = "async functions are not supported; the calling convention is synchronous"
	msgImplTraitArg     = "Python functions cannot have `impl Trait` arguments"
	msgImplTraitRecv    = "the receiver cannot be an `impl Trait` type"
	msgImplTraitReturn  = "Python functions cannot return `impl Trait`"
	msgClassAttrArgs    = "class attribute methods cannot take arguments"
	msgUnsupportedArg   = "unsupported argument"
	msgUnexpectedSelf   = "unexpected receiver"
	msgConstKind        = "only #[classattr] is supported on associated constants"
	msgGetterArity      = "getter takes no arguments besides the receiver"
	msgSetterArity      = "setter requires exactly one value argument"
	inferredReturnType  = "_"
	genericParamMessage = "generic parameter `%s` is not supported; the calling convention must be fully concrete"
)

// Assembler builds CallSpecs.
type Assembler struct {
	ctx *ContextSet
}

// New returns an assembler recognizing the given context handle types. A nil
// set uses DefaultContextTypes.
func New(ctx *ContextSet) *Assembler {
	if ctx == nil {
		ctx = NewContextSet()
	}
	return &Assembler{ctx: ctx}
}

// Contexts returns the context handle set in use.
func (a *Assembler) Contexts() *ContextSet {
	return a.ctx
}

// Assemble validates d and builds its CallSpec. Exactly one of the results is
// meaningful: a nil spec always comes with at least one diagnostic.
func (a *Assembler) Assemble(d *decl.Declaration) (*callspec.CallSpec, diag.List) {
	var diags diag.List

	cls, cd := attrs.Classify(d.Annotations)
	diags.Merge(cd)
	kind := cls.Kind
	rules := kind.Rules()

	if d.Item == decl.ItemConst && kind != callspec.ClassAttribute {
		diags.Add(errors.IllegalPlacement(errors.PhaseAssemble, kindPos(cls, d), msgConstKind))
	}

	diags.Merge(checkShapes(d, kind))

	var res receiver.Resolution
	if d.Item == decl.ItemFn {
		var rd diag.List
		res, rd = receiver.Resolve(d, kind, a.ctx)
		diags.Merge(rd)
	}

	if rules.ForbidsParams && len(d.Params) > res.Skip {
		diags.Add(errors.IllegalPlacement(errors.PhaseAssemble, d.Params[res.Skip].Pos, msgClassAttrArgs))
	}

	// Partition the remaining parameters into context handles and user-facing
	// parameters, keeping declaration order for both.
	var (
		native []*decl.Param
		user   []*decl.Param
	)
	for i := res.Skip; i < len(d.Params); i++ {
		p := &d.Params[i]
		switch {
		case p.IsSelf():
			diags.Add(errors.Unsupported(errors.PhaseAssemble, p.Pos, msgUnexpectedSelf))
			continue
		case p.Pattern != decl.PatternIdent:
			diags.Add(errors.Unsupported(errors.PhaseAssemble, p.Pos, msgUnsupportedArg))
			continue
		}
		native = append(native, p)
		if !a.ctx.IsContext(p.Type) {
			user = append(user, p)
		}
	}

	table, td := argtable.Build(cls.Args, user)
	diags.Merge(td)

	params := make([]callspec.Parameter, 0, len(user))
	nativeArgs := make([]callspec.Parameter, 0, len(native))
	for _, p := range native {
		desc := callspec.Parameter{
			Name:     unraw(p.Name),
			Type:     p.Type.String(),
			Pos:      p.Pos,
			Optional: p.Type.IsOption(),
		}
		if a.ctx.IsContext(p.Type) {
			desc.Context = true
			desc.Optional = false
			nativeArgs = append(nativeArgs, desc)
			continue
		}
		desc.Role = table.Role(p.Name)
		if def, ok := table.Default(p.Name); ok {
			desc.Default = def
		}
		params = append(params, desc)
		nativeArgs = append(nativeArgs, desc)
	}

	diags.Merge(checkOrder(params))

	switch kind {
	case callspec.Getter:
		if len(params) != 0 {
			diags.Add(errors.Unsupported(errors.PhaseAssemble, params[0].Pos, msgGetterArity))
		}
	case callspec.Setter:
		if len(params) != 1 && res.Skip > 0 {
			pos := d.Pos
			if len(params) > 1 {
				pos = params[1].Pos
			}
			diags.Add(errors.Unsupported(errors.PhaseAssemble, pos, msgSetterArity))
		}
	}

	name, nameErr := externalName(d, cls)
	diags.Add(nameErr)

	var sig string
	if ts := cls.TextSignature; ts != nil {
		switch {
		case !rules.AllowsSignature:
			diags.Add(errors.IllegalPlacement(errors.PhaseAssemble, ts.Pos, rules.SignatureError))
		case ts.Auto:
			sig = generateSignature(kind, res.Binding.Kind, params)
		default:
			sig = ts.Text
		}
	}

	if !diags.Empty() {
		return nil, diags
	}

	ret := inferredReturnType
	if d.Return != nil {
		ret = d.Return.String()
	}

	return &callspec.CallSpec{
		Kind:          kind,
		Receiver:      res.Binding,
		Name:          name,
		NativeName:    d.Name,
		Owner:         d.Owner,
		Return:        ret,
		Doc:           joinDoc(cls.Docs()),
		TextSignature: sig,
		Params:        params,
		NativeArgs:    nativeArgs,
		Deprecations:  slices.Clone(cls.Deprecations),
		Pos:           d.Pos,
	}, nil
}

// checkShapes reports declaration-level shapes the calling convention cannot
// express: async, open generics and existential types anywhere in the
// signature.
func checkShapes(d *decl.Declaration, kind callspec.BindingKind) diag.List {
	var diags diag.List

	if d.Async {
		diags.Add(errors.Unsupported(errors.PhaseAssemble, d.Pos, msgAsync))
	}

	for _, g := range d.Generics {
		if g.Lifetime {
			continue
		}
		diags.Add(errors.New(errors.PhaseAssemble, errors.KindUnsupportedShape).
			At(g.Pos).
			Path(g.Name).
			Detail(genericParamMessage, g.Name).
			Build())
	}

	for i := range d.Params {
		p := &d.Params[i]
		e := p.Type.FindExistential()
		if e == nil {
			continue
		}
		msg := msgImplTraitArg
		if i == 0 && kind.RequiresReceiver() {
			msg = msgImplTraitRecv
		}
		diags.Add(errors.New(errors.PhaseAssemble, errors.KindUnsupportedShape).
			At(shapePos(e, p.Pos)).
			Path(p.Name).
			Detail("%s", msg).
			Build())
	}

	if e := d.Return.FindExistential(); e != nil {
		diags.Add(errors.Unsupported(errors.PhaseAssemble, shapePos(e, d.Pos), msgImplTraitReturn))
	}

	return diags
}

// checkOrder enforces positional, variadic positional, keyword-only, variadic
// keyword ordering. Keyword-only parameters may directly follow positional
// ones.
func checkOrder(params []callspec.Parameter) diag.List {
	var (
		diags          diag.List
		varArgs, kwArg string
		lastKwOnly     string
	)
	conflict := func(p *callspec.Parameter, format string, args ...any) {
		diags.Add(errors.New(errors.PhaseAssemble, errors.KindStructuralConflict).
			At(p.Pos).
			Path(p.Name).
			Detail(format, args...).
			Build())
	}

	for i := range params {
		p := &params[i]
		if kwArg != "" {
			conflict(p, "parameter %q follows the variadic keyword parameter %q", p.Name, kwArg)
			continue
		}
		switch p.Role {
		case callspec.RolePositional:
			switch {
			case varArgs != "":
				conflict(p, "positional parameter %q follows the variadic positional parameter %q; mark it keyword-only", p.Name, varArgs)
			case lastKwOnly != "":
				conflict(p, "positional parameter %q follows keyword-only parameter %q", p.Name, lastKwOnly)
			}
		case callspec.RoleKeywordOnly:
			lastKwOnly = p.Name
		case callspec.RoleVarArgs:
			if lastKwOnly != "" && varArgs == "" {
				conflict(p, "variadic positional parameter %q must precede keyword-only parameter %q", p.Name, lastKwOnly)
			}
			if varArgs == "" {
				varArgs = p.Name
			}
		case callspec.RoleVarKwargs:
			kwArg = p.Name
		}
	}
	return diags
}

func kindPos(c *attrs.Classification, d *decl.Declaration) decl.Pos {
	if c.KindPos.IsValid() {
		return c.KindPos
	}
	return d.Pos
}

func shapePos(t *decl.TypeRef, fallback decl.Pos) decl.Pos {
	if t.Pos.IsValid() {
		return t.Pos
	}
	return fallback
}
