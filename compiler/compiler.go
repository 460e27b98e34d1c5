// Package compiler assembles batches of declarations in parallel.
//
// Declarations are independent: each worker reads one declaration and writes
// one slot of the result, and diagnostics are appended to a shared sink. The
// result is deterministic regardless of scheduling: specs keep declaration
// order and diagnostics are sorted by source position.
package compiler

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/callspec"
	"github.com/wippyai/callspec/assembler"
	"github.com/wippyai/callspec/attrs"
	"github.com/wippyai/callspec/decl"
	"github.com/wippyai/callspec/diag"
)

// Options configures a Compiler.
type Options struct {
	Metrics      *Metrics // optional
	ContextTypes []string // context handle type names; nil uses the defaults
	Workers      int      // 0 uses GOMAXPROCS
}

// Compiler runs the assembler over many declarations.
type Compiler struct {
	asm     *assembler.Assembler
	metrics *Metrics
	workers int
}

// New creates a compiler.
func New(opts Options) *Compiler {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Compiler{
		asm:     assembler.New(assembler.NewContextSet(opts.ContextTypes...)),
		metrics: opts.Metrics,
		workers: workers,
	}
}

// Result holds the outcome of one Compile call.
type Result struct {
	// Declarations is the input, in order.
	Declarations []*decl.Declaration
	// Specs is parallel to Declarations; rejected declarations have nil.
	Specs []*callspec.CallSpec
	// PerDeclaration is parallel to Declarations.
	PerDeclaration []diag.List
	// Diagnostics holds every diagnostic sorted by position.
	Diagnostics diag.List
}

// Assembled returns the specs of accepted declarations, in order.
func (r *Result) Assembled() []*callspec.CallSpec {
	out := make([]*callspec.CallSpec, 0, len(r.Specs))
	for _, s := range r.Specs {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Rejected returns the number of declarations that produced diagnostics.
func (r *Result) Rejected() int {
	n := 0
	for _, s := range r.Specs {
		if s == nil {
			n++
		}
	}
	return n
}

// Deprecations returns every deprecation notice with the spec it belongs to.
func (r *Result) Deprecations() map[string][]string {
	out := make(map[string][]string)
	for _, s := range r.Specs {
		if s != nil && len(s.Deprecations) > 0 {
			out[s.ID()] = s.Deprecations
		}
	}
	return out
}

// Compile assembles decls. Errors in one declaration never affect another;
// the returned error is non-nil only when ctx is cancelled.
func (c *Compiler) Compile(ctx context.Context, decls []*decl.Declaration) (*Result, error) {
	res := &Result{
		Declarations:   decls,
		Specs:          make([]*callspec.CallSpec, len(decls)),
		PerDeclaration: make([]diag.List, len(decls)),
	}
	sink := diag.NewSink()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, d := range decls {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			spec, diags := c.asm.Assemble(d)
			res.Specs[i] = spec
			res.PerDeclaration[i] = diags
			sink.AddList(diags)
			c.record(d, spec, diags)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Diagnostics = sink.List().Sorted()
	Logger().Info("compiled declarations",
		zap.Int("declarations", len(decls)),
		zap.Int("rejected", res.Rejected()),
		zap.Int("diagnostics", res.Diagnostics.Len()),
		zap.Int("workers", c.workers),
	)
	return res, nil
}

func (c *Compiler) record(d *decl.Declaration, spec *callspec.CallSpec, diags diag.List) {
	var kind callspec.BindingKind
	if spec != nil {
		kind = spec.Kind
		Logger().Debug("assembled",
			zap.String("decl", d.ID()),
			zap.String("name", spec.Name),
			zap.Stringer("kind", spec.Kind),
			zap.Stringer("receiver", spec.Receiver.Kind),
			zap.Int("params", len(spec.Params)),
		)
	} else {
		cls, _ := attrs.Classify(d.Annotations)
		kind = cls.Kind
		Logger().Debug("rejected",
			zap.String("decl", d.ID()),
			zap.Stringer("pos", d.Pos),
			zap.Int("diagnostics", diags.Len()),
		)
	}
	c.metrics.record(kind, diags)
}
