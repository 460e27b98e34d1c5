// Package rust reads declarations out of Rust source with tree-sitter.
//
// Only impl blocks carrying the marker attribute (#[pymethods] by default)
// are read. Every function item in such a block becomes a Declaration, as
// does every associated const carrying a binding-kind attribute. Doc
// comments become doc annotations so the assembler sees them like
// #[doc = "..."].
//
// A syntax error is reported as a diagnostic; impl blocks that parsed cleanly
// are still returned.
package rust

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
	"go.uber.org/zap"

	"github.com/wippyai/callspec/attrs"
	"github.com/wippyai/callspec/decl"
	"github.com/wippyai/callspec/diag"
	"github.com/wippyai/callspec/errors"
)

// DefaultMarker is the attribute that selects impl blocks.
const DefaultMarker = "pymethods"

// Parser extracts declarations from Rust source. It is safe for concurrent
// use; each Parse call creates its own tree-sitter parser.
type Parser struct {
	// Marker selects impl blocks by the last path segment of an attribute.
	Marker string
}

// NewParser returns a parser using DefaultMarker.
func NewParser() *Parser {
	return &Parser{Marker: DefaultMarker}
}

// Parse reads the declarations of src. path is used in positions only. The
// error is non-nil only when tree-sitter itself fails.
func (p *Parser) Parse(ctx context.Context, src []byte, path string) ([]*decl.Declaration, diag.List, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	w := &walker{src: src, file: path, marker: p.marker()}
	root := tree.RootNode()
	if root.HasError() {
		w.reportSyntax(root)
	}
	w.items(root)

	Logger().Debug("parsed rust source",
		zap.String("file", path),
		zap.Int("declarations", len(w.decls)),
		zap.Int("diagnostics", w.diags.Len()),
	)
	return w.decls, w.diags, nil
}

func (p *Parser) marker() string {
	if p == nil || p.Marker == "" {
		return DefaultMarker
	}
	return p.Marker
}

type walker struct {
	src    []byte
	file   string
	marker string
	decls  []*decl.Declaration
	diags  diag.List
}

func (w *walker) pos(n *sitter.Node) decl.Pos {
	pt := n.StartPoint()
	return decl.Pos{File: w.file, Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
}

func (w *walker) text(n *sitter.Node) string {
	return n.Content(w.src)
}

// items walks a sequence of items, collecting the outer attributes and doc
// comments that precede each one.
func (w *walker) items(parent *sitter.Node) {
	var pending []decl.Annotation
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		switch child.Type() {
		case "attribute_item":
			if a, ok := w.attribute(child); ok {
				pending = append(pending, a)
			}
			continue
		case "line_comment", "block_comment":
			if a, ok := w.docComment(child); ok {
				pending = append(pending, a)
			}
			continue
		case "impl_item":
			if hasMarker(pending, w.marker) && !child.HasError() {
				w.implBlock(child)
			}
		case "mod_item":
			if body := child.ChildByFieldName("body"); body != nil {
				w.items(body)
			}
		}
		pending = nil
	}
}

func hasMarker(anns []decl.Annotation, marker string) bool {
	for _, a := range anns {
		name := a.Name
		if i := strings.LastIndex(name, "::"); i >= 0 {
			name = name[i+2:]
		}
		if name == marker {
			return true
		}
	}
	return false
}

func (w *walker) implBlock(n *sitter.Node) {
	owner := ""
	if t := n.ChildByFieldName("type"); t != nil {
		owner = decl.ParseType(w.text(t), w.pos(t)).Name()
	}
	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}

	var pending []decl.Annotation
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "attribute_item", "inner_attribute_item":
			if a, ok := w.attribute(child); ok {
				pending = append(pending, a)
			}
			continue
		case "line_comment", "block_comment":
			if a, ok := w.docComment(child); ok {
				pending = append(pending, a)
			}
			continue
		case "function_item":
			w.decls = append(w.decls, w.function(child, owner, pending))
		case "const_item":
			if d := w.constant(child, owner, pending); d != nil {
				w.decls = append(w.decls, d)
			}
		}
		pending = nil
	}
}

func (w *walker) attribute(n *sitter.Node) (decl.Annotation, bool) {
	a, err := parseAttribute(w.text(n), w.pos(n))
	if err != nil {
		w.diags.Add(errors.ParseFailed(w.pos(n), "attribute", err))
		return a, false
	}
	return a, true
}

// docComment turns "/// text" into #[doc = " text"].
func (w *walker) docComment(n *sitter.Node) (decl.Annotation, bool) {
	text := strings.TrimRight(w.text(n), "\r\n")
	if !strings.HasPrefix(text, "///") || strings.HasPrefix(text, "////") {
		return decl.Annotation{}, false
	}
	v := decl.StringValue(text[3:], w.pos(n))
	return decl.Annotation{Name: "doc", Eq: &v, Pos: w.pos(n)}, true
}

func (w *walker) function(n *sitter.Node, owner string, anns []decl.Annotation) *decl.Declaration {
	d := &decl.Declaration{
		Owner:       owner,
		Annotations: anns,
		Pos:         w.pos(n),
		Item:        decl.ItemFn,
	}
	if name := n.ChildByFieldName("name"); name != nil {
		d.Name = w.text(name)
		d.Pos = w.pos(name)
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "function_modifiers" && containsWord(w.text(c), "async") {
			d.Async = true
		}
	}

	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		d.Generics = w.generics(tp)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		d.Params = w.params(params)
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		d.Return = decl.ParseType(w.text(ret), w.pos(ret))
	}
	return d
}

func (w *walker) constant(n *sitter.Node, owner string, anns []decl.Annotation) *decl.Declaration {
	tagged := false
	for _, a := range anns {
		if attrs.IsBindingTag(a.Name) {
			tagged = true
			break
		}
	}
	if !tagged {
		return nil
	}
	d := &decl.Declaration{
		Owner:       owner,
		Annotations: anns,
		Pos:         w.pos(n),
		Item:        decl.ItemConst,
	}
	if name := n.ChildByFieldName("name"); name != nil {
		d.Name = w.text(name)
		d.Pos = w.pos(name)
	}
	if t := n.ChildByFieldName("type"); t != nil {
		d.Return = decl.ParseType(w.text(t), w.pos(t))
	}
	return d
}

func (w *walker) generics(n *sitter.Node) []decl.GenericParam {
	var out []decl.GenericParam
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		g := decl.GenericParam{Pos: w.pos(c)}
		switch c.Type() {
		case "lifetime", "lifetime_parameter":
			g.Lifetime = true
			g.Name = w.text(c)
		case "const_parameter":
			g.Const = true
			if name := c.ChildByFieldName("name"); name != nil {
				g.Name = w.text(name)
			}
		case "constrained_type_parameter", "optional_type_parameter", "type_parameter":
			left := c.ChildByFieldName("left")
			if left == nil {
				left = c.ChildByFieldName("name")
			}
			if left == nil && c.NamedChildCount() > 0 {
				left = c.NamedChild(0)
			}
			if left != nil {
				g.Name = w.text(left)
				g.Lifetime = left.Type() == "lifetime"
			}
		case "type_identifier":
			g.Name = w.text(c)
		default:
			continue
		}
		if g.Name == "" {
			g.Name = w.text(c)
		}
		if strings.HasPrefix(g.Name, "'") {
			g.Lifetime = true
		}
		out = append(out, g)
	}
	return out
}

func (w *walker) params(n *sitter.Node) []decl.Param {
	var (
		out     []decl.Param
		pending []decl.Annotation
	)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "attribute_item":
			if a, ok := w.attribute(c); ok {
				pending = append(pending, a)
			}
			continue
		case "self_parameter":
			out = append(out, w.selfParam(c, pending))
		case "parameter":
			out = append(out, w.param(c, pending))
		case "line_comment", "block_comment":
			continue
		default:
			// variadic_parameter or a bare type: kept so the assembler can
			// reject the shape.
			out = append(out, decl.Param{
				Name:        w.text(c),
				Type:        decl.ParseType(w.text(c), w.pos(c)),
				Pos:         w.pos(c),
				Pattern:     decl.PatternOther,
				Annotations: pending,
			})
		}
		pending = nil
	}
	return out
}

func (w *walker) selfParam(n *sitter.Node, anns []decl.Annotation) decl.Param {
	p := decl.Param{Name: "self", Self: true, Pos: w.pos(n), Annotations: anns}
	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.Child(i).Type() {
		case "&":
			p.Ref = true
		case "mutable_specifier":
			p.Mutable = true
		}
	}
	return p
}

func (w *walker) param(n *sitter.Node, anns []decl.Annotation) decl.Param {
	p := decl.Param{Pos: w.pos(n), Annotations: anns}

	if t := n.ChildByFieldName("type"); t != nil {
		p.Type = decl.ParseType(w.text(t), w.pos(t))
	}

	pat := n.ChildByFieldName("pattern")
	if pat == nil {
		p.Pattern = decl.PatternOther
		return p
	}
	p.Name = w.text(pat)
	switch pat.Type() {
	case "identifier":
	case "self":
		// self: Box<Self> and friends; the type is the conversion target
		p.Self = true
	case "mut_pattern":
		// mut x: the binding is still a plain identifier
		if pat.NamedChildCount() == 1 && pat.NamedChild(0).Type() == "identifier" {
			p.Name = w.text(pat.NamedChild(0))
		} else {
			p.Pattern = decl.PatternOther
		}
	default:
		p.Pattern = decl.PatternOther
	}
	return p
}

// reportSyntax records the first error or missing node below n.
func (w *walker) reportSyntax(n *sitter.Node) {
	bad := findError(n)
	if bad == nil {
		bad = n
	}
	what := "syntax error"
	if bad.IsMissing() {
		what = fmt.Sprintf("missing %s", bad.Type())
	}
	w.diags.Add(errors.New(errors.PhaseParse, errors.KindSyntax).
		At(w.pos(bad)).
		Detail("%s near %q", what, snippet(w.text(bad))).
		Build())
}

func findError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.HasError() && !c.IsMissing() {
			continue
		}
		if e := findError(c); e != nil {
			return e
		}
	}
	return nil
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return s
}

func containsWord(s, word string) bool {
	for _, f := range strings.Fields(s) {
		if f == word {
			return true
		}
	}
	return false
}
