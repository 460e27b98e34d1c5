// Package manifest loads declarations from YAML manifests.
//
// A manifest describes declarations without Rust source, which is useful for
// generated bindings and for tests:
//
//	file: widget.rs            # positions refer to this file; defaults to the manifest path
//	declarations:
//	  - owner: Widget
//	    name: get_width
//	    doc: Width in pixels.
//	    annotations:
//	      - getter                       # bare tag
//	      - {name: pyo3, values: [{name: "w"}]}
//	      - {name: text_signature, eq: "()"}
//	    params:
//	      - self: "&self"
//	      - {name: py, type: "Python<'_>"}
//	    return: u32
//
// Annotation values follow YAML typing: a plain scalar is a path, a quoted
// scalar is a string literal, numbers and booleans are literals, and a
// single-key mapping is an assignment. Every value keeps the line and column
// of its YAML node.
package manifest

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/callspec/decl"
	"github.com/wippyai/callspec/diag"
	"github.com/wippyai/callspec/errors"
)

type loader struct {
	file  string
	diags diag.List
}

// Load parses a manifest. path names the manifest in positions unless the
// manifest sets its own file.
func Load(data []byte, path string) ([]*decl.Declaration, diag.List) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		var diags diag.List
		diags.Add(errors.ParseFailed(decl.Pos{File: path}, "manifest", err))
		return nil, diags
	}

	l := &loader{file: path}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		l.fail(root, "manifest must be a mapping")
		return nil, l.diags
	}

	if f := lookup(root, "file"); f != nil && f.Kind == yaml.ScalarNode {
		l.file = f.Value
	}

	var out []*decl.Declaration
	list := lookup(root, "declarations")
	if list == nil {
		return nil, l.diags
	}
	if list.Kind != yaml.SequenceNode {
		l.fail(list, "declarations must be a list")
		return nil, l.diags
	}
	for _, n := range list.Content {
		if d := l.declaration(n); d != nil {
			out = append(out, d)
		}
	}

	Logger().Debug("loaded manifest",
		zap.String("file", path),
		zap.Int("declarations", len(out)),
		zap.Int("diagnostics", l.diags.Len()),
	)
	return out, l.diags
}

func (l *loader) pos(n *yaml.Node) decl.Pos {
	return decl.Pos{File: l.file, Line: n.Line, Column: n.Column}
}

func (l *loader) fail(n *yaml.Node, format string, args ...any) {
	l.diags.Add(errors.New(errors.PhaseLoad, errors.KindInvalidInput).
		At(l.pos(n)).
		Detail(format, args...).
		Build())
}

// lookup returns the value node of key in a mapping.
func lookup(m *yaml.Node, key string) *yaml.Node {
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

var declKeys = map[string]bool{
	"owner": true, "name": true, "kind": true, "async": true, "generics": true,
	"annotations": true, "params": true, "return": true, "type": true, "doc": true,
}

func (l *loader) declaration(n *yaml.Node) *decl.Declaration {
	if n.Kind != yaml.MappingNode {
		l.fail(n, "declaration must be a mapping")
		return nil
	}
	l.unknownKeys(n, declKeys, "declaration")

	d := &decl.Declaration{Pos: l.pos(n), Item: decl.ItemFn}
	name := lookup(n, "name")
	if name == nil || name.Value == "" {
		l.fail(n, "declaration needs a name")
		return nil
	}
	d.Name = name.Value
	d.Pos = l.pos(name)

	if o := lookup(n, "owner"); o != nil {
		d.Owner = o.Value
	}

	if k := lookup(n, "kind"); k != nil {
		switch k.Value {
		case "fn", "":
		case "const":
			d.Item = decl.ItemConst
		default:
			l.fail(k, "unknown declaration kind %q (want fn or const)", k.Value)
		}
	}

	if a := lookup(n, "async"); a != nil {
		var b bool
		if err := a.Decode(&b); err != nil {
			l.fail(a, "async must be a boolean")
		}
		d.Async = b
	}

	if doc := lookup(n, "doc"); doc != nil {
		for _, line := range strings.Split(strings.TrimRight(doc.Value, "\n"), "\n") {
			v := decl.StringValue(line, l.pos(doc))
			d.Annotations = append(d.Annotations, decl.Annotation{Name: "doc", Eq: &v, Pos: l.pos(doc)})
		}
	}

	if anns := lookup(n, "annotations"); anns != nil {
		d.Annotations = append(d.Annotations, l.annotations(anns)...)
	}

	if gs := lookup(n, "generics"); gs != nil {
		for _, g := range l.seq(gs, "generics") {
			gp := decl.GenericParam{Name: g.Value, Pos: l.pos(g)}
			gp.Lifetime = strings.HasPrefix(g.Value, "'")
			gp.Const = strings.HasPrefix(g.Value, "const ")
			d.Generics = append(d.Generics, gp)
		}
	}

	if ps := lookup(n, "params"); ps != nil {
		for _, p := range l.seq(ps, "params") {
			if param, ok := l.param(p); ok {
				d.Params = append(d.Params, param)
			}
		}
	}

	ret := lookup(n, "return")
	if ret == nil && d.Item == decl.ItemConst {
		ret = lookup(n, "type")
	}
	if ret != nil {
		d.Return = decl.ParseType(ret.Value, l.pos(ret))
	}
	return d
}

func (l *loader) seq(n *yaml.Node, what string) []*yaml.Node {
	if n.Kind != yaml.SequenceNode {
		l.fail(n, "%s must be a list", what)
		return nil
	}
	return n.Content
}

func (l *loader) unknownKeys(m *yaml.Node, known map[string]bool, what string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := m.Content[i]; !known[k.Value] {
			l.fail(k, "unknown %s field %q", what, k.Value)
		}
	}
}

var paramKeys = map[string]bool{"name": true, "type": true, "pattern": true, "annotations": true, "self": true}

func (l *loader) param(n *yaml.Node) (decl.Param, bool) {
	p := decl.Param{Pos: l.pos(n)}

	// "&self" shorthand
	if n.Kind == yaml.ScalarNode {
		return l.selfParam(n, n.Value)
	}
	if n.Kind != yaml.MappingNode {
		l.fail(n, "parameter must be a mapping")
		return p, false
	}
	l.unknownKeys(n, paramKeys, "parameter")

	if s := lookup(n, "self"); s != nil {
		return l.selfParam(s, s.Value)
	}

	if pat := lookup(n, "pattern"); pat != nil {
		p.Name = pat.Value
		p.Pattern = decl.PatternOther
	}
	if name := lookup(n, "name"); name != nil {
		p.Name = name.Value
		p.Pos = l.pos(name)
	}
	if p.Name == "" {
		l.fail(n, "parameter needs a name or a pattern")
		return p, false
	}
	t := lookup(n, "type")
	if t == nil || t.Value == "" {
		l.fail(n, "parameter %q needs a type", p.Name)
		return p, false
	}
	p.Type = decl.ParseType(t.Value, l.pos(t))
	if anns := lookup(n, "annotations"); anns != nil {
		p.Annotations = l.annotations(anns)
	}
	return p, true
}

func (l *loader) selfParam(n *yaml.Node, spelling string) (decl.Param, bool) {
	p := decl.Param{Name: "self", Self: true, Pos: l.pos(n)}
	switch strings.Join(strings.Fields(spelling), " ") {
	case "self":
	case "mut self":
		p.Mutable = true
	case "&self":
		p.Ref = true
	case "&mut self":
		p.Ref, p.Mutable = true, true
	default:
		l.fail(n, "unrecognized receiver %q (want self, &self or &mut self)", spelling)
		return p, false
	}
	return p, true
}

var annotationKeys = map[string]bool{"name": true, "values": true, "eq": true, "inner": true}

func (l *loader) annotations(n *yaml.Node) []decl.Annotation {
	var out []decl.Annotation
	for _, a := range l.seq(n, "annotations") {
		switch a.Kind {
		case yaml.ScalarNode:
			out = append(out, decl.Annotation{Name: a.Value, Pos: l.pos(a)})
		case yaml.MappingNode:
			l.unknownKeys(a, annotationKeys, "annotation")
			ann := decl.Annotation{Pos: l.pos(a)}
			name := lookup(a, "name")
			if name == nil || name.Value == "" {
				l.fail(a, "annotation needs a name")
				continue
			}
			ann.Name = name.Value
			if vs := lookup(a, "values"); vs != nil {
				ann.HasList = true
				for _, v := range l.seq(vs, "values") {
					ann.Values = append(ann.Values, l.value(v))
				}
			}
			if eq := lookup(a, "eq"); eq != nil {
				v := l.value(eq)
				ann.Eq = &v
			}
			if in := lookup(a, "inner"); in != nil {
				if err := in.Decode(&ann.Inner); err != nil {
					l.fail(in, "inner must be a boolean")
				}
			}
			out = append(out, ann)
		default:
			l.fail(a, "annotation must be a name or a mapping")
		}
	}
	return out
}

func (l *loader) value(n *yaml.Node) decl.Value {
	pos := l.pos(n)
	switch n.Kind {
	case yaml.ScalarNode:
		switch {
		case n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0:
			return decl.StringValue(n.Value, pos)
		case n.Tag == "!!str" && isPath(n.Value):
			return decl.PathValue(n.Value, pos)
		default:
			return decl.Value{Kind: decl.ValueLiteral, Text: n.Value, Pos: pos}
		}
	case yaml.MappingNode:
		if len(n.Content) == 2 {
			rhs := l.value(n.Content[1])
			return decl.AssignValue(n.Content[0].Value, rhs, l.pos(n.Content[0]))
		}
	}
	l.fail(n, "unsupported annotation value")
	return decl.Value{Kind: decl.ValueLiteral, Text: fmt.Sprint(n.Value), Pos: pos}
}

func isPath(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, "::") {
		if seg == "" {
			return false
		}
		for i, r := range seg {
			ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')
			if !ok {
				return false
			}
		}
	}
	return true
}
