package decl

import "strings"

// TypeRef describes a declared type in enough detail to classify its shape.
// Text is always the source spelling; the other fields are derived from it.
type TypeRef struct {
	Text        string
	Path        string // base path without references or generic arguments
	Args        []*TypeRef
	Pos         Pos
	Ref         bool
	Mutable     bool
	Existential bool // impl Trait
	Tuple       bool
}

// Name returns the last path segment ("Python" for "pyo3::Python").
func (t *TypeRef) Name() string {
	if t == nil {
		return ""
	}
	if i := strings.LastIndex(t.Path, "::"); i >= 0 {
		return t.Path[i+2:]
	}
	return t.Path
}

// IsOption reports whether the type is Option<T>.
func (t *TypeRef) IsOption() bool {
	return t != nil && t.Name() == "Option" && len(t.Args) == 1
}

// FindExistential returns the first existential type in t, searching generic
// and tuple arguments depth-first, or nil.
func (t *TypeRef) FindExistential() *TypeRef {
	if t == nil {
		return nil
	}
	if t.Existential {
		return t
	}
	for _, a := range t.Args {
		if e := a.FindExistential(); e != nil {
			return e
		}
	}
	return nil
}

// Mentions reports whether any path segment of t or its arguments equals name.
func (t *TypeRef) Mentions(name string) bool {
	if t == nil {
		return false
	}
	if t.Name() == name || t.Path == name {
		return true
	}
	for _, a := range t.Args {
		if a.Mentions(name) {
			return true
		}
	}
	return false
}

func (t *TypeRef) String() string {
	if t == nil {
		return "_"
	}
	return t.Text
}

// ParseType builds a TypeRef from its source spelling. It understands
// references, lifetimes, generic arguments, tuples and `impl`/`dyn` bounds;
// anything else is kept as an opaque path.
func ParseType(text string, pos Pos) *TypeRef {
	text = strings.TrimSpace(text)
	t := &TypeRef{Text: text, Pos: pos}
	rest := text

	if strings.HasPrefix(rest, "&") {
		t.Ref = true
		rest = strings.TrimSpace(rest[1:])
		if strings.HasPrefix(rest, "'") {
			if i := strings.IndexAny(rest, " \t"); i > 0 {
				rest = strings.TrimSpace(rest[i:])
			}
		}
		if after, ok := cutKeyword(rest, "mut"); ok {
			t.Mutable = true
			rest = after
		}
	}

	if after, ok := cutKeyword(rest, "impl"); ok {
		t.Existential = true
		rest = after
	} else if after, ok := cutKeyword(rest, "dyn"); ok {
		rest = after
	}

	if strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
		t.Tuple = true
		for _, part := range splitTopLevel(rest[1 : len(rest)-1]) {
			t.Args = append(t.Args, ParseType(part, pos))
		}
		return t
	}

	if i := strings.IndexByte(rest, '<'); i > 0 && strings.HasSuffix(rest, ">") {
		t.Path = strings.TrimSpace(rest[:i])
		for _, part := range splitTopLevel(rest[i+1 : len(rest)-1]) {
			t.Args = append(t.Args, ParseType(part, pos))
		}
		return t
	}

	// trait bounds: impl A + B keeps the first bound as the path
	if i := strings.IndexByte(rest, '+'); i > 0 {
		rest = strings.TrimSpace(rest[:i])
		if j := strings.IndexByte(rest, '<'); j > 0 {
			t.Path = strings.TrimSpace(rest[:j])
			return t
		}
	}
	t.Path = rest
	return t
}

func cutKeyword(s, kw string) (string, bool) {
	if !strings.HasPrefix(s, kw) || len(s) == len(kw) {
		return s, false
	}
	c := s[len(kw)]
	if c != ' ' && c != '\t' && c != '\n' {
		return s, false
	}
	return strings.TrimSpace(s[len(kw):]), true
}

// splitTopLevel splits on commas that are not nested inside <>, () or [].
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			if depth > 0 && !(s[i] == '>' && i > 0 && s[i-1] == '-') {
				depth--
			}
		case ',':
			if depth == 0 {
				if p := strings.TrimSpace(s[start:i]); p != "" {
					parts = append(parts, p)
				}
				start = i + 1
			}
		}
	}
	if p := strings.TrimSpace(s[start:]); p != "" {
		parts = append(parts, p)
	}
	return parts
}
