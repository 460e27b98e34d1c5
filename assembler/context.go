package assembler

import (
	"sort"
	"strings"

	"github.com/wippyai/callspec/decl"
)

// DefaultContextTypes is the context marker set used when none is configured.
var DefaultContextTypes = []string{"Python"}

// ContextSet is a closed set of type names whose parameters receive the
// runtime context token instead of a user value. Matching is by the last
// path segment, so "Python", "pyo3::Python" and "Python<'py>" all match
// "Python".
type ContextSet struct {
	names map[string]struct{}
}

// NewContextSet builds a set from type names. With no names it falls back to
// DefaultContextTypes.
func NewContextSet(names ...string) *ContextSet {
	if len(names) == 0 {
		names = DefaultContextTypes
	}
	s := &ContextSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if i := strings.LastIndex(n, "::"); i >= 0 {
			n = n[i+2:]
		}
		if n != "" {
			s.names[n] = struct{}{}
		}
	}
	return s
}

// IsContext reports whether t is a context handle type.
func (s *ContextSet) IsContext(t *decl.TypeRef) bool {
	if s == nil || t == nil || t.Tuple {
		return false
	}
	_, ok := s.names[t.Name()]
	return ok
}

// Names returns the set members in sorted order.
func (s *ContextSet) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
