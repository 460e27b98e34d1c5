// Package diag collects diagnostics produced while compiling declarations.
//
// A List is the per-declaration result: every independent rule violation
// found, in the order found. A Sink aggregates Lists from many declarations
// and is safe for concurrent use; each Add is atomic, so the diagnostics of
// one call are never interleaved with another's.
package diag

import (
	"sort"
	"strings"
	"sync"

	"github.com/wippyai/callspec/errors"
)

// List is an ordered set of diagnostics. A non-empty List is an error.
type List []*errors.Error

// Add appends diagnostics, skipping nils.
func (l *List) Add(errs ...*errors.Error) {
	for _, e := range errs {
		if e != nil {
			*l = append(*l, e)
		}
	}
}

// Merge appends every diagnostic of other.
func (l *List) Merge(other List) {
	*l = append(*l, other...)
}

// Len returns the number of diagnostics.
func (l List) Len() int {
	return len(l)
}

// Empty reports whether no diagnostics were recorded.
func (l List) Empty() bool {
	return len(l) == 0
}

// Has reports whether any diagnostic has the given kind.
func (l List) Has(kind errors.Kind) bool {
	for _, e := range l {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics of the given kind.
func (l List) Count(kind errors.Kind) int {
	n := 0
	for _, e := range l {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Kinds returns the kinds in order of appearance, with duplicates.
func (l List) Kinds() []errors.Kind {
	kinds := make([]errors.Kind, len(l))
	for i, e := range l {
		kinds[i] = e.Kind
	}
	return kinds
}

// Sorted returns a copy ordered by position. Diagnostics at the same
// position keep their relative order.
func (l List) Sorted() List {
	out := make(List, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pos.Before(out[j].Pos)
	})
	return out
}

// Err returns the list as an error, or nil when empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	}
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

// Sink is a concurrent-safe diagnostic collector.
type Sink struct {
	items List
	mu    sync.Mutex
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Add appends diagnostics atomically.
func (s *Sink) Add(errs ...*errors.Error) {
	s.mu.Lock()
	s.items.Add(errs...)
	s.mu.Unlock()
}

// AddList appends every diagnostic of l atomically.
func (s *Sink) AddList(l List) {
	if len(l) == 0 {
		return
	}
	s.mu.Lock()
	s.items = append(s.items, l...)
	s.mu.Unlock()
}

// Len returns the number of collected diagnostics.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// List returns a snapshot of the collected diagnostics in insertion order.
func (s *Sink) List() List {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(List, len(s.items))
	copy(out, s.items)
	return out
}
