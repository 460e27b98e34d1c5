package diag

import (
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/wippyai/callspec/decl"
	"github.com/wippyai/callspec/errors"
)

func diagAt(line int, kind errors.Kind) *errors.Error {
	return &errors.Error{
		Phase:  errors.PhaseAssemble,
		Kind:   kind,
		Pos:    decl.Pos{File: "lib.rs", Line: line, Column: 1},
		Detail: string(kind),
	}
}

func TestList_Add(t *testing.T) {
	var l List
	l.Add(diagAt(1, errors.KindMissingReceiver), nil, diagAt(2, errors.KindUnsupportedShape))
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}
	if !l.Has(errors.KindUnsupportedShape) {
		t.Error("expected unsupported_shape")
	}
	if l.Has(errors.KindAmbiguousName) {
		t.Error("unexpected ambiguous_name")
	}
	if l.Count(errors.KindMissingReceiver) != 1 {
		t.Errorf("Count = %d", l.Count(errors.KindMissingReceiver))
	}
}

func TestList_Err(t *testing.T) {
	var l List
	if l.Err() != nil {
		t.Error("empty list should not be an error")
	}
	l.Add(diagAt(3, errors.KindUnknownParameter))
	err := l.Err()
	if err == nil {
		t.Fatal("non-empty list should be an error")
	}
	var target *errors.Error
	if stderrors.As(err, &target) {
		t.Error("List itself is not an *errors.Error")
	}
	if !strings.Contains(err.Error(), "lib.rs:3:1") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestList_ErrorJoinsLines(t *testing.T) {
	l := List{diagAt(1, errors.KindMissingReceiver), diagAt(2, errors.KindUnsupportedShape)}
	if n := strings.Count(l.Error(), "\n"); n != 1 {
		t.Errorf("expected 2 lines, got %d newlines", n)
	}
}

func TestList_Sorted(t *testing.T) {
	l := List{
		diagAt(9, errors.KindMissingReceiver),
		diagAt(2, errors.KindUnsupportedShape),
		diagAt(2, errors.KindIllegalPlacement),
	}
	sorted := l.Sorted()
	want := []errors.Kind{errors.KindUnsupportedShape, errors.KindIllegalPlacement, errors.KindMissingReceiver}
	for i, k := range sorted.Kinds() {
		if k != want[i] {
			t.Errorf("sorted[%d] = %s, want %s", i, k, want[i])
		}
	}
	if l[0].Pos.Line != 9 {
		t.Error("Sorted must not reorder the receiver")
	}
}

func TestSink_ConcurrentAdd(t *testing.T) {
	s := NewSink()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddList(List{diagAt(i, errors.KindMissingReceiver), diagAt(i, errors.KindUnsupportedShape)})
		}(i)
	}
	wg.Wait()

	got := s.List()
	if len(got) != 100 {
		t.Fatalf("Len = %d, want 100", len(got))
	}
	// Each AddList is atomic: the pair from one goroutine stays adjacent.
	for i := 0; i < len(got); i += 2 {
		if got[i].Pos.Line != got[i+1].Pos.Line {
			t.Fatalf("diagnostics interleaved at %d: lines %d and %d", i, got[i].Pos.Line, got[i+1].Pos.Line)
		}
	}
}

func TestSink_SnapshotIsCopy(t *testing.T) {
	s := NewSink()
	s.Add(diagAt(1, errors.KindMissingReceiver))
	snap := s.List()
	s.Add(diagAt(2, errors.KindMissingReceiver))
	if len(snap) != 1 {
		t.Error("snapshot changed after Add")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d", s.Len())
	}
}
