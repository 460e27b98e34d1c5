package decl

import "testing"

func TestParseType(t *testing.T) {
	tests := []struct {
		input       string
		path        string
		args        int
		ref         bool
		mutable     bool
		existential bool
		tuple       bool
	}{
		{"i32", "i32", 0, false, false, false, false},
		{"pyo3::Python", "pyo3::Python", 0, false, false, false, false},
		{"Python<'_>", "Python", 1, false, false, false, false},
		{"&PyAny", "PyAny", 0, true, false, false, false},
		{"&mut Vec<u8>", "Vec", 1, true, true, false, false},
		{"&'a mut Foo", "Foo", 0, true, true, false, false},
		{"Option<HashMap<String, i32>>", "Option", 1, false, false, false, false},
		{"impl AsRef<PyAny>", "AsRef", 1, false, false, true, false},
		{"impl Fn(i32) -> bool", "Fn(i32) -> bool", 0, false, false, true, false},
		{"(i32, String)", "", 2, false, false, false, true},
		{"dyn Any", "Any", 0, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseType(tt.input, Pos{})
			if got.Text != tt.input {
				t.Errorf("Text = %q, want %q", got.Text, tt.input)
			}
			if got.Path != tt.path {
				t.Errorf("Path = %q, want %q", got.Path, tt.path)
			}
			if len(got.Args) != tt.args {
				t.Errorf("len(Args) = %d, want %d", len(got.Args), tt.args)
			}
			if got.Ref != tt.ref || got.Mutable != tt.mutable {
				t.Errorf("Ref/Mutable = %v/%v, want %v/%v", got.Ref, got.Mutable, tt.ref, tt.mutable)
			}
			if got.Existential != tt.existential {
				t.Errorf("Existential = %v, want %v", got.Existential, tt.existential)
			}
			if got.Tuple != tt.tuple {
				t.Errorf("Tuple = %v, want %v", got.Tuple, tt.tuple)
			}
		})
	}
}

func TestTypeRef_Name(t *testing.T) {
	if got := ParseType("pyo3::Python<'py>", Pos{}).Name(); got != "Python" {
		t.Errorf("Name() = %q, want Python", got)
	}
	var nilType *TypeRef
	if got := nilType.Name(); got != "" {
		t.Errorf("nil Name() = %q, want empty", got)
	}
}

func TestTypeRef_IsOption(t *testing.T) {
	if !ParseType("Option<i32>", Pos{}).IsOption() {
		t.Error("Option<i32> should be optional")
	}
	if !ParseType("std::option::Option<&str>", Pos{}).IsOption() {
		t.Error("qualified Option should be optional")
	}
	if ParseType("Vec<i32>", Pos{}).IsOption() {
		t.Error("Vec<i32> should not be optional")
	}
}

func TestTypeRef_FindExistential(t *testing.T) {
	nested := ParseType("Vec<Option<impl Into<String>>>", Pos{Line: 3, Column: 7})
	e := nested.FindExistential()
	if e == nil {
		t.Fatal("expected nested existential")
	}
	if e.Text != "impl Into<String>" {
		t.Errorf("existential text = %q", e.Text)
	}
	if e.Pos.Line != 3 {
		t.Errorf("existential pos = %v", e.Pos)
	}
	if ParseType("Vec<String>", Pos{}).FindExistential() != nil {
		t.Error("concrete type reported as existential")
	}
}

func TestTypeRef_Mentions(t *testing.T) {
	ty := ParseType("HashMap<K, Vec<T>>", Pos{})
	if !ty.Mentions("T") || !ty.Mentions("K") {
		t.Error("expected T and K to be mentioned")
	}
	if ty.Mentions("U") {
		t.Error("U is not mentioned")
	}
}

func TestPos(t *testing.T) {
	p := Pos{File: "lib.rs", Line: 4, Column: 9}
	if p.String() != "lib.rs:4:9" {
		t.Errorf("String() = %q", p.String())
	}
	if (Pos{}).IsValid() {
		t.Error("zero Pos should be invalid")
	}
	if !(Pos{File: "a.rs", Line: 9}).Before(Pos{File: "b.rs", Line: 1}) {
		t.Error("file ordering")
	}
	if !(Pos{Line: 2, Column: 5}).Before(Pos{Line: 2, Column: 6}) {
		t.Error("column ordering")
	}
}

func TestAnnotation_String(t *testing.T) {
	a := Annotation{
		Name:    "args",
		HasList: true,
		Values: []Value{
			PathValue("a", Pos{}),
			AssignValue("b", StringValue("5", Pos{}), Pos{}),
		},
	}
	if got := a.String(); got != `#[args(a, b = "5")]` {
		t.Errorf("String() = %s", got)
	}
	eq := Annotation{Name: "text_signature", Eq: &Value{Kind: ValueString, Text: "(a)"}}
	if eq.IsBare() {
		t.Error("name-value annotation is not bare")
	}
	if !(&Annotation{Name: "getter"}).IsBare() {
		t.Error("standalone tag is bare")
	}
}
