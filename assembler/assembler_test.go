package assembler

import (
	"reflect"
	"strings"
	"testing"

	"github.com/wippyai/callspec"
	"github.com/wippyai/callspec/decl"
	"github.com/wippyai/callspec/errors"
)

const file = "widget.rs"

func at(line, col int) decl.Pos {
	return decl.Pos{File: file, Line: line, Column: col}
}

func tag(name string) decl.Annotation {
	return decl.Annotation{Name: name, Pos: at(1, 1)}
}

func list(name string, values ...decl.Value) decl.Annotation {
	return decl.Annotation{Name: name, HasList: true, Values: values, Pos: at(1, 1)}
}

func eq(name string, v decl.Value) decl.Annotation {
	return decl.Annotation{Name: name, Eq: &v, Pos: at(1, 1)}
}

func str(s string) decl.Value {
	return decl.StringValue(s, at(1, 3))
}

func path(s string) decl.Value {
	return decl.PathValue(s, at(1, 3))
}

func assign(name string, v decl.Value) decl.Value {
	return decl.AssignValue(name, v, at(1, 3))
}

func doc(line string) decl.Annotation {
	return eq("doc", str(line))
}

func ref() decl.Param {
	return decl.Param{Name: "self", Self: true, Ref: true, Pos: at(2, 12)}
}

func refMut() decl.Param {
	return decl.Param{Name: "self", Self: true, Ref: true, Mutable: true, Pos: at(2, 12)}
}

// arg builds a parameter; col doubles as a unique position per parameter.
func arg(name, typ string, col int) decl.Param {
	return decl.Param{Name: name, Type: decl.ParseType(typ, at(2, col+len(name)+2)), Pos: at(2, col)}
}

func fn(name string, anns []decl.Annotation, params ...decl.Param) *decl.Declaration {
	return &decl.Declaration{
		Name:        name,
		Owner:       "Widget",
		Annotations: anns,
		Params:      params,
		Pos:         at(2, 5),
		Item:        decl.ItemFn,
	}
}

func anns(a ...decl.Annotation) []decl.Annotation { return a }

func assemble(t *testing.T, d *decl.Declaration) *callspec.CallSpec {
	t.Helper()
	spec, diags := New(nil).Assemble(d)
	if !diags.Empty() {
		t.Fatalf("unexpected diagnostics:\n%v", diags)
	}
	if spec == nil {
		t.Fatal("nil spec without diagnostics")
	}
	return spec
}

func reject(t *testing.T, d *decl.Declaration, kind errors.Kind) []*errors.Error {
	t.Helper()
	spec, diags := New(nil).Assemble(d)
	if spec != nil {
		t.Fatalf("expected rejection, got spec %+v", spec)
	}
	if !diags.Has(kind) {
		t.Fatalf("expected %s, got:\n%v", kind, diags)
	}
	var out []*errors.Error
	for _, e := range diags {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestAssemble_PlainMethod(t *testing.T) {
	d := fn("area", nil, ref(), arg("scale", "f64", 20), arg("unit", "Option<&str>", 32), arg("py", "Python<'_>", 50))
	d.Return = decl.ParseType("PyResult<f64>", at(2, 70))

	spec := assemble(t, d)
	if spec.Kind != callspec.Plain {
		t.Errorf("Kind = %s, want plain", spec.Kind)
	}
	if spec.Receiver.Kind != callspec.ReceiverImmutable {
		t.Errorf("Receiver = %s", spec.Receiver.Kind)
	}
	if spec.Name != "area" || spec.NativeName != "area" || spec.ID() != "Widget.area" {
		t.Errorf("names = %q %q %q", spec.Name, spec.NativeName, spec.ID())
	}
	if spec.Return != "PyResult<f64>" {
		t.Errorf("Return = %q", spec.Return)
	}

	if len(spec.Params) != 2 {
		t.Fatalf("Params = %+v", spec.Params)
	}
	if spec.Params[0].Name != "scale" || spec.Params[0].Role != callspec.RolePositional || spec.Params[0].Optional {
		t.Errorf("Params[0] = %+v", spec.Params[0])
	}
	if spec.Params[1].Name != "unit" || !spec.Params[1].Optional {
		t.Errorf("Params[1] = %+v", spec.Params[1])
	}

	if len(spec.NativeArgs) != 3 {
		t.Fatalf("NativeArgs = %+v", spec.NativeArgs)
	}
	if !spec.NativeArgs[2].Context || spec.NativeArgs[2].Name != "py" {
		t.Errorf("NativeArgs[2] = %+v, want the context handle", spec.NativeArgs[2])
	}
	for _, p := range spec.Params {
		if p.Context {
			t.Errorf("context handle %q leaked into Params", p.Name)
		}
	}
}

func TestAssemble_InferredReturn(t *testing.T) {
	spec := assemble(t, fn("touch", nil, refMut()))
	if spec.Return != "_" {
		t.Errorf("Return = %q, want _", spec.Return)
	}
	if spec.Receiver.Kind != callspec.ReceiverMutable {
		t.Errorf("Receiver = %s", spec.Receiver.Kind)
	}
}

func TestAssemble_DefaultKindRequiresReceiver(t *testing.T) {
	errs := reject(t, fn("make", nil), errors.KindMissingReceiver)
	if !strings.Contains(errs[0].Detail, "#[staticmethod]") {
		t.Errorf("Detail = %q", errs[0].Detail)
	}
	// A context handle is not receiver-shaped.
	reject(t, fn("make", nil, arg("py", "Python", 10)), errors.KindMissingReceiver)
}

func TestAssemble_ConversionReceiver(t *testing.T) {
	spec := assemble(t, fn("bump", nil, arg("slf", "PyRefMut<Self>", 10), arg("n", "u32", 40)))
	if spec.Receiver.Kind != callspec.ReceiverConversion || spec.Receiver.Type != "PyRefMut<Self>" {
		t.Errorf("Receiver = %+v", spec.Receiver)
	}
	if len(spec.Params) != 1 || spec.Params[0].Name != "n" {
		t.Errorf("Params = %+v", spec.Params)
	}
}

func TestAssemble_TwoBindingKinds(t *testing.T) {
	reject(t, fn("X", anns(tag("classattr"), tag("staticmethod"))), errors.KindStructuralConflict)
	reject(t, fn("x", anns(tag("getter"), tag("setter")), ref()), errors.KindStructuralConflict)
}

func TestAssemble_ClassAttribute(t *testing.T) {
	spec := assemble(t, fn("DEFAULT", anns(tag("classattr"))))
	if spec.Kind != callspec.ClassAttribute || spec.Receiver.Kind != callspec.ReceiverNone {
		t.Errorf("spec = %+v", spec)
	}

	errs := reject(t, fn("DEFAULT", anns(tag("classattr")), arg("x", "i32", 10)), errors.KindIllegalPlacement)
	if errs[0].Detail != "class attribute methods cannot take arguments" {
		t.Errorf("Detail = %q", errs[0].Detail)
	}
	if errs[0].Pos != at(2, 10) {
		t.Errorf("Pos = %v", errs[0].Pos)
	}

	// Context handles are arguments too.
	reject(t, fn("DEFAULT", anns(tag("classattr")), arg("py", "Python", 10)), errors.KindIllegalPlacement)
	// And so is a receiver.
	reject(t, fn("DEFAULT", anns(tag("classattr")), ref()), errors.KindUnsupportedShape)
}

func TestAssemble_ConstClassAttribute(t *testing.T) {
	d := &decl.Declaration{
		Name:        "LIMIT",
		Owner:       "Widget",
		Annotations: anns(tag("classattr")),
		Return:      decl.ParseType("u32", at(4, 18)),
		Pos:         at(4, 5),
		Item:        decl.ItemConst,
	}
	spec := assemble(t, d)
	if spec.Kind != callspec.ClassAttribute || spec.Return != "u32" || spec.Name != "LIMIT" {
		t.Errorf("spec = %+v", spec)
	}

	d.Annotations = anns(tag("getter"))
	errs := reject(t, d, errors.KindIllegalPlacement)
	if !strings.Contains(errs[0].Detail, "#[classattr]") {
		t.Errorf("Detail = %q", errs[0].Detail)
	}
}

func TestAssemble_StaticMethod(t *testing.T) {
	spec := assemble(t, fn("build", anns(tag("staticmethod")), arg("size", "usize", 10)))
	if spec.Receiver.Kind != callspec.ReceiverNone || len(spec.Params) != 1 {
		t.Errorf("spec = %+v", spec)
	}

	errs := reject(t, fn("build", anns(tag("staticmethod")), ref(), arg("size", "usize", 20)), errors.KindUnsupportedShape)
	if len(errs) != 1 {
		t.Errorf("receiver should be reported once, got %v", errs)
	}
}

func TestAssemble_ClassMethod(t *testing.T) {
	spec := assemble(t, fn("from_size", anns(tag("classmethod")), arg("cls", "&PyType", 10), arg("size", "usize", 30)))
	if spec.Kind != callspec.ClassMethod || spec.Receiver.Kind != callspec.ReceiverNone {
		t.Errorf("spec = %+v", spec)
	}
	if len(spec.Params) != 1 || spec.Params[0].Name != "size" {
		t.Errorf("class object should be skipped, Params = %+v", spec.Params)
	}
	if len(spec.NativeArgs) != 1 {
		t.Errorf("NativeArgs = %+v", spec.NativeArgs)
	}

	reject(t, fn("from_size", anns(tag("classmethod"))), errors.KindMissingReceiver)
}

func TestAssemble_Accessors(t *testing.T) {
	tests := []struct {
		name string
		d    *decl.Declaration
		want string
	}{
		{"prefix stripped", fn("get_x", anns(tag("getter")), ref()), "x"},
		{"explicit override wins", fn("get_x", anns(list("getter", path("y"))), ref()), "y"},
		{"string override", fn("get_x", anns(list("getter", str("y"))), ref()), "y"},
		{"pyo3 name", fn("get_x", anns(tag("getter"), list("pyo3", assign("name", str("y")))), ref()), "y"},
		{"no prefix", fn("width", anns(tag("getter")), ref()), "width"},
		{"setter prefix", fn("set_x", anns(tag("setter")), refMut(), arg("value", "i32", 30)), "x"},
		{"setter keeps get_", fn("get_x", anns(tag("setter")), refMut(), arg("value", "i32", 30)), "get_x"},
		{"raw identifier", fn("r#get_type", anns(tag("getter")), ref()), "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := assemble(t, tt.d)
			if spec.Name != tt.want {
				t.Errorf("Name = %q, want %q", spec.Name, tt.want)
			}
			if !spec.Kind.IsProperty() {
				t.Errorf("Kind = %s", spec.Kind)
			}
		})
	}
}

func TestAssemble_AccessorErrors(t *testing.T) {
	errs := reject(t, fn("get_x", anns(tag("getter"))), errors.KindMissingReceiver)
	if !strings.Contains(errs[0].Detail, "#[getter]") {
		t.Errorf("Detail = %q", errs[0].Detail)
	}

	reject(t, fn("get_", anns(tag("getter")), ref()), errors.KindAmbiguousName)
	reject(t, fn("get_x", anns(tag("getter")), ref(), arg("v", "i32", 20)), errors.KindUnsupportedShape)
	reject(t, fn("set_x", anns(tag("setter")), refMut()), errors.KindUnsupportedShape)
	reject(t, fn("set_x", anns(tag("setter")), refMut(), arg("a", "i32", 20), arg("b", "i32", 30)), errors.KindUnsupportedShape)

	// Context handles do not count towards accessor arity.
	spec := assemble(t, fn("get_x", anns(tag("getter")), ref(), arg("py", "Python", 20)))
	if len(spec.NativeArgs) != 1 || !spec.NativeArgs[0].Context {
		t.Errorf("NativeArgs = %+v", spec.NativeArgs)
	}
}

func TestAssemble_NulInDerivedName(t *testing.T) {
	errs := reject(t, fn("get_a\x00b", anns(tag("getter")), ref()), errors.KindInvalidInput)
	if !strings.Contains(errs[0].Detail, "NUL") {
		t.Errorf("Detail = %q", errs[0].Detail)
	}
	reject(t, fn("do\x00it", nil, ref()), errors.KindInvalidInput)
	reject(t, fn("r#a\x00", nil, ref()), errors.KindInvalidInput)
}

func TestAssemble_FixedNames(t *testing.T) {
	spec := assemble(t, fn("create", anns(tag("new")), arg("size", "usize", 10)))
	if spec.Kind != callspec.Constructor || spec.Name != "__new__" || spec.NativeName != "create" {
		t.Errorf("constructor spec = %+v", spec)
	}
	if spec.NulTerminatedName() != "__new__\x00" {
		t.Errorf("NulTerminatedName = %q", spec.NulTerminatedName())
	}

	spec = assemble(t, fn("invoke", anns(tag("call")), ref(), arg("x", "i32", 20)))
	if spec.Kind != callspec.CallOperator || spec.Name != "__call__" {
		t.Errorf("call spec = %+v", spec)
	}

	errs := reject(t, fn("create", anns(tag("new"), list("pyo3", assign("name", str("make"))))), errors.KindStructuralConflict)
	if !strings.Contains(errs[0].Detail, "#[new]") {
		t.Errorf("Detail = %q", errs[0].Detail)
	}
	reject(t, fn("invoke", anns(tag("call"), eq("name", str("go"))), ref()), errors.KindStructuralConflict)
}

func TestAssemble_TextSignaturePlacement(t *testing.T) {
	sig := eq("text_signature", str("(size)"))

	errs := reject(t, fn("create", anns(tag("new"), sig), arg("size", "usize", 10)), errors.KindIllegalPlacement)
	newMsg := errs[0].Detail
	if !strings.Contains(newMsg, "__new__") {
		t.Errorf("Detail = %q", newMsg)
	}

	spec := assemble(t, fn("resize", anns(sig), ref(), arg("size", "usize", 20)))
	if spec.TextSignature != "(size)" || spec.Signature() != "resize(size)" {
		t.Errorf("TextSignature = %q, Signature = %q", spec.TextSignature, spec.Signature())
	}

	illegal := []struct {
		d    *decl.Declaration
		want string
	}{
		{fn("invoke", anns(tag("call"), sig), ref()), "#[call]"},
		{fn("get_x", anns(tag("getter"), sig), ref()), "#[getter]"},
		{fn("set_x", anns(tag("setter"), sig), refMut(), arg("v", "i32", 20)), "#[setter]"},
		{fn("X", anns(tag("classattr"), sig)), "#[classattr]"},
	}
	seen := map[string]bool{newMsg: true}
	for _, tt := range illegal {
		errs := reject(t, tt.d, errors.KindIllegalPlacement)
		msg := errs[0].Detail
		if seen[msg] {
			t.Errorf("%s: message %q reused for another kind", tt.d.Name, msg)
		}
		seen[msg] = true
		if want := "text_signature not allowed with this method type (" + tt.want + ")"; msg != want {
			t.Errorf("%s: Detail = %q, want %q", tt.d.Name, msg, want)
		}
	}

	assemble(t, fn("build", anns(tag("staticmethod"), sig), arg("size", "usize", 10)))
	assemble(t, fn("build", anns(tag("classmethod"), sig), arg("cls", "&PyType", 10), arg("size", "usize", 30)))
}

func TestAssemble_GeneratedSignature(t *testing.T) {
	sig := tag("text_signature")
	args := list("args",
		assign("b", str("5")),
		assign("args", str("*")),
		path("c"),
		assign("kwargs", str("**")),
	)
	params := []decl.Param{
		ref(),
		arg("a", "i32", 10),
		arg("b", "i32", 20),
		arg("args", "&PyTuple", 30),
		arg("c", "i32", 40),
		arg("kwargs", "Option<&PyDict>", 50),
	}

	spec := assemble(t, fn("call_me", anns(sig, args), params...))
	if want := "($self, a, b=5, *args, c, **kwargs)"; spec.TextSignature != want {
		t.Errorf("TextSignature = %q, want %q", spec.TextSignature, want)
	}
	roles := []callspec.Role{callspec.RolePositional, callspec.RolePositional, callspec.RoleVarArgs, callspec.RoleKeywordOnly, callspec.RoleVarKwargs}
	for i, r := range roles {
		if spec.Params[i].Role != r {
			t.Errorf("Params[%d].Role = %s, want %s", i, spec.Params[i].Role, r)
		}
	}
	if p, ok := spec.VarArgs(); !ok || p.Name != "args" {
		t.Errorf("VarArgs = %+v", p)
	}
	if p, ok := spec.VarKwargs(); !ok || p.Name != "kwargs" {
		t.Errorf("VarKwargs = %+v", p)
	}
	if p, ok := spec.Param("b"); !ok || p.Default != "5" {
		t.Errorf("Param(b) = %+v", p)
	}

	spec = assemble(t, fn("make", anns(sig, tag("classmethod"), list("args", str("*"), path("fast"))),
		arg("cls", "&PyType", 10), arg("size", "usize", 20), arg("fast", "bool", 30)))
	if want := "($cls, size, *, fast)"; spec.TextSignature != want {
		t.Errorf("classmethod TextSignature = %q, want %q", spec.TextSignature, want)
	}

	spec = assemble(t, fn("make", anns(sig, tag("staticmethod")), arg("size", "Option<usize>", 10)))
	if want := "(size=None)"; spec.TextSignature != want {
		t.Errorf("staticmethod TextSignature = %q, want %q", spec.TextSignature, want)
	}
}

func TestAssemble_ParamAnnotations(t *testing.T) {
	rest := arg("rest", "&PyTuple", 20)
	rest.Annotations = anns(list("arg", path("varargs")))
	limit := arg("limit", "u32", 30)
	limit.Annotations = anns(list("arg", path("kw_only"), assign("default", str("10"))))

	spec := assemble(t, fn("scan", anns(tag("text_signature")), ref(), rest, limit))
	if want := "($self, *rest, limit=10)"; spec.TextSignature != want {
		t.Errorf("TextSignature = %q, want %q", spec.TextSignature, want)
	}
}

func TestAssemble_Ordering(t *testing.T) {
	tests := []struct {
		name   string
		args   decl.Annotation
		params []decl.Param
	}{
		{
			name:   "positional after varargs",
			args:   list("args", assign("args", str("*"))),
			params: []decl.Param{ref(), arg("args", "&PyTuple", 10), arg("late", "i32", 20)},
		},
		{
			name:   "anything after kwargs",
			args:   list("args", assign("kw", str("**"))),
			params: []decl.Param{ref(), arg("kw", "&PyDict", 10), arg("late", "i32", 20)},
		},
		{
			name:   "positional after keyword-only",
			args:   list("args", str("*"), path("k")),
			params: []decl.Param{ref(), arg("k", "i32", 10), arg("late", "i32", 20)},
		},
		{
			name:   "varargs after keyword-only",
			args:   list("args", str("*"), path("k"), assign("rest", str("*"))),
			params: []decl.Param{ref(), arg("k", "i32", 10), arg("rest", "&PyTuple", 20)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, diags := New(nil).Assemble(fn("m", anns(tt.args), tt.params...))
			if spec != nil {
				t.Fatalf("expected rejection, got %+v", spec)
			}
			if !diags.Has(errors.KindStructuralConflict) {
				t.Errorf("expected structural_conflict, got:\n%v", diags)
			}
		})
	}
}

func TestAssemble_ArgumentAttributes(t *testing.T) {
	errs := reject(t, fn("m", anns(list("args", assign("kwargs", str("**")))), ref(), arg("a", "i32", 10)), errors.KindUnknownParameter)
	if errs[0].Path[0] != "kwargs" {
		t.Errorf("Path = %v", errs[0].Path)
	}

	// The receiver and context handles are not part of the calling convention.
	reject(t, fn("m", anns(list("args", assign("self", str("*")))), ref()), errors.KindUnknownParameter)
	reject(t, fn("m", anns(list("args", assign("py", str("*")))), ref(), arg("py", "Python", 10)), errors.KindUnknownParameter)

	both := arg("a", "&PyTuple", 10)
	both.Annotations = anns(list("arg", path("varargs"), path("kwargs")))
	reject(t, fn("m", nil, ref(), both), errors.KindAttributeConflict)

	defaulted := arg("a", "&PyDict", 10)
	defaulted.Annotations = anns(list("arg", path("kwargs"), assign("default", str("None"))))
	reject(t, fn("m", nil, ref(), defaulted), errors.KindIllegalPlacement)
}

func TestAssemble_TypeShapes(t *testing.T) {
	t.Run("generic", func(t *testing.T) {
		for _, kind := range []string{"", "staticmethod", "getter", "new"} {
			var a []decl.Annotation
			if kind != "" {
				a = anns(tag(kind))
			}
			params := []decl.Param{ref()}
			if kind == "staticmethod" || kind == "new" {
				params = nil
			}
			d := fn("m", a, params...)
			d.Generics = []decl.GenericParam{{Name: "T", Pos: at(2, 8)}}
			errs := reject(t, d, errors.KindUnsupportedShape)
			if errs[0].Pos != at(2, 8) {
				t.Errorf("%s: Pos = %v", kind, errs[0].Pos)
			}
		}
	})

	t.Run("lifetime generic", func(t *testing.T) {
		d := fn("m", nil, ref())
		d.Generics = []decl.GenericParam{{Name: "'a", Lifetime: true, Pos: at(2, 8)}}
		assemble(t, d)
	})

	t.Run("existential anywhere", func(t *testing.T) {
		first := reject(t, fn("m", nil, arg("slf", "impl AsRef<Widget>", 10)), errors.KindUnsupportedShape)
		later := reject(t, fn("m", nil, ref(), arg("f", "impl Fn()", 20)), errors.KindUnsupportedShape)
		nested := reject(t, fn("m", anns(tag("staticmethod")), arg("xs", "Vec<impl Display>", 10)), errors.KindUnsupportedShape)
		if first[0].Detail == later[0].Detail {
			t.Errorf("receiver and argument positions should have distinct messages: %q", first[0].Detail)
		}
		if later[0].Pos != at(2, 23) {
			t.Errorf("Pos = %v, want the type location", later[0].Pos)
		}
		if nested[0].Detail != later[0].Detail {
			t.Errorf("nested existential Detail = %q", nested[0].Detail)
		}
	})

	t.Run("existential return", func(t *testing.T) {
		d := fn("m", nil, ref())
		d.Return = decl.ParseType("impl Iterator<Item = u8>", at(2, 40))
		errs := reject(t, d, errors.KindUnsupportedShape)
		if !strings.Contains(errs[0].Detail, "return") {
			t.Errorf("Detail = %q", errs[0].Detail)
		}
	})

	t.Run("async", func(t *testing.T) {
		d := fn("m", nil, ref(), arg("x", "i32", 20))
		d.Async = true
		reject(t, d, errors.KindUnsupportedShape)
	})

	t.Run("pattern", func(t *testing.T) {
		p := arg("(a, b)", "(i32, i32)", 20)
		p.Pattern = decl.PatternOther
		errs := reject(t, fn("m", nil, ref(), p), errors.KindUnsupportedShape)
		if errs[0].Detail != "unsupported argument" {
			t.Errorf("Detail = %q", errs[0].Detail)
		}
	})
}

func TestAssemble_CollectsIndependentErrors(t *testing.T) {
	d := fn("m", anns(tag("new"), eq("text_signature", str("()"))), arg("f", "impl Fn()", 20))
	d.Async = true
	d.Generics = []decl.GenericParam{{Name: "T", Pos: at(2, 8)}}

	_, diags := New(nil).Assemble(d)
	if got := diags.Count(errors.KindUnsupportedShape); got != 3 {
		t.Errorf("unsupported_shape count = %d, want 3 (async, generic, existential):\n%v", got, diags)
	}
	if !diags.Has(errors.KindIllegalPlacement) {
		t.Errorf("signature placement error missing:\n%v", diags)
	}
}

func TestAssemble_Documentation(t *testing.T) {
	d := fn("area", anns(doc(" Computes the area."), doc(""), doc("  Indented.")), ref())
	spec := assemble(t, d)
	if want := "Computes the area.\n\n Indented."; spec.Doc != want {
		t.Errorf("Doc = %q, want %q", spec.Doc, want)
	}

	d.Annotations = append(d.Annotations, eq("text_signature", str("()")))
	spec = assemble(t, d)
	if want := "area()\n--\n\nComputes the area.\n\n Indented."; spec.Docstring() != want {
		t.Errorf("Docstring = %q, want %q", spec.Docstring(), want)
	}
}

func TestAssemble_LegacyNameDeprecation(t *testing.T) {
	spec := assemble(t, fn("area", anns(eq("name", str("surface"))), ref()))
	if spec.Name != "surface" {
		t.Errorf("Name = %q", spec.Name)
	}
	if len(spec.Deprecations) != 1 {
		t.Errorf("Deprecations = %v", spec.Deprecations)
	}
}

func TestAssemble_CustomContextSet(t *testing.T) {
	a := New(NewContextSet("Vm", "Python"))
	spec, diags := a.Assemble(fn("run", nil, ref(), arg("vm", "&Vm", 10), arg("x", "i32", 20)))
	if !diags.Empty() {
		t.Fatalf("unexpected diagnostics:\n%v", diags)
	}
	if len(spec.Params) != 1 || spec.Params[0].Name != "x" {
		t.Errorf("Params = %+v", spec.Params)
	}
	if got := a.Contexts().Names(); !reflect.DeepEqual(got, []string{"Python", "Vm"}) {
		t.Errorf("Names = %v", got)
	}
}

func TestContextSet_QualifiedNames(t *testing.T) {
	s := NewContextSet("pyo3::Python", "crate::vm::Vm", "::")
	if got := s.Names(); !reflect.DeepEqual(got, []string{"Python", "Vm"}) {
		t.Errorf("Names = %v", got)
	}
	for _, typ := range []string{"Python<'py>", "pyo3::Python", "&vm::Vm"} {
		if !s.IsContext(decl.ParseType(typ, decl.Pos{})) {
			t.Errorf("IsContext(%s) = false", typ)
		}
	}
	if s.IsContext(decl.ParseType("PyAny", decl.Pos{})) {
		t.Error("IsContext(PyAny) = true")
	}

	spec, diags := New(s).Assemble(fn("run", nil, ref(), arg("py", "Python<'_>", 10), arg("x", "i32", 30)))
	if !diags.Empty() {
		t.Fatalf("unexpected diagnostics:\n%v", diags)
	}
	if len(spec.Params) != 1 || spec.Params[0].Name != "x" {
		t.Errorf("Params = %+v", spec.Params)
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	a := New(nil)
	decls := []*decl.Declaration{
		fn("call_me", anns(tag("text_signature"), list("args", assign("b", str("5")))), ref(), arg("a", "i32", 10), arg("b", "i32", 20)),
		fn("get_x", anns(tag("getter"), tag("setter"))),
		fn("X", anns(tag("classattr"), tag("staticmethod")), arg("f", "impl Fn()", 10)),
	}
	for _, d := range decls {
		s1, d1 := a.Assemble(d)
		s2, d2 := a.Assemble(d)
		if !reflect.DeepEqual(s1, s2) {
			t.Errorf("%s: specs differ:\n%+v\n%+v", d.Name, s1, s2)
		}
		if !reflect.DeepEqual(d1, d2) {
			t.Errorf("%s: diagnostics differ:\n%v\n%v", d.Name, d1, d2)
		}
	}
}
