// Package decl is the input model consumed by the signature compiler.
//
// A front-end (see frontend/rust and frontend/manifest) turns source text into
// Declarations. Each Declaration carries its ordered annotation list, its
// ordered parameter list, its return type and a source position for every
// sub-element. Nothing in this package validates anything: it only records
// what was written, so that later stages can report precise diagnostics.
//
// The shape mirrors an annotated native method:
//
//	#[getter(value)]
//	fn get_value(&self, py: Python) -> PyResult<i32>
//
// becomes a Declaration named "get_value" with one Annotation ("getter",
// one path value "value"), a self Param (Ref, not Mutable), a typed Param
// "py" and a Return of "PyResult<i32>".
package decl
