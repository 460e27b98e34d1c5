// Package errors provides structured error types for the signature compiler.
//
// Errors are categorized by Phase (which stage raised them) and Kind (the
// violated rule). Each Error carries the source position of the offending
// element so a diagnostic can be reported file/line accurately.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseClassify, errors.KindStructuralConflict).
//		At(attr.Pos).
//		Path("MyClass::method").
//		Detail("cannot specify a second method type").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingReceiver(d.Pos, "expected receiver for #[getter]")
//	err := errors.UnknownParameter(v.Pos, "kwargs")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
