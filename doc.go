// Package callspec compiles annotated native method declarations into call
// specifications for a dynamically typed embedding runtime.
//
// A CallSpec records everything a trampoline emitter needs to invoke one
// declaration from the dynamic side: the binding kind, how the receiver is
// borrowed, the external name, the ordered parameters with their roles and
// defaults, the return type, documentation and an optional text signature.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	callspec/            Root package: CallSpec, BindingKind and the per-kind rule table
//	├── decl/            Input model: declarations, annotations, parameters, types
//	├── attrs/           Annotation classifier (binding kind, name override, argument shapes)
//	├── receiver/        Receiver resolution for the first parameter slot
//	├── argtable/        Per-parameter argument attribute lookups
//	├── assembler/       Terminal step: validates a declaration and builds its CallSpec
//	├── diag/            Concurrent-safe diagnostic collection
//	├── compiler/        Parallel batch driver with logging and metrics
//	├── frontend/rust/   tree-sitter front-end for #[pymethods] impl blocks
//	├── frontend/manifest/ YAML declaration manifests
//	├── config/          CLI configuration
//	├── cmd/sigc/        check, dump, watch and browse commands
//	└── errors/          Structured error types for diagnostics
//
// # Quick Start
//
// Compile the methods of a source file:
//
//	decls, parseDiags, err := rust.NewParser().Parse(ctx, src, "lib.rs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c := compiler.New(compiler.Options{})
//	res, err := c.Compile(ctx, decls)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, spec := range res.Specs {
//	    if spec != nil {
//	        fmt.Println(spec.Signature())
//	    }
//	}
//
// # Binding Kinds
//
//   - Plain: ordinary method; requires a receiver
//   - Constructor (#[new]): no receiver; exposed as __new__
//   - CallOperator (#[call]): requires a receiver; exposed as __call__
//   - ClassMethod / StaticMethod: no receiver
//   - ClassAttribute (#[classattr]): no receiver and no parameters
//   - Getter / Setter: require a receiver; property name derived from get_/set_
//
// # Diagnostics
//
// A declaration either assembles into a CallSpec or is rejected with every
// independent diagnostic found. Rejection never affects other declarations.
//
// # Thread Safety
//
// Assembly is a pure function of one declaration. Declarations may be
// assembled concurrently; diag.Sink is the only shared collector.
package callspec
