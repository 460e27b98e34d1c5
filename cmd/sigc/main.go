// Command sigc checks and inspects native method declarations bound to a
// dynamic runtime.
//
//	sigc check src/lib.rs           report diagnostics, exit 1 on any
//	sigc dump --format json src/    print the assembled call specs
//	sigc watch src/                 re-check on every change
//	sigc browse src/lib.rs          interactive browser
//
// Inputs are Rust sources (.rs), YAML declaration manifests (.yaml, .yml),
// or directories containing them.
package main

import (
	stderrors "errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !stderrors.Is(err, errCheckFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
