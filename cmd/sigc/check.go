package main

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// errCheckFailed makes the process exit 1 after diagnostics were printed.
var errCheckFailed = stderrors.New("check failed")

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check PATH...",
		Short: "Report diagnostics for every declaration",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.check(cmd.Context(), args, nil)
			if err != nil {
				return err
			}
			a.report(a.stdout, r)
			if a.failed(r) {
				return errCheckFailed
			}
			return nil
		},
	}
}

// report prints diagnostics, deprecations and a summary line.
func (a *app) report(w io.Writer, r *run) {
	for _, e := range r.Diagnostics {
		fmt.Fprintln(w, a.styles.diagnostic(e))
	}
	deprecated := 0
	for _, spec := range r.Result.Assembled() {
		for _, note := range spec.Deprecations {
			fmt.Fprintln(w, a.styles.deprecation(spec, note))
			deprecated++
		}
	}

	total := len(r.Result.Declarations)
	summary := fmt.Sprintf("%d declarations in %d files: %d assembled, %d rejected",
		total, len(r.Files), total-r.Result.Rejected(), r.Result.Rejected())
	if deprecated > 0 {
		summary += fmt.Sprintf(", %d deprecations", deprecated)
	}
	if a.failed(r) {
		fmt.Fprintln(w, a.styles.render(errorStyle, summary))
		return
	}
	fmt.Fprintln(w, a.styles.render(okStyle, summary))
}
