package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/callspec"
	"github.com/wippyai/callspec/diag"
)

type dumpDiagnostic struct {
	Pos     string `json:"pos" yaml:"pos"`
	Phase   string `json:"phase" yaml:"phase"`
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

type dumpDoc struct {
	Specs       []*callspec.CallSpec `json:"specs" yaml:"specs"`
	Diagnostics []dumpDiagnostic     `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump PATH...",
		Short: "Print the assembled call specs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.check(cmd.Context(), args, nil)
			if err != nil {
				return err
			}
			return a.dump(a.stdout, r)
		},
	}
}

func (a *app) dump(w io.Writer, r *run) error {
	doc := dumpDoc{Specs: r.Result.Assembled(), Diagnostics: dumpDiagnostics(r.Diagnostics)}

	switch a.cfg.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}

	for i, spec := range doc.Specs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		a.styles.spec(w, spec)
	}
	if len(r.Diagnostics) > 0 {
		if len(doc.Specs) > 0 {
			fmt.Fprintln(w)
		}
		for _, e := range r.Diagnostics {
			fmt.Fprintln(w, a.styles.diagnostic(e))
		}
	}
	return nil
}

func dumpDiagnostics(l diag.List) []dumpDiagnostic {
	out := make([]dumpDiagnostic, 0, len(l))
	for _, e := range l {
		msg := e.Message()
		if e.Cause != nil {
			msg += ": " + e.Cause.Error()
		}
		out = append(out, dumpDiagnostic{
			Pos:     e.Pos.String(),
			Phase:   string(e.Phase),
			Kind:    string(e.Kind),
			Message: msg,
		})
	}
	return out
}
