package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/callspec"
	"github.com/wippyai/callspec/errors"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	okStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD866"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// styles is the palette for line-oriented output. The zero value prints
// plain text.
type styles struct {
	color bool
}

func newStyles(color bool) styles {
	return styles{color: color}
}

func (s styles) render(st lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return st.Render(text)
}

// diagnostic formats e as "file:line:col: kind: message".
func (s styles) diagnostic(e *errors.Error) string {
	msg := e.Message()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, s.render(errorStyle, string(e.Kind)), msg)
}

func (s styles) deprecation(spec *callspec.CallSpec, note string) string {
	return fmt.Sprintf("%s: %s: %s", spec.Pos, s.render(warnStyle, "deprecated"), note)
}

// spec writes the text rendering of one call spec.
func (s styles) spec(w io.Writer, spec *callspec.CallSpec) {
	fmt.Fprintf(w, "%s %s [%s]\n", s.render(funcStyle, spec.ID()), s.signature(spec), spec.Kind)
	fmt.Fprintf(w, "  native:   %s\n", spec.NativeName)
	fmt.Fprintf(w, "  receiver: %s", spec.Receiver.Kind)
	if spec.Receiver.Type != "" {
		fmt.Fprintf(w, " (%s)", s.render(typeStyle, spec.Receiver.Type))
	}
	fmt.Fprintln(w)
	for _, p := range spec.NativeArgs {
		fmt.Fprintf(w, "  arg %-10s %s", p.Name, s.render(typeStyle, p.Type))
		switch {
		case p.Context:
			fmt.Fprint(w, " context")
		default:
			fmt.Fprintf(w, " %s", p.Role)
			if p.HasDefault() {
				fmt.Fprintf(w, " default=%s", p.Default)
			}
			if p.Optional {
				fmt.Fprint(w, " optional")
			}
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "  returns:  %s\n", s.render(typeStyle, spec.Return))
	if spec.Doc != "" {
		fmt.Fprintf(w, "  doc:      %s\n", strings.ReplaceAll(spec.Doc, "\n", "\n            "))
	}
}

// signature is the text signature when present, else the parameter names.
func (s styles) signature(spec *callspec.CallSpec) string {
	if spec.TextSignature != "" {
		return spec.TextSignature
	}
	names := make([]string, len(spec.Params))
	for i, p := range spec.Params {
		names[i] = p.Name
	}
	return "(" + strings.Join(names, ", ") + ")"
}
