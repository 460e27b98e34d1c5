package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/wippyai/callspec"
	"github.com/wippyai/callspec/diag"
	"github.com/wippyai/callspec/errors"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse PATH...",
		Short: "Browse declarations and their call specs interactively",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newBrowseModel(cmd.Context(), a, args)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}
}

type browseState int

const (
	stateList browseState = iota
	stateFilter
	stateDetail
)

// entry is one declaration row.
type entry struct {
	id    string
	pos   string
	spec  *callspec.CallSpec
	diags diag.List
}

type browseModel struct {
	ctx      context.Context
	err      error
	app      *app
	args     []string
	entries  []entry
	visible  []int // indexes into entries after filtering
	orphans  diag.List
	filter   textinput.Model
	selected int
	state    browseState
	loaded   bool
}

type loadedMsg struct {
	err     error
	entries []entry
	orphans diag.List
}

func newBrowseModel(ctx context.Context, a *app, args []string) *browseModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter"
	ti.Width = 40
	return &browseModel{ctx: ctx, app: a, args: args, filter: ti, state: stateList}
}

func (m *browseModel) Init() tea.Cmd {
	return m.load
}

func (m *browseModel) load() tea.Msg {
	r, err := m.app.check(m.ctx, m.args, nil)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{entries: entries(r), orphans: orphans(r)}
}

// entries pairs every declaration with its spec or diagnostics.
func entries(r *run) []entry {
	res := r.Result
	out := make([]entry, len(res.Declarations))
	for i, d := range res.Declarations {
		out[i] = entry{
			id:    d.ID(),
			pos:   d.Pos.String(),
			spec:  res.Specs[i],
			diags: res.PerDeclaration[i],
		}
	}
	return out
}

// orphans returns front-end diagnostics that belong to no declaration.
func orphans(r *run) diag.List {
	owned := make(map[*errors.Error]bool)
	for _, l := range r.Result.PerDeclaration {
		for _, e := range l {
			owned[e] = true
		}
	}
	var out diag.List
	for _, e := range r.Diagnostics {
		if !owned[e] {
			out = append(out, e)
		}
	}
	return out
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateFilter {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateList && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateList && m.selected < len(m.visible)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateList:
				if len(m.visible) > 0 {
					m.state = stateDetail
				}
			case stateDetail:
				m.state = stateList
			}

		case "esc":
			if m.state == stateDetail {
				m.state = stateList
			}

		case "/":
			if m.state == stateList {
				m.state = stateFilter
				m.filter.Focus()
				return m, textinput.Blink
			}

		case "r":
			if m.state == stateList {
				m.loaded = false
				return m, m.load
			}
		}

	case loadedMsg:
		m.loaded = true
		m.err = msg.err
		m.entries = msg.entries
		m.orphans = msg.orphans
		m.applyFilter()
	}

	return m, nil
}

func (m *browseModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter", "esc":
		if msg.String() == "esc" {
			m.filter.SetValue("")
		}
		m.filter.Blur()
		m.state = stateList
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *browseModel) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, e := range m.entries {
		if q == "" || strings.Contains(strings.ToLower(e.id), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *browseModel) current() *entry {
	if m.selected < 0 || m.selected >= len(m.visible) {
		return nil
	}
	return &m.entries[m.visible[m.selected]]
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Loading declarations..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("sigc"))
	b.WriteString(" ")
	b.WriteString(strings.Join(m.args, " "))
	b.WriteString("\n\n")

	switch m.state {
	case stateList, stateFilter:
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(m.visible) == 0 {
			b.WriteString("No declarations.\n")
		}
		for i, idx := range m.visible {
			line := m.formatEntry(m.entries[idx])
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		for _, e := range m.orphans {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(m.app.styles.diagnostic(e)))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter details • / filter • r reload • q quit"))

	case stateDetail:
		e := m.current()
		if e == nil {
			break
		}
		b.WriteString(funcStyle.Render(e.id))
		b.WriteString("  ")
		b.WriteString(helpStyle.Render(e.pos))
		b.WriteString("\n\n")
		if e.spec != nil {
			var sb strings.Builder
			m.app.styles.spec(&sb, e.spec)
			b.WriteString(sb.String())
			if doc := e.spec.Docstring(); doc != "" {
				b.WriteString("\n")
				b.WriteString(typeStyle.Render(doc))
				b.WriteString("\n")
			}
		}
		for _, d := range e.diags {
			b.WriteString(errorStyle.Render(m.app.styles.diagnostic(d)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter/esc back • q quit"))
	}

	return b.String()
}

func (m *browseModel) formatEntry(e entry) string {
	if e.spec == nil {
		return errorStyle.Render("✗ ") + e.id + " " + helpStyle.Render(fmt.Sprintf("%d diagnostics", len(e.diags)))
	}
	return okStyle.Render("✓ ") + funcStyle.Render(e.spec.ID()) + m.app.styles.signature(e.spec) +
		" -> " + typeStyle.Render(e.spec.Return) + " " + helpStyle.Render(e.spec.Kind.String())
}
