// Package tui holds the terminal views of the CLI.
package tui

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agusespa/securecode/internal/types"
)

var ErrCancelled = errors.New("selection cancelled")

// Picker is a checklist over the issues of a report.
type Picker struct {
	issues    []types.Issue
	cursor    int
	selected  map[int]bool
	done      bool
	cancelled bool
}

func NewPicker(issues []types.Issue) Picker {
	return Picker{issues: issues, selected: make(map[int]bool)}
}

func (m Picker) Init() tea.Cmd {
	return nil
}

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.issues)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.issues) > 0 {
			m.selected[m.cursor] = !m.selected[m.cursor]
		}
	case "a":
		all := len(m.Selected()) < len(m.issues)
		for i := range m.issues {
			m.selected[i] = all
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Picker) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Select issues to resolve"))
	b.WriteString("\n\n")

	for i, issue := range m.issues {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		check := "[ ]"
		if m.selected[i] {
			check = selectedStyle.Render("[x]")
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", cursor, check, SeverityBadge(issue.Severity), issue.Description)
		fmt.Fprintf(&b, "        %s\n", helpStyle.Render(issue.Location))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space: toggle • a: all • enter: resolve • q: cancel"))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the chosen indices in ascending order.
func (m Picker) Selected() []int {
	indices := []int{}
	for i, ok := range m.selected {
		if ok {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)
	return indices
}

// Pick runs the picker on the given terminal streams.
func Pick(issues []types.Issue, in io.Reader, out io.Writer) ([]int, error) {
	p := tea.NewProgram(NewPicker(issues), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("picker failed: %w", err)
	}

	m := final.(Picker)
	if m.cancelled {
		return nil, ErrCancelled
	}
	return m.Selected(), nil
}
