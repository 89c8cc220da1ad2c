package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// checklistModel lets the user toggle any subset of items.
type checklistModel struct {
	label   string
	items   []string
	checked []bool
	cursor  int

	done    bool
	aborted bool
}

func newChecklistModel(label string, items []string, checked []bool) checklistModel {
	state := make([]bool, len(items))
	copy(state, checked)
	return checklistModel{label: label, items: items, checked: state}
}

// selected returns the indexes of checked items in order.
func (m checklistModel) selected() []int {
	var out []int
	for i, c := range m.checked {
		if c {
			out = append(out, i)
		}
	}
	return out
}

func (m checklistModel) Init() tea.Cmd {
	return nil
}

func (m checklistModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc", "q":
		m.aborted = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ", "space", "x":
		if len(m.items) > 0 {
			m.checked[m.cursor] = !m.checked[m.cursor]
		}
	}
	return m, nil
}

func (m checklistModel) View() string {
	if m.done {
		var picked []string
		for _, i := range m.selected() {
			picked = append(picked, m.items[i])
		}
		answer := strings.Join(picked, ", ")
		if answer == "" {
			answer = helpStyle.Render("none")
		}
		return renderAnswer(m.label, answer)
	}
	if m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.label) + "\n")
	for i, item := range m.items {
		box := MarkerUnchecked
		if m.checked[i] {
			box = MarkerChecked
		}
		line := box + " " + item
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(MarkerCursor+" "+line) + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	b.WriteString(helpStyle.Render(HintChecklist) + "\n")
	return b.String()
}
