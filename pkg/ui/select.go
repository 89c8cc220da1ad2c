package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

// selectMatch is one visible row of the chooser.
type selectMatch struct {
	index   int   // index into items
	matched []int // rune positions matching the query
}

// selectModel is a fuzzy-filtered single choice list.
type selectModel struct {
	label   string
	items   []string
	query   textinput.Model
	matches []selectMatch
	cursor  int // position in matches

	chosen  int
	done    bool
	aborted bool
}

func newSelectModel(label string, items []string, defaultIndex int) selectModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "filter"
	ti.Focus()

	m := selectModel{label: label, items: items, query: ti, chosen: -1}
	m.filter()
	if defaultIndex >= 0 && defaultIndex < len(items) {
		m.cursor = defaultIndex
	}
	return m
}

// filter recomputes matches from the query. An empty query lists every item in order.
func (m *selectModel) filter() {
	m.matches = m.matches[:0]
	q := m.query.Value()
	if q == "" {
		for i := range m.items {
			m.matches = append(m.matches, selectMatch{index: i})
		}
	} else {
		for _, r := range fuzzy.Find(q, m.items) {
			m.matches = append(m.matches, selectMatch{index: r.Index, matched: r.MatchedIndexes})
		}
	}
	m.cursor = 0
}

func (m selectModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.query, cmd = m.query.Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "enter":
		if len(m.matches) == 0 {
			return m, nil
		}
		m.chosen = m.matches[m.cursor].index
		m.done = true
		return m, tea.Quit
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if m.cursor < len(m.matches)-1 {
			m.cursor++
		}
		return m, nil
	}

	before := m.query.Value()
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	if m.query.Value() != before {
		m.filter()
	}
	return m, cmd
}

// window returns the half-open range of matches to render around the cursor.
func (m selectModel) window() (int, int) {
	start := 0
	if m.cursor >= MaxVisibleItems {
		start = m.cursor - MaxVisibleItems + 1
	}
	end := min(start+MaxVisibleItems, len(m.matches))
	return start, end
}

func highlight(item string, matched []int) string {
	if len(matched) == 0 {
		return item
	}
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range []rune(item) {
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (m selectModel) View() string {
	if m.done {
		return renderAnswer(m.label, m.items[m.chosen])
	}
	if m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.label) + "\n")
	b.WriteString(m.query.View() + "\n")

	start, end := m.window()
	for i := start; i < end; i++ {
		match := m.matches[i]
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(MarkerCursor+" "+m.items[match.index]) + "\n")
			continue
		}
		b.WriteString("  " + highlight(m.items[match.index], match.matched) + "\n")
	}
	if len(m.matches) == 0 {
		b.WriteString(helpStyle.Render("  no matches") + "\n")
	}
	b.WriteString(helpStyle.Render(HintSelect) + "\n")
	return b.String()
}
