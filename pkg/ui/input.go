package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// portInputModel reads a TCP port number. An empty answer takes the default
// when one is set.
type portInputModel struct {
	label       string
	defaultPort uint16
	input       textinput.Model
	errMsg      string

	value   uint16
	done    bool
	aborted bool
}

func newPortInputModel(label string, defaultPort uint16) portInputModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = PortCharLimit
	if defaultPort != 0 {
		ti.Placeholder = strconv.Itoa(int(defaultPort))
	}
	ti.Focus()
	return portInputModel{label: label, defaultPort: defaultPort, input: ti}
}

// parsePort accepts 1..65535.
func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%q is not a port number (1-65535)", s)
	}
	return uint16(n), nil
}

func (m portInputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m portInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			raw := m.input.Value()
			if strings.TrimSpace(raw) == "" {
				if m.defaultPort == 0 {
					m.errMsg = "a local port is required"
					return m, nil
				}
				m.value = m.defaultPort
				m.done = true
				return m, tea.Quit
			}
			port, err := parsePort(raw)
			if err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			m.value = port
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		m.errMsg = ""
	}
	return m, cmd
}

func (m portInputModel) View() string {
	if m.done {
		return renderAnswer(m.label, strconv.Itoa(int(m.value)))
	}
	if m.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.label))
	if m.defaultPort != 0 {
		b.WriteString(helpStyle.Render(fmt.Sprintf(" (%d)", m.defaultPort)))
	}
	b.WriteString("\n" + m.input.View() + "\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg) + "\n")
	}
	b.WriteString(helpStyle.Render(HintInput) + "\n")
	return b.String()
}
