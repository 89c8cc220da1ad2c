// Package ui renders the interactive prompts of a run: a fuzzy chooser, a
// checklist, a port number input and a progress spinner. Each prompt is a
// short-lived bubbletea program drawn inline on stderr.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/xlttj/kfwd/pkg/logging"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("selection aborted")

// ErrNotTerminal is returned when a prompt is needed but stdin is not a terminal.
var ErrNotTerminal = errors.New("interactive selection requires a terminal")

// Prompter runs prompts against a terminal.
type Prompter struct {
	in  io.Reader
	out io.Writer

	interactive func() bool
	run         func(tea.Model) (tea.Model, error)
}

// NewPrompter returns a prompter reading stdin and drawing on stderr, so
// stdout stays free for the forwarding process.
func NewPrompter() *Prompter {
	p := &Prompter{in: os.Stdin, out: os.Stderr}
	p.interactive = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd()))
	}
	p.run = p.runProgram
	return p
}

func (p *Prompter) runProgram(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithInput(p.in), tea.WithOutput(p.out)).Run()
}

func (p *Prompter) ensureInteractive() error {
	if p.interactive != nil && !p.interactive() {
		return ErrNotTerminal
	}
	return nil
}

// Select asks for one of items. defaultIndex preselects an item; pass -1 for none.
func (p *Prompter) Select(label string, items []string, defaultIndex int) (int, error) {
	if err := p.ensureInteractive(); err != nil {
		return -1, err
	}
	if len(items) == 0 {
		return -1, fmt.Errorf("%s: nothing to choose from", label)
	}

	final, err := p.run(newSelectModel(label, items, defaultIndex))
	if err != nil {
		return -1, fmt.Errorf("prompt failed: %w", err)
	}
	m := final.(selectModel)
	if m.aborted || !m.done {
		return -1, ErrAborted
	}
	logging.LogDebug("%s: chose %q", label, items[m.chosen])
	return m.chosen, nil
}

// MultiSelect asks the user to check any subset of items, starting from checked.
// It returns the indexes of the checked items.
func (p *Prompter) MultiSelect(label string, items []string, checked []bool) ([]int, error) {
	if err := p.ensureInteractive(); err != nil {
		return nil, err
	}

	final, err := p.run(newChecklistModel(label, items, checked))
	if err != nil {
		return nil, fmt.Errorf("prompt failed: %w", err)
	}
	m := final.(checklistModel)
	if m.aborted || !m.done {
		return nil, ErrAborted
	}
	return m.selected(), nil
}

// Port asks for a local port number. A zero defaultPort means the user must type one.
func (p *Prompter) Port(label string, defaultPort uint16) (uint16, error) {
	if err := p.ensureInteractive(); err != nil {
		return 0, err
	}

	final, err := p.run(newPortInputModel(label, defaultPort))
	if err != nil {
		return 0, fmt.Errorf("prompt failed: %w", err)
	}
	m := final.(portInputModel)
	if m.aborted || !m.done {
		return 0, ErrAborted
	}
	return m.value, nil
}

// Spin runs work while showing message next to a spinner. Without a terminal
// the work simply runs.
func (p *Prompter) Spin(message string, work func() error) error {
	if p.interactive != nil && !p.interactive() {
		return work()
	}

	final, err := p.run(newSpinnerModel(message, work))
	if err != nil {
		return fmt.Errorf("spinner failed: %w", err)
	}
	m := final.(spinnerModel)
	if m.aborted {
		return ErrAborted
	}
	return m.err
}
