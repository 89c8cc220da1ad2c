package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drive feeds msgs through m's Update like a running program would.
func drive(m tea.Model, msgs ...tea.Msg) tea.Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func scripted(msgs ...tea.Msg) *Prompter {
	return &Prompter{
		interactive: func() bool { return true },
		run: func(m tea.Model) (tea.Model, error) {
			return drive(m, msgs...), nil
		},
	}
}

func TestSelectDefault(t *testing.T) {
	idx, err := scripted(keyEnter).Select("Select namespace", []string{"dev", "prod"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestSelectNoDefaultStartsAtTop(t *testing.T) {
	idx, err := scripted(keyEnter).Select("Select namespace", []string{"dev", "prod"}, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestSelectNavigationClamps(t *testing.T) {
	idx, err := scripted(keyDown, keyDown, keyDown, keyUp, keyEnter).Select("Select", []string{"a", "b", "c"}, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = scripted(keyUp, keyUp, keyEnter).Select("Select", []string{"a", "b", "c"}, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestSelectFuzzyFilter(t *testing.T) {
	items := []string{"default", "dev", "prod", "kube-system"}

	idx, err := scripted(typed("p"), typed("r"), typed("d"), keyEnter).Select("Select namespace", items, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestSelectEnterWithNoMatchesDoesNothing(t *testing.T) {
	m := drive(newSelectModel("Select", []string{"dev"}, 0), typed("zzz"), keyEnter).(selectModel)
	assert.False(t, m.done)
	assert.Empty(t, m.matches)
	assert.Contains(t, m.View(), "no matches")
}

func TestSelectAbort(t *testing.T) {
	_, err := scripted(keyEsc).Select("Select", []string{"a", "b"}, 0)
	assert.ErrorIs(t, err, ErrAborted)
}

func TestSelectViewAfterAnswer(t *testing.T) {
	m := drive(newSelectModel("Select service", []string{"api", "db"}, 1), keyEnter).(selectModel)
	assert.Contains(t, m.View(), "db")
	assert.Contains(t, m.View(), MarkerDone)
}

func TestSelectWindowScrolls(t *testing.T) {
	items := make([]string, 25)
	for i := range items {
		items[i] = string(rune('a' + i))
	}
	m := newSelectModel("Select", items, 20)
	start, end := m.window()
	assert.Equal(t, 11, start)
	assert.Equal(t, 21, end)
}

func TestMultiSelectKeepsPrecheckedState(t *testing.T) {
	got, err := scripted(keyEnter).MultiSelect("Ports", []string{"8080"}, []bool{true})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)
}

func TestMultiSelectDeselect(t *testing.T) {
	got, err := scripted(typed("x"), keyEnter).MultiSelect("Ports", []string{"8080"}, []bool{true})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMultiSelectToggleSecond(t *testing.T) {
	got, err := scripted(keyDown, typed("x"), keyEnter).MultiSelect("Ports", []string{"80", "443"}, []bool{true, false})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got)
}

func TestMultiSelectAbort(t *testing.T) {
	_, err := scripted(keyEsc).MultiSelect("Ports", []string{"80"}, nil)
	assert.ErrorIs(t, err, ErrAborted)
}

func TestPortUsesDefaultOnEmptyInput(t *testing.T) {
	port, err := scripted(keyEnter).Port("Forward container port 8080 to local port:", 9090)
	require.NoError(t, err)
	assert.Equal(t, uint16(9090), port)
}

func TestPortOverridesDefault(t *testing.T) {
	port, err := scripted(typed("18080"), keyEnter).Port("Forward", 9090)
	require.NoError(t, err)
	assert.Equal(t, uint16(18080), port)
}

func TestPortRequiresValueWithoutDefault(t *testing.T) {
	m := drive(newPortInputModel("Forward", 0), keyEnter).(portInputModel)
	assert.False(t, m.done)
	assert.NotEmpty(t, m.errMsg)

	m = drive(m, typed("3000"), keyEnter).(portInputModel)
	assert.True(t, m.done)
	assert.Equal(t, uint16(3000), m.value)
}

func TestPortRejectsInvalidNumbers(t *testing.T) {
	for _, in := range []string{"0", "abc", "65536", "-1"} {
		t.Run(in, func(t *testing.T) {
			m := drive(newPortInputModel("Forward", 0), typed(in), keyEnter).(portInputModel)
			assert.False(t, m.done)
			assert.Contains(t, m.View(), "not a port number")
		})
	}
}

func TestPortAbort(t *testing.T) {
	_, err := scripted(keyEsc).Port("Forward", 0)
	assert.ErrorIs(t, err, ErrAborted)
}

func TestNotTerminal(t *testing.T) {
	p := &Prompter{interactive: func() bool { return false }}

	_, err := p.Select("Select", []string{"a", "b"}, 0)
	assert.ErrorIs(t, err, ErrNotTerminal)
	_, err = p.MultiSelect("Ports", []string{"a"}, nil)
	assert.ErrorIs(t, err, ErrNotTerminal)
	_, err = p.Port("Forward", 0)
	assert.ErrorIs(t, err, ErrNotTerminal)

	ran := false
	require.NoError(t, p.Spin("Loading", func() error { ran = true; return nil }))
	assert.True(t, ran, "work still runs without a terminal")
}

func TestSpinReturnsWorkError(t *testing.T) {
	workErr := errors.New("kubectl failed")
	p := &Prompter{
		interactive: func() bool { return true },
		run: func(m tea.Model) (tea.Model, error) {
			sm := m.(spinnerModel)
			return drive(sm, workDoneMsg{err: sm.work()}), nil
		},
	}

	err := p.Spin("Getting available namespaces...", func() error { return workErr })
	assert.ErrorIs(t, err, workErr)
}

func TestSpinnerViewClearsWhenDone(t *testing.T) {
	m := newSpinnerModel("Loading", func() error { return nil })
	assert.Contains(t, m.View(), "Loading")

	done := drive(m, workDoneMsg{}).(spinnerModel)
	assert.Empty(t, done.View())
}

func TestParsePort(t *testing.T) {
	port, err := parsePort(" 443 ")
	require.NoError(t, err)
	assert.Equal(t, uint16(443), port)

	_, err = parsePort("99999")
	assert.Error(t, err)
}
