package components

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pickedMsg string

func key(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func TestMenuSkipsDisabledItems(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "broken", Disabled: true},
		{Label: "fractions"},
		{Label: "broken too", Disabled: true},
		{Label: "decimals"},
	})
	assert.Equal(t, 1, m.Selected)

	m, _ = m.Update(key(tea.KeyDown))
	assert.Equal(t, 3, m.Selected)

	m, _ = m.Update(key(tea.KeyDown))
	assert.Equal(t, 3, m.Selected)

	m, _ = m.Update(key(tea.KeyUp))
	assert.Equal(t, 1, m.Selected)
}

func TestMenuEnterRunsAction(t *testing.T) {
	m := NewMenu([]MenuItem{{
		Label: "fractions",
		Action: func() tea.Cmd {
			return func() tea.Msg { return pickedMsg("fractions") }
		},
	}})

	_, cmd := m.Update(key(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Equal(t, pickedMsg("fractions"), cmd())
	assert.Contains(t, m.View(), "fractions")
}

func TestAnswerInput(t *testing.T) {
	in := NewAnswerInput("Type your answer", 10)
	for _, r := range " 1/2 " {
		in, _ = in.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	assert.Equal(t, "1/2", in.Value())

	in.Clear()
	assert.Empty(t, in.Value())

	in.SetEnabled(false)
	in, _ = in.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	assert.Empty(t, in.Value())
}
