package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lessonplayer/internal/ui/theme"
)

// AnswerInput is the free-text answer box of a card.
type AnswerInput struct {
	Model textinput.Model
}

// NewAnswerInput creates a focused answer box limited to charLimit runes.
func NewAnswerInput(placeholder string, charLimit int) AnswerInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	ti.Focus()
	return AnswerInput{Model: ti}
}

func (a AnswerInput) Init() tea.Cmd {
	return a.Model.Focus()
}

func (a AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd) {
	var cmd tea.Cmd
	a.Model, cmd = a.Model.Update(msg)
	return a, cmd
}

// View renders the input, dimmed when it does not accept answers.
func (a AnswerInput) View() string {
	if !a.Model.Focused() {
		return lipgloss.NewStyle().Foreground(theme.TextDim).Render(a.Model.View())
	}
	return a.Model.View()
}

// Value returns the trimmed answer.
func (a AnswerInput) Value() string {
	return strings.TrimSpace(a.Model.Value())
}

// Clear empties the input after an answer is submitted.
func (a *AnswerInput) Clear() {
	a.Model.Reset()
}

// SetEnabled focuses or blurs the input.
func (a *AnswerInput) SetEnabled(enabled bool) tea.Cmd {
	if enabled {
		return a.Model.Focus()
	}
	a.Model.Blur()
	return nil
}
