package player

import (
	"errors"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/hints"
	"github.com/abhisek/lessonplayer/internal/progress"
	"github.com/abhisek/lessonplayer/internal/ui/theme"
)

// maxWrongAnswersShown bounds the answer history under a pending card.
const maxWrongAnswersShown = 3

func (s *Screen) View(width, height int) string {
	var body string
	switch s.phase {
	case phaseFailed:
		body = theme.Incorrect.Render("Cannot play this lesson.") + "\n\n" + theme.Dim.Render(s.err.Error())
	case phaseLoading:
		body = theme.Dim.Render("Loading...")
	case phaseAskResume:
		body = s.renderResumePrompt()
	case phaseConfirmExit:
		body = s.renderExitPrompt()
	default:
		body = s.renderCard(width)
	}
	if s.notice != "" {
		body += "\n\n" + theme.Warning.Render(s.notice)
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Padding(1, 2).
		Render(body)
}

func (s *Screen) renderResumePrompt() string {
	return theme.Title.Render("Welcome back!") + "\n\n" +
		theme.Body.Render(fmt.Sprintf("You have unfinished progress in %q.", s.Title())) + "\n" +
		theme.Dim.Render("Press R to resume or S to start over.")
}

func (s *Screen) renderExitPrompt() string {
	msg := "Your progress has not been saved."
	if errors.Is(s.exitReason, exploration.ErrQuotaExceeded) {
		msg = "Your progress is saved, but storage is full and older lessons may lose theirs."
	}
	return theme.Warning.Render(msg) + "\n\n" +
		theme.Body.Render("Leave this lesson anyway? (y/n)")
}

func (s *Screen) renderCard(width int) string {
	es := s.state
	if es.State == nil {
		return theme.Dim.Render("Loading...")
	}

	cardWidth := max(width-8, 20)
	var b strings.Builder
	b.WriteString(theme.Card.Width(cardWidth).Render(theme.Body.Render(es.State.Content)))
	b.WriteString("\n")

	switch es.StateType {
	case progress.Terminal:
		b.WriteString("\n" + theme.Correct.Render("You reached the end of the lesson. Press Enter to finish."))

	case progress.Completed:
		b.WriteString(renderAnswers(es.Completed.Answers, len(es.Completed.Answers)))
		b.WriteString("\n" + theme.Dim.Render("Press Enter to continue."))

	case progress.Pending:
		b.WriteString(renderAnswers(es.Pending.WrongAnswers, maxWrongAnswersShown))
		b.WriteString(renderHelp(es.State, es.Pending.HelpIndex))
		b.WriteString("\n" + s.input.View())
	}
	return b.String()
}

// renderAnswers lists the last limit answers with their feedback.
func renderAnswers(answers []exploration.AnswerAndFeedback, limit int) string {
	if len(answers) == 0 {
		return ""
	}
	if len(answers) > limit {
		answers = answers[len(answers)-limit:]
	}

	var b strings.Builder
	b.WriteString("\n")
	for _, a := range answers {
		mark := theme.Incorrect.Render("✗")
		if a.IsCorrect {
			mark = theme.Correct.Render("✓")
		}
		line := mark + " " + theme.Body.Render(a.Answer.Answer)
		if a.Feedback != "" {
			line += "  " + theme.Dim.Render(a.Feedback)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// renderHelp shows the hints and solution revealed so far and whether more
// help can be requested.
func renderHelp(st *exploration.State, idx hints.HelpIndex) string {
	var b strings.Builder
	all := st.Interaction.Hints
	for i := range idx.VisibleHintCount(len(all)) {
		b.WriteString("\n" + theme.Hint.Render(fmt.Sprintf("Hint %d: %s", i+1, all[i].Content)))
	}
	if idx.IsSolutionRevealed() && st.Interaction.Solution != nil {
		sol := st.Interaction.Solution
		b.WriteString("\n" + theme.Hint.Render(fmt.Sprintf("Solution: %s. %s", sol.CorrectAnswer, sol.Explanation)))
	}

	switch idx.Kind {
	case hints.NextAvailableHint:
		b.WriteString("\n" + theme.Warning.Render("A hint is available. Press Tab to see it."))
	case hints.ShowSolution:
		b.WriteString("\n" + theme.Warning.Render("The solution is available. Press Tab to see it."))
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	return b.String()
}
