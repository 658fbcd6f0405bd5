// Package progress drives a learner through an exploration: the current
// card, navigation history, answer submission, hint reveals and checkpoints.
package progress

import (
	"fmt"

	"github.com/abhisek/lessonplayer/internal/checkpoint"
	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/hints"
)

// StateType classifies the card being viewed.
type StateType int

const (
	Pending StateType = iota
	Completed
	Terminal
)

func (t StateType) String() string {
	switch t {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	case Terminal:
		return "terminal"
	default:
		return fmt.Sprintf("StateType(%d)", int(t))
	}
}

// PendingState is the payload of a card still awaiting a correct answer.
type PendingState struct {
	WrongAnswers []exploration.AnswerAndFeedback
	HelpIndex    hints.HelpIndex
}

// CompletedState is the payload of a card the learner moved past, or
// answered correctly without moving on yet.
type CompletedState struct {
	Answers []exploration.AnswerAndFeedback
}

// EphemeralState is the view of exactly one card. Exactly one of Pending
// and Completed is set, except for Terminal cards which carry neither.
type EphemeralState struct {
	StateType        StateType
	State            *exploration.State
	HasPreviousState bool
	HasNextState     bool
	CheckpointState  checkpoint.State

	Pending   *PendingState
	Completed *CompletedState
}

// AnswerOutcome is the classifier's verdict as seen by the caller.
type AnswerOutcome struct {
	Feedback  string
	IsCorrect bool
	// StateCompleted is set when the answer finished the card. The learner
	// stays on it until MoveToNextState.
	StateCompleted bool
	Destination    string
}
