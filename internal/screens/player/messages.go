package player

import (
	"time"

	"github.com/abhisek/lessonplayer/internal/checkpoint"
	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/progress"
)

// loadedMsg is sent once the exploration and any saved checkpoint are read.
type loadedMsg struct {
	Exploration *exploration.Exploration
	Checkpoint  checkpoint.Checkpoint
	// Discarded is set when a checkpoint existed but could not be resumed.
	Discarded bool
	Err       error
}

// startedMsg is sent when the session is playing and subscribed.
type startedMsg struct {
	Controller *progress.Controller
	States     <-chan progress.EphemeralState
	Cancel     func()
	Discarded  bool
	Err        error
}

// stateMsg carries the latest state of the session.
type stateMsg struct {
	State progress.EphemeralState
}

// streamClosedMsg is sent when the session stops publishing.
type streamClosedMsg struct{}

// answerMsg is the result of submitting an answer.
type answerMsg struct {
	Outcome progress.AnswerOutcome
	Err     error
}

// actionMsg is the result of navigation and help requests.
type actionMsg struct {
	Err error
}

// stoppedMsg is sent after the session is stopped.
type stoppedMsg struct {
	Err error
}

// tickMsg refreshes time-dependent state such as hint availability.
type tickMsg time.Time
