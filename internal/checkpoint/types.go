// Package checkpoint persists resumable exploration snapshots under a
// per-profile size quota.
package checkpoint

import (
	"fmt"

	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/hints"
)

// RecordVersion is the schema version written with every checkpoint.
const RecordVersion = 1

// State reports the outcome of the latest checkpoint write for a session.
type State int

const (
	// Unsaved means no checkpoint was written, either because partial
	// progress saving is off or the latest write failed.
	Unsaved State = iota
	SavedDatabaseNotExceededLimit
	// SavedDatabaseExceededLimit means the write succeeded but the profile's
	// checkpoints now exceed the quota.
	SavedDatabaseExceededLimit
)

func (s State) String() string {
	switch s {
	case Unsaved:
		return "CHECKPOINT_UNSAVED"
	case SavedDatabaseNotExceededLimit:
		return "CHECKPOINT_SAVED_DATABASE_NOT_EXCEEDED_LIMIT"
	case SavedDatabaseExceededLimit:
		return "CHECKPOINT_SAVED_DATABASE_EXCEEDED_LIMIT"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// CompletedState is a card the learner finished before the pending one.
type CompletedState struct {
	StateName string                          `json:"state_name"`
	Answers   []exploration.AnswerAndFeedback `json:"answers"`
}

// Checkpoint is a durable snapshot of an exploration session.
type Checkpoint struct {
	Version            int    `json:"version"`
	SessionID          string `json:"session_id"`
	Sequence           int64  `json:"sequence"`
	ExplorationTitle   string `json:"exploration_title"`
	ExplorationVersion int    `json:"exploration_version"`

	PendingStateName string           `json:"pending_state_name"`
	StateIndex       int              `json:"state_index"`
	CompletedStates  []CompletedState `json:"completed_states"`

	// PendingUserAnswers are the answers submitted on the pending card. The
	// last one may have completed the card without the learner moving on.
	PendingUserAnswers []exploration.AnswerAndFeedback `json:"pending_user_answers"`
	HelpIndex          hints.HelpIndex                 `json:"help_index"`
	TimestampMs        int64                           `json:"timestamp_ms"`
}

// IsEmpty reports whether c is the zero snapshot returned when nothing is
// stored.
func (c Checkpoint) IsEmpty() bool {
	return c.PendingStateName == ""
}

// CheckCompatible fails with ErrOutdatedCheckpoint when c was taken against
// a different version of the lesson content.
func (c Checkpoint) CheckCompatible(explorationVersion int) error {
	if c.ExplorationVersion != explorationVersion {
		return fmt.Errorf("%w: saved against version %d, current version is %d",
			exploration.ErrOutdatedCheckpoint, c.ExplorationVersion, explorationVersion)
	}
	return nil
}

// Details summarises a stored checkpoint.
type Details struct {
	ExplorationID    string
	ExplorationTitle string
	TimestampMs      int64
}
