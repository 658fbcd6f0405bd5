package hints

import (
	"fmt"
	"time"

	"github.com/abhisek/lessonplayer/internal/exploration"
)

// Tracker records the help-relevant history of a single pending card. It is
// a value type; copies are independent.
type Tracker struct {
	hintCount   int
	hasSolution bool

	windowStart   time.Time
	lastWrongAt   time.Time
	wrongInWindow int
	totalWrong    int

	revealed         int
	solutionRevealed bool
	unlocked         bool
}

// NewTracker starts tracking a card that became pending at now.
func NewTracker(hintCount int, hasSolution bool, now time.Time) Tracker {
	return Tracker{hintCount: hintCount, hasSolution: hasSolution, windowStart: now}
}

// ForState builds a tracker for the given state.
func ForState(s *exploration.State, now time.Time) Tracker {
	if s == nil {
		return Tracker{windowStart: now}
	}
	return NewTracker(len(s.Interaction.Hints), s.HasSolution(), now)
}

// Restore rebuilds a tracker from a persisted help index. The restored card
// is treated as having just become pending at now.
func Restore(hintCount int, hasSolution bool, idx HelpIndex, wrongAnswers int, now time.Time) Tracker {
	t := NewTracker(hintCount, hasSolution, now)
	t.totalWrong = wrongAnswers
	switch idx.Kind {
	case NextAvailableHint:
		t.revealed = min(idx.Index, hintCount)
		t.unlocked = true
	case LatestRevealedHint:
		t.revealed = min(idx.Index+1, hintCount)
	case ShowSolution:
		t.revealed = hintCount
		t.unlocked = true
	case EverythingRevealed:
		t.revealed = hintCount
		t.solutionRevealed = true
	}
	if t.revealed == 0 {
		t.wrongInWindow = wrongAnswers
		if wrongAnswers > 0 {
			t.lastWrongAt = now
		}
	}
	return t
}

// RecordWrongAnswer notes a wrong answer submitted at now. Help that was
// already available at now stays available.
func (t *Tracker) RecordWrongAnswer(now time.Time, p Policy) {
	switch t.HelpIndex(now, p).Kind {
	case NextAvailableHint, ShowSolution:
		t.unlocked = true
	}
	t.totalWrong++
	t.wrongInWindow++
	t.lastWrongAt = now
}

// WrongAnswers is the total number of wrong answers on the card.
func (t Tracker) WrongAnswers() int { return t.totalWrong }

// HelpIndex evaluates the help index at now.
func (t Tracker) HelpIndex(now time.Time, p Policy) HelpIndex {
	in := Input{
		HintCount:        t.hintCount,
		HasSolution:      t.hasSolution,
		RevealedHints:    t.revealed,
		SolutionRevealed: t.solutionRevealed,
		WrongAnswers:     t.wrongInWindow,
		Idle:             now.Sub(t.windowStart),
		Unlocked:         t.unlocked,
	}
	if t.wrongInWindow > 0 {
		in.SinceLastWrong = now.Sub(t.lastWrongAt)
	}
	return Compute(in, p)
}

// RevealHint marks hint i as viewed. Only the next available hint may be
// revealed.
func (t *Tracker) RevealHint(i int, now time.Time, p Policy) error {
	idx := t.HelpIndex(now, p)
	if idx.Kind != NextAvailableHint || idx.Index != i {
		return exploration.InvalidState(fmt.Sprintf("Cannot reveal hint %d; help index is %s.", i, idx))
	}
	t.revealed = i + 1
	t.resetWindow(now)
	return nil
}

// RevealSolution marks the solution as viewed.
func (t *Tracker) RevealSolution(now time.Time, p Policy) error {
	idx := t.HelpIndex(now, p)
	if idx.Kind != ShowSolution {
		return exploration.InvalidState(fmt.Sprintf("Cannot reveal solution; help index is %s.", idx))
	}
	t.solutionRevealed = true
	t.resetWindow(now)
	return nil
}

func (t *Tracker) resetWindow(now time.Time) {
	t.windowStart = now
	t.wrongInWindow = 0
	t.lastWrongAt = time.Time{}
	t.unlocked = false
}
