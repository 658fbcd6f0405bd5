package hints

import (
	"errors"
	"testing"
	"time"

	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestCompute_NoHelpAuthored(t *testing.T) {
	got := Compute(Input{Idle: time.Hour, WrongAnswers: 5}, DefaultPolicy())
	assert.Equal(t, HelpIndex{}, got)
}

func TestTracker_InitialDelay(t *testing.T) {
	p := DefaultPolicy()
	tr := NewTracker(2, true, t0)

	assert.Equal(t, HelpIndex{}, tr.HelpIndex(t0.Add(59*time.Second), p))
	assert.Equal(t, NextAvailableHintIndex(0), tr.HelpIndex(t0.Add(60*time.Second), p))
}

func TestTracker_TwoWrongAnswersUnlockFirstHint(t *testing.T) {
	p := DefaultPolicy()
	tr := NewTracker(2, true, t0)

	tr.RecordWrongAnswer(t0.Add(time.Second), p)
	assert.Equal(t, HelpIndex{}, tr.HelpIndex(t0.Add(time.Second), p))

	tr.RecordWrongAnswer(t0.Add(2*time.Second), p)
	assert.Equal(t, NextAvailableHintIndex(0), tr.HelpIndex(t0.Add(2*time.Second), p))
	assert.Equal(t, 2, tr.WrongAnswers())
}

func TestTracker_AdditionalDelayAfterReveal(t *testing.T) {
	p := DefaultPolicy()
	tr := NewTracker(2, true, t0)
	at := t0.Add(time.Minute)
	require.NoError(t, tr.RevealHint(0, at, p))

	assert.Equal(t, LatestRevealedHintIndex(0), tr.HelpIndex(at.Add(29*time.Second), p))
	assert.Equal(t, NextAvailableHintIndex(1), tr.HelpIndex(at.Add(30*time.Second), p))
}

func TestTracker_WrongAnswerDelayAfterReveal(t *testing.T) {
	p := DefaultPolicy()
	tr := NewTracker(2, true, t0)
	at := t0.Add(time.Minute)
	require.NoError(t, tr.RevealHint(0, at, p))

	wrong := at.Add(5 * time.Second)
	tr.RecordWrongAnswer(wrong, p)

	// Once a wrong answer follows a reveal, the 30s idle rule no longer applies.
	assert.Equal(t, LatestRevealedHintIndex(0), tr.HelpIndex(wrong.Add(9*time.Second), p))
	assert.Equal(t, NextAvailableHintIndex(1), tr.HelpIndex(wrong.Add(10*time.Second), p))
}

func TestTracker_WrongAnswerKeepsUnlockedHint(t *testing.T) {
	p := DefaultPolicy()
	tr := NewTracker(2, true, t0)
	at := t0.Add(time.Minute)
	require.NoError(t, tr.RevealHint(0, at, p))

	idle := at.Add(31 * time.Second)
	require.Equal(t, NextAvailableHintIndex(1), tr.HelpIndex(idle, p))

	tr.RecordWrongAnswer(idle, p)
	assert.Equal(t, NextAvailableHintIndex(1), tr.HelpIndex(idle, p))
	require.NoError(t, tr.RevealHint(1, idle, p))
	assert.Equal(t, LatestRevealedHintIndex(1), tr.HelpIndex(idle, p))
}

func TestTracker_WrongAnswerKeepsUnlockedSolution(t *testing.T) {
	p := DefaultPolicy()
	tr := NewTracker(1, true, t0)
	at := t0.Add(time.Minute)
	require.NoError(t, tr.RevealHint(0, at, p))

	idle := at.Add(30 * time.Second)
	require.Equal(t, ShowSolutionIndex(), tr.HelpIndex(idle, p))

	tr.RecordWrongAnswer(idle.Add(time.Second), p)
	assert.Equal(t, ShowSolutionIndex(), tr.HelpIndex(idle.Add(2*time.Second), p))
	require.NoError(t, tr.RevealSolution(idle.Add(2*time.Second), p))
}

func TestTracker_ShowSolutionThenEverythingRevealed(t *testing.T) {
	p := DefaultPolicy()
	tr := NewTracker(1, true, t0)
	at := t0.Add(time.Minute)
	require.NoError(t, tr.RevealHint(0, at, p))

	assert.Equal(t, LatestRevealedHintIndex(0), tr.HelpIndex(at.Add(10*time.Second), p))

	later := at.Add(30 * time.Second)
	assert.Equal(t, ShowSolutionIndex(), tr.HelpIndex(later, p))

	require.NoError(t, tr.RevealSolution(later, p))
	assert.Equal(t, EverythingRevealedIndex(), tr.HelpIndex(later.Add(time.Hour), p))
}

func TestTracker_AllHintsNoSolution(t *testing.T) {
	p := DefaultPolicy()
	tr := NewTracker(1, false, t0)
	require.NoError(t, tr.RevealHint(0, t0.Add(time.Minute), p))
	assert.Equal(t, LatestRevealedHintIndex(0), tr.HelpIndex(t0.Add(time.Hour), p))
}

func TestTracker_RevealOutOfOrder(t *testing.T) {
	p := DefaultPolicy()
	tr := NewTracker(2, true, t0)

	err := tr.RevealHint(0, t0, p)
	assert.True(t, errors.Is(err, exploration.ErrInvalidState))

	err = tr.RevealHint(1, t0.Add(time.Minute), p)
	assert.True(t, errors.Is(err, exploration.ErrInvalidState))

	err = tr.RevealSolution(t0.Add(time.Minute), p)
	assert.True(t, errors.Is(err, exploration.ErrInvalidState))
}

func TestRestore(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		name  string
		idx   HelpIndex
		wrong int
		want  HelpIndex
	}{
		{"not set", HelpIndex{}, 0, HelpIndex{}},
		{"not set with two wrong answers", HelpIndex{}, 2, NextAvailableHintIndex(0)},
		{"next available stays available", NextAvailableHintIndex(1), 0, NextAvailableHintIndex(1)},
		{"latest revealed", LatestRevealedHintIndex(0), 3, LatestRevealedHintIndex(0)},
		{"show solution", ShowSolutionIndex(), 0, ShowSolutionIndex()},
		{"everything revealed", EverythingRevealedIndex(), 0, EverythingRevealedIndex()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := Restore(2, true, tt.idx, tt.wrong, t0)
			assert.Equal(t, tt.want, tr.HelpIndex(t0, p))
			assert.Equal(t, tt.wrong, tr.WrongAnswers())
		})
	}
}

func TestTracker_CopiesAreIndependent(t *testing.T) {
	p := DefaultPolicy()
	a := NewTracker(2, true, t0)
	b := a
	b.RecordWrongAnswer(t0, p)
	b.RecordWrongAnswer(t0, p)

	assert.Equal(t, HelpIndex{}, a.HelpIndex(t0, p))
	assert.Equal(t, NextAvailableHintIndex(0), b.HelpIndex(t0, p))
}
