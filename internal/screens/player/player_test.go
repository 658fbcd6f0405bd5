package player

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lessonplayer/internal/checkpoint"
	"github.com/abhisek/lessonplayer/internal/classify"
	"github.com/abhisek/lessonplayer/internal/clock"
	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/progress"
	"github.com/abhisek/lessonplayer/internal/router"
	"github.com/abhisek/lessonplayer/internal/store"
)

const (
	profileID = "profile_1"
	expID     = "fractions_1"
)

const fractionsDoc = `{
  "id": "fractions_1",
  "title": "Halves",
  "topic_id": "fractions",
  "version": 2,
  "init_state_name": "Intro",
  "states": {
    "Intro": {
      "content": "Let's look at halves.",
      "interaction": {"id": "Continue", "default_outcome": {"dest": "Question"}}
    },
    "Question": {
      "content": "What fraction of the cake is left?",
      "interaction": {
        "id": "FractionInput",
        "answer_groups": [
          {"rules": [{"type": "IsEquivalentTo", "input": "1/2"}],
           "outcome": {"dest": "End", "feedback": "Correct!", "labelled_as_correct": true}}
        ],
        "default_outcome": {"dest": "Question", "feedback": "Not quite."},
        "hints": [{"content": "Count the pieces."}, {"content": "Two equal pieces."}],
        "solution": {"correct_answer": "1/2", "explanation": "One of two pieces."}
      }
    },
    "End": {"content": "Well done.", "interaction": {"id": "EndExploration"}}
  }
}`

type fixture struct {
	deps  Deps
	clock *clock.Fake
}

func newFixture(t *testing.T, savePartial bool) *fixture {
	t.Helper()
	exp, err := exploration.Parse([]byte(fractionsDoc))
	require.NoError(t, err)

	clk := clock.NewFake(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	cps, err := checkpoint.New(store.NewMemory(), checkpoint.DefaultQuotaBytes, clk, nil)
	require.NoError(t, err)

	loader := exploration.NewMapLoader(exp)
	return &fixture{
		clock: clk,
		deps: Deps{
			Sessions: progress.NewRegistry(progress.Deps{
				Loader:      loader,
				Classifier:  classify.New(),
				Checkpoints: cps,
				Clock:       clk,
			}),
			Checkpoints:         cps,
			Loader:              loader,
			ProfileID:           profileID,
			SavePartialProgress: savePartial,
		},
	}
}

// deliver hands msg to the screen and returns the command it produced.
func deliver(s *Screen, msg tea.Msg) tea.Cmd {
	_, cmd := s.Update(msg)
	return cmd
}

func press(s *Screen, code rune) tea.Cmd {
	return deliver(s, tea.KeyPressMsg{Code: code})
}

func pressText(s *Screen, text string) {
	for _, r := range text {
		deliver(s, tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

// act runs a command produced by a key press and delivers its result.
func act(t *testing.T, s *Screen, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	return deliver(s, cmd())
}

// awaitState delivers the next state published by the session.
func awaitState(t *testing.T, s *Screen) {
	t.Helper()
	select {
	case es, ok := <-s.states:
		require.True(t, ok, "state stream closed")
		deliver(s, stateMsg{State: es})
	case <-time.After(time.Second):
		t.Fatal("no state published")
	}
}

// open loads the player and starts the session when there is nothing to
// resume.
func open(t *testing.T, f *fixture) *Screen {
	t.Helper()
	s := New(f.deps, expID)
	start := deliver(s, s.load()())
	if s.phase == phaseAskResume {
		return s
	}
	act(t, s, start)
	require.Equal(t, phasePlaying, s.phase)
	awaitState(t, s)
	return s
}

func isPop(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	_, ok := cmd().(router.PopScreenMsg)
	return ok
}

func TestPlayThroughAndResume(t *testing.T) {
	f := newFixture(t, true)
	s := open(t, f)
	assert.Equal(t, "Halves", s.Title())
	assert.Equal(t, "Intro", s.state.State.Name)
	assert.Contains(t, s.View(80, 20), "Let's look at halves.")

	// Continue cards accept an empty answer.
	act(t, s, press(s, tea.KeyEnter))
	awaitState(t, s)
	assert.Equal(t, progress.Completed, s.state.StateType)

	act(t, s, press(s, tea.KeyEnter))
	awaitState(t, s)
	assert.Equal(t, "Question", s.state.State.Name)
	assert.Equal(t, "Progress saved", s.Status())

	pressText(s, "1/3")
	act(t, s, press(s, tea.KeyEnter))
	awaitState(t, s)
	assert.Equal(t, progress.Pending, s.state.StateType)
	assert.Contains(t, s.View(80, 20), "Not quite.")

	pressText(s, "1/2")
	act(t, s, press(s, tea.KeyEnter))
	awaitState(t, s)
	assert.Equal(t, progress.Completed, s.state.StateType)
	assert.Contains(t, s.View(80, 20), "Correct!")

	act(t, s, press(s, tea.KeyPgUp))
	awaitState(t, s)
	assert.Equal(t, "Intro", s.state.State.Name)
	assert.True(t, s.state.HasNextState)

	// Progress is saved, so leaving does not ask.
	require.True(t, isPop(t, act(t, s, press(s, tea.KeyEscape))))
	assert.Equal(t, 0, f.deps.Sessions.Len())

	s = open(t, f)
	require.Equal(t, phaseAskResume, s.phase)
	assert.Contains(t, s.View(80, 20), "unfinished progress")

	act(t, s, deliver(s, tea.KeyPressMsg{Code: 'r', Text: "r"}))
	awaitState(t, s)
	assert.Equal(t, "Question", s.state.State.Name)
	assert.Equal(t, progress.Completed, s.state.StateType)

	act(t, s, press(s, tea.KeyEnter))
	awaitState(t, s)
	assert.Equal(t, progress.Terminal, s.state.StateType)

	require.True(t, isPop(t, act(t, s, press(s, tea.KeyEnter))))
	cp, err := f.deps.Checkpoints.Retrieve(context.Background(), profileID, expID)
	require.NoError(t, err)
	assert.True(t, cp.IsEmpty(), "completing the exploration deletes its checkpoint")
}

func TestStartOverDiscardsCheckpoint(t *testing.T) {
	f := newFixture(t, true)
	s := open(t, f)
	act(t, s, press(s, tea.KeyEnter))
	awaitState(t, s)
	require.True(t, isPop(t, act(t, s, press(s, tea.KeyEscape))))

	s = open(t, f)
	require.Equal(t, phaseAskResume, s.phase)
	act(t, s, deliver(s, tea.KeyPressMsg{Code: 's', Text: "s"}))
	awaitState(t, s)
	assert.Equal(t, "Intro", s.state.State.Name)
	assert.Equal(t, progress.Pending, s.state.StateType)
}

func TestRevealHintWhenUnlocked(t *testing.T) {
	f := newFixture(t, true)
	s := open(t, f)
	act(t, s, press(s, tea.KeyEnter))
	awaitState(t, s)
	act(t, s, press(s, tea.KeyEnter))
	awaitState(t, s)

	assert.Nil(t, press(s, tea.KeyTab), "no help before the delay")

	f.clock.Advance(61 * time.Second)
	deliver(s, tickMsg(f.clock.Now()))
	assert.Contains(t, s.View(80, 20), "A hint is available")

	act(t, s, press(s, tea.KeyTab))
	awaitState(t, s)
	assert.Contains(t, s.View(80, 20), "Hint 1: Count the pieces.")
}

func TestLeavingUnsavedProgressAsks(t *testing.T) {
	f := newFixture(t, false)
	s := open(t, f)
	assert.Equal(t, "Not saved", s.Status())

	assert.Nil(t, press(s, tea.KeyEscape))
	require.Equal(t, phaseConfirmExit, s.phase)
	assert.Contains(t, s.View(80, 20), "not been saved")

	deliver(s, tea.KeyPressMsg{Code: 'n', Text: "n"})
	assert.Equal(t, phasePlaying, s.phase)

	press(s, tea.KeyEscape)
	require.True(t, isPop(t, act(t, s, deliver(s, tea.KeyPressMsg{Code: 'y', Text: "y"}))))
	assert.Equal(t, 0, f.deps.Sessions.Len())
}

func TestUnknownExplorationFails(t *testing.T) {
	f := newFixture(t, true)
	s := New(f.deps, "missing")

	deliver(s, s.load()())

	assert.Equal(t, phaseFailed, s.phase)
	assert.Contains(t, s.View(80, 20), "Cannot play this lesson.")
	assert.True(t, isPop(t, press(s, tea.KeyEscape)))
}
