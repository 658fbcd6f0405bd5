package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/lessonplayer/internal/checkpoint"
	"github.com/abhisek/lessonplayer/internal/classify"
	"github.com/abhisek/lessonplayer/internal/clock"
	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/store"
	"github.com/stretchr/testify/require"
)

const (
	profileID = "profile_1"
	expID     = "fractions_1"
	topicID   = "fractions"
)

const fractionsDoc = `{
  "id": "fractions_1",
  "title": "Halves",
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

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type recordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingReporter) ReportNonFatal(_ string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

type recordingListener struct {
	mu      sync.Mutex
	started []string
	ended   int
}

func (l *recordingListener) OnExplorationStarted(_ context.Context, profileID, topicID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = append(l.started, profileID+"/"+topicID)
}

func (l *recordingListener) OnExplorationEnded(context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ended++
}

type harness struct {
	ctrl        *Controller
	clock       *clock.Fake
	checkpoints *checkpoint.Controller
	reporter    *recordingReporter
	listener    *recordingListener
	deps        Deps
}

func newHarness(t *testing.T, quota int64) *harness {
	t.Helper()
	exp, err := exploration.Parse([]byte(fractionsDoc))
	require.NoError(t, err)

	clk := clock.NewFake(t0)
	cps, err := checkpoint.New(store.NewMemory(), quota, clk, nil)
	require.NoError(t, err)

	h := &harness{
		clock:       clk,
		checkpoints: cps,
		reporter:    &recordingReporter{},
		listener:    &recordingListener{},
	}
	h.deps = Deps{
		Loader:      exploration.NewMapLoader(exp),
		Classifier:  classify.New(),
		Checkpoints: cps,
		Listener:    h.listener,
		Reporter:    h.reporter,
		Clock:       clk,
	}
	h.ctrl = New(h.deps)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	err := h.ctrl.StartSession(context.Background(), profileID, expID,
		SessionOptions{TopicID: topicID, SavePartialProgress: true})
	require.NoError(t, err)
}

func (h *harness) submit(t *testing.T, answer string) AnswerOutcome {
	t.Helper()
	out, err := h.ctrl.SubmitAnswer(context.Background(), exploration.UserAnswer{Answer: answer})
	require.NoError(t, err)
	return out
}

func (h *harness) next(t *testing.T) {
	t.Helper()
	require.NoError(t, h.ctrl.MoveToNextState(context.Background()))
}

func (h *harness) state(t *testing.T) EphemeralState {
	t.Helper()
	es, err := h.ctrl.CurrentState()
	require.NoError(t, err)
	return es
}

// toQuestion plays through the intro card.
func (h *harness) toQuestion(t *testing.T) {
	t.Helper()
	h.start(t)
	h.submit(t, "continue")
	h.next(t)
}
