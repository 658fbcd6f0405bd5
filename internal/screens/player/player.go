// Package player is the screen that plays one exploration card by card.
package player

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/lessonplayer/internal/checkpoint"
	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/hints"
	"github.com/abhisek/lessonplayer/internal/progress"
	"github.com/abhisek/lessonplayer/internal/router"
	"github.com/abhisek/lessonplayer/internal/ui/components"
	"github.com/abhisek/lessonplayer/internal/ui/layout"
)

const tickInterval = time.Second

// Deps are the services the player needs.
type Deps struct {
	Sessions            *progress.Registry
	Checkpoints         *checkpoint.Controller
	Loader              exploration.Loader
	ProfileID           string
	SavePartialProgress bool
	Logger              *zap.Logger
}

type phase int

const (
	phaseLoading phase = iota
	phaseAskResume
	phasePlaying
	phaseConfirmExit
	phaseStopping
	phaseFailed
)

// Screen implements router.Screen for a single exploration.
type Screen struct {
	deps          Deps
	logger        *zap.Logger
	explorationID string

	phase       phase
	exploration *exploration.Exploration
	saved       checkpoint.Checkpoint

	ctrl   *progress.Controller
	states <-chan progress.EphemeralState
	cancel func()
	state  progress.EphemeralState

	input      components.AnswerInput
	notice     string
	exitReason error
	err        error
}

var _ router.Screen = (*Screen)(nil)

// New creates a player for explorationID. Nothing is loaded until Init.
func New(deps Deps, explorationID string) *Screen {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screen{
		deps:          deps,
		logger:        logger.Named("player"),
		explorationID: explorationID,
		input:         components.NewAnswerInput("Type your answer...", 80),
	}
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(s.load(), s.input.Init())
}

func (s *Screen) Title() string {
	if s.exploration != nil {
		return s.exploration.Title
	}
	return s.explorationID
}

// Status describes whether the learner's progress is saved.
func (s *Screen) Status() string {
	if s.ctrl == nil {
		return ""
	}
	switch s.state.CheckpointState {
	case checkpoint.SavedDatabaseNotExceededLimit:
		return "Progress saved"
	case checkpoint.SavedDatabaseExceededLimit:
		return "Saved, storage full"
	default:
		return "Not saved"
	}
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseAskResume:
		return []layout.KeyHint{
			{Key: "R", Description: "Resume"},
			{Key: "S", Description: "Start over"},
			{Key: "Esc", Description: "Back"},
		}
	case phaseConfirmExit:
		return []layout.KeyHint{
			{Key: "Y", Description: "Leave"},
			{Key: "N", Description: "Keep playing"},
		}
	case phasePlaying:
		keys := []layout.KeyHint{{Key: "Enter", Description: s.enterLabel()}}
		if s.helpAvailable() {
			keys = append(keys, layout.KeyHint{Key: "Tab", Description: "Help"})
		}
		if s.state.HasPreviousState {
			keys = append(keys, layout.KeyHint{Key: "PgUp", Description: "Previous"})
		}
		if s.state.HasNextState {
			keys = append(keys, layout.KeyHint{Key: "PgDn", Description: "Next"})
		}
		return append(keys, layout.KeyHint{Key: "Esc", Description: "Leave"})
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
}

func (s *Screen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return s.handleLoaded(msg)

	case startedMsg:
		return s.handleStarted(msg)

	case stateMsg:
		s.setState(msg.State)
		return s, waitForState(s.states)

	case streamClosedMsg:
		return s, nil

	case tickMsg:
		if s.ctrl == nil || s.phase == phaseStopping {
			return s, nil
		}
		if es, err := s.ctrl.CurrentState(); err == nil {
			s.setState(es)
		}
		return s, tick()

	case answerMsg:
		if msg.Err != nil {
			s.showError(msg.Err)
			return s, nil
		}
		s.notice = ""
		s.input.Clear()
		return s, nil

	case actionMsg:
		if msg.Err != nil {
			s.showError(msg.Err)
		} else {
			s.notice = ""
		}
		return s, nil

	case stoppedMsg:
		if msg.Err != nil {
			s.logger.Error("failed to stop exploration", zap.String("exploration_id", s.explorationID), zap.Error(msg.Err))
		}
		if s.cancel != nil {
			s.cancel()
		}
		s.ctrl = nil
		return s, router.Pop()

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	if s.phase == phasePlaying {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleLoaded(msg loadedMsg) (router.Screen, tea.Cmd) {
	if msg.Err != nil {
		return s.fail(msg.Err)
	}
	s.exploration = msg.Exploration
	if msg.Discarded {
		s.notice = "Saved progress was for an older version of this lesson, starting over."
	}
	if !msg.Checkpoint.IsEmpty() {
		s.saved = msg.Checkpoint
		s.phase = phaseAskResume
		return s, nil
	}
	return s, s.start(checkpoint.Checkpoint{}, false)
}

func (s *Screen) handleStarted(msg startedMsg) (router.Screen, tea.Cmd) {
	if msg.Err != nil {
		return s.fail(msg.Err)
	}
	if msg.Discarded {
		s.notice = "Saved progress no longer matches this lesson, starting over."
	}
	s.ctrl = msg.Controller
	s.states = msg.States
	s.cancel = msg.Cancel
	s.phase = phasePlaying
	return s, tea.Batch(waitForState(s.states), tick())
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (router.Screen, tea.Cmd) {
	key := msg.String()

	switch s.phase {
	case phaseAskResume:
		switch key {
		case "r":
			s.phase = phaseLoading
			return s, s.start(s.saved, false)
		case "s", "n":
			s.phase = phaseLoading
			return s, s.start(checkpoint.Checkpoint{}, true)
		case "esc":
			return s, router.Pop()
		}
		return s, nil

	case phaseConfirmExit:
		switch key {
		case "y":
			return s, s.stop(false)
		case "n", "esc":
			s.phase = phasePlaying
			s.exitReason = nil
			return s, s.input.SetEnabled(s.state.StateType == progress.Pending)
		}
		return s, nil

	case phasePlaying:
		return s.handlePlayingKey(msg, key)

	case phaseLoading, phaseFailed:
		if key == "esc" {
			return s, router.Pop()
		}
	}
	return s, nil
}

func (s *Screen) handlePlayingKey(msg tea.KeyPressMsg, key string) (router.Screen, tea.Cmd) {
	switch key {
	case "esc":
		return s, s.requestExit()
	case "tab":
		return s, s.reveal()
	case "pgup":
		if s.state.HasPreviousState {
			return s, s.do(func(ctx context.Context, c *progress.Controller) error {
				return c.MoveToPreviousState(ctx)
			})
		}
		return s, nil
	case "pgdown":
		if s.state.HasNextState {
			return s, s.do(func(ctx context.Context, c *progress.Controller) error {
				return c.MoveToNextState(ctx)
			})
		}
		return s, nil
	case "enter":
		return s, s.enter()
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// enter submits the answer, moves on from a finished card or completes the
// exploration, depending on the card shown.
func (s *Screen) enter() tea.Cmd {
	switch s.state.StateType {
	case progress.Completed:
		return s.do(func(ctx context.Context, c *progress.Controller) error {
			return c.MoveToNextState(ctx)
		})
	case progress.Terminal:
		return s.stop(true)
	}

	answer := s.input.Value()
	if answer == "" && !s.acceptsEmptyAnswer() {
		return nil
	}
	ctrl := s.ctrl
	return func() tea.Msg {
		out, err := ctrl.SubmitAnswer(context.Background(), exploration.UserAnswer{Answer: answer})
		return answerMsg{Outcome: out, Err: err}
	}
}

func (s *Screen) enterLabel() string {
	switch s.state.StateType {
	case progress.Completed:
		return "Continue"
	case progress.Terminal:
		return "Finish"
	}
	return "Submit"
}

func (s *Screen) acceptsEmptyAnswer() bool {
	return s.state.State != nil && s.state.State.Interaction.ID == "Continue"
}

func (s *Screen) helpAvailable() bool {
	if s.state.Pending == nil {
		return false
	}
	k := s.state.Pending.HelpIndex.Kind
	return k == hints.NextAvailableHint || k == hints.ShowSolution
}

// reveal shows the next hint or the solution when one is unlocked.
func (s *Screen) reveal() tea.Cmd {
	if !s.helpAvailable() {
		return nil
	}
	idx := s.state.Pending.HelpIndex
	if idx.Kind == hints.ShowSolution {
		return s.do(func(ctx context.Context, c *progress.Controller) error {
			return c.SubmitSolutionIsRevealed(ctx)
		})
	}
	return s.do(func(ctx context.Context, c *progress.Controller) error {
		return c.SubmitHintIsRevealed(ctx, idx.Index)
	})
}

// requestExit leaves right away when progress is safely stored and asks
// for confirmation otherwise.
func (s *Screen) requestExit() tea.Cmd {
	if err := s.ctrl.CheckpointStateToExit(); err != nil {
		s.exitReason = err
		s.phase = phaseConfirmExit
		s.input.SetEnabled(false)
		return nil
	}
	return s.stop(false)
}

func (s *Screen) setState(es progress.EphemeralState) {
	s.state = es
	if s.phase == phasePlaying {
		s.input.SetEnabled(es.StateType == progress.Pending)
	}
}

func (s *Screen) showError(err error) {
	if errors.Is(err, exploration.ErrSessionBusy) {
		return
	}
	s.logger.Warn("player action failed", zap.String("exploration_id", s.explorationID), zap.Error(err))
	s.notice = err.Error()
}

func (s *Screen) fail(err error) (router.Screen, tea.Cmd) {
	s.logger.Error("cannot play exploration", zap.String("exploration_id", s.explorationID), zap.Error(err))
	s.err = err
	s.phase = phaseFailed
	s.input.SetEnabled(false)
	return s, nil
}

func (s *Screen) do(fn func(context.Context, *progress.Controller) error) tea.Cmd {
	ctrl := s.ctrl
	return func() tea.Msg {
		return actionMsg{Err: fn(context.Background(), ctrl)}
	}
}

// load reads the exploration and the learner's checkpoint for it. A
// checkpoint saved against another exploration version is deleted.
func (s *Screen) load() tea.Cmd {
	deps, id := s.deps, s.explorationID
	return func() tea.Msg {
		ctx := context.Background()
		exp, err := deps.Loader.LoadExploration(ctx, id)
		if err != nil {
			return loadedMsg{Err: err}
		}

		cp, err := deps.Checkpoints.Retrieve(ctx, deps.ProfileID, id)
		if err == nil && !cp.IsEmpty() {
			err = cp.CheckCompatible(exp.Version)
		}
		if errors.Is(err, exploration.ErrOutdatedCheckpoint) {
			if err := deleteCheckpoint(ctx, deps, id); err != nil {
				return loadedMsg{Err: err}
			}
			return loadedMsg{Exploration: exp, Discarded: true}
		}
		if err != nil {
			return loadedMsg{Err: err}
		}
		return loadedMsg{Exploration: exp, Checkpoint: cp}
	}
}

// start begins the session, from cp when it is non-empty. With fresh set
// the stored checkpoint is deleted first. A checkpoint that no longer fits
// the exploration is dropped and the session starts over.
func (s *Screen) start(cp checkpoint.Checkpoint, fresh bool) tea.Cmd {
	deps, id := s.deps, s.explorationID
	topic := ""
	if s.exploration != nil {
		topic = s.exploration.Topic()
	}
	return func() tea.Msg {
		ctx := context.Background()
		if fresh {
			if err := deleteCheckpoint(ctx, deps, id); err != nil {
				return startedMsg{Err: err}
			}
		}
		opts := progress.SessionOptions{
			TopicID:             topic,
			Checkpoint:          cp,
			SavePartialProgress: deps.SavePartialProgress,
		}

		var discarded bool
		ctrl, err := deps.Sessions.Start(ctx, deps.ProfileID, id, opts)
		if errors.Is(err, exploration.ErrOutdatedCheckpoint) {
			if err := deleteCheckpoint(ctx, deps, id); err != nil {
				return startedMsg{Err: err}
			}
			discarded = true
			opts.Checkpoint = checkpoint.Checkpoint{}
			ctrl, err = deps.Sessions.Start(ctx, deps.ProfileID, id, opts)
		}
		if err != nil {
			return startedMsg{Err: err}
		}

		states, cancel, err := ctrl.Subscribe()
		if err != nil {
			return startedMsg{Err: err}
		}
		return startedMsg{Controller: ctrl, States: states, Cancel: cancel, Discarded: discarded}
	}
}

func (s *Screen) stop(isCompletion bool) tea.Cmd {
	s.phase = phaseStopping
	s.input.SetEnabled(false)
	deps, id := s.deps, s.explorationID
	return func() tea.Msg {
		return stoppedMsg{Err: deps.Sessions.Stop(context.Background(), deps.ProfileID, id, isCompletion)}
	}
}

func deleteCheckpoint(ctx context.Context, deps Deps, explorationID string) error {
	err := deps.Checkpoints.Delete(ctx, deps.ProfileID, explorationID)
	if err != nil && !errors.Is(err, exploration.ErrNotFound) {
		return err
	}
	return nil
}

func waitForState(states <-chan progress.EphemeralState) tea.Cmd {
	return func() tea.Msg {
		es, ok := <-states
		if !ok {
			return streamClosedMsg{}
		}
		return stateMsg{State: es}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
