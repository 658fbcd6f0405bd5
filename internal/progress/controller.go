package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/lessonplayer/internal/checkpoint"
	"github.com/abhisek/lessonplayer/internal/clock"
	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/hints"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const component = "exploration_progress"

// CheckpointStore persists session snapshots. *checkpoint.Controller
// implements it.
type CheckpointStore interface {
	Save(ctx context.Context, profileID, explorationID string, cp checkpoint.Checkpoint) (checkpoint.State, error)
	Delete(ctx context.Context, profileID, explorationID string) error
	QuotaState(ctx context.Context, profileID string) (checkpoint.State, error)
}

// Listener is told when an exploration starts and ends.
// *learningtime.SessionTimer implements it.
type Listener interface {
	OnExplorationStarted(ctx context.Context, profileID, topicID string)
	OnExplorationEnded(ctx context.Context)
}

// Deps are the collaborators of a Controller. Loader, Classifier and
// Checkpoints are required.
type Deps struct {
	Loader      exploration.Loader
	Classifier  exploration.Classifier
	Checkpoints CheckpointStore
	Listener    Listener
	Reporter    exploration.ExceptionReporter
	Clock       clock.Clock
	Policy      hints.Policy
	Logger      *zap.Logger
}

// SessionOptions configure StartSession.
type SessionOptions struct {
	TopicID string
	// Checkpoint resumes a previous session when non-empty.
	Checkpoint          checkpoint.Checkpoint
	SavePartialProgress bool
}

type session struct {
	id          string
	seq         int64
	profileID   string
	topicID     string
	exploration *exploration.Exploration
	savePartial bool

	deck            deck
	checkpointState checkpoint.State
}

// Controller plays one exploration at a time. Mutating calls are serialized:
// a call made while another is in flight fails with ErrSessionBusy.
// CurrentState may be called at any time and always sees a committed state.
type Controller struct {
	deps   Deps
	logger *zap.Logger

	// busy admits one mutating call at a time.
	busy *semaphore.Weighted

	mu      sync.RWMutex
	session *session
	subs    map[int]chan EphemeralState
	nextSub int
}

// New creates an idle Controller.
func New(deps Deps) *Controller {
	if deps.Reporter == nil {
		deps.Reporter = exploration.NopReporter{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Policy == (hints.Policy{}) {
		deps.Policy = hints.DefaultPolicy()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Controller{
		deps:   deps,
		logger: deps.Logger.Named("progress"),
		busy:   semaphore.NewWeighted(1),
		subs:   make(map[int]chan EphemeralState),
	}
}

func (c *Controller) current() *session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// acquire admits a mutating call or fails fast.
func (c *Controller) acquire() error {
	if !c.busy.TryAcquire(1) {
		return exploration.ErrSessionBusy
	}
	return nil
}

// StartSession loads the exploration and begins playing it, resuming from
// opts.Checkpoint when one is given.
func (c *Controller) StartSession(ctx context.Context, profileID, explorationID string, opts SessionOptions) error {
	if err := c.busy.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.busy.Release(1)

	if c.current() != nil {
		return exploration.InvalidState("Expected to finish previous exploration before starting a new one.")
	}

	exp, err := c.deps.Loader.LoadExploration(ctx, explorationID)
	if err != nil {
		c.deps.Reporter.ReportNonFatal(component, err)
		return fmt.Errorf("load exploration %s: %w", explorationID, err)
	}

	now := c.deps.Clock.Now()
	s := &session{
		id:              uuid.NewString(),
		profileID:       profileID,
		topicID:         opts.TopicID,
		exploration:     exp,
		savePartial:     opts.SavePartialProgress,
		checkpointState: checkpoint.Unsaved,
	}
	if opts.Checkpoint.IsEmpty() {
		first, err := exp.InitialState()
		if err != nil {
			return err
		}
		s.deck = newDeck(newCard(first, now))
	} else {
		d, err := restoreDeck(exp, opts.Checkpoint, now)
		if err != nil {
			c.deps.Reporter.ReportNonFatal(component, err)
			return err
		}
		s.deck = d
		state, err := c.deps.Checkpoints.QuotaState(ctx, profileID)
		if err != nil {
			c.logger.Warn("checkpoint quota check failed", zap.String("profile_id", profileID), zap.Error(err))
		}
		s.checkpointState = state
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	c.logger.Info("exploration started",
		zap.String("session_id", s.id),
		zap.String("profile_id", profileID),
		zap.String("exploration_id", explorationID),
		zap.Bool("resumed", !opts.Checkpoint.IsEmpty()))
	if c.deps.Listener != nil {
		c.deps.Listener.OnExplorationStarted(ctx, profileID, opts.TopicID)
	}
	c.publish()
	return nil
}

// restoreDeck rebuilds the visited path from a checkpoint. Pending answers
// are replayed onto the frontier card using their recorded destinations.
func restoreDeck(exp *exploration.Exploration, cp checkpoint.Checkpoint, now time.Time) (deck, error) {
	if err := cp.CheckCompatible(exp.Version); err != nil {
		return deck{}, err
	}
	if cp.StateIndex != len(cp.CompletedStates) {
		return deck{}, fmt.Errorf("%w: state index %d with %d completed states",
			exploration.ErrOutdatedCheckpoint, cp.StateIndex, len(cp.CompletedStates))
	}

	var cards []card
	for i, cs := range cp.CompletedStates {
		st, err := exp.State(cs.StateName)
		if err != nil {
			return deck{}, fmt.Errorf("%w: %v", exploration.ErrOutdatedCheckpoint, err)
		}
		if i > 0 && cards[i-1].dest != st.Name {
			return deck{}, fmt.Errorf("%w: %q does not lead to %q",
				exploration.ErrOutdatedCheckpoint, cards[i-1].state.Name, st.Name)
		}
		c := card{state: st, answers: cs.Answers, completed: true}
		if n := len(cs.Answers); n > 0 {
			c.dest = cs.Answers[n-1].Destination
		}
		cards = append(cards, c)
	}

	pending, err := exp.State(cp.PendingStateName)
	if err != nil {
		return deck{}, fmt.Errorf("%w: %v", exploration.ErrOutdatedCheckpoint, err)
	}
	if n := len(cards); n > 0 && cards[n-1].dest != pending.Name {
		return deck{}, fmt.Errorf("%w: %q does not lead to %q",
			exploration.ErrOutdatedCheckpoint, cards[n-1].state.Name, pending.Name)
	}

	top := card{state: pending}
	for _, a := range cp.PendingUserAnswers {
		top = top.withAnswer(a)
		if transitions(pending, a.Destination) {
			if _, err := exp.State(a.Destination); err != nil {
				return deck{}, fmt.Errorf("%w: %v", exploration.ErrOutdatedCheckpoint, err)
			}
			top.completed = true
			top.dest = a.Destination
		}
	}
	top.tracker = hints.Restore(len(pending.Interaction.Hints), pending.HasSolution(),
		cp.HelpIndex, top.wrongAnswers(), now)

	cards = append(cards, top)
	return deck{cards: cards, view: len(cards) - 1}, nil
}

// CurrentState returns the card being viewed.
func (c *Controller) CurrentState() (EphemeralState, error) {
	c.mu.RLock()
	s := c.session
	var (
		d  deck
		cs checkpoint.State
	)
	if s != nil {
		d, cs = s.deck, s.checkpointState
	}
	c.mu.RUnlock()

	if s == nil {
		return EphemeralState{}, exploration.InvalidState("Cannot retrieve state when no exploration is being played.")
	}
	return c.render(d, cs), nil
}

func (c *Controller) render(d deck, cs checkpoint.State) EphemeralState {
	cur := d.viewed()
	es := EphemeralState{
		State:            cur.state,
		HasPreviousState: d.view > 0,
		HasNextState:     d.view < d.frontier(),
		CheckpointState:  cs,
	}
	switch {
	case cur.state.IsTerminal():
		es.StateType = Terminal
	case cur.completed:
		es.StateType = Completed
		es.Completed = &CompletedState{Answers: cur.answers}
	default:
		es.StateType = Pending
		es.Pending = &PendingState{
			WrongAnswers: cur.answers,
			HelpIndex:    cur.tracker.HelpIndex(c.deps.Clock.Now(), c.deps.Policy),
		}
	}
	return es
}

// SessionID returns the id of the active session, or "" when idle.
func (c *Controller) SessionID() string {
	if s := c.current(); s != nil {
		return s.id
	}
	return ""
}

// SubmitAnswer classifies answer against the frontier card.
func (c *Controller) SubmitAnswer(ctx context.Context, answer exploration.UserAnswer) (AnswerOutcome, error) {
	if err := c.acquire(); err != nil {
		return AnswerOutcome{}, err
	}
	defer c.busy.Release(1)

	s := c.current()
	if s == nil {
		return AnswerOutcome{}, exploration.InvalidState("Cannot submit an answer if an exploration is not being played.")
	}
	d := s.deck
	if !d.atFrontier() {
		return AnswerOutcome{}, exploration.InvalidState("Cannot submit an answer while viewing a previous state.")
	}
	top := d.top()
	if top.state.IsTerminal() {
		return AnswerOutcome{}, exploration.InvalidState("Cannot submit an answer to a terminal state.")
	}
	if top.completed {
		return AnswerOutcome{}, exploration.InvalidState("Cannot submit an answer to a completed state.")
	}

	cls, err := c.deps.Classifier.Classify(ctx, &top.state.Interaction, answer)
	if err != nil {
		c.deps.Reporter.ReportNonFatal(component, err)
		return AnswerOutcome{}, fmt.Errorf("classify answer: %w", err)
	}

	now := c.deps.Clock.Now()
	next := top.withAnswer(exploration.AnswerAndFeedback{
		Answer:      answer,
		Feedback:    cls.FeedbackHTML,
		IsCorrect:   cls.IsCorrect,
		Destination: cls.DestinationName,
	})
	if transitions(top.state, cls.DestinationName) {
		if _, err := s.exploration.State(cls.DestinationName); err != nil {
			c.deps.Reporter.ReportNonFatal(component, err)
			return AnswerOutcome{}, err
		}
		next.completed = true
		next.dest = cls.DestinationName
	} else {
		next.tracker.RecordWrongAnswer(now, c.deps.Policy)
	}

	c.commit(ctx, s, d.replaceTop(next), true)
	return AnswerOutcome{
		Feedback:       cls.FeedbackHTML,
		IsCorrect:      cls.IsCorrect,
		StateCompleted: next.completed,
		Destination:    cls.DestinationName,
	}, nil
}

// MoveToNextState views the next card. Inside the history this only moves
// the view; at the frontier the card must be completed, and its
// destination becomes the new frontier.
func (c *Controller) MoveToNextState(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.busy.Release(1)

	s := c.current()
	if s == nil {
		return exploration.InvalidState("Cannot navigate to next state if an exploration is not being played.")
	}
	d := s.deck
	if !d.atFrontier() {
		c.commit(ctx, s, d.withView(d.view+1), false)
		return nil
	}

	top := d.top()
	if !top.completed {
		return exploration.InvalidState("Cannot navigate to next state; at most recent state.")
	}
	st, err := s.exploration.State(top.dest)
	if err != nil {
		return err
	}
	c.commit(ctx, s, d.push(newCard(st, c.deps.Clock.Now())), true)
	return nil
}

// MoveToPreviousState views the card before the current one.
func (c *Controller) MoveToPreviousState(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.busy.Release(1)

	s := c.current()
	if s == nil {
		return exploration.InvalidState("Cannot navigate to previous state if an exploration is not being played.")
	}
	d := s.deck
	if d.view == 0 {
		return exploration.InvalidState("Cannot navigate to previous state; at initial state.")
	}
	c.commit(ctx, s, d.withView(d.view-1), false)
	return nil
}

// SubmitHintIsRevealed records that hint i was viewed on the frontier card.
func (c *Controller) SubmitHintIsRevealed(ctx context.Context, i int) error {
	return c.reveal(ctx, "hint", func(t *hints.Tracker, now time.Time) error {
		return t.RevealHint(i, now, c.deps.Policy)
	})
}

// SubmitSolutionIsRevealed records that the solution was viewed on the
// frontier card.
func (c *Controller) SubmitSolutionIsRevealed(ctx context.Context) error {
	return c.reveal(ctx, "solution", func(t *hints.Tracker, now time.Time) error {
		return t.RevealSolution(now, c.deps.Policy)
	})
}

func (c *Controller) reveal(ctx context.Context, what string, fn func(*hints.Tracker, time.Time) error) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.busy.Release(1)

	s := c.current()
	if s == nil {
		return exploration.InvalidState(fmt.Sprintf("Cannot reveal %s if an exploration is not being played.", what))
	}
	d := s.deck
	if !d.atFrontier() {
		return exploration.InvalidState(fmt.Sprintf("Cannot reveal %s while viewing a previous state.", what))
	}
	top := d.top()
	if top.completed || top.state.IsTerminal() {
		return exploration.InvalidState(fmt.Sprintf("Cannot reveal %s for a state that is not pending.", what))
	}
	if err := fn(&top.tracker, c.deps.Clock.Now()); err != nil {
		return err
	}
	c.commit(ctx, s, d.replaceTop(top), true)
	return nil
}

// commit publishes d as the session's deck, optionally checkpointing it
// first. Readers see the deck and its checkpoint state change together.
// Callers hold the busy semaphore.
func (c *Controller) commit(ctx context.Context, s *session, d deck, save bool) {
	var (
		state checkpoint.State
		saved bool
	)
	if save && s.savePartial {
		state, saved = c.saveCheckpoint(ctx, s, d), true
	}

	c.mu.Lock()
	s.deck = d
	if saved {
		s.checkpointState = state
	}
	c.mu.Unlock()
	c.publish()
}

func (c *Controller) saveCheckpoint(ctx context.Context, s *session, d deck) checkpoint.State {
	s.seq++
	cp := buildCheckpoint(s, d, c.deps.Clock.Now(), c.deps.Policy)

	state, err := c.deps.Checkpoints.Save(ctx, s.profileID, s.exploration.ID, cp)
	if err != nil {
		c.logger.Error("checkpoint save failed",
			zap.String("session_id", s.id),
			zap.Int64("sequence", cp.Sequence),
			zap.Error(err))
		c.deps.Reporter.ReportNonFatal(component, err)
		return checkpoint.Unsaved
	}
	return state
}

func buildCheckpoint(s *session, d deck, now time.Time, p hints.Policy) checkpoint.Checkpoint {
	top := d.top()
	completed := make([]checkpoint.CompletedState, 0, d.frontier())
	for _, cd := range d.cards[:d.frontier()] {
		completed = append(completed, checkpoint.CompletedState{StateName: cd.state.Name, Answers: cd.answers})
	}
	return checkpoint.Checkpoint{
		Version:            checkpoint.RecordVersion,
		SessionID:          s.id,
		Sequence:           s.seq,
		ExplorationTitle:   s.exploration.Title,
		ExplorationVersion: s.exploration.Version,
		PendingStateName:   top.state.Name,
		StateIndex:         d.frontier(),
		CompletedStates:    completed,
		PendingUserAnswers: top.answers,
		HelpIndex:          top.tracker.HelpIndex(now, p),
		TimestampMs:        now.UnixMilli(),
	}
}

// CheckpointStateToExit reports whether leaving now loses progress:
// ErrProgressNotSaved when the latest state is not checkpointed, a wrapped
// ErrQuotaExceeded when it is but the store is over quota, nil otherwise.
func (c *Controller) CheckpointStateToExit() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	switch c.session.checkpointState {
	case checkpoint.Unsaved:
		return exploration.ErrProgressNotSaved
	case checkpoint.SavedDatabaseExceededLimit:
		return fmt.Errorf("exploration %s: %w", c.session.exploration.ID, exploration.ErrQuotaExceeded)
	default:
		return nil
	}
}

// StopPlayingExploration ends the session. On completion the saved
// checkpoint is deleted. Stopping while idle does nothing.
func (c *Controller) StopPlayingExploration(ctx context.Context, isCompletion bool) error {
	if err := c.busy.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.busy.Release(1)

	s := c.current()
	if s == nil {
		return nil
	}

	if isCompletion {
		err := c.deps.Checkpoints.Delete(ctx, s.profileID, s.exploration.ID)
		if err != nil && !errors.Is(err, exploration.ErrNotFound) {
			c.logger.Error("checkpoint delete failed", zap.String("session_id", s.id), zap.Error(err))
			c.deps.Reporter.ReportNonFatal(component, err)
		}
	}

	c.mu.Lock()
	c.session = nil
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.mu.Unlock()

	c.logger.Info("exploration stopped",
		zap.String("session_id", s.id),
		zap.Bool("completed", isCompletion))
	if c.deps.Listener != nil {
		c.deps.Listener.OnExplorationEnded(ctx)
	}
	return nil
}
