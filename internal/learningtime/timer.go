package learningtime

import (
	"context"
	"sync"

	"github.com/abhisek/lessonplayer/internal/exploration"
	"go.uber.org/zap"
)

// SessionTimer drives a Controller from exploration and app lifecycle
// events. Time only accrues while an exploration is open and the app is in
// the foreground. Repeated lifecycle events are no-ops.
type SessionTimer struct {
	ctrl     *Controller
	reporter exploration.ExceptionReporter
	logger   *zap.Logger

	mu         sync.Mutex
	foreground bool
	started    bool
	profileID  string
	topicID    string
}

// NewSessionTimer returns a timer that assumes the app starts in the
// foreground.
func NewSessionTimer(ctrl *Controller, reporter exploration.ExceptionReporter, logger *zap.Logger) *SessionTimer {
	if reporter == nil {
		reporter = exploration.NopReporter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionTimer{
		ctrl:       ctrl,
		reporter:   reporter,
		logger:     logger.Named("session_timer"),
		foreground: true,
	}
}

func (s *SessionTimer) OnExplorationStarted(_ context.Context, profileID, topicID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.started = true
	s.profileID = profileID
	s.topicID = topicID
	if s.foreground {
		s.ctrl.SetExplorationSessionStarted(profileID, topicID)
	}
}

func (s *SessionTimer) OnExplorationEnded(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	if s.foreground {
		s.stop(ctx)
	}
}

func (s *SessionTimer) OnAppInBackground(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.foreground {
		return
	}
	s.foreground = false
	if s.started {
		s.stop(ctx)
	}
}

func (s *SessionTimer) OnAppInForeground(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.foreground {
		return
	}
	s.foreground = true
	if s.started {
		s.ctrl.SetExplorationSessionStarted(s.profileID, s.topicID)
	}
}

func (s *SessionTimer) stop(ctx context.Context) {
	if err := s.ctrl.SetExplorationSessionStopped(ctx); err != nil {
		s.logger.Error("failed to record learning time", zap.String("topic_id", s.topicID), zap.Error(err))
		s.reporter.ReportNonFatal("session_timer", err)
	}
}
