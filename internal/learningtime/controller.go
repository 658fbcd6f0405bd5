// Package learningtime accumulates foreground time spent in explorations per
// (profile, topic).
package learningtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/abhisek/lessonplayer/internal/clock"
	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultStalenessWindow is how long an aggregate may go without updates
// before it restarts from zero.
const DefaultStalenessWindow = 10 * 24 * time.Hour

// AggregateTopicLearningTime is the stored learning time for a topic.
type AggregateTopicLearningTime struct {
	TopicID             string `json:"topic_id"`
	TopicLearningTimeMs int64  `json:"topic_learning_time_ms"`
	LastUpdatedTimeMs   int64  `json:"last_updated_time_ms"`
}

type stopwatch struct {
	sessionID string
	profileID string
	topicID   string
	startedAt time.Time
}

// Controller times a single exploration session at a time and folds each
// timed interval into the stored aggregate.
type Controller struct {
	kv     store.KV
	clock  clock.Clock
	window time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	running *stopwatch
}

// New creates a Controller. A non-positive window uses DefaultStalenessWindow.
func New(kv store.KV, clk clock.Clock, window time.Duration, logger *zap.Logger) *Controller {
	if clk == nil {
		clk = clock.Real{}
	}
	if window <= 0 {
		window = DefaultStalenessWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{kv: kv, clock: clk, window: window, logger: logger.Named("learningtime")}
}

func recordKey(profileID, topicID string) string {
	return "learningtime/" + url.PathEscape(profileID) + "/" + url.PathEscape(topicID)
}

// SetExplorationSessionStarted starts the stopwatch and returns the timer
// session id. Starting while another stopwatch runs discards the old one.
func (c *Controller) SetExplorationSessionStarted(profileID, topicID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running != nil {
		c.logger.Warn("exploration timer restarted before it was stopped",
			zap.String("session_id", c.running.sessionID),
			zap.String("topic_id", c.running.topicID))
	}
	sw := &stopwatch{
		sessionID: uuid.NewString(),
		profileID: profileID,
		topicID:   topicID,
		startedAt: c.clock.Now(),
	}
	c.running = sw
	return sw.sessionID
}

// IsRunning reports whether a stopwatch is active.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running != nil
}

// SetExplorationSessionStopped stops the stopwatch and adds the elapsed time
// to the topic aggregate.
func (c *Controller) SetExplorationSessionStopped(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sw := c.running
	if sw == nil {
		return exploration.InvalidState("Expected an exploration to have been started.")
	}
	c.running = nil

	elapsed := c.clock.Now().Sub(sw.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return c.record(ctx, sw.profileID, sw.topicID, elapsed)
}

// record merges d into the aggregate. Callers hold c.mu so increments for
// the same key are applied in session order.
func (c *Controller) record(ctx context.Context, profileID, topicID string, d time.Duration) error {
	now := clock.Millis(c.clock)
	err := c.kv.Update(ctx, recordKey(profileID, topicID), func(old []byte, found bool) ([]byte, bool, error) {
		agg := AggregateTopicLearningTime{TopicID: topicID}
		if found {
			if err := json.Unmarshal(old, &agg); err != nil {
				c.logger.Warn("discarding unreadable learning time", zap.String("topic_id", topicID), zap.Error(err))
				agg = AggregateTopicLearningTime{TopicID: topicID}
			}
		}
		if c.isStale(agg.LastUpdatedTimeMs, now) {
			agg.TopicLearningTimeMs = d.Milliseconds()
		} else {
			agg.TopicLearningTimeMs += d.Milliseconds()
		}
		agg.LastUpdatedTimeMs = now

		b, err := json.Marshal(agg)
		return b, true, err
	})
	if err != nil {
		return fmt.Errorf("record learning time for topic %s: %w", topicID, err)
	}
	c.logger.Debug("recorded learning time",
		zap.String("profile_id", profileID),
		zap.String("topic_id", topicID),
		zap.Duration("elapsed", d))
	return nil
}

func (c *Controller) isStale(lastUpdatedMs, nowMs int64) bool {
	return nowMs-lastUpdatedMs > c.window.Milliseconds()
}

// RetrieveAggregateTopicLearningTime returns the stored aggregate, or a zero
// aggregate for the topic when nothing was recorded.
func (c *Controller) RetrieveAggregateTopicLearningTime(ctx context.Context, profileID, topicID string) (AggregateTopicLearningTime, error) {
	b, err := c.kv.Get(ctx, recordKey(profileID, topicID))
	if errors.Is(err, store.ErrNotFound) {
		return AggregateTopicLearningTime{TopicID: topicID}, nil
	}
	if err != nil {
		return AggregateTopicLearningTime{}, fmt.Errorf("retrieve learning time for topic %s: %w", topicID, err)
	}
	var agg AggregateTopicLearningTime
	if err := json.Unmarshal(b, &agg); err != nil {
		return AggregateTopicLearningTime{}, fmt.Errorf("decode learning time for topic %s: %w", topicID, err)
	}
	return agg, nil
}
