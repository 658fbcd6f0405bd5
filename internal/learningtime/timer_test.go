package learningtime

import (
	"context"
	"testing"
	"time"

	"github.com/abhisek/lessonplayer/internal/clock"
	"github.com/stretchr/testify/assert"
)

func newTestTimer(t *testing.T) (*SessionTimer, *Controller, *clock.Fake) {
	t.Helper()
	c, clk := newTestController(t)
	return NewSessionTimer(c, nil, nil), c, clk
}

func TestSessionTimer_StartThenEnd(t *testing.T) {
	timer, c, clk := newTestTimer(t)
	ctx := context.Background()

	timer.OnExplorationStarted(ctx, profile, topic)
	clk.Advance(5 * time.Second)
	timer.OnExplorationEnded(ctx)

	assert.Equal(t, int64(5000), aggregate(t, c).TopicLearningTimeMs)
	assert.False(t, c.IsRunning())
}

func TestSessionTimer_BackgroundRecordsElapsed(t *testing.T) {
	timer, c, clk := newTestTimer(t)
	ctx := context.Background()

	timer.OnExplorationStarted(ctx, profile, topic)
	clk.Advance(5 * time.Second)
	timer.OnAppInBackground(ctx)

	assert.Equal(t, int64(5000), aggregate(t, c).TopicLearningTimeMs)

	// Time in the background does not count.
	clk.Advance(time.Hour)
	timer.OnAppInBackground(ctx)
	assert.Equal(t, int64(5000), aggregate(t, c).TopicLearningTimeMs)
}

func TestSessionTimer_BackgroundForegroundEnd(t *testing.T) {
	timer, c, clk := newTestTimer(t)
	ctx := context.Background()

	timer.OnExplorationStarted(ctx, profile, topic)
	clk.Advance(5 * time.Second)
	timer.OnAppInBackground(ctx)
	clk.Advance(time.Minute)
	timer.OnAppInForeground(ctx)
	clk.Advance(3 * time.Second)
	timer.OnExplorationEnded(ctx)

	assert.Equal(t, int64(8000), aggregate(t, c).TopicLearningTimeMs)
}

func TestSessionTimer_ForegroundWhileForegroundIsNoop(t *testing.T) {
	timer, c, clk := newTestTimer(t)
	ctx := context.Background()

	timer.OnExplorationStarted(ctx, profile, topic)
	clk.Advance(5 * time.Second)
	timer.OnAppInForeground(ctx)
	clk.Advance(5 * time.Second)
	timer.OnExplorationEnded(ctx)

	assert.Equal(t, int64(10000), aggregate(t, c).TopicLearningTimeMs)
}

func TestSessionTimer_StartedInBackground(t *testing.T) {
	timer, c, clk := newTestTimer(t)
	ctx := context.Background()

	timer.OnAppInBackground(ctx)
	timer.OnExplorationStarted(ctx, profile, topic)
	assert.False(t, c.IsRunning())

	clk.Advance(time.Minute)
	timer.OnAppInForeground(ctx)
	clk.Advance(2 * time.Second)
	timer.OnExplorationEnded(ctx)

	assert.Equal(t, int64(2000), aggregate(t, c).TopicLearningTimeMs)
}

func TestSessionTimer_EndWithoutStartIsNoop(t *testing.T) {
	timer, c, _ := newTestTimer(t)
	timer.OnExplorationEnded(context.Background())
	assert.Equal(t, int64(0), aggregate(t, c).TopicLearningTimeMs)
}
