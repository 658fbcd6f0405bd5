package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"production", "local"} {
		l, err := New(env)
		require.NoError(t, err, env)
		assert.NotNil(t, l)
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.log")
	l, err := NewFile("production", path)
	require.NoError(t, err)

	l.Info("exploration started", zap.String("exploration_id", "fractions_0"))
	_ = l.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"exploration_id":"fractions_0"`)
}

func TestReporter(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := NewReporter(zap.New(core))

	r.ReportNonFatal("exploration_progress", errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "non-fatal exception", entries[0].Message)
	assert.Equal(t, "exploration_progress", entries[0].ContextMap()["component"])
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
}

func TestReporter_NilLogger(t *testing.T) {
	NewReporter(nil).ReportNonFatal("x", errors.New("ignored"))
}
