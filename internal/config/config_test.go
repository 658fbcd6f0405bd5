package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no stray config or
// .env file is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
	assert.Equal(t, 60*time.Second, cfg.Hints.InitialDelay)
	assert.Equal(t, 240*time.Hour, cfg.LearningTime.StalenessWindow)
}

func TestLoad_File(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "custom.yaml")
	yaml := `
env: production
store:
  backend: badger
  path: /tmp/lp
checkpoint:
  quota_bytes: 150
  save_partial_progress: false
hints:
  initial_delay: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, int64(150), cfg.Checkpoint.QuotaBytes)
	assert.False(t, cfg.Checkpoint.SavePartialProgress)
	assert.Equal(t, 5*time.Second, cfg.Hints.InitialDelay)
	assert.Equal(t, 30*time.Second, cfg.Hints.AdditionalDelay)
}

func TestLoad_Env(t *testing.T) {
	inTempDir(t)
	t.Setenv("LESSONPLAYER_STORE_BACKEND", "memory")
	t.Setenv("LESSONPLAYER_HINTS_WRONG_ANSWERS_BEFORE_HINT", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Hints.WrongAnswersBeforeHelp)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LESSONPLAYER_ENV=staging\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LESSONPLAYER_ENV") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Env)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	inTempDir(t)
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "etcd" }},
		{"zero quota", func(c *Config) { c.Checkpoint.QuotaBytes = 0 }},
		{"zero hint delay", func(c *Config) { c.Hints.InitialDelay = 0 }},
		{"no wrong answers threshold", func(c *Config) { c.Hints.WrongAnswersBeforeHelp = 0 }},
		{"zero staleness window", func(c *Config) { c.LearningTime.StalenessWindow = 0 }},
		{"empty env", func(c *Config) { c.Env = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
