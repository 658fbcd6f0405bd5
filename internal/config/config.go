// Package config loads player configuration from an optional YAML file, a
// .env file and LESSONPLAYER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/abhisek/lessonplayer/internal/checkpoint"
	"github.com/abhisek/lessonplayer/internal/hints"
	"github.com/abhisek/lessonplayer/internal/learningtime"
	"github.com/abhisek/lessonplayer/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LESSONPLAYER"

// Config holds application configuration.
type Config struct {
	Env          string             `mapstructure:"env" validate:"required"`         // local, production
	ContentDir   string             `mapstructure:"content_dir" validate:"required"` // directory of <exploration_id>.json files
	LogFile      string             `mapstructure:"log_file"`                        // interactive commands only; defaults next to the database
	Store        store.Config       `mapstructure:"store"`
	Checkpoint   CheckpointConfig   `mapstructure:"checkpoint"`
	Hints        hints.Policy       `mapstructure:"hints"`
	LearningTime LearningTimeConfig `mapstructure:"learning_time"`
}

// CheckpointConfig controls checkpoint persistence.
type CheckpointConfig struct {
	QuotaBytes          int64 `mapstructure:"quota_bytes" validate:"gt=0"`
	SavePartialProgress bool  `mapstructure:"save_partial_progress"`
}

// LearningTimeConfig controls learning time aggregation.
type LearningTimeConfig struct {
	StalenessWindow time.Duration `mapstructure:"staleness_window" validate:"gt=0"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Env:        "local",
		ContentDir: "content",
		Store:      store.Config{Backend: store.BackendSQLite},
		Checkpoint: CheckpointConfig{
			QuotaBytes:          checkpoint.DefaultQuotaBytes,
			SavePartialProgress: true,
		},
		Hints:        hints.DefaultPolicy(),
		LearningTime: LearningTimeConfig{StalenessWindow: learningtime.DefaultStalenessWindow},
	}
}

// Load reads configuration. file names an explicit YAML file; when empty,
// ./config/lessonplayer.yaml is used if it exists.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("lessonplayer")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
	}

	d := DefaultConfig()
	v.SetDefault("env", d.Env)
	v.SetDefault("content_dir", d.ContentDir)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("checkpoint.quota_bytes", d.Checkpoint.QuotaBytes)
	v.SetDefault("checkpoint.save_partial_progress", d.Checkpoint.SavePartialProgress)
	v.SetDefault("hints.initial_delay", d.Hints.InitialDelay)
	v.SetDefault("hints.additional_delay", d.Hints.AdditionalDelay)
	v.SetDefault("hints.wrong_answer_delay", d.Hints.WrongAnswerDelay)
	v.SetDefault("hints.wrong_answers_before_hint", d.Hints.WrongAnswersBeforeHelp)
	v.SetDefault("learning_time.staleness_window", d.LearningTime.StalenessWindow)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
