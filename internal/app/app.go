// Package app wires the player services together and runs the terminal UI.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/lessonplayer/internal/checkpoint"
	"github.com/abhisek/lessonplayer/internal/classify"
	"github.com/abhisek/lessonplayer/internal/clock"
	"github.com/abhisek/lessonplayer/internal/config"
	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/learningtime"
	"github.com/abhisek/lessonplayer/internal/logging"
	"github.com/abhisek/lessonplayer/internal/progress"
	"github.com/abhisek/lessonplayer/internal/store"
)

// App holds the long-lived services shared by every command.
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Store        store.KV
	Loader       exploration.FileLoader
	Checkpoints  *checkpoint.Controller
	LearningTime *learningtime.Controller
	Timer        *learningtime.SessionTimer
	Sessions     *progress.Registry
}

// New opens the configured store and builds the services on top of it.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	kv, err := store.Open(cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	clk := clock.Real{}
	cps, err := checkpoint.New(kv, cfg.Checkpoint.QuotaBytes, clk, logger)
	if err != nil {
		kv.Close()
		return nil, err
	}

	reporter := logging.NewReporter(logger)
	lt := learningtime.New(kv, clk, cfg.LearningTime.StalenessWindow, logger)
	timer := learningtime.NewSessionTimer(lt, reporter, logger)
	loader := exploration.FileLoader{Dir: cfg.ContentDir}

	return &App{
		Config:       cfg,
		Logger:       logger,
		Store:        kv,
		Loader:       loader,
		Checkpoints:  cps,
		LearningTime: lt,
		Timer:        timer,
		Sessions: progress.NewRegistry(progress.Deps{
			Loader:      loader,
			Classifier:  classify.New(),
			Checkpoints: cps,
			Listener:    timer,
			Reporter:    reporter,
			Clock:       clk,
			Policy:      cfg.Hints,
			Logger:      logger,
		}),
	}, nil
}

// Close stops any session still playing, keeping its checkpoint, and
// closes the store.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Sessions.StopAll(ctx), a.Store.Close())
}
