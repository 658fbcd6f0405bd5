package progress

import (
	"context"
	"errors"
	"sync"

	"github.com/abhisek/lessonplayer/internal/exploration"
)

type sessionKey struct {
	profileID     string
	explorationID string
}

// Registry holds one Controller per (profile, exploration) being played.
type Registry struct {
	deps Deps

	mu          sync.Mutex
	controllers map[sessionKey]*Controller
}

// NewRegistry creates an empty registry whose controllers share deps.
func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, controllers: make(map[sessionKey]*Controller)}
}

// Start creates a controller for (profile, exploration) and starts its
// session. Starting a pair that is already playing fails with
// ErrInvalidState.
func (r *Registry) Start(ctx context.Context, profileID, explorationID string, opts SessionOptions) (*Controller, error) {
	key := sessionKey{profileID, explorationID}

	r.mu.Lock()
	if _, ok := r.controllers[key]; ok {
		r.mu.Unlock()
		return nil, exploration.InvalidState("Expected to finish previous exploration before starting a new one.")
	}
	c := New(r.deps)
	r.controllers[key] = c
	r.mu.Unlock()

	if err := c.StartSession(ctx, profileID, explorationID, opts); err != nil {
		r.mu.Lock()
		delete(r.controllers, key)
		r.mu.Unlock()
		return nil, err
	}
	return c, nil
}

// Get returns the controller playing (profile, exploration).
func (r *Registry) Get(profileID, explorationID string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.controllers[sessionKey{profileID, explorationID}]
	return c, ok
}

// Stop ends the session for (profile, exploration) and forgets it. There is
// nothing to do when no such session is playing.
func (r *Registry) Stop(ctx context.Context, profileID, explorationID string, isCompletion bool) error {
	key := sessionKey{profileID, explorationID}

	r.mu.Lock()
	c, ok := r.controllers[key]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	if err := c.StopPlayingExploration(ctx, isCompletion); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.controllers, key)
	r.mu.Unlock()
	return nil
}

// StopAll ends every session without completing it, so each keeps its
// checkpoint. It returns the joined errors of the sessions that failed to
// stop.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	keys := make([]sessionKey, 0, len(r.controllers))
	for k := range r.controllers {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	var errs []error
	for _, k := range keys {
		if err := r.Stop(ctx, k.profileID, k.explorationID, false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of sessions in progress.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}
