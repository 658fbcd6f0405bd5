package exploration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// MapLoader serves explorations held in memory.
type MapLoader struct {
	mu           sync.RWMutex
	explorations map[string]*Exploration
}

// NewMapLoader returns a loader serving the given explorations.
func NewMapLoader(explorations ...*Exploration) *MapLoader {
	l := &MapLoader{explorations: make(map[string]*Exploration)}
	for _, e := range explorations {
		l.explorations[e.ID] = e
	}
	return l
}

// Add registers or replaces an exploration.
func (l *MapLoader) Add(e *Exploration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.explorations[e.ID] = e
}

func (l *MapLoader) LoadExploration(_ context.Context, id string) (*Exploration, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.explorations[id]
	if !ok {
		return nil, fmt.Errorf("%w: exploration %q", ErrNotFound, id)
	}
	return e, nil
}

// FileLoader reads explorations from <Dir>/<id>.json.
type FileLoader struct {
	Dir string
}

func (l FileLoader) LoadExploration(ctx context.Context, id string) (*Exploration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" || filepath.Base(id) != id {
		return nil, fmt.Errorf("%w: exploration %q", ErrNotFound, id)
	}

	b, err := os.ReadFile(filepath.Join(l.Dir, id+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: exploration %q", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read exploration %q: %w", id, err)
	}
	return Parse(b)
}

// Summary identifies a playable exploration.
type Summary struct {
	ID      string
	Title   string
	TopicID string
}

// List returns the explorations in Dir ordered by id. Files that do not
// parse are skipped.
func (l FileLoader) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("list explorations: %w", err)
	}

	var out []Summary
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, ok := strings.CutSuffix(entry.Name(), ".json")
		if !ok || entry.IsDir() {
			continue
		}
		e, err := l.LoadExploration(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, Summary{ID: id, Title: e.Title, TopicID: e.Topic()})
	}
	slices.SortFunc(out, func(a, b Summary) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// Parse decodes and validates an exploration document.
func Parse(b []byte) (*Exploration, error) {
	var e Exploration
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("decode exploration: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate exploration %q: %w", e.ID, err)
	}
	return &e, nil
}
