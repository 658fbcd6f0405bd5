package exploration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fractionsDoc = `{
  "id": "fractions_0",
  "title": "What is a fraction?",
  "version": 3,
  "init_state_name": "Intro",
  "states": {
    "Intro": {
      "content": "Half of a cake",
      "interaction": {
        "id": "FractionInput",
        "answer_groups": [
          {"rules": [{"type": "IsEquivalentTo", "input": "1/2"}],
           "outcome": {"dest": "End", "feedback": "Yes!", "labelled_as_correct": true}}
        ],
        "default_outcome": {"dest": "", "feedback": "Try again."},
        "hints": [{"content": "Cut it in two."}],
        "solution": {"correct_answer": "1/2", "explanation": "One of two pieces."}
      }
    },
    "End": {"content": "Done", "interaction": {"id": "EndExploration"}}
  }
}`

func TestParse(t *testing.T) {
	e, err := Parse([]byte(fractionsDoc))
	require.NoError(t, err)

	assert.Equal(t, "fractions_0", e.ID)
	assert.Equal(t, 3, e.Version)

	intro, err := e.InitialState()
	require.NoError(t, err)
	assert.Equal(t, "Intro", intro.Name, "state names are filled from map keys")
	assert.True(t, intro.OffersHelp())
	assert.False(t, intro.IsTerminal())

	end, err := e.State("End")
	require.NoError(t, err)
	assert.True(t, end.IsTerminal())
	assert.False(t, end.OffersHelp())
}

func TestParse_UnknownDestination(t *testing.T) {
	doc := `{"id": "x", "init_state_name": "A", "states": {
	  "A": {"interaction": {"id": "TextInput", "default_outcome": {"dest": "Nowhere"}}}}}`

	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParse_MissingInitialState(t *testing.T) {
	_, err := Parse([]byte(`{"id": "x", "init_state_name": "A", "states": {}}`))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fractions_0.json"), []byte(fractionsDoc), 0o644))
	l := FileLoader{Dir: dir}
	ctx := context.Background()

	e, err := l.LoadExploration(ctx, "fractions_0")
	require.NoError(t, err)
	assert.Equal(t, "What is a fraction?", e.Title)

	_, err = l.LoadExploration(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.LoadExploration(ctx, "../fractions_0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileLoader_List(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fractions_0.json"), []byte(fractionsDoc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	got, err := FileLoader{Dir: dir}.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Summary{{ID: "fractions_0", Title: "What is a fraction?", TopicID: "fractions_0"}}, got)

	_, err = FileLoader{Dir: filepath.Join(dir, "missing")}.List(context.Background())
	assert.Error(t, err)
}

func TestMapLoader(t *testing.T) {
	e, err := Parse([]byte(fractionsDoc))
	require.NoError(t, err)
	l := NewMapLoader(e)

	got, err := l.LoadExploration(context.Background(), "fractions_0")
	require.NoError(t, err)
	assert.Same(t, e, got)

	_, err = l.LoadExploration(context.Background(), "other")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStateError(t *testing.T) {
	err := InvalidState("Cannot navigate to previous state; at initial state.")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.EqualError(t, err, "Cannot navigate to previous state; at initial state.")
}
