package hints

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHintRevealed(t *testing.T) {
	tests := []struct {
		name string
		idx  HelpIndex
		hint int
		want bool
	}{
		{"not set", HelpIndex{}, 0, false},
		{"next available, same index", NextAvailableHintIndex(1), 1, false},
		{"next available, earlier index", NextAvailableHintIndex(1), 0, true},
		{"next available, later index", NextAvailableHintIndex(1), 2, false},
		{"latest revealed, same index", LatestRevealedHintIndex(1), 1, true},
		{"latest revealed, earlier index", LatestRevealedHintIndex(1), 0, true},
		{"latest revealed, later index", LatestRevealedHintIndex(1), 2, false},
		{"show solution", ShowSolutionIndex(), 2, true},
		{"everything revealed", EverythingRevealedIndex(), 2, true},
		{"show solution, out of range", ShowSolutionIndex(), 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.idx.IsHintRevealed(tt.hint, 3); got != tt.want {
				t.Errorf("IsHintRevealed(%d) = %v, want %v", tt.hint, got, tt.want)
			}
		})
	}
}

func TestVisibleHintCount(t *testing.T) {
	assert.Equal(t, 0, HelpIndex{}.VisibleHintCount(3))
	assert.Equal(t, 1, NextAvailableHintIndex(0).VisibleHintCount(3))
	assert.Equal(t, 2, LatestRevealedHintIndex(1).VisibleHintCount(3))
	assert.Equal(t, 3, ShowSolutionIndex().VisibleHintCount(3))
	assert.Equal(t, 3, NextAvailableHintIndex(5).VisibleHintCount(3))
}

func TestHelpIndex_JSON(t *testing.T) {
	b, err := json.Marshal(NextAvailableHintIndex(2))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"next_available_hint_index","index":2}`, string(b))

	var got HelpIndex
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"everything_revealed"}`), &got))
	assert.Equal(t, EverythingRevealedIndex(), got)

	err = json.Unmarshal([]byte(`{"kind":"bogus"}`), &got)
	assert.Error(t, err)
}
