// Package hints decides when hints and solutions become available to a
// learner. Availability is a pure function of elapsed time and wrong-answer
// counts; nothing is scheduled, so there are no timers to cancel.
package hints

import "fmt"

// Kind discriminates a HelpIndex.
type Kind int

const (
	NotSet Kind = iota
	NextAvailableHint
	LatestRevealedHint
	ShowSolution
	EverythingRevealed
)

var kindNames = map[Kind]string{
	NotSet:             "not_set",
	NextAvailableHint:  "next_available_hint_index",
	LatestRevealedHint: "latest_revealed_hint_index",
	ShowSolution:       "show_solution",
	EverythingRevealed: "everything_revealed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	s, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown help index kind %d", int(k))
	}
	return []byte(s), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown help index kind %q", b)
}

// HelpIndex indicates which hint or solution affordance to offer next.
// Index is meaningful only for NextAvailableHint and LatestRevealedHint.
type HelpIndex struct {
	Kind  Kind `json:"kind"`
	Index int  `json:"index,omitempty"`
}

func NextAvailableHintIndex(i int) HelpIndex {
	return HelpIndex{Kind: NextAvailableHint, Index: i}
}

func LatestRevealedHintIndex(i int) HelpIndex {
	return HelpIndex{Kind: LatestRevealedHint, Index: i}
}

func ShowSolutionIndex() HelpIndex { return HelpIndex{Kind: ShowSolution} }

func EverythingRevealedIndex() HelpIndex { return HelpIndex{Kind: EverythingRevealed} }

func (h HelpIndex) String() string {
	switch h.Kind {
	case NextAvailableHint, LatestRevealedHint:
		return fmt.Sprintf("%s(%d)", h.Kind, h.Index)
	default:
		return h.Kind.String()
	}
}

// IsHintRevealed reports whether hint i has already been viewed on a card
// with hintCount hints.
func (h HelpIndex) IsHintRevealed(i, hintCount int) bool {
	switch h.Kind {
	case NextAvailableHint:
		return i < h.Index
	case LatestRevealedHint:
		return i <= h.Index
	case ShowSolution, EverythingRevealed:
		return i < hintCount
	default:
		return false
	}
}

// VisibleHintCount is the number of leading hints a UI should list, which
// includes the next available (not yet viewed) hint.
func (h HelpIndex) VisibleHintCount(hintCount int) int {
	var n int
	switch h.Kind {
	case NextAvailableHint, LatestRevealedHint:
		n = h.Index + 1
	case ShowSolution, EverythingRevealed:
		n = hintCount
	}
	return min(n, hintCount)
}

// IsSolutionRevealed reports whether the solution has been viewed.
func (h HelpIndex) IsSolutionRevealed() bool {
	return h.Kind == EverythingRevealed
}
