// Package exploration defines the lesson model played by the session engine
// and the collaborators the engine depends on: a content loader, an answer
// classifier and an exception reporter.
package exploration

import "fmt"

// EndExplorationInteraction marks a state as the last card of a lesson.
const EndExplorationInteraction = "EndExploration"

// SameState is the destination reported by a classifier when an answer does
// not move the learner to another card.
const SameState = ""

// Exploration is an interactive lesson composed of named cards.
type Exploration struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	TopicID          string            `json:"topic_id,omitempty"`
	Version          int               `json:"version"`
	InitialStateName string            `json:"init_state_name"`
	States           map[string]*State `json:"states"`
}

// State is one card of an exploration.
type State struct {
	Name        string      `json:"name"`
	Content     string      `json:"content"`
	Interaction Interaction `json:"interaction"`
}

// Interaction describes how the learner answers a card.
type Interaction struct {
	ID             string        `json:"id"`
	AnswerGroups   []AnswerGroup `json:"answer_groups,omitempty"`
	DefaultOutcome *Outcome      `json:"default_outcome,omitempty"`
	Hints          []Hint        `json:"hints,omitempty"`
	Solution       *Solution     `json:"solution,omitempty"`
}

// AnswerGroup pairs matching rules with the outcome they trigger.
type AnswerGroup struct {
	Rules   []Rule  `json:"rules"`
	Outcome Outcome `json:"outcome"`
}

// Rule is a single answer-matching rule. Its meaning depends on the classifier.
type Rule struct {
	Type  string `json:"type"`
	Input string `json:"input"`
}

// Outcome is what happens after an answer group matches.
type Outcome struct {
	Dest            string `json:"dest"`
	Feedback        string `json:"feedback"`
	LabelledCorrect bool   `json:"labelled_as_correct"`
}

// Hint is an authored hint for a card.
type Hint struct {
	Content string `json:"content"`
}

// Solution is an authored solution for a card.
type Solution struct {
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// UserAnswer is an answer as submitted by the learner.
type UserAnswer struct {
	Answer      string `json:"answer"`
	PlainAnswer string `json:"plain_answer,omitempty"`
}

// AnswerAndFeedback is a submitted answer together with the classifier's verdict.
type AnswerAndFeedback struct {
	Answer      UserAnswer `json:"answer"`
	Feedback    string     `json:"feedback,omitempty"`
	IsCorrect   bool       `json:"is_correct,omitempty"`
	Destination string     `json:"destination,omitempty"`
}

// Transitions reports whether the answer moved the learner off its card.
func (a AnswerAndFeedback) Transitions() bool {
	return a.Destination != SameState
}

// IsTerminal reports whether s is the final card of its exploration.
func (s *State) IsTerminal() bool {
	return s.Interaction.ID == EndExplorationInteraction
}

// HasSolution reports whether the card has an authored solution.
func (s *State) HasSolution() bool {
	return s.Interaction.Solution != nil
}

// OffersHelp reports whether the card has any hint or solution to show.
func (s *State) OffersHelp() bool {
	return len(s.Interaction.Hints) > 0 || s.HasSolution()
}

// Topic returns the topic learning time is credited to. Explorations
// without a topic count as their own.
func (e *Exploration) Topic() string {
	if e.TopicID != "" {
		return e.TopicID
	}
	return e.ID
}

// State returns the card with the given name.
func (e *Exploration) State(name string) (*State, error) {
	s, ok := e.States[name]
	if !ok {
		return nil, fmt.Errorf("%w: state %q in exploration %q", ErrNotFound, name, e.ID)
	}
	return s, nil
}

// InitialState returns the first card of the exploration.
func (e *Exploration) InitialState() (*State, error) {
	return e.State(e.InitialStateName)
}

// Validate checks that the exploration is playable: the initial state exists
// and every destination names a known state.
func (e *Exploration) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("exploration has no id")
	}
	if _, err := e.InitialState(); err != nil {
		return err
	}
	for name, s := range e.States {
		if s.Name == "" {
			s.Name = name
		}
		if s.Name != name {
			return fmt.Errorf("state %q is registered under %q", s.Name, name)
		}
		for _, g := range s.Interaction.AnswerGroups {
			if err := e.checkDest(name, g.Outcome.Dest); err != nil {
				return err
			}
		}
		if d := s.Interaction.DefaultOutcome; d != nil {
			if err := e.checkDest(name, d.Dest); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Exploration) checkDest(from, dest string) error {
	if dest == SameState || dest == from {
		return nil
	}
	if _, ok := e.States[dest]; !ok {
		return fmt.Errorf("%w: state %q links to unknown state %q", ErrNotFound, from, dest)
	}
	return nil
}
