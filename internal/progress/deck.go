package progress

import (
	"slices"
	"time"

	"github.com/abhisek/lessonplayer/internal/exploration"
	"github.com/abhisek/lessonplayer/internal/hints"
)

// card is one visited lesson card. Cards are never modified in place once
// they are part of a deck.
type card struct {
	state     *exploration.State
	answers   []exploration.AnswerAndFeedback
	completed bool
	dest      string
	tracker   hints.Tracker
}

func newCard(s *exploration.State, now time.Time) card {
	return card{state: s, tracker: hints.ForState(s, now)}
}

// withAnswer returns a copy of c with a appended.
func (c card) withAnswer(a exploration.AnswerAndFeedback) card {
	c.answers = append(slices.Clip(c.answers), a)
	return c
}

// wrongAnswers counts answers that kept the learner on the card.
func (c card) wrongAnswers() int {
	n := 0
	for _, a := range c.answers {
		if !transitions(c.state, a.Destination) {
			n++
		}
	}
	return n
}

// transitions reports whether dest moves the learner off s.
func transitions(s *exploration.State, dest string) bool {
	return dest != exploration.SameState && dest != s.Name
}

// deck is the path taken through an exploration plus the viewed position.
// The last card is the frontier. A deck value is immutable; every mutation
// returns a new deck sharing no writable state with the old one.
type deck struct {
	cards []card
	view  int
}

func newDeck(first card) deck {
	return deck{cards: []card{first}}
}

func (d deck) frontier() int { return len(d.cards) - 1 }

func (d deck) atFrontier() bool { return d.view == d.frontier() }

func (d deck) viewed() card { return d.cards[d.view] }

func (d deck) top() card { return d.cards[d.frontier()] }

// replaceTop returns a deck whose frontier card is c.
func (d deck) replaceTop(c card) deck {
	cards := slices.Clone(d.cards)
	cards[len(cards)-1] = c
	return deck{cards: cards, view: d.view}
}

// push appends c as the new frontier and views it.
func (d deck) push(c card) deck {
	cards := append(slices.Clip(d.cards), c)
	return deck{cards: cards, view: len(cards) - 1}
}

func (d deck) withView(i int) deck {
	return deck{cards: d.cards, view: i}
}
