package hints

import "time"

// Input is everything the calculator needs about the current card.
type Input struct {
	HintCount   int
	HasSolution bool

	// RevealedHints is how many hints have been viewed, in order.
	RevealedHints    int
	SolutionRevealed bool

	// WrongAnswers counts wrong answers since the card became pending, or
	// since the last reveal once one happened.
	WrongAnswers int

	// Idle is the time since the card became pending or since the last reveal.
	Idle time.Duration

	// SinceLastWrong is the time since the latest wrong answer counted in
	// WrongAnswers. Ignored when WrongAnswers is zero.
	SinceLastWrong time.Duration

	// Unlocked is set when the next help item was already made available,
	// e.g. restored from a checkpoint. Availability never regresses.
	Unlocked bool
}

// Compute returns the help index for a card.
func Compute(in Input, p Policy) HelpIndex {
	if in.HintCount == 0 && !in.HasSolution {
		return HelpIndex{}
	}
	if in.SolutionRevealed {
		return EverythingRevealedIndex()
	}

	var next HelpIndex
	switch {
	case in.RevealedHints < in.HintCount:
		next = NextAvailableHintIndex(in.RevealedHints)
	case in.HasSolution:
		next = ShowSolutionIndex()
	default:
		// Every hint was viewed and there is no solution to escalate to.
		return LatestRevealedHintIndex(in.HintCount - 1)
	}

	if in.Unlocked || escalates(in, p) {
		return next
	}
	if in.RevealedHints == 0 {
		return HelpIndex{}
	}
	return LatestRevealedHintIndex(in.RevealedHints - 1)
}

func escalates(in Input, p Policy) bool {
	if in.WrongAnswers >= p.WrongAnswersBeforeHelp {
		return true
	}
	if in.RevealedHints == 0 {
		return in.Idle >= p.InitialDelay
	}
	if in.WrongAnswers == 0 {
		return in.Idle >= p.AdditionalDelay
	}
	return in.SinceLastWrong >= p.WrongAnswerDelay
}
