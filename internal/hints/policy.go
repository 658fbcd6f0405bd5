package hints

import "time"

// Policy holds the escalation thresholds.
type Policy struct {
	// InitialDelay is how long a learner may sit on a fresh card before the
	// first help item becomes available.
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"gt=0"`

	// AdditionalDelay applies after a reveal when no wrong answer followed it.
	AdditionalDelay time.Duration `mapstructure:"additional_delay" validate:"gt=0"`

	// WrongAnswerDelay applies after a reveal, measured from the latest wrong
	// answer, once at least one wrong answer followed the reveal.
	WrongAnswerDelay time.Duration `mapstructure:"wrong_answer_delay" validate:"gt=0"`

	// WrongAnswersBeforeHelp escalates immediately once this many wrong
	// answers were submitted since the card started or since the last reveal.
	WrongAnswersBeforeHelp int `mapstructure:"wrong_answers_before_hint" validate:"gte=1"`
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay:           60 * time.Second,
		AdditionalDelay:        30 * time.Second,
		WrongAnswerDelay:       10 * time.Second,
		WrongAnswersBeforeHelp: 2,
	}
}
