// Package classify is a rule-based answer classifier for text and numeric
// interactions. Richer interaction types plug in through
// exploration.Classifier.
package classify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/lessonplayer/internal/exploration"
)

// Rule types understood by Classifier.
const (
	RuleEquals         = "Equals"         // case-insensitive text match
	RuleContains       = "Contains"       // case-insensitive substring
	RuleIsEqualTo      = "IsEqualTo"      // numeric equality; "3.50" matches "3.5"
	RuleIsEquivalentTo = "IsEquivalentTo" // fraction equivalence; "2/4" matches "1/2"
)

// Classifier matches answers against answer groups in order, falling back to
// the interaction's default outcome.
type Classifier struct{}

// New returns a Classifier.
func New() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(ctx context.Context, interaction *exploration.Interaction, answer exploration.UserAnswer) (exploration.Classification, error) {
	if err := ctx.Err(); err != nil {
		return exploration.Classification{}, err
	}

	input := strings.TrimSpace(answer.Answer)
	for _, g := range interaction.AnswerGroups {
		for _, r := range g.Rules {
			ok, err := matches(r, input)
			if err != nil {
				return exploration.Classification{}, fmt.Errorf("interaction %s: %w", interaction.ID, err)
			}
			if ok {
				return toClassification(g.Outcome), nil
			}
		}
	}

	if interaction.DefaultOutcome == nil {
		return exploration.Classification{DestinationName: exploration.SameState}, nil
	}
	return toClassification(*interaction.DefaultOutcome), nil
}

func toClassification(o exploration.Outcome) exploration.Classification {
	return exploration.Classification{
		IsCorrect:       o.LabelledCorrect,
		FeedbackHTML:    o.Feedback,
		DestinationName: o.Dest,
	}
}

func matches(r exploration.Rule, input string) (bool, error) {
	if input == "" {
		return false, nil
	}

	switch r.Type {
	case RuleEquals:
		return strings.EqualFold(input, strings.TrimSpace(r.Input)), nil

	case RuleContains:
		return strings.Contains(strings.ToLower(input), strings.ToLower(strings.TrimSpace(r.Input))), nil

	case RuleIsEqualTo:
		want, err := normalizeDecimal(r.Input)
		if err != nil {
			return false, fmt.Errorf("rule input %q: %w", r.Input, err)
		}
		got, err := normalizeDecimal(input)
		if err != nil {
			return false, nil
		}
		return got == want, nil

	case RuleIsEquivalentTo:
		want, err := normalizeFraction(r.Input)
		if err != nil {
			return false, fmt.Errorf("rule input %q: %w", r.Input, err)
		}
		got, err := normalizeFraction(input)
		if err != nil {
			return false, nil
		}
		return got == want, nil

	default:
		return false, fmt.Errorf("unknown rule type %q", r.Type)
	}
}

func normalizeDecimal(s string) (string, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return "", fmt.Errorf("invalid number: %w", err)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

// normalizeFraction reduces "a/b" to lowest terms with the sign on the
// numerator. Whole numbers are treated as "n/1".
func normalizeFraction(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return "", fmt.Errorf("invalid fraction format: %q", s)
		}
		return fmt.Sprintf("%d/1", n), nil
	}

	num, den, err := parseFraction(s)
	if err != nil {
		return "", err
	}
	if den == 0 {
		return "", fmt.Errorf("zero denominator")
	}
	if den < 0 {
		num = -num
		den = -den
	}
	g := gcd(abs(num), den)
	if g == 0 {
		g = 1
	}
	return fmt.Sprintf("%d/%d", num/g, den/g), nil
}

func parseFraction(s string) (int64, int64, error) {
	parts := strings.SplitN(s, "/", 2)
	num, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid numerator: %w", err)
	}
	den, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid denominator: %w", err)
	}
	return num, den, nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
