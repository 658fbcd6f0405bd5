package exploration

import "context"

// Loader loads lesson content by id. Unknown ids fail with ErrNotFound.
type Loader interface {
	LoadExploration(ctx context.Context, id string) (*Exploration, error)
}

// Classification is a classifier's verdict on one answer.
type Classification struct {
	IsCorrect       bool
	FeedbackHTML    string
	DestinationName string
}

// Classifier scores a submitted answer against a card's interaction.
// DestinationName is SameState when the answer keeps the learner on the card.
type Classifier interface {
	Classify(ctx context.Context, interaction *Interaction, answer UserAnswer) (Classification, error)
}

// ExceptionReporter receives failures that are also returned to callers, so
// they can be recorded out of band.
type ExceptionReporter interface {
	ReportNonFatal(component string, err error)
}

// NopReporter discards reports.
type NopReporter struct{}

func (NopReporter) ReportNonFatal(string, error) {}
