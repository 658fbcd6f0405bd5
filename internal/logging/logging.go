// Package logging builds the zap logger and the non-fatal error reporter.
package logging

import (
	"go.uber.org/zap"
)

// New returns a JSON production logger when env is "production" and a
// human-readable development logger otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}

// NewFile is New writing to path instead of stderr. The terminal UI owns
// the screen, so interactive commands log here.
func NewFile(env, path string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

// Reporter records non-fatal failures in the log.
type Reporter struct {
	logger *zap.Logger
}

func NewReporter(logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{logger: logger.Named("exceptions")}
}

func (r *Reporter) ReportNonFatal(component string, err error) {
	r.logger.Error("non-fatal exception", zap.String("component", component), zap.Error(err))
}
