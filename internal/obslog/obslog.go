// Package obslog builds the zap loggers threaded explicitly through the
// tagging pipeline. Nothing here is a package-level global: every
// component that logs takes a *zap.Logger in its constructor.
package obslog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger appropriate for STYLETAG_ENV ("production" by
// default; "development" for human-readable console output).
func New() (*zap.Logger, error) {
	if os.Getenv("STYLETAG_ENV") == "development" {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	return zap.NewProduction()
}

// NoOp returns a logger that discards everything, for tests and library
// callers that don't want the pipeline writing to stderr.
func NoOp() *zap.Logger {
	return zap.NewNop()
}
