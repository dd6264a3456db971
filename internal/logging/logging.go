// Package logging builds the logr logger shared by every package.
package logging

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a zap-backed logger. level is a zap level name ("debug" enables
// V(1) detail); development switches to the console encoder. Output goes to
// stderr so it never mixes with printed traces.
func New(level string, development bool) (logr.Logger, func(), error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zapcore.ParseLevel(level); err != nil {
			return logr.Discard(), func() {}, fmt.Errorf("log level: %w", err)
		}
	}

	zapConfig := zap.NewProductionConfig()
	if development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	zapConfig.OutputPaths = []string{"stderr"}
	zapLogger, err := zapConfig.Build()
	if err != nil {
		return logr.Discard(), func() {}, err
	}
	return zapr.NewLogger(zapLogger), func() { _ = zapLogger.Sync() }, nil
}
