// Package logging builds the zap loggers used across drag-warp.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production JSON logger for mode "release" and a colored
// development logger otherwise.
func New(mode string) (*zap.Logger, error) {
	var config zap.Config

	if mode == "release" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return config.Build()
}

// Sync flushes buffered log entries, ignoring the errors stdout/stderr
// return on some platforms.
func Sync(logger *zap.Logger) {
	if logger != nil {
		_ = logger.Sync()
	}
}
