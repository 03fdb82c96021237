package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ReleaseMode selects the JSON production logger
const ReleaseMode = "release"

// New builds a logger for the given mode. "release" logs JSON at info level,
// anything else logs colored console output at debug level.
func New(mode string) (*zap.Logger, error) {
	var config zap.Config

	if mode == ReleaseMode {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return config.Build()
}

// Sync flushes buffered entries, ignoring the error stderr returns on some terminals
func Sync(logger *zap.Logger) {
	if logger != nil {
		_ = logger.Sync()
	}
}
