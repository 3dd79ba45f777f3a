package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. Format "json" selects the production encoder, anything
// else the human-readable console encoder.
func New(level, format string) (logger *zap.Logger, err error) {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err = cfg.Build()
	return logger, err
}

// ParseLevel maps a level name to a zap level, defaulting to info.
func ParseLevel(level string) (result zapcore.Level) {
	switch level {
	case "debug":
		result = zapcore.DebugLevel
	case "warn":
		result = zapcore.WarnLevel
	case "error":
		result = zapcore.ErrorLevel
	default:
		result = zapcore.InfoLevel
	}
	return result
}

// Nop returns l, or a no-op logger when l is nil.
func Nop(l *zap.Logger) (result *zap.Logger) {
	result = l
	if result == nil {
		result = zap.NewNop()
	}
	return result
}
