package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	Debug bool
}

// NewLogger returns a JSON zap logger writing to stderr. Debug enables debug level
// and caller annotations.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	mergedConfig := zap.NewProductionConfig()
	mergedConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	mergedConfig.EncoderConfig.TimeKey = "timestamp"
	mergedConfig.OutputPaths = []string{"stderr"}

	if cfg.Debug {
		mergedConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		mergedConfig.Development = true
	} else {
		mergedConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		mergedConfig.DisableCaller = true
	}

	return mergedConfig.Build()
}
