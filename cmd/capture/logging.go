package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mgomes/bindcapture/capture"
)

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.DisableStacktrace = true
	return config.Build()
}

func traceSteps(logger *zap.Logger) func(capture.Step) {
	return func(s capture.Step) {
		logger.Debug("iteration",
			zap.Int("index", s.Index),
			zap.Int("value", s.Value),
			zap.Bool("captured", s.Captured),
		)
	}
}
