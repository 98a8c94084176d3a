// Package logging builds the process-wide zap logger from a verbosity name.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels accepted by New, from quietest to loudest.
var Levels = []string{"error", "info", "debug"}

// ParseLevel maps error|info|debug to a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	switch name {
	case "error":
		return zapcore.ErrorLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("неизвестный уровень логирования %q (ожидается error|info|debug)", name)
}

// New returns a console logger writing to stderr and installs it as the zap
// global, so zap.L() sees the same configuration.
func New(level string) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = lvl != zapcore.DebugLevel
	cfg.Sampling = nil

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log, nil
}
